package leadsapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Trend periods accepted by the backend.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// DefaultProgramaLimit caps the by-programa breakdown when no limit is given.
const DefaultProgramaLimit = 15

// ValidPeriod reports whether p is a known trend period.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// KPIs fetches the headline counters and records them in the dashboard context.
func (c *Client) KPIs(ctx context.Context, base string) (KPIs, error) {
	var resp KPIs
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/kpis", baseQuery(base), nil, &resp); err != nil {
		return KPIs{}, err
	}
	c.dash.setKPIs(resp)
	return resp, nil
}

// Funnel fetches ordered funnel stages.
func (c *Client) Funnel(ctx context.Context, base string) ([]FunnelStage, error) {
	var resp []FunnelStage
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/funnel", baseQuery(base), nil, &resp); err != nil {
		return nil, err
	}
	c.dash.setFunnel(resp)
	return resp, nil
}

// Trends fetches time buckets for the period, defaulting to weekly buckets.
func (c *Client) Trends(ctx context.Context, period, base string) ([]TrendPoint, error) {
	if strings.TrimSpace(period) == "" {
		period = PeriodWeek
	}
	query := baseQuery(base)
	query.Set("period", period)
	var resp []TrendPoint
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/trends", query, nil, &resp); err != nil {
		return nil, err
	}
	c.dash.setTrends(resp)
	return resp, nil
}

// ByMedio fetches the acquisition channel breakdown.
func (c *Client) ByMedio(ctx context.Context, base string) ([]MedioStat, error) {
	var resp []MedioStat
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/by-medio", baseQuery(base), nil, &resp); err != nil {
		return nil, err
	}
	c.dash.setByMedio(resp)
	return resp, nil
}

// ByPrograma fetches the program breakdown. A non-positive limit uses DefaultProgramaLimit.
func (c *Client) ByPrograma(ctx context.Context, base string, limit int) ([]ProgramaStat, error) {
	if limit <= 0 {
		limit = DefaultProgramaLimit
	}
	query := baseQuery(base)
	query.Set("limit", strconv.Itoa(limit))
	var resp []ProgramaStat
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/by-programa", query, nil, &resp); err != nil {
		return nil, err
	}
	c.dash.setByPrograma(resp)
	return resp, nil
}

// Agents fetches the agent leaderboard as sorted by the backend.
func (c *Client) Agents(ctx context.Context, base string) ([]AgentStat, error) {
	var resp []AgentStat
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/agents", baseQuery(base), nil, &resp); err != nil {
		return nil, err
	}
	c.dash.setAgents(resp)
	return resp, nil
}

// Leads fetches one page of leads. Leads never feed the dashboard context.
func (c *Client) Leads(ctx context.Context, q LeadsQuery) (LeadsPage, error) {
	var resp LeadsPage
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/leads", q.values(), nil, &resp); err != nil {
		return LeadsPage{}, err
	}
	return resp, nil
}

// Bases lists the available data partitions.
func (c *Client) Bases(ctx context.Context) ([]Base, error) {
	var resp []Base
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/bases", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func baseQuery(base string) url.Values {
	query := url.Values{}
	if base = strings.TrimSpace(base); base != "" {
		query.Set("base", base)
	}
	return query
}

func (q LeadsQuery) values() url.Values {
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(q.PerPage))
	}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			query.Set(key, value)
		}
	}
	set("search", q.Search)
	set("medio", q.Medio)
	set("resultado", q.Resultado)
	set("base", q.Base)
	return query
}
