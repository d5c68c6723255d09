package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

// Page titles shown in the layout header.
const (
	TitleOverview = "Overview"
	TitleFunnel   = "Funnel de Gestión"
	TitleLeads    = "Leads"
	TitleAgents   = "Performance de Agentes"
)

// Overview funnel bars never render narrower than this percentage.
const overviewMinBarWidth = 8

// Periods lists the trend toggles in display order.
var Periods = []string{leadsapi.PeriodDay, leadsapi.PeriodWeek, leadsapi.PeriodMonth}

// OverviewState is the fetched state of the overview page.
type OverviewState struct {
	KPIs       leadsapi.KPIs
	Funnel     []leadsapi.FunnelStage
	Trends     []leadsapi.TrendPoint
	ByMedio    []leadsapi.MedioStat
	ByPrograma []leadsapi.ProgramaStat
	Period     string
	Loading    bool
	Loaded     bool
}

// OverviewPage loads headline KPIs, the funnel, trends and the two breakdowns.
type OverviewPage struct {
	pageCommon
	client leadsapi.OverviewClient

	mu    sync.RWMutex
	state OverviewState
}

// NewOverviewPage builds the overview controller with the weekly period selected.
func NewOverviewPage(client leadsapi.OverviewClient, opts Options) *OverviewPage {
	return &OverviewPage{
		pageCommon: newPageCommon("overview", opts),
		client:     client,
		state:      OverviewState{Period: leadsapi.PeriodWeek, Loading: true},
	}
}

// Load fetches the five datasets in parallel. A failed dataset degrades to empty
// while the others still render. Results are dropped if ctx ends first.
func (p *OverviewPage) Load(ctx context.Context) error {
	started := time.Now()
	p.mu.Lock()
	p.state.Loading = true
	period := p.state.Period
	p.mu.Unlock()

	var (
		next   OverviewState
		errsMu sync.Mutex
		errs   []error
	)
	fail := func(dataset string, err error) {
		errsMu.Lock()
		errs = append(errs, fmt.Errorf("dashboard: %s: %w", dataset, err))
		errsMu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		kpis, err := p.client.KPIs(ctx, p.base)
		if err != nil {
			fail("kpis", err)
			return nil
		}
		next.KPIs = kpis
		return nil
	})
	g.Go(func() error {
		funnel, err := p.client.Funnel(ctx, p.base)
		if err != nil {
			fail("funnel", err)
			return nil
		}
		next.Funnel = funnel
		return nil
	})
	g.Go(func() error {
		trends, err := p.client.Trends(ctx, period, p.base)
		if err != nil {
			fail("trends", err)
			return nil
		}
		next.Trends = trends
		return nil
	})
	g.Go(func() error {
		medios, err := p.client.ByMedio(ctx, p.base)
		if err != nil {
			fail("by-medio", err)
			return nil
		}
		next.ByMedio = medios
		return nil
	})
	g.Go(func() error {
		programas, err := p.client.ByPrograma(ctx, p.base, leadsapi.DefaultProgramaLimit)
		if err != nil {
			fail("by-programa", err)
			return nil
		}
		next.ByPrograma = programas
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	next.Period = p.state.Period
	if next.Period != period {
		// the period moved while loading; SetPeriod owns the trends now
		next.Trends = p.state.Trends
	}
	next.Loaded = true
	p.state = next
	p.mu.Unlock()

	err := errors.Join(errs...)
	p.finish(ctx, started, err)
	return err
}

// SetPeriod switches the trend granularity and refetches trends only.
func (p *OverviewPage) SetPeriod(ctx context.Context, period string) error {
	if !leadsapi.ValidPeriod(period) {
		return fmt.Errorf("dashboard: unknown period %q", period)
	}
	p.mu.Lock()
	p.state.Period = period
	p.mu.Unlock()
	p.telemetry.Record(ctx, EventPeriodSwap, map[string]any{"period": period})

	trends, err := p.client.Trends(ctx, period, p.base)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		p.log.WithError(err).Warn("trends refetch failed")
		return fmt.Errorf("dashboard: trends: %w", err)
	}
	p.mu.Lock()
	if p.state.Period == period {
		p.state.Trends = trends
	}
	p.mu.Unlock()
	return nil
}

// UsePeriod selects the trend granularity for the next Load without fetching.
func (p *OverviewPage) UsePeriod(period string) error {
	if !leadsapi.ValidPeriod(period) {
		return fmt.Errorf("dashboard: unknown period %q", period)
	}
	p.mu.Lock()
	p.state.Period = period
	p.mu.Unlock()
	return nil
}

// State returns a copy of the page state.
func (p *OverviewPage) State() OverviewState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := p.state
	out.Funnel = append([]leadsapi.FunnelStage(nil), p.state.Funnel...)
	out.Trends = append([]leadsapi.TrendPoint(nil), p.state.Trends...)
	out.ByMedio = append([]leadsapi.MedioStat(nil), p.state.ByMedio...)
	out.ByPrograma = append([]leadsapi.ProgramaStat(nil), p.state.ByPrograma...)
	return out
}

// KPICard is one headline counter.
type KPICard struct {
	Label string
	Value string
	Color string
}

// FunnelBar is one overview funnel row.
type FunnelBar struct {
	Stage   string
	Value   string
	Color   string
	Width   float64
	Percent string
	// StepDown is the rate to the next stage; empty on the last stage.
	StepDown string
}

// TrendRow is one trend bucket with the year dropped from the label.
type TrendRow struct {
	Label        string
	Leads        int
	Efectivos    int
	Matriculados int
}

// BreakdownRow is one by-medio or by-programa row.
type BreakdownRow struct {
	Label     string
	Total     string
	Efectivos string
	Rate      string
}

// OverviewView is the render model of the overview page.
type OverviewView struct {
	Title      string
	Period     string
	Periods    []string
	Loading    bool
	Cards      []KPICard
	Funnel     []FunnelBar
	Trends     []TrendRow
	ByMedio    []BreakdownRow
	ByPrograma []BreakdownRow
}

// View derives the render model from the current state.
func (p *OverviewPage) View() OverviewView {
	return BuildOverviewView(p.State())
}

// BuildOverviewView derives display rows purely from state.
func BuildOverviewView(state OverviewState) OverviewView {
	view := OverviewView{
		Title:   TitleOverview,
		Period:  state.Period,
		Periods: Periods,
		Loading: state.Loading && !state.Loaded,
		Cards:   KPICards(state.KPIs),
		Funnel:  OverviewFunnel(state.Funnel),
	}
	for _, t := range state.Trends {
		view.Trends = append(view.Trends, TrendRow{
			Label:        TrendLabel(t.Period),
			Leads:        t.Leads,
			Efectivos:    t.Efectivos,
			Matriculados: t.Matriculados,
		})
	}
	for _, m := range state.ByMedio {
		view.ByMedio = append(view.ByMedio, breakdown(m.Medio, m.Total, m.Efectivos))
	}
	for _, pr := range state.ByPrograma {
		view.ByPrograma = append(view.ByPrograma, breakdown(pr.Programa, pr.Total, pr.Efectivos))
	}
	return view
}

// KPICards builds the six headline cards. Conversión is matriculados over total leads.
func KPICards(k leadsapi.KPIs) []KPICard {
	conversion := "0%"
	if k.TotalLeads > 0 {
		conversion = FormatRate(float64(k.Matriculados), float64(k.TotalLeads)) + "%"
	}
	return []KPICard{
		{Label: "Total Leads", Value: FormatCount(k.TotalLeads), Color: "accent"},
		{Label: "Contactados", Value: FormatCount(k.Contactados), Color: "cyan"},
		{Label: "No Contactados", Value: FormatCount(k.NoContactados), Color: "red"},
		{Label: "Contacto Efectivo", Value: FormatCount(k.ContactoEfectivo), Color: "green"},
		{Label: "Matriculados", Value: FormatCount(k.Matriculados), Color: "purple"},
		{Label: "Conversión", Value: conversion, Color: "yellow"},
	}
}

// OverviewFunnel scales each stage against the first one.
func OverviewFunnel(stages []leadsapi.FunnelStage) []FunnelBar {
	if len(stages) == 0 {
		return nil
	}
	first := stages[0].Value
	if first == 0 {
		first = 1
	}
	bars := make([]FunnelBar, len(stages))
	for i, stage := range stages {
		bars[i] = FunnelBar{
			Stage:   stage.Stage,
			Value:   formatValue(stage.Value),
			Color:   stage.Color,
			Width:   BarWidth(stage.Value, first, overviewMinBarWidth),
			Percent: FormatRate(stage.Value, first) + "%",
		}
		if i < len(stages)-1 {
			bars[i].StepDown = FormatRate(stages[i+1].Value, stage.Value) + "%"
		}
	}
	return bars
}

func breakdown(label string, total, efectivos int) BreakdownRow {
	return BreakdownRow{
		Label:     orPlaceholder(label),
		Total:     FormatCount(total),
		Efectivos: FormatCount(efectivos),
		Rate:      FormatRate(float64(efectivos), float64(total)) + "%",
	}
}

func formatValue(v float64) string {
	if v == float64(int(v)) {
		return FormatCount(int(v))
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// OverviewCharts holds rendered chart markup keyed by dataset.
type OverviewCharts struct {
	Funnel     string
	Trends     string
	ByMedio    string
	ByPrograma string
}

// Charts renders the overview charts. A page without a chart renderer returns empty markup.
func (p *OverviewPage) Charts() (OverviewCharts, error) {
	if p.charts == nil {
		return OverviewCharts{}, nil
	}
	state := p.State()
	var out OverviewCharts
	var err error
	if out.Funnel, err = p.charts.FunnelChart("Embudo de Conversión", state.Funnel); err != nil {
		return OverviewCharts{}, err
	}
	if out.Trends, err = p.charts.TrendsChart("Tendencia de Leads", state.Trends); err != nil {
		return OverviewCharts{}, err
	}
	if out.ByMedio, err = p.charts.MedioChart("Leads por Medio", state.ByMedio); err != nil {
		return OverviewCharts{}, err
	}
	if out.ByPrograma, err = p.charts.ProgramaChart("Leads por Programa", state.ByPrograma); err != nil {
		return OverviewCharts{}, err
	}
	return out, nil
}
