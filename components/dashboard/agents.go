package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

var medals = []string{"🥇", "🥈", "🥉"}

// AgentRow is one ranked agent.
type AgentRow struct {
	Rank             int
	Medal            string
	Usuario          string
	TotalLeads       string
	Contactados      string
	ContactoEfectivo string
	Matriculados     string
	// Conversion is contacto_efectivo over total_leads, "0" when no leads.
	Conversion string
}

// AgentsView is the render model of the agents page.
type AgentsView struct {
	Title   string
	Loading bool
	Podium  []AgentRow
	Ranking []AgentRow
}

// AgentsPage loads the backend-sorted agent leaderboard.
type AgentsPage struct {
	pageCommon
	client leadsapi.AgentsClient

	mu      sync.RWMutex
	agents  []leadsapi.AgentStat
	loading bool
	loaded  bool
}

// NewAgentsPage builds the agents controller.
func NewAgentsPage(client leadsapi.AgentsClient, opts Options) *AgentsPage {
	return &AgentsPage{
		pageCommon: newPageCommon("agents", opts),
		client:     client,
		loading:    true,
	}
}

// Load fetches the leaderboard. On failure the page degrades to no agents.
func (p *AgentsPage) Load(ctx context.Context) error {
	started := time.Now()
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	agents, err := p.client.Agents(ctx, p.base)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		agents = nil
		err = fmt.Errorf("dashboard: agents: %w", err)
	}
	p.mu.Lock()
	p.agents = agents
	p.loading = false
	p.loaded = true
	p.mu.Unlock()
	p.finish(ctx, started, err)
	return err
}

// Agents returns a copy of the leaderboard in backend order.
func (p *AgentsPage) Agents() []leadsapi.AgentStat {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]leadsapi.AgentStat(nil), p.agents...)
}

// View derives the podium and the full ranking.
func (p *AgentsPage) View() AgentsView {
	p.mu.RLock()
	loading := p.loading && !p.loaded
	p.mu.RUnlock()
	view := BuildAgentsView(p.Agents())
	view.Loading = loading
	return view
}

// Chart renders the top agents, or empty markup without a chart renderer.
func (p *AgentsPage) Chart() (string, error) {
	if p.charts == nil {
		return "", nil
	}
	return p.charts.AgentsChart(TitleAgents, p.Agents())
}

// BuildAgentsView ranks agents 1-based in the order received.
func BuildAgentsView(agents []leadsapi.AgentStat) AgentsView {
	view := AgentsView{Title: TitleAgents}
	for i, a := range agents {
		row := AgentRow{
			Rank:             i + 1,
			Usuario:          orPlaceholder(a.Usuario),
			TotalLeads:       FormatCount(a.TotalLeads),
			Contactados:      FormatCount(a.Contactados),
			ContactoEfectivo: FormatCount(a.ContactoEfectivo),
			Matriculados:     FormatCount(a.Matriculados),
			Conversion:       AgentConversion(a),
		}
		if i < len(medals) {
			row.Medal = medals[i]
			view.Podium = append(view.Podium, row)
		}
		view.Ranking = append(view.Ranking, row)
	}
	return view
}

// AgentConversion is contacto_efectivo / total_leads as a one-decimal percentage.
func AgentConversion(a leadsapi.AgentStat) string {
	return FormatRate(float64(a.ContactoEfectivo), float64(a.TotalLeads))
}
