package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

const funnelMinBarWidth = 12

// Stage glyphs for the first four funnel stages.
var stageIcons = []string{"🎯", "📞", "✅", "🎓"}

// FunnelRow is one stage of the full funnel view.
type FunnelRow struct {
	Icon  string
	Stage string
	Value string
	Color string
	Width float64
	// Conversion against the previous stage; "100.0" on the first stage.
	Conversion string
	// Lost is previous minus current; zero on the first stage.
	Lost  string
	First bool
}

// FunnelSummary compares a stage against the first one.
type FunnelSummary struct {
	Label string
	Rate  string
}

// FunnelView is the render model of the funnel page.
type FunnelView struct {
	Title   string
	Loading bool
	Rows    []FunnelRow
	// Overall is last over first.
	Overall string
	Summary []FunnelSummary
}

// FunnelPage loads and derives the complete management funnel.
type FunnelPage struct {
	pageCommon
	client leadsapi.FunnelClient

	mu      sync.RWMutex
	stages  []leadsapi.FunnelStage
	loading bool
	loaded  bool
}

// NewFunnelPage builds the funnel controller.
func NewFunnelPage(client leadsapi.FunnelClient, opts Options) *FunnelPage {
	return &FunnelPage{
		pageCommon: newPageCommon("funnel", opts),
		client:     client,
		loading:    true,
	}
}

// Load fetches the funnel. On failure the page degrades to no stages.
func (p *FunnelPage) Load(ctx context.Context) error {
	started := time.Now()
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	stages, err := p.client.Funnel(ctx, p.base)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		stages = nil
		err = fmt.Errorf("dashboard: funnel: %w", err)
	}
	p.mu.Lock()
	p.stages = stages
	p.loading = false
	p.loaded = true
	p.mu.Unlock()
	p.finish(ctx, started, err)
	return err
}

// Stages returns a copy of the loaded stages.
func (p *FunnelPage) Stages() []leadsapi.FunnelStage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]leadsapi.FunnelStage(nil), p.stages...)
}

// View derives the render model from the loaded stages.
func (p *FunnelPage) View() FunnelView {
	p.mu.RLock()
	loading := p.loading && !p.loaded
	p.mu.RUnlock()
	view := BuildFunnelView(p.Stages())
	view.Loading = loading
	return view
}

// Chart renders the funnel chart, or empty markup without a chart renderer.
func (p *FunnelPage) Chart() (string, error) {
	if p.charts == nil {
		return "", nil
	}
	return p.charts.FunnelChart(TitleFunnel, p.Stages())
}

// BuildFunnelView derives per-stage conversion, losses and the summary.
func BuildFunnelView(stages []leadsapi.FunnelStage) FunnelView {
	view := FunnelView{Title: TitleFunnel, Overall: "0"}
	if len(stages) == 0 {
		return view
	}
	first := stages[0].Value
	scale := first
	if scale == 0 {
		scale = 1
	}
	for i, stage := range stages {
		row := FunnelRow{
			Stage: stage.Stage,
			Value: formatValue(stage.Value),
			Color: stage.Color,
			Width: BarWidth(stage.Value, scale, funnelMinBarWidth),
			First: i == 0,
		}
		if i < len(stageIcons) {
			row.Icon = stageIcons[i]
		}
		if i == 0 {
			row.Conversion = "100.0"
			row.Lost = "0"
		} else {
			prev := stages[i-1].Value
			row.Conversion = FormatRate(stage.Value, prev)
			row.Lost = formatValue(prev - stage.Value)
		}
		view.Rows = append(view.Rows, row)
	}
	view.Overall = FormatRate(stages[len(stages)-1].Value, first)
	if len(stages) >= 4 {
		for _, stage := range stages[1:4] {
			view.Summary = append(view.Summary, FunnelSummary{
				Label: fmt.Sprintf("%s → %s", stages[0].Stage, stage.Stage),
				Rate:  FormatRate(stage.Value, first),
			})
		}
	}
	return view
}
