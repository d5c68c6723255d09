package dashboard

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ettle/strcase"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

const defaultChartHeight = "320px"

// MaxAgentBars caps the agents chart series.
const MaxAgentBars = 15

var sharedChartSlots = NewChartSlots(5 * time.Minute)

// ChartMarkupCache reuses rendered markup for a chart slot while its dataset digest holds.
type ChartMarkupCache interface {
	Markup(slot, digest string, render func() (string, error)) (string, error)
}

// ChartSlots keeps the last markup rendered for each chart. A slot is rendered
// again when its dataset changes or the markup is older than the TTL. A TTL of
// zero renders every time.
type ChartSlots struct {
	ttl   time.Duration
	mu    sync.Mutex
	slots map[string]chartSlot
}

type chartSlot struct {
	digest   string
	html     string
	rendered time.Time
}

// NewChartSlots builds a slot cache with the given TTL.
func NewChartSlots(ttl time.Duration) *ChartSlots {
	return &ChartSlots{ttl: ttl, slots: make(map[string]chartSlot)}
}

// Markup returns the slot's markup when digest matches the last render.
func (s *ChartSlots) Markup(slot, digest string, render func() (string, error)) (string, error) {
	if s == nil || s.ttl <= 0 {
		return render()
	}
	s.mu.Lock()
	entry, ok := s.slots[slot]
	s.mu.Unlock()
	if ok && entry.digest == digest && time.Since(entry.rendered) < s.ttl {
		return entry.html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.slots[slot] = chartSlot{digest: digest, html: html, rendered: time.Now()}
	s.mu.Unlock()
	return html, nil
}

// Len reports how many chart slots hold markup.
func (s *ChartSlots) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Charts renders server-side chart HTML for dashboard datasets.
type Charts struct {
	cache      ChartMarkupCache
	theme      string
	assetsHost string
	height     string
}

// ChartOption customizes chart rendering.
type ChartOption func(*Charts)

// WithChartCache injects the markup cache. A nil cache renders every call.
func WithChartCache(cache ChartMarkupCache) ChartOption {
	return func(c *Charts) {
		c.cache = cache
	}
}

// WithChartTheme sets the chart theme (defaults to Westeros).
func WithChartTheme(theme string) ChartOption {
	return func(c *Charts) {
		c.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) ChartOption {
	return func(c *Charts) {
		c.assetsHost = host
	}
}

// NewCharts builds a chart renderer.
func NewCharts(options ...ChartOption) *Charts {
	c := &Charts{
		cache:  sharedChartSlots,
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// FunnelChart renders the ordered funnel stages.
func (c *Charts) FunnelChart(title string, stages []leadsapi.FunnelStage) (string, error) {
	return c.memo("funnel", title, stages, func() (string, error) {
		funnel := charts.NewFunnel()
		funnel.SetGlobalOptions(c.globalChartOptions(title)...)
		data := make([]opts.FunnelData, len(stages))
		for i, stage := range stages {
			data[i] = opts.FunnelData{Name: stage.Stage, Value: stage.Value}
		}
		funnel.AddSeries(title, data)
		return renderChart(funnel)
	})
}

// TrendsChart renders leads, efectivos and matriculados over time.
func (c *Charts) TrendsChart(title string, points []leadsapi.TrendPoint) (string, error) {
	return c.memo("trends", title, points, func() (string, error) {
		line := charts.NewLine()
		line.SetGlobalOptions(c.globalChartOptions(title)...)
		labels := make([]string, len(points))
		leads := make([]opts.LineData, len(points))
		efectivos := make([]opts.LineData, len(points))
		matriculados := make([]opts.LineData, len(points))
		for i, p := range points {
			labels[i] = TrendLabel(p.Period)
			leads[i] = opts.LineData{Value: p.Leads}
			efectivos[i] = opts.LineData{Value: p.Efectivos}
			matriculados[i] = opts.LineData{Value: p.Matriculados}
		}
		line.SetXAxis(labels).
			AddSeries("Leads", leads).
			AddSeries("Efectivos", efectivos).
			AddSeries("Matriculados", matriculados)
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderChart(line)
	})
}

// MedioChart renders the channel breakdown as a donut.
func (c *Charts) MedioChart(title string, stats []leadsapi.MedioStat) (string, error) {
	return c.memo("medio", title, stats, func() (string, error) {
		pie := charts.NewPie()
		pie.SetGlobalOptions(c.globalChartOptions(title)...)
		data := make([]opts.PieData, len(stats))
		for i, s := range stats {
			name := s.Medio
			if name == "" {
				name = fmt.Sprintf("Medio %d", i+1)
			}
			data[i] = opts.PieData{Name: name, Value: s.Total}
		}
		pie.AddSeries(title, data).
			SetSeriesOptions(charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}))
		return renderChart(pie)
	})
}

// ProgramaChart renders totals and efectivos per program as horizontal bars.
func (c *Charts) ProgramaChart(title string, stats []leadsapi.ProgramaStat) (string, error) {
	return c.memo("programa", title, stats, func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(c.globalChartOptions(title)...)
		labels := make([]string, len(stats))
		totals := make([]opts.BarData, len(stats))
		efectivos := make([]opts.BarData, len(stats))
		for i, s := range stats {
			labels[i] = s.Programa
			totals[i] = opts.BarData{Name: s.Programa, Value: s.Total}
			efectivos[i] = opts.BarData{Name: s.Programa, Value: s.Efectivos}
		}
		bar.SetXAxis(labels).
			AddSeries("Total", totals).
			AddSeries("Efectivos", efectivos)
		bar.XYReversal()
		return renderChart(bar)
	})
}

// AgentsChart renders the first MaxAgentBars agents of the leaderboard.
func (c *Charts) AgentsChart(title string, agents []leadsapi.AgentStat) (string, error) {
	if len(agents) > MaxAgentBars {
		agents = agents[:MaxAgentBars]
	}
	return c.memo("agents", title, agents, func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(c.globalChartOptions(title)...)
		labels := make([]string, len(agents))
		totals := make([]opts.BarData, len(agents))
		efectivos := make([]opts.BarData, len(agents))
		matriculados := make([]opts.BarData, len(agents))
		for i, a := range agents {
			labels[i] = a.Usuario
			totals[i] = opts.BarData{Value: a.TotalLeads}
			efectivos[i] = opts.BarData{Value: a.ContactoEfectivo}
			matriculados[i] = opts.BarData{Value: a.Matriculados}
		}
		bar.SetXAxis(labels).
			AddSeries("Leads", totals).
			AddSeries("Contacto Efectivo", efectivos).
			AddSeries("Matriculados", matriculados)
		return renderChart(bar)
	})
}

func (c *Charts) memo(kind, title string, dataset any, render func() (string, error)) (string, error) {
	if c.cache == nil {
		return render()
	}
	slot := kind + ":" + c.theme + ":" + chartID(title)
	return c.cache.Markup(slot, datasetDigest(dataset), render)
}

// datasetDigest fingerprints a dataset; every empty dataset shares one digest.
func datasetDigest(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	switch string(b) {
	case "", "null", "[]":
		return "empty"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", fmt.Errorf("dashboard: render chart: %w", err)
	}
	return buf.String(), nil
}

func (c *Charts) globalChartOptions(title string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		PageTitle: title,
		ChartID:   chartID(title),
		Theme:     c.theme,
		Width:     "100%",
		Height:    c.height,
	}
	if c.assetsHost != "" {
		initOpts.AssetsHost = c.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

// chartID derives a stable DOM id from a chart title.
func chartID(title string) string {
	id := strcase.ToKebab(title)
	if id == "" {
		return "chart"
	}
	return "chart-" + id
}
