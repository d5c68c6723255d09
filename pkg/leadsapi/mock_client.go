package leadsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MockData seeds deterministic responses for tests or local demos.
type MockData struct {
	Username    string
	Password    string
	KPIs        KPIs
	Funnel      []FunnelStage
	Trends      map[string][]TrendPoint
	ByMedio     []MedioStat
	ByPrograma  []ProgramaStat
	Agents      []AgentStat
	Leads       []Lead
	Bases       []Base
	Insights    []Insight
	Predictions []Prediction
	ChatReply   string
}

// MockClient implements API using in-memory fixtures. Filters other than the leads
// search, medio and resultado are ignored.
type MockClient struct {
	data MockData
	dash *DashboardContext
	mu   sync.RWMutex
}

// NewMockClient builds a mock client from fixtures. A nil context gets a fresh one.
func NewMockClient(data MockData, dash *DashboardContext) *MockClient {
	if dash == nil {
		dash = NewDashboardContext()
	}
	return &MockClient{data: data, dash: dash}
}

// Context exposes the accumulator fed by the mock's dashboard queries.
func (c *MockClient) Context() *DashboardContext {
	return c.dash
}

// Login accepts only the configured credentials.
func (c *MockClient) Login(_ context.Context, username, password string) (LoginResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if username != c.data.Username || password != c.data.Password {
		return LoginResponse{}, ErrUnauthorized
	}
	return LoginResponse{Token: "demo-" + username, Username: username}, nil
}

// Me returns the configured username.
func (c *MockClient) Me(context.Context) (Identity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Identity{Username: c.data.Username}, nil
}

// KPIs returns the configured counters.
func (c *MockClient) KPIs(context.Context, string) (KPIs, error) {
	c.mu.RLock()
	out := c.data.KPIs
	c.mu.RUnlock()
	c.dash.setKPIs(out)
	return out, nil
}

// Funnel returns the configured stages.
func (c *MockClient) Funnel(context.Context, string) ([]FunnelStage, error) {
	c.mu.RLock()
	out := append([]FunnelStage(nil), c.data.Funnel...)
	c.mu.RUnlock()
	c.dash.setFunnel(out)
	return out, nil
}

// Trends returns the configured buckets for the period, defaulting to weekly.
func (c *MockClient) Trends(_ context.Context, period, _ string) ([]TrendPoint, error) {
	if period == "" {
		period = PeriodWeek
	}
	c.mu.RLock()
	out := append([]TrendPoint(nil), c.data.Trends[period]...)
	c.mu.RUnlock()
	c.dash.setTrends(out)
	return out, nil
}

// ByMedio returns the configured channel breakdown.
func (c *MockClient) ByMedio(context.Context, string) ([]MedioStat, error) {
	c.mu.RLock()
	out := append([]MedioStat(nil), c.data.ByMedio...)
	c.mu.RUnlock()
	c.dash.setByMedio(out)
	return out, nil
}

// ByPrograma returns at most limit program rows.
func (c *MockClient) ByPrograma(_ context.Context, _ string, limit int) ([]ProgramaStat, error) {
	if limit <= 0 {
		limit = DefaultProgramaLimit
	}
	c.mu.RLock()
	out := append([]ProgramaStat(nil), c.data.ByPrograma...)
	c.mu.RUnlock()
	if len(out) > limit {
		out = out[:limit]
	}
	c.dash.setByPrograma(out)
	return out, nil
}

// Agents returns the configured leaderboard.
func (c *MockClient) Agents(context.Context, string) ([]AgentStat, error) {
	c.mu.RLock()
	out := append([]AgentStat(nil), c.data.Agents...)
	c.mu.RUnlock()
	c.dash.setAgents(out)
	return out, nil
}

// Leads filters and paginates the configured leads.
func (c *MockClient) Leads(_ context.Context, q LeadsQuery) (LeadsPage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	filtered := make([]Lead, 0, len(c.data.Leads))
	for _, lead := range c.data.Leads {
		if q.Medio != "" && !strings.EqualFold(lead.Medio, q.Medio) {
			continue
		}
		if q.Resultado != "" && lead.ResultadoGestion != q.Resultado {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(lead.Nombre+" "+lead.Email+" "+lead.Telefono), search) {
			continue
		}
		filtered = append(filtered, lead)
	}
	start := (page - 1) * perPage
	if start > len(filtered) {
		start = len(filtered)
	}
	end := min(start+perPage, len(filtered))
	return LeadsPage{
		Data:    append([]Lead(nil), filtered[start:end]...),
		Total:   len(filtered),
		Page:    page,
		PerPage: perPage,
	}, nil
}

// Bases returns the configured partitions.
func (c *MockClient) Bases(context.Context) ([]Base, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Base(nil), c.data.Bases...), nil
}

// AIChat echoes a canned reply that mentions the total leads in context.
func (c *MockClient) AIChat(_ context.Context, message string, _ []ChatMessage) (ChatResponse, error) {
	c.mu.RLock()
	reply := c.data.ChatReply
	c.mu.RUnlock()
	if reply == "" {
		total := 0
		if snap := c.dash.Snapshot(); snap.KPIs != nil {
			total = snap.KPIs.TotalLeads
		}
		reply = fmt.Sprintf("Recibí tu pregunta (%q). Tenés %d leads en el contexto actual.", message, total)
	}
	return ChatResponse{Response: reply}, nil
}

// AIInsights returns the configured insights document.
func (c *MockClient) AIInsights(context.Context) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(InsightsResponse{Insights: append([]Insight{}, c.data.Insights...)})
}

// AIPredictions returns the configured predictions document.
func (c *MockClient) AIPredictions(context.Context) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(PredictionsResponse{Predictions: append([]Prediction{}, c.data.Predictions...)})
}

// DemoData returns fixtures used by the CLI demo mode.
func DemoData() MockData {
	return MockData{
		Username: "admin",
		Password: "secret",
		KPIs: KPIs{
			TotalLeads:       1000,
			Contactados:      400,
			NoContactados:    600,
			ContactoEfectivo: 100,
			Matriculados:     25,
			AvgToques:        2.4,
		},
		Funnel: []FunnelStage{
			{Stage: "Lead", Value: 1000, Color: "#6366f1"},
			{Stage: "Contactado", Value: 400, Color: "#3b82f6"},
			{Stage: "Contacto Efectivo", Value: 100, Color: "#10b981"},
			{Stage: "Matriculado", Value: 25, Color: "#f59e0b"},
		},
		Trends: map[string][]TrendPoint{
			PeriodDay: {
				{Period: "2026-10-12", Leads: 40, Efectivos: 6, Matriculados: 1},
				{Period: "2026-10-13", Leads: 52, Efectivos: 9, Matriculados: 2},
				{Period: "2026-10-14", Leads: 31, Efectivos: 4, Matriculados: 0},
			},
			PeriodWeek: {
				{Period: "2026-09-21", Leads: 210, Efectivos: 22, Matriculados: 5},
				{Period: "2026-09-28", Leads: 250, Efectivos: 25, Matriculados: 6},
				{Period: "2026-10-05", Leads: 280, Efectivos: 27, Matriculados: 7},
				{Period: "2026-10-12", Leads: 260, Efectivos: 26, Matriculados: 7},
			},
			PeriodMonth: {
				{Period: "2026-08-01", Leads: 820, Efectivos: 80, Matriculados: 19},
				{Period: "2026-09-01", Leads: 910, Efectivos: 95, Matriculados: 23},
				{Period: "2026-10-01", Leads: 1000, Efectivos: 100, Matriculados: 25},
			},
		},
		ByMedio: []MedioStat{
			{Medio: "Google", Total: 420, Efectivos: 48},
			{Medio: "Facebook", Total: 310, Efectivos: 27},
			{Medio: "whatsapp", Total: 150, Efectivos: 18},
			{Medio: "Email", Total: 80, Efectivos: 5},
			{Medio: "Otros", Total: 40, Efectivos: 2},
		},
		ByPrograma: []ProgramaStat{
			{Programa: "Administración", Total: 300, Efectivos: 31},
			{Programa: "Ingeniería de Sistemas", Total: 260, Efectivos: 29},
			{Programa: "Derecho", Total: 190, Efectivos: 18},
			{Programa: "Psicología", Total: 150, Efectivos: 14},
			{Programa: "Medicina", Total: 100, Efectivos: 8},
		},
		Agents: []AgentStat{
			{Usuario: "lperez", TotalLeads: 320, Contactados: 150, ContactoEfectivo: 42, NoContactados: 170, Matriculados: 11},
			{Usuario: "mgomez", TotalLeads: 280, Contactados: 120, ContactoEfectivo: 30, NoContactados: 160, Matriculados: 7},
			{Usuario: "jrodriguez", TotalLeads: 240, Contactados: 90, ContactoEfectivo: 19, NoContactados: 150, Matriculados: 5},
			{Usuario: "acastro", TotalLeads: 160, Contactados: 40, ContactoEfectivo: 9, NoContactados: 120, Matriculados: 2},
		},
		Leads: []Lead{
			{ID: "1001", Nombre: "Ana Torres", Email: "ana@example.com", Telefono: "3001234567", Medio: "Google", ProgramaInteres: "Derecho", ResultadoGestion: ResultContactoEfectivo, Toques: 3, FechaLead: "2026-10-01", FechaUltGestion: "2026-10-10", Base: "1"},
			{ID: "1002", Nombre: "Luis Pardo", Email: "", Telefono: "3019876543", Medio: "Facebook", ProgramaInteres: "Medicina", ResultadoGestion: ResultContactado, Toques: 1, FechaLead: "2026-10-03", Base: "1"},
			{ID: "1003", Nombre: "Sofía Ruiz", Email: "sofia@example.com", Medio: "whatsapp", ProgramaInteres: "Psicología", ResultadoGestion: ResultNoContactado, FechaLead: "2026-10-07", Base: "2"},
		},
		Bases: []Base{
			{ID: "1", Descripcion: "Pregrado 2026-2"},
			{ID: "2", Descripcion: "Posgrado 2026-2"},
		},
		Insights: []Insight{
			{Icon: "trend", Title: "Google lidera", Description: "Google aporta el 42% de los leads y la mejor tasa de contacto efectivo."},
			{Icon: "alert", Title: "Leads sin contactar", Description: "El 60% de los leads aún no fue contactado."},
		},
		Predictions: []Prediction{
			{Period: "2026-10-19", PredictedLeads: 270, PredictedEfectivos: 27, Confidence: 0.78},
			{Period: "2026-10-26", PredictedLeads: 285, PredictedEfectivos: 29, Confidence: 0.71},
		},
	}
}
