package leadsapi

import (
	"context"
	"encoding/json"
)

// AuthClient performs credential exchange.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (LoginResponse, error)
	Me(ctx context.Context) (Identity, error)
}

// OverviewClient fetches the datasets shown on the overview page.
type OverviewClient interface {
	KPIs(ctx context.Context, base string) (KPIs, error)
	Funnel(ctx context.Context, base string) ([]FunnelStage, error)
	Trends(ctx context.Context, period, base string) ([]TrendPoint, error)
	ByMedio(ctx context.Context, base string) ([]MedioStat, error)
	ByPrograma(ctx context.Context, base string, limit int) ([]ProgramaStat, error)
}

// FunnelClient fetches funnel stages.
type FunnelClient interface {
	Funnel(ctx context.Context, base string) ([]FunnelStage, error)
}

// LeadsClient fetches paginated leads and the base catalog.
type LeadsClient interface {
	Leads(ctx context.Context, q LeadsQuery) (LeadsPage, error)
	Bases(ctx context.Context) ([]Base, error)
}

// AgentsClient fetches the agent leaderboard.
type AgentsClient interface {
	Agents(ctx context.Context, base string) ([]AgentStat, error)
}

// AIClient talks to the AI analyst endpoints.
type AIClient interface {
	AIChat(ctx context.Context, message string, history []ChatMessage) (ChatResponse, error)
	AIInsights(ctx context.Context) (json.RawMessage, error)
	AIPredictions(ctx context.Context) (json.RawMessage, error)
}

// API is a convenience union for implementations that serve every call.
type API interface {
	AuthClient
	OverviewClient
	LeadsClient
	AgentsClient
	AIClient
}

var (
	_ API = (*Client)(nil)
	_ API = (*MockClient)(nil)
)
