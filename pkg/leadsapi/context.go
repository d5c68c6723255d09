package leadsapi

import (
	"slices"
	"sync"
)

// ContextSnapshot is the aggregated dashboard state forwarded to the AI endpoints.
// A nil field was never fetched and is left out; a fetched empty dataset encodes as [].
type ContextSnapshot struct {
	KPIs       *KPIs          `json:"kpis,omitzero"`
	Funnel     []FunnelStage  `json:"funnel,omitzero"`
	Trends     []TrendPoint   `json:"trends,omitzero"`
	ByMedio    []MedioStat    `json:"byMedio,omitzero"`
	ByPrograma []ProgramaStat `json:"byPrograma,omitzero"`
	Agents     []AgentStat    `json:"agents,omitzero"`
}

// DashboardContext accumulates the latest successful dashboard query results.
// Every field is overwritten, never merged, by the most recent call.
type DashboardContext struct {
	mu   sync.RWMutex
	snap ContextSnapshot
}

// NewDashboardContext returns an empty accumulator.
func NewDashboardContext() *DashboardContext {
	return &DashboardContext{}
}

// Snapshot returns a deep copy safe to serialize while queries keep landing.
func (c *DashboardContext) Snapshot() ContextSnapshot {
	if c == nil {
		return ContextSnapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := ContextSnapshot{
		Funnel:     slices.Clone(c.snap.Funnel),
		Trends:     slices.Clone(c.snap.Trends),
		ByMedio:    slices.Clone(c.snap.ByMedio),
		ByPrograma: slices.Clone(c.snap.ByPrograma),
		Agents:     slices.Clone(c.snap.Agents),
	}
	if c.snap.KPIs != nil {
		kpis := *c.snap.KPIs
		out.KPIs = &kpis
	}
	return out
}

// Reset drops every accumulated field.
func (c *DashboardContext) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.snap = ContextSnapshot{}
	c.mu.Unlock()
}

func (c *DashboardContext) setKPIs(v KPIs) {
	c.mu.Lock()
	c.snap.KPIs = &v
	c.mu.Unlock()
}

func (c *DashboardContext) setFunnel(v []FunnelStage) {
	c.mu.Lock()
	c.snap.Funnel = fetched(v)
	c.mu.Unlock()
}

func (c *DashboardContext) setTrends(v []TrendPoint) {
	c.mu.Lock()
	c.snap.Trends = fetched(v)
	c.mu.Unlock()
}

func (c *DashboardContext) setByMedio(v []MedioStat) {
	c.mu.Lock()
	c.snap.ByMedio = fetched(v)
	c.mu.Unlock()
}

func (c *DashboardContext) setByPrograma(v []ProgramaStat) {
	c.mu.Lock()
	c.snap.ByPrograma = fetched(v)
	c.mu.Unlock()
}

func (c *DashboardContext) setAgents(v []AgentStat) {
	c.mu.Lock()
	c.snap.Agents = fetched(v)
	c.mu.Unlock()
}

// fetched copies v, keeping a non-nil slice so an empty dataset stays in the snapshot.
func fetched[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return slices.Clone(v)
}
