package commands

import "context"

// Session events recorded by the commands.
const (
	EventLogin       = "dashboard.login"
	EventLoginFailed = "dashboard.login.failed"
	EventLogout      = "dashboard.logout"
)

// Telemetry allows commands to emit structured events.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
