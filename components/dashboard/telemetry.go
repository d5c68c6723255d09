package dashboard

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Page events.
const (
	EventPageLoad   = "dashboard.page.load"
	EventPageError  = "dashboard.page.error"
	EventPeriodSwap = "dashboard.overview.period"
)

// Telemetry records dashboard events for observability.
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

// LogTelemetry writes events as structured log entries.
type LogTelemetry struct {
	log logrus.FieldLogger
}

// NewLogTelemetry records events at debug level. A nil logger uses the standard logger.
func NewLogTelemetry(log logrus.FieldLogger) *LogTelemetry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogTelemetry{log: log}
}

// Record implements Telemetry.
func (t *LogTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	entry := t.log.WithField("event", event)
	if len(payload) > 0 {
		entry = entry.WithFields(logrus.Fields(payload))
	}
	entry.Debug("telemetry")
}
