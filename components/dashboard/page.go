package dashboard

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures a page controller.
type Options struct {
	// Base filters every query to one data partition. Empty means all bases.
	Base      string
	Telemetry Telemetry
	Logger    logrus.FieldLogger
	// Charts renders chart markup. Nil disables charts.
	Charts *Charts
}

type pageCommon struct {
	name      string
	base      string
	telemetry Telemetry
	log       logrus.FieldLogger
	charts    *Charts
}

func newPageCommon(name string, opts Options) pageCommon {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return pageCommon{
		name:      name,
		base:      opts.Base,
		telemetry: normalizeTelemetry(opts.Telemetry),
		log:       log.WithField("page", name),
		charts:    opts.Charts,
	}
}

// finish records the outcome of a load. Errors are logged, never rendered.
func (p pageCommon) finish(ctx context.Context, started time.Time, err error) {
	payload := map[string]any{
		"page":    p.name,
		"base":    p.base,
		"elapsed": time.Since(started).String(),
	}
	if err != nil {
		payload["error"] = err.Error()
		p.log.WithError(err).Warn("page load degraded")
		p.telemetry.Record(ctx, EventPageError, payload)
		return
	}
	p.telemetry.Record(ctx, EventPageLoad, payload)
}
