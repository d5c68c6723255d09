package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

// LogoutInput ends the current session.
type LogoutInput struct{}

type resetter interface {
	Reset()
}

// LogoutCommand clears the stored session and the accumulated dashboard context.
type LogoutCommand struct {
	store     session.Store
	context   resetter
	telemetry Telemetry
}

// NewLogoutCommand creates the command. The context may be nil.
func NewLogoutCommand(store session.Store, dash resetter, telemetry Telemetry) *LogoutCommand {
	return &LogoutCommand{store: store, context: dash, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LogoutInput] = (*LogoutCommand)(nil)

// Execute clears the session. Clearing an empty session is not an error.
func (c *LogoutCommand) Execute(ctx context.Context, _ LogoutInput) error {
	if c.store == nil {
		return errors.New("logout command requires store")
	}
	username := c.store.Username()
	if err := c.store.Clear(); err != nil {
		return err
	}
	if c.context != nil {
		c.context.Reset()
	}
	c.telemetry.Record(ctx, EventLogout, map[string]any{"username": username})
	return nil
}
