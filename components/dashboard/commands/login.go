package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

// ErrInvalidCredentials is returned for any failed login attempt.
var ErrInvalidCredentials = errors.New("commands: invalid credentials")

// LoginInput carries the submitted credentials.
type LoginInput struct {
	Username string
	Password string
}

type authenticator interface {
	Login(ctx context.Context, username, password string) (leadsapi.LoginResponse, error)
}

// LoginCommand exchanges credentials for a token and persists the session.
type LoginCommand struct {
	auth      authenticator
	store     session.Store
	telemetry Telemetry
}

// NewLoginCommand creates the command.
func NewLoginCommand(auth authenticator, store session.Store, telemetry Telemetry) *LoginCommand {
	return &LoginCommand{auth: auth, store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoginInput] = (*LoginCommand)(nil)

// Execute logs in and saves the token. Every failure wraps ErrInvalidCredentials.
func (c *LoginCommand) Execute(ctx context.Context, msg LoginInput) error {
	if c.auth == nil || c.store == nil {
		return errors.New("login command requires client and store")
	}
	username := strings.TrimSpace(msg.Username)
	resp, err := c.auth.Login(ctx, username, msg.Password)
	if err != nil {
		c.telemetry.Record(ctx, EventLoginFailed, map[string]any{"username": username})
		return errors.Join(ErrInvalidCredentials, err)
	}
	if err := c.store.Save(resp.Token, resp.Username); err != nil {
		return errors.Join(ErrInvalidCredentials, err)
	}
	c.telemetry.Record(ctx, EventLogin, map[string]any{"username": resp.Username})
	return nil
}
