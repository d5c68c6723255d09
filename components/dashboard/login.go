package dashboard

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-leads-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

// InvalidCredentialsMessage is shown for every failed login.
const InvalidCredentialsMessage = "Credenciales inválidas"

// LoginResult tells the front end where to go after a submit.
type LoginResult struct {
	Next  string
	Error string
	Err   error
}

// LoginPage submits credentials through the login command.
type LoginPage struct {
	login gocommand.Commander[commands.LoginInput]
}

// NewLoginPage builds the login controller.
func NewLoginPage(login gocommand.Commander[commands.LoginInput]) *LoginPage {
	return &LoginPage{login: login}
}

// Submit logs in. On success Next is the overview route; on any failure the user stays
// on the login route with InvalidCredentialsMessage.
func (p *LoginPage) Submit(ctx context.Context, username, password string) LoginResult {
	if p.login == nil {
		return LoginResult{Next: session.RouteLogin, Error: InvalidCredentialsMessage}
	}
	if err := p.login.Execute(ctx, commands.LoginInput{Username: username, Password: password}); err != nil {
		return LoginResult{Next: session.RouteLogin, Error: InvalidCredentialsMessage, Err: err}
	}
	return LoginResult{Next: session.RouteOverview}
}
