package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type Globals struct {
	APIURL      string        `name:"api-url" env:"LEADS_API_URL" default:"http://localhost:8000" help:"Backend base URL."`
	SessionFile string        `name:"session-file" env:"LEADS_SESSION_FILE" type:"path" help:"Session file (defaults to the user config dir)."`
	LogLevel    string        `name:"log-level" env:"LEADS_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug,info,warn,error)."`
	Timeout     time.Duration `env:"LEADS_TIMEOUT" default:"0s" help:"HTTP timeout per request; 0 disables it."`
	Base        string        `env:"LEADS_BASE" help:"Restrict every query to one base id."`
	Demo        bool          `env:"LEADS_DEMO" help:"Serve built-in fixtures instead of calling a backend."`
}

type cli struct {
	Globals

	Login       loginCmd       `cmd:"" help:"Authenticate and store the session token."`
	Logout      logoutCmd      `cmd:"" help:"Clear the stored session."`
	Whoami      whoamiCmd      `cmd:"" help:"Print the user of the stored session."`
	Bases       basesCmd       `cmd:"" help:"List the bases available for filtering."`
	Overview    overviewCmd    `cmd:"" help:"Show KPIs, funnel, trends and breakdowns."`
	Funnel      funnelCmd      `cmd:"" help:"Show stage-to-stage funnel conversion."`
	Leads       leadsCmd       `cmd:"" help:"List leads with search and filters."`
	Agents      agentsCmd      `cmd:"" help:"Show the agents leaderboard."`
	Insights    insightsCmd    `cmd:"" help:"Generate AI insights."`
	Predictions predictionsCmd `cmd:"" help:"Generate AI predictions."`
	Chat        chatCmd        `cmd:"" help:"Open the interactive AI panel."`
	Serve       serveCmd       `cmd:"" help:"Run the web dashboard locally."`
}

func main() {
	_ = godotenv.Load()

	var app cli
	kctx := kong.Parse(&app,
		kong.Name("leadsctl"),
		kong.Description("Lead management analytics dashboard client."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, app.Globals, os.Stdout, os.Stderr)
	kctx.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run(rt))
}
