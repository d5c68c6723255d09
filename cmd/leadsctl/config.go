package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-leads-dashboard/components/dashboard"
	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

var errNoSession = errors.New("leadsctl: not logged in; run `leadsctl login`")

// runtime carries the collaborators every command needs.
type runtime struct {
	ctx       context.Context
	api       leadsapi.API
	dash      *leadsapi.DashboardContext
	store     session.Store
	log       *logrus.Logger
	telemetry *dashboard.LogTelemetry
	pages     dashboard.Options
	out       io.Writer
	errOut    io.Writer

	// navigate handles a 401 from the backend; serve swaps it for the web navigator.
	navigate func(route string)
}

func newRuntime(ctx context.Context, g Globals, out, errOut io.Writer) (*runtime, error) {
	logger := logrus.New()
	logger.SetOutput(errOut)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(g.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	path := g.SessionFile
	if path == "" {
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}
	store, err := session.NewFileStore(path)
	if err != nil {
		return nil, err
	}

	telemetry := dashboard.NewLogTelemetry(logger)
	rt := &runtime{
		ctx:       ctx,
		dash:      leadsapi.NewDashboardContext(),
		store:     store,
		log:       logger,
		telemetry: telemetry,
		out:       out,
		errOut:    errOut,
	}
	rt.navigate = rt.printSessionExpired
	rt.pages = dashboard.Options{Base: g.Base, Telemetry: telemetry, Logger: logger}

	if g.Demo {
		logger.Debug("using demo fixtures")
		rt.api = leadsapi.NewMockClient(leadsapi.DemoData(), rt.dash)
		return rt, nil
	}
	client, err := leadsapi.NewClient(leadsapi.Config{
		BaseURL:   g.APIURL,
		Store:     store,
		Navigator: session.NavigatorFunc(func(route string) { rt.navigate(route) }),
		Timeout:   g.Timeout,
		Context:   rt.dash,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	rt.api = client
	return rt, nil
}

func (rt *runtime) printSessionExpired(route string) {
	if route == session.RouteLogin {
		fmt.Fprintln(rt.errOut, "session expired; run `leadsctl login`")
	}
}

// requireSession mirrors the route guard for terminal commands.
func (rt *runtime) requireSession() error {
	if !session.NewGuard(rt.store).Allow() {
		return errNoSession
	}
	return nil
}
