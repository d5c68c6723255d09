package main

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-leads-dashboard/components/aipanel"
	"github.com/goliatone/go-leads-dashboard/components/dashboard"
	"github.com/goliatone/go-leads-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

type loginCmd struct {
	Username string `required:"" env:"LEADS_USERNAME" help:"Account username."`
	Password string `required:"" env:"LEADS_PASSWORD" help:"Account password."`
}

func (c *loginCmd) Run(rt *runtime) error {
	page := dashboard.NewLoginPage(commands.NewLoginCommand(rt.api, rt.store, rt.telemetry))
	result := page.Submit(rt.ctx, c.Username, c.Password)
	if result.Err != nil {
		rt.log.WithError(result.Err).Debug("login rejected")
		return errors.New(result.Error)
	}
	fmt.Fprintf(rt.out, "✓ Sesión iniciada como %s\n", rt.store.Username())
	return nil
}

type logoutCmd struct{}

func (c *logoutCmd) Run(rt *runtime) error {
	layout := dashboard.NewLayout(rt.store, commands.NewLogoutCommand(rt.store, rt.dash, rt.telemetry))
	if _, err := layout.Logout(rt.ctx); err != nil {
		return err
	}
	fmt.Fprintln(rt.out, "✓ Sesión cerrada")
	return nil
}

type whoamiCmd struct{}

func (c *whoamiCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	me, err := rt.api.Me(rt.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.out, me.Username)
	return nil
}

type basesCmd struct{}

func (c *basesCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	bases, err := rt.api.Bases(rt.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.out, renderBases(bases))
	return nil
}

type overviewCmd struct {
	Period string `default:"week" enum:"day,week,month" help:"Trend granularity (day,week,month)."`
}

func (c *overviewCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	page := dashboard.NewOverviewPage(rt.api, rt.pages)
	if err := page.UsePeriod(c.Period); err != nil {
		return err
	}
	if err := page.Load(rt.ctx); err != nil && stopOnError(err) {
		return err
	}
	fmt.Fprintln(rt.out, renderOverview(page.View()))
	return nil
}

type funnelCmd struct{}

func (c *funnelCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	page := dashboard.NewFunnelPage(rt.api, rt.pages)
	if err := page.Load(rt.ctx); err != nil && stopOnError(err) {
		return err
	}
	fmt.Fprintln(rt.out, renderFunnel(page.View()))
	return nil
}

type leadsCmd struct {
	Page      int    `default:"1" help:"Page number."`
	Search    string `help:"Search by name, email or phone."`
	Medio     string `help:"Channel filter."`
	Resultado string `help:"Management result filter."`
}

func (c *leadsCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	page := dashboard.NewLeadsPage(rt.api, rt.pages)
	err := page.Apply(rt.ctx, dashboard.LeadsFilters{
		Page:      c.Page,
		Search:    c.Search,
		Medio:     c.Medio,
		Resultado: c.Resultado,
	})
	if err != nil && stopOnError(err) {
		return err
	}
	fmt.Fprintln(rt.out, renderLeads(page.View()))
	return nil
}

type agentsCmd struct{}

func (c *agentsCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	page := dashboard.NewAgentsPage(rt.api, rt.pages)
	if err := page.Load(rt.ctx); err != nil && stopOnError(err) {
		return err
	}
	fmt.Fprintln(rt.out, renderAgents(page.View()))
	return nil
}

type insightsCmd struct{}

func (c *insightsCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	panel, err := rt.newPanel()
	if err != nil {
		return err
	}
	if err := panel.Activate(rt.ctx, aipanel.TabInsights); err != nil && stopOnError(err) {
		return err
	}
	insights, _ := panel.Insights()
	fmt.Fprintln(rt.out, renderInsights(insights))
	return nil
}

type predictionsCmd struct{}

func (c *predictionsCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	panel, err := rt.newPanel()
	if err != nil {
		return err
	}
	if err := panel.Activate(rt.ctx, aipanel.TabPredictions); err != nil && stopOnError(err) {
		return err
	}
	predictions, _ := panel.Predictions()
	fmt.Fprintln(rt.out, renderPredictions(predictions))
	return nil
}

// newPanel builds the AI panel once the dashboard context holds the overview and
// agent datasets the assistant reasons over.
func (rt *runtime) newPanel() (*aipanel.Panel, error) {
	if err := rt.primeContext(); err != nil {
		return nil, err
	}
	return aipanel.New(rt.api, aipanel.Options{
		Validator: aipanel.NewJSONSchemaValidator(),
		Telemetry: rt.telemetry,
		Logger:    rt.log,
	}), nil
}

// primeContext loads the overview and agents pages so every dataset lands in the
// dashboard context. Only an expired session stops it.
func (rt *runtime) primeContext() error {
	var g errgroup.Group
	g.Go(func() error {
		err := dashboard.NewOverviewPage(rt.api, rt.pages).Load(rt.ctx)
		if err != nil && stopOnError(err) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := dashboard.NewAgentsPage(rt.api, rt.pages).Load(rt.ctx)
		if err != nil && stopOnError(err) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// stopOnError reports whether a degraded load should abort the command.
// Only an expired session does; everything else renders with empty data.
func stopOnError(err error) bool {
	return leadsapi.IsUnauthorized(err)
}
