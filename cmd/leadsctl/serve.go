package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-leads-dashboard/components/aipanel"
	"github.com/goliatone/go-leads-dashboard/components/dashboard"
	"github.com/goliatone/go-leads-dashboard/components/dashboard/webui"
)

type serveCmd struct {
	Addr      string        `env:"LEADS_ADDR" default:"127.0.0.1:5173" help:"Listen address."`
	ChartTTL  time.Duration `name:"chart-ttl" default:"5m" help:"How long rendered chart markup is reused; 0 disables it."`
	AssetsURL string        `name:"assets-url" default:"https://go-echarts.github.io/go-echarts-assets/assets/" help:"Host serving the ECharts scripts."`
}

func (c *serveCmd) Run(rt *runtime) error {
	server, err := c.build(rt)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		rt.log.WithField("addr", c.Addr).Info("dashboard listening")
		errCh <- server.Serve(c.Addr)
	}()
	fmt.Fprintf(rt.out, "Dashboard en http://%s\n", c.Addr)

	select {
	case err := <-errCh:
		return err
	case <-rt.ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, shutdownCtx.Err()) {
		return err
	}
	return nil
}

func (c *serveCmd) build(rt *runtime) (router.Server[*fiber.App], error) {
	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("leadsctl: templates: %w", err)
	}
	rt.navigate = webui.LogNavigator(rt.log).Navigate

	pages := rt.pages
	pages.Charts = dashboard.NewCharts(
		dashboard.WithChartCache(dashboard.NewChartSlots(c.ChartTTL)),
		dashboard.WithChartAssetsHost(c.AssetsURL),
	)
	server := router.NewFiberAdapter(withRequestLog(rt))
	err = webui.Register(webui.Config[*fiber.App]{
		Router:    server.Router(),
		API:       rt.api,
		Store:     rt.store,
		Renderer:  renderer,
		Panel:     aipanel.New(rt.api, aipanel.Options{Validator: aipanel.NewJSONSchemaValidator(), Telemetry: rt.telemetry, Logger: rt.log}),
		Pages:     pages,
		Telemetry: rt.telemetry,
		Logger:    rt.log,
	})
	if err != nil {
		return nil, err
	}
	return server, nil
}

// withRequestLog keeps fiber's access log on the runtime's error stream.
func withRequestLog(rt *runtime) func(*fiber.App) *fiber.App {
	return func(app *fiber.App) *fiber.App {
		app.Use(logger.New(logger.Config{Output: rt.errOut}))
		return app
	}
}
