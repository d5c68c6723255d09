package webui

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	router "github.com/goliatone/go-router"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-leads-dashboard/components/aipanel"
	"github.com/goliatone/go-leads-dashboard/components/dashboard"
	"github.com/goliatone/go-leads-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

const mimeHTML = "text/html; charset=utf-8"

// Leads pager tokens accepted by the page query parameter.
const (
	PageNext = "next"
	PagePrev = "prev"
)

// Config wires go-router with the dashboard page controllers.
type Config[T any] struct {
	Router    router.Router[T]
	API       leadsapi.API
	Store     session.Store
	Renderer  dashboard.Renderer
	Panel     *aipanel.Panel
	Pages     dashboard.Options
	Telemetry commands.Telemetry
	Logger    logrus.FieldLogger
	Routes    RouteConfig
}

// RouteConfig customizes the paths used for the form endpoints and the AI panel.
// Page routes are fixed by the session package.
type RouteConfig struct {
	LoginSubmit  string
	Logout       string
	AI           string
	AIChat       string
	AIRegenerate string
}

type handlers struct {
	api      leadsapi.API
	store    session.Store
	guard    session.Guard
	renderer dashboard.Renderer
	panel    *aipanel.Panel
	pages    dashboard.Options
	login    *dashboard.LoginPage
	layout   *dashboard.Layout
	routes   RouteConfig
	log      logrus.FieldLogger

	// overview and leads live for the session; login and logout drop them.
	mu       sync.Mutex
	overview *dashboard.OverviewPage
	leads    *dashboard.LeadsPage
	base     string
}

// Register mounts the login form, the guarded dashboard pages and the AI panel.
// Routers that accept miss handlers also get the unknown-path redirect.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("webui: router is required")
	}
	if cfg.API == nil {
		return errors.New("webui: api is required")
	}
	if cfg.Store == nil {
		return errors.New("webui: session store is required")
	}
	if cfg.Renderer == nil {
		return errors.New("webui: renderer is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	panel := cfg.Panel
	if panel == nil {
		panel = aipanel.New(cfg.API, aipanel.Options{Logger: log})
	}
	var dash *leadsapi.DashboardContext
	if holder, ok := cfg.API.(interface {
		Context() *leadsapi.DashboardContext
	}); ok {
		dash = holder.Context()
	}

	h := &handlers{
		api:      cfg.API,
		store:    cfg.Store,
		guard:    session.NewGuard(cfg.Store),
		renderer: cfg.Renderer,
		panel:    panel,
		pages:    cfg.Pages,
		login:    dashboard.NewLoginPage(commands.NewLoginCommand(cfg.API, cfg.Store, cfg.Telemetry)),
		layout:   dashboard.NewLayout(cfg.Store, commands.NewLogoutCommand(cfg.Store, dash, cfg.Telemetry)),
		routes:   defaultRouteConfig(cfg.Routes),
		log:      log.WithField("component", "webui"),
	}
	if h.pages.Logger == nil {
		h.pages.Logger = log
	}

	r := cfg.Router
	r.Get(session.RouteLogin, router.WrapHandler(h.loginForm))
	r.Post(h.routes.LoginSubmit, router.WrapHandler(h.loginSubmit))
	r.Post(h.routes.Logout, router.WrapHandler(h.logout))

	group := r.Group(session.RouteOverview)
	group.Use(h.requireSession)
	group.Get("/", router.WrapHandler(h.overviewPage))
	group.Get(relative(session.RouteFunnel), router.WrapHandler(h.funnel))
	group.Get(relative(session.RouteLeads), router.WrapHandler(h.leadsPage))
	group.Get(relative(session.RouteAgents), router.WrapHandler(h.agents))
	group.Get(relative(h.routes.AI), router.WrapHandler(h.ai))
	group.Post(relative(h.routes.AIChat), router.WrapHandler(h.aiChat))
	group.Post(relative(h.routes.AIRegenerate), router.WrapHandler(h.aiRegenerate))

	if miss, ok := r.(router.MissHandlerRegistrar); ok {
		miss.HandleMiss(router.GET, router.WrapHandler(h.fallback))
		miss.HandleMiss(router.POST, router.WrapHandler(h.fallback))
	}
	return nil
}

func (h *handlers) requireSession(next router.HandlerFunc) router.HandlerFunc {
	return func(ctx router.Context) error {
		if !h.guard.Allow() {
			return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
		}
		return next(ctx)
	}
}

// fallback sends unknown paths to the route the guard resolves, which is the login page.
func (h *handlers) fallback(ctx router.Context) error {
	return ctx.Redirect(h.guard.Resolve(ctx.Path()), http.StatusSeeOther)
}

func (h *handlers) loginForm(ctx router.Context) error {
	if h.guard.Allow() {
		return ctx.Redirect(session.RouteOverview, http.StatusSeeOther)
	}
	return h.renderLogin(ctx, http.StatusOK, "", "")
}

func (h *handlers) loginSubmit(ctx router.Context) error {
	username := ctx.FormValue("username")
	result := h.login.Submit(ctx.Context(), username, ctx.FormValue("password"))
	if result.Err != nil {
		h.log.WithError(result.Err).WithField("username", username).Info("login rejected")
		return h.renderLogin(ctx, http.StatusUnauthorized, username, result.Error)
	}
	h.resetSession()
	return ctx.Redirect(result.Next, http.StatusSeeOther)
}

func (h *handlers) logout(ctx router.Context) error {
	next, err := h.layout.Logout(ctx.Context())
	if err != nil {
		h.log.WithError(err).Warn("logout failed")
	}
	h.resetSession()
	return ctx.Redirect(next, http.StatusSeeOther)
}

func (h *handlers) resetSession() {
	h.panel.Reset()
	h.mu.Lock()
	h.overview = nil
	h.leads = nil
	h.base = ""
	h.mu.Unlock()
}

// selectedBase is the base from the query, or the one the session pages use.
func (h *handlers) selectedBase(ctx router.Context) string {
	h.mu.Lock()
	base := h.pages.Base
	if h.overview != nil {
		base = h.base
	}
	h.mu.Unlock()
	return ctx.Query("base", base)
}

// sessionPages returns the overview and leads controllers for base, building fresh
// ones when the session has none yet or the base moved. fresh reports a rebuild.
func (h *handlers) sessionPages(base string) (overview *dashboard.OverviewPage, leads *dashboard.LeadsPage, fresh bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.overview == nil || h.base != base {
		opts := h.pages
		opts.Base = base
		h.overview = dashboard.NewOverviewPage(h.api, opts)
		h.leads = dashboard.NewLeadsPage(h.api, opts)
		h.base = base
		fresh = true
	}
	return h.overview, h.leads, fresh
}

func (h *handlers) overviewPage(ctx router.Context) error {
	period := ctx.Query("period")
	if period != "" && !leadsapi.ValidPeriod(period) {
		return respondError(ctx, http.StatusBadRequest, errors.New("webui: unknown period "+strconv.Quote(period)))
	}
	page, _, fresh := h.sessionPages(h.selectedBase(ctx))

	var err error
	switch {
	case fresh || !page.State().Loaded:
		if period != "" {
			_ = page.UsePeriod(period)
		}
		err = page.Load(ctx.Context())
	case period != "" && period != page.State().Period:
		err = page.SetPeriod(ctx.Context(), period)
	}
	if h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	charts, err := page.Charts()
	if err != nil {
		h.log.WithError(err).Warn("overview charts unavailable")
	}
	return h.renderPage(ctx, session.RouteOverview, dashboard.TemplateOverview, map[string]any{
		"page":   page.View(),
		"charts": charts,
	})
}

func (h *handlers) funnel(ctx router.Context) error {
	page := dashboard.NewFunnelPage(h.api, h.pages)
	if err := page.Load(ctx.Context()); h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	chart, err := page.Chart()
	if err != nil {
		h.log.WithError(err).Warn("funnel chart unavailable")
	}
	return h.renderPage(ctx, session.RouteFunnel, dashboard.TemplateFunnel, map[string]any{
		"page":  page.View(),
		"chart": chart,
	})
}

func (h *handlers) leadsPage(ctx router.Context) error {
	_, page, fresh := h.sessionPages(h.selectedBase(ctx))
	query := leadsQuery{
		page:      ctx.Query("page"),
		search:    ctx.Query("search"),
		medio:     ctx.Query("medio"),
		resultado: ctx.Query("resultado"),
	}
	if err := applyLeads(ctx.Context(), page, query, fresh); h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	view := page.View()
	return h.renderPage(ctx, session.RouteLeads, dashboard.TemplateLeads, map[string]any{
		"page":    view,
		"prevURL": leadsURL(view.Filters, PagePrev),
		"nextURL": leadsURL(view.Filters, PageNext),
	})
}

type leadsQuery struct {
	page      string
	search    string
	medio     string
	resultado string
}

// applyLeads maps a leads request onto the page controller. A single changed filter
// goes through its setter, the pager tokens step one page, anything else is applied whole.
func applyLeads(ctx context.Context, page *dashboard.LeadsPage, q leadsQuery, fresh bool) error {
	current := page.Filters()
	filters := dashboard.LeadsFilters{
		Page:      dashboard.ParsePage(q.page),
		Search:    q.search,
		Medio:     q.medio,
		Resultado: q.resultado,
	}
	if fresh {
		return page.Apply(ctx, filters)
	}

	changed := 0
	if q.search != current.Search {
		changed++
	}
	if q.medio != current.Medio {
		changed++
	}
	if q.resultado != current.Resultado {
		changed++
	}
	switch {
	case changed > 1:
		filters.Page = 1
		return page.Apply(ctx, filters)
	case q.search != current.Search:
		return page.Search(ctx, q.search)
	case q.medio != current.Medio:
		return page.SetMedio(ctx, q.medio)
	case q.resultado != current.Resultado:
		return page.SetResultado(ctx, q.resultado)
	case q.page == PageNext:
		return page.NextPage(ctx)
	case q.page == PagePrev:
		return page.PrevPage(ctx)
	default:
		return page.Apply(ctx, filters)
	}
}

func (h *handlers) agents(ctx router.Context) error {
	page := dashboard.NewAgentsPage(h.api, h.pages)
	if err := page.Load(ctx.Context()); h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	chart, err := page.Chart()
	if err != nil {
		h.log.WithError(err).Warn("agents chart unavailable")
	}
	return h.renderPage(ctx, session.RouteAgents, dashboard.TemplateAgents, map[string]any{
		"page":  page.View(),
		"chart": chart,
	})
}

type predictionRow struct {
	Period     string
	Leads      string
	Efectivos  string
	Confidence string
}

type tabLink struct {
	ID     string
	Label  string
	Active bool
}

func (h *handlers) ai(ctx router.Context) error {
	tab := h.panel.Tab()
	if raw := ctx.Query("tab"); raw != "" {
		tab = aipanel.ParseTab(raw)
	}
	if err := h.panel.Activate(ctx.Context(), tab); h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	return h.renderAI(ctx)
}

func (h *handlers) aiChat(ctx router.Context) error {
	if _, err := h.panel.Send(ctx.Context(), ctx.FormValue("message")); h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	return ctx.Redirect(h.routes.AI+"?tab="+string(aipanel.TabChat), http.StatusSeeOther)
}

func (h *handlers) aiRegenerate(ctx router.Context) error {
	tab := aipanel.ParseTab(ctx.Query("tab", string(h.panel.Tab())))
	if err := h.panel.Activate(ctx.Context(), tab); h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	if err := h.panel.Regenerate(ctx.Context()); h.unauthorized(err) {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	return ctx.Redirect(h.routes.AI+"?tab="+string(tab), http.StatusSeeOther)
}

func (h *handlers) renderAI(ctx router.Context) error {
	active := h.panel.Tab()
	tabs := make([]tabLink, len(aipanel.Tabs))
	for i, tab := range aipanel.Tabs {
		tabs[i] = tabLink{ID: string(tab), Label: tab.Label(), Active: tab == active}
	}
	insights, _ := h.panel.Insights()
	predictions, _ := h.panel.Predictions()
	rows := make([]predictionRow, len(predictions))
	for i, p := range predictions {
		rows[i] = predictionRow{
			Period:     p.Period,
			Leads:      dashboard.FormatCount(int(math.Round(p.PredictedLeads))),
			Efectivos:  dashboard.FormatCount(int(math.Round(p.PredictedEfectivos))),
			Confidence: aipanel.FormatConfidence(p.Confidence),
		}
	}
	return h.renderPage(ctx, h.routes.AI, dashboard.TemplateAI, map[string]any{
		"tabs":        tabs,
		"active":      string(active),
		"transcript":  h.panel.Transcript(),
		"insights":    insights,
		"predictions": rows,
	})
}

func (h *handlers) renderPage(ctx router.Context, route, name string, data map[string]any) error {
	if !h.guard.Allow() {
		return ctx.Redirect(session.RouteLogin, http.StatusSeeOther)
	}
	var buf bytes.Buffer
	if err := dashboard.RenderPage(h.renderer, name, h.layout.View(route), data, &buf); err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	ctx.SetHeader(router.HeaderContentType, mimeHTML)
	return ctx.Send(buf.Bytes())
}

func (h *handlers) renderLogin(ctx router.Context, status int, username, message string) error {
	html, err := h.renderer.Render(dashboard.TemplateLogin, map[string]any{
		"username": username,
		"error":    message,
	})
	if err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	ctx.SetHeader(router.HeaderContentType, mimeHTML)
	return ctx.Status(status).SendString(html)
}

// unauthorized reports whether err carries a 401. The client already cleared the session.
func (h *handlers) unauthorized(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if leadsapi.IsUnauthorized(err) {
		h.log.Info("session expired")
		return true
	}
	return false
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func leadsURL(f dashboard.LeadsFilters, page string) string {
	q := url.Values{}
	q.Set("page", page)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Medio != "" {
		q.Set("medio", f.Medio)
	}
	if f.Resultado != "" {
		q.Set("resultado", f.Resultado)
	}
	return session.RouteLeads + "?" + q.Encode()
}

func relative(route string) string {
	if len(route) > len(session.RouteOverview) && route[:len(session.RouteOverview)] == session.RouteOverview {
		return route[len(session.RouteOverview):]
	}
	return route
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.LoginSubmit == "" {
		routes.LoginSubmit = "/login"
	}
	if routes.Logout == "" {
		routes.Logout = "/logout"
	}
	if routes.AI == "" {
		routes.AI = session.RouteOverview + "/ai"
	}
	if routes.AIChat == "" {
		routes.AIChat = routes.AI + "/chat"
	}
	if routes.AIRegenerate == "" {
		routes.AIRegenerate = routes.AI + "/regenerate"
	}
	return routes
}
