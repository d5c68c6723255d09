package dashboard

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-leads-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

// NavItem is one sidebar entry.
type NavItem struct {
	Label  string
	Route  string
	Active bool
}

var navigation = []NavItem{
	{Label: "Overview", Route: session.RouteOverview},
	{Label: "Funnel", Route: session.RouteFunnel},
	{Label: "Leads", Route: session.RouteLeads},
	{Label: "Agentes", Route: session.RouteAgents},
}

// LayoutView is the chrome around every dashboard page.
type LayoutView struct {
	Brand    string
	Title    string
	Username string
	Route    string
	Nav      []NavItem
}

// Layout renders the dashboard chrome and ends sessions.
type Layout struct {
	store  session.Store
	logout gocommand.Commander[commands.LogoutInput]
}

// NewLayout builds the layout over the session store and the logout command.
func NewLayout(store session.Store, logout gocommand.Commander[commands.LogoutInput]) *Layout {
	return &Layout{store: store, logout: logout}
}

// View builds the chrome for route. Overview matches only its exact route.
func (l *Layout) View(route string) LayoutView {
	view := LayoutView{
		Brand: "CrexeWeb",
		Title: PageTitle(route),
		Route: route,
		Nav:   make([]NavItem, len(navigation)),
	}
	if l.store != nil {
		view.Username = l.store.Username()
	}
	for i, item := range navigation {
		item.Active = item.Route == route
		view.Nav[i] = item
	}
	return view
}

// Logout clears the session and returns the route to show next.
func (l *Layout) Logout(ctx context.Context) (string, error) {
	if l.logout == nil {
		return session.RouteLogin, nil
	}
	if err := l.logout.Execute(ctx, commands.LogoutInput{}); err != nil {
		return session.RouteLogin, err
	}
	return session.RouteLogin, nil
}

// PageTitle maps a dashboard route to its header title.
func PageTitle(route string) string {
	switch {
	case strings.Contains(route, "funnel"):
		return TitleFunnel
	case strings.Contains(route, "leads"):
		return TitleLeads
	case strings.Contains(route, "agents"):
		return TitleAgents
	default:
		return TitleOverview
	}
}
