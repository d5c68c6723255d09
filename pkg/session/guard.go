package session

import "strings"

// Dashboard routes. Everything under RouteOverview requires a session.
const (
	RouteLogin    = "/"
	RouteOverview = "/dashboard"
	RouteFunnel   = "/dashboard/funnel"
	RouteLeads    = "/dashboard/leads"
	RouteAgents   = "/dashboard/agents"
)

var knownRoutes = map[string]bool{
	RouteLogin:    true,
	RouteOverview: true,
	RouteFunnel:   true,
	RouteLeads:    true,
	RouteAgents:   true,
}

// Navigator performs a route change on behalf of the HTTP client.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function into a Navigator.
type NavigatorFunc func(route string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(route string) {
	if f != nil {
		f(route)
	}
}

// Guard gates the dashboard subtree on the presence of a stored token.
// It never validates the token; the HTTP client catches stale tokens on 401.
type Guard struct {
	store Store
}

// NewGuard builds a guard over the given store.
func NewGuard(store Store) Guard {
	return Guard{store: store}
}

// Allow reports whether protected routes may render. Evaluated on every call.
func (g Guard) Allow() bool {
	if g.store == nil {
		return false
	}
	_, ok := g.store.Token()
	return ok
}

// Resolve maps a requested path to the route that should render.
func (g Guard) Resolve(path string) string {
	path = normalizeRoute(path)
	if !knownRoutes[path] {
		return RouteLogin
	}
	if IsProtected(path) && !g.Allow() {
		return RouteLogin
	}
	return path
}

// IsProtected reports whether the route lives under the dashboard subtree.
func IsProtected(path string) bool {
	path = normalizeRoute(path)
	return path == RouteOverview || strings.HasPrefix(path, RouteOverview+"/")
}

func normalizeRoute(path string) string {
	path = strings.TrimSpace(path)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" {
		return RouteLogin
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
