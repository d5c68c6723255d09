package dashboard

import (
	"fmt"
	"io"
)

// Template names shipped in the embedded template set.
const (
	TemplateLayout   = "layout.html"
	TemplateLogin    = "login.html"
	TemplateOverview = "overview.html"
	TemplateFunnel   = "funnel.html"
	TemplateLeads    = "leads.html"
	TemplateAgents   = "agents.html"
	TemplateAI       = "ai.html"
)

// Renderer describes the template renderer contract needed by the web UI.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// RenderPage renders the named body template inside the dashboard layout.
func RenderPage(r Renderer, name string, layout LayoutView, data map[string]any, out io.Writer) error {
	if r == nil {
		return fmt.Errorf("dashboard: renderer is required")
	}
	body, err := r.Render(name, data)
	if err != nil {
		return fmt.Errorf("dashboard: render %s: %w", name, err)
	}
	if _, err := r.Render(TemplateLayout, map[string]any{"layout": layout, "body": body}, out); err != nil {
		return fmt.Errorf("dashboard: render layout: %w", err)
	}
	return nil
}
