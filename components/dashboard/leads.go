package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

// DefaultPerPage is assumed until the backend reports its page size.
const DefaultPerPage = 25

// Medios lists the channel filter options.
var Medios = []string{"Google", "Facebook", "Email", "whatsapp", "Otros"}

// Resultados lists the management result filter options.
var Resultados = []string{leadsapi.ResultNoContactado, leadsapi.ResultContactado, leadsapi.ResultContactoEfectivo}

var resultBadges = map[string]string{
	leadsapi.ResultContactoEfectivo: "green",
	leadsapi.ResultContactado:       "blue",
	leadsapi.ResultNoContactado:     "red",
}

// ResultBadge maps a management result to its badge color.
func ResultBadge(result string) string {
	if badge, ok := resultBadges[result]; ok {
		return badge
	}
	return "yellow"
}

// MedioBadge maps a channel to its badge color.
func MedioBadge(medio string) string {
	switch medio {
	case "Google":
		return "blue"
	case "Facebook":
		return "purple"
	default:
		return "yellow"
	}
}

// LeadsFilters is the active filter selection.
type LeadsFilters struct {
	Page      int
	Search    string
	Medio     string
	Resultado string
}

// LeadsPage lists leads with search, channel and result filters.
type LeadsPage struct {
	pageCommon
	client leadsapi.LeadsClient

	mu      sync.RWMutex
	filters LeadsFilters
	data    leadsapi.LeadsPage
	loading bool
}

// NewLeadsPage builds the leads controller on page 1.
func NewLeadsPage(client leadsapi.LeadsClient, opts Options) *LeadsPage {
	return &LeadsPage{
		pageCommon: newPageCommon("leads", opts),
		client:     client,
		filters:    LeadsFilters{Page: 1},
		data:       leadsapi.LeadsPage{Page: 1, PerPage: DefaultPerPage},
		loading:    true,
	}
}

// Filters returns the active filters.
func (p *LeadsPage) Filters() LeadsFilters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filters
}

// Apply replaces every filter at once, as a submitted query string does.
// A page below 1 is clamped to 1.
func (p *LeadsPage) Apply(ctx context.Context, f LeadsFilters) error {
	if f.Page < 1 {
		f.Page = 1
	}
	f.Search = strings.TrimSpace(f.Search)
	p.mu.Lock()
	p.filters = f
	p.mu.Unlock()
	return p.Load(ctx)
}

// Search submits the search text and always resets to page 1.
func (p *LeadsPage) Search(ctx context.Context, text string) error {
	p.mu.Lock()
	p.filters.Search = strings.TrimSpace(text)
	p.filters.Page = 1
	p.mu.Unlock()
	return p.Load(ctx)
}

// SetMedio changes the channel filter and resets to page 1.
func (p *LeadsPage) SetMedio(ctx context.Context, medio string) error {
	p.mu.Lock()
	p.filters.Medio = medio
	p.filters.Page = 1
	p.mu.Unlock()
	return p.Load(ctx)
}

// SetResultado changes the result filter and resets to page 1.
func (p *LeadsPage) SetResultado(ctx context.Context, resultado string) error {
	p.mu.Lock()
	p.filters.Resultado = resultado
	p.filters.Page = 1
	p.mu.Unlock()
	return p.Load(ctx)
}

// NextPage advances one page. It is a no-op on the last page.
func (p *LeadsPage) NextPage(ctx context.Context) error {
	p.mu.Lock()
	if p.filters.Page >= totalPages(p.data) {
		p.mu.Unlock()
		return nil
	}
	p.filters.Page++
	p.mu.Unlock()
	return p.Load(ctx)
}

// PrevPage goes back one page. It is a no-op on page 1.
func (p *LeadsPage) PrevPage(ctx context.Context) error {
	p.mu.Lock()
	if p.filters.Page <= 1 {
		p.mu.Unlock()
		return nil
	}
	p.filters.Page--
	p.mu.Unlock()
	return p.Load(ctx)
}

// Load fetches the page for the active filters. A failed fetch keeps the previous data.
func (p *LeadsPage) Load(ctx context.Context) error {
	started := time.Now()
	p.mu.Lock()
	p.loading = true
	f := p.filters
	p.mu.Unlock()

	page, err := p.client.Leads(ctx, leadsapi.LeadsQuery{
		Page:      f.Page,
		Search:    f.Search,
		Medio:     f.Medio,
		Resultado: f.Resultado,
		Base:      p.base,
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.mu.Lock()
	if err == nil && p.filters == f {
		if page.PerPage <= 0 {
			page.PerPage = p.data.PerPage
		}
		p.data = page
	}
	p.loading = false
	p.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("dashboard: leads: %w", err)
	}
	p.finish(ctx, started, err)
	return err
}

// TotalPages is ceil(total/per_page), never below 1.
func (p *LeadsPage) TotalPages() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return totalPages(p.data)
}

func totalPages(page leadsapi.LeadsPage) int {
	return TotalPages(page.Total, page.PerPage)
}

// TotalPages computes max(1, ceil(total/perPage)).
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// LeadRow is one rendered table row.
type LeadRow struct {
	ID          string
	Nombre      string
	Email       string
	Telefono    string
	Medio       string
	MedioBadge  string
	Programa    string
	Resultado   string
	ResultBadge string
	Toques      int
	FechaLead   string
}

// LeadsView is the render model of the leads page.
type LeadsView struct {
	Title      string
	Loading    bool
	Filters    LeadsFilters
	Medios     []string
	Resultados []string
	Rows       []LeadRow
	Total      string
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// View derives the render model.
func (p *LeadsPage) View() LeadsView {
	p.mu.RLock()
	f := p.filters
	data := p.data
	loading := p.loading
	p.mu.RUnlock()

	pages := totalPages(data)
	view := LeadsView{
		Title:      TitleLeads,
		Loading:    loading,
		Filters:    f,
		Medios:     Medios,
		Resultados: Resultados,
		Total:      FormatCount(data.Total),
		Page:       f.Page,
		TotalPages: pages,
		HasPrev:    f.Page > 1,
		HasNext:    f.Page < pages,
		PrevPage:   max(f.Page-1, 1),
		NextPage:   min(f.Page+1, pages),
	}
	for _, lead := range data.Data {
		view.Rows = append(view.Rows, BuildLeadRow(lead))
	}
	return view
}

// BuildLeadRow formats a lead for display.
func BuildLeadRow(lead leadsapi.Lead) LeadRow {
	return LeadRow{
		ID:          string(lead.ID),
		Nombre:      orPlaceholder(lead.Nombre),
		Email:       orPlaceholder(lead.Email),
		Telefono:    orPlaceholder(lead.Telefono),
		Medio:       orPlaceholder(lead.Medio),
		MedioBadge:  MedioBadge(lead.Medio),
		Programa:    orPlaceholder(lead.ProgramaInteres),
		Resultado:   orPlaceholder(lead.ResultadoGestion),
		ResultBadge: ResultBadge(lead.ResultadoGestion),
		Toques:      int(lead.Toques),
		FechaLead:   FormatDate(lead.FechaLead),
	}
}

// ParsePage reads a page number from user input, defaulting to 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
