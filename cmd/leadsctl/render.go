package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/goliatone/go-leads-dashboard/components/aipanel"
	"github.com/goliatone/go-leads-dashboard/components/dashboard"
	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

const barCells = 40

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

var swatches = map[string]lipgloss.Color{
	"blue":   lipgloss.Color("33"),
	"green":  lipgloss.Color("35"),
	"red":    lipgloss.Color("160"),
	"yellow": lipgloss.Color("178"),
	"purple": lipgloss.Color("135"),
	"cyan":   lipgloss.Color("37"),
}

func swatch(name string) lipgloss.Color {
	if c, ok := swatches[name]; ok {
		return c
	}
	if strings.HasPrefix(name, "#") {
		return lipgloss.Color(name)
	}
	return lipgloss.Color("245")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...)
}

func bar(width float64, color string) string {
	cells := int(math.Round(width / 100 * barCells))
	cells = max(1, min(cells, barCells))
	return lipgloss.NewStyle().Foreground(swatch(color)).Render(strings.Repeat("█", cells))
}

func renderOverview(view dashboard.OverviewView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(view.Title) + "\n")

	cards := make([]string, len(view.Cards))
	for i, card := range view.Cards {
		cards[i] = cardStyle.BorderForeground(swatch(card.Color)).Render(
			labelStyle.Render(card.Label) + "\n" + valueStyle.Render(card.Value))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n\n")

	b.WriteString(valueStyle.Render("Funnel") + "\n")
	for _, f := range view.Funnel {
		line := fmt.Sprintf("%-14s %s %s (%s%%)", f.Stage, bar(f.Width, f.Color), f.Value, f.Percent)
		if f.StepDown != "" {
			line += mutedStyle.Render(" ↓ " + f.StepDown)
		}
		b.WriteString(line + "\n")
	}

	trends := newTable("Periodo ("+view.Period+")", "Leads", "Efectivos", "Matriculados")
	for _, t := range view.Trends {
		trends.Row(t.Label, strconv.Itoa(t.Leads), strconv.Itoa(t.Efectivos), strconv.Itoa(t.Matriculados))
	}
	b.WriteString("\n" + trends.String() + "\n")

	b.WriteString(breakdownTable("Medio", view.ByMedio) + "\n")
	b.WriteString(breakdownTable("Programa", view.ByPrograma))
	return b.String()
}

func breakdownTable(label string, rows []dashboard.BreakdownRow) string {
	t := newTable(label, "Total", "Efectivos", "Tasa")
	for _, r := range rows {
		t.Row(r.Label, r.Total, r.Efectivos, r.Rate)
	}
	return t.String()
}

func renderFunnel(view dashboard.FunnelView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(view.Title) + "\n")
	for _, row := range view.Rows {
		line := fmt.Sprintf("%s %-14s %s %s", row.Icon, row.Stage, bar(row.Width, row.Color), row.Value)
		if row.First {
			line += mutedStyle.Render(" " + row.Conversion + "%")
		} else {
			line += mutedStyle.Render(fmt.Sprintf(" %s%% del anterior · −%s perdidos", row.Conversion, row.Lost))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\nConversión total: " + valueStyle.Render(view.Overall+"%") + "\n")
	for _, s := range view.Summary {
		b.WriteString(labelStyle.Render(s.Label) + " " + s.Rate + "%\n")
	}
	return b.String()
}

func renderLeads(view dashboard.LeadsView) string {
	t := newTable("ID", "Nombre", "Email", "Teléfono", "Medio", "Programa", "Resultado", "Toques", "Fecha")
	for _, r := range view.Rows {
		t.Row(r.ID, r.Nombre, r.Email, r.Telefono,
			lipgloss.NewStyle().Foreground(swatch(r.MedioBadge)).Render(r.Medio),
			r.Programa,
			lipgloss.NewStyle().Foreground(swatch(r.ResultBadge)).Render(r.Resultado),
			strconv.Itoa(r.Toques), r.FechaLead)
	}
	footer := fmt.Sprintf("%s registros · Página %d de %d", view.Total, view.Page, view.TotalPages)
	return titleStyle.Render(view.Title) + "\n" + t.String() + "\n" + mutedStyle.Render(footer)
}

func renderAgents(view dashboard.AgentsView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(view.Title) + "\n")
	podium := make([]string, len(view.Podium))
	for i, a := range view.Podium {
		podium[i] = cardStyle.Render(fmt.Sprintf("%s %s\n%s\n%s leads", a.Medal, valueStyle.Render(a.Usuario), a.Conversion+"%", a.TotalLeads))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, podium...) + "\n")

	t := newTable("#", "Agente", "Leads", "Contactados", "Contacto Efectivo", "Matriculados", "Conversión")
	for _, a := range view.Ranking {
		rank := a.Medal
		if rank == "" {
			rank = strconv.Itoa(a.Rank)
		}
		t.Row(rank, a.Usuario, a.TotalLeads, a.Contactados, a.ContactoEfectivo, a.Matriculados, a.Conversion+"%")
	}
	b.WriteString(t.String())
	return b.String()
}

func renderBases(bases []leadsapi.Base) string {
	t := newTable("ID", "Descripción")
	for _, base := range bases {
		t.Row(string(base.ID), base.Descripcion)
	}
	return t.String()
}

func renderInsights(insights []leadsapi.Insight) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(aipanel.TabInsights.Label()) + "\n")
	for _, in := range insights {
		b.WriteString(cardStyle.Width(72).Render(valueStyle.Render(in.Title)+"\n"+in.Description) + "\n")
	}
	return b.String()
}

func renderPredictions(predictions []leadsapi.Prediction) string {
	if len(predictions) == 0 {
		return titleStyle.Render(aipanel.TabPredictions.Label()) + "\n" + mutedStyle.Render("Sin predicciones")
	}
	t := newTable("Periodo", "Leads", "Efectivos", "Confianza")
	for _, p := range predictions {
		t.Row(p.Period,
			dashboard.FormatCount(int(math.Round(p.PredictedLeads))),
			dashboard.FormatCount(int(math.Round(p.PredictedEfectivos))),
			aipanel.FormatConfidence(p.Confidence))
	}
	return titleStyle.Render(aipanel.TabPredictions.Label()) + "\n" + t.String()
}
