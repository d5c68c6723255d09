package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-leads-dashboard/components/aipanel"
	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

type chatCmd struct{}

func (c *chatCmd) Run(rt *runtime) error {
	if err := rt.requireSession(); err != nil {
		return err
	}
	panel, err := rt.newPanel()
	if err != nil {
		return err
	}
	model := newChatModel(rt.ctx, panel)
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(rt.ctx)).Run()
	return err
}

type replyMsg struct{ err error }

type tabLoadedMsg struct {
	tab aipanel.Tab
	err error
}

var (
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type chatModel struct {
	ctx     context.Context
	panel   *aipanel.Panel
	input   textinput.Model
	spinner spinner.Model
	busy    bool
	status  string
	width   int
}

func newChatModel(ctx context.Context, panel *aipanel.Panel) chatModel {
	in := textinput.New()
	in.Placeholder = "Preguntá sobre tus leads..."
	in.CharLimit = 500
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return chatModel{ctx: ctx, panel: panel, input: in, spinner: sp, width: 80}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case replyMsg:
		m.busy = false
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case tabLoadedMsg:
		m.busy = false
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			if m.busy {
				return m, nil
			}
			return m.switchTab(nextTab(m.panel.Tab()))
		case "enter":
			if m.panel.Tab() != aipanel.TabChat || m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			return m, tea.Batch(m.sendCmd(text), m.spinner.Tick)
		case "r":
			if m.panel.Tab() != aipanel.TabChat {
				if m.busy {
					return m, nil
				}
				m.busy = true
				return m, tea.Batch(m.regenerateCmd(), m.spinner.Tick)
			}
		}
	}

	if m.panel.Tab() != aipanel.TabChat {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) switchTab(tab aipanel.Tab) (tea.Model, tea.Cmd) {
	if tab == aipanel.TabChat {
		_ = m.panel.Activate(m.ctx, tab)
		m.input.Focus()
		return m, textinput.Blink
	}
	m.input.Blur()
	m.busy = true
	return m, tea.Batch(m.activateCmd(tab), m.spinner.Tick)
}

func (m chatModel) sendCmd(text string) tea.Cmd {
	panel, ctx := m.panel, m.ctx
	return func() tea.Msg {
		_, err := panel.Send(ctx, text)
		return replyMsg{err: err}
	}
}

func (m chatModel) activateCmd(tab aipanel.Tab) tea.Cmd {
	panel, ctx := m.panel, m.ctx
	return func() tea.Msg {
		return tabLoadedMsg{tab: tab, err: panel.Activate(ctx, tab)}
	}
}

func (m chatModel) regenerateCmd() tea.Cmd {
	panel, ctx := m.panel, m.ctx
	return func() tea.Msg {
		return tabLoadedMsg{tab: panel.Tab(), err: panel.Regenerate(ctx)}
	}
}

func nextTab(current aipanel.Tab) aipanel.Tab {
	for i, tab := range aipanel.Tabs {
		if tab == current {
			return aipanel.Tabs[(i+1)%len(aipanel.Tabs)]
		}
	}
	return aipanel.TabChat
}

func (m chatModel) View() string {
	active := m.panel.Tab()
	tabs := make([]string, len(aipanel.Tabs))
	for i, tab := range aipanel.Tabs {
		style := tabStyle
		if tab == active {
			style = activeTabStyle
		}
		tabs[i] = style.Render(tab.Label())
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")
	switch active {
	case aipanel.TabInsights:
		insights, _ := m.panel.Insights()
		b.WriteString(renderInsights(insights))
	case aipanel.TabPredictions:
		predictions, _ := m.panel.Predictions()
		b.WriteString(renderPredictions(predictions))
	default:
		b.WriteString(renderTranscript(m.panel.Transcript(), m.width))
		b.WriteString("\n" + m.input.View())
	}
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " Pensando...\n")
	}
	if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status) + "\n")
	}
	b.WriteString(mutedStyle.Render("tab: cambiar pestaña · r: regenerar · esc: salir"))
	return b.String()
}

func renderTranscript(messages []leadsapi.ChatMessage, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-2, 20))
	var b strings.Builder
	for _, msg := range messages {
		if msg.Role == leadsapi.RoleUser {
			b.WriteString(wrap.Render(userStyle.Render("Vos: ")+msg.Content) + "\n")
			continue
		}
		b.WriteString(wrap.Render(assistantStyle.Render("IA: "+msg.Content)) + "\n")
	}
	return b.String()
}
