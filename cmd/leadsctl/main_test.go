package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-leads-dashboard/components/aipanel"
	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

func parse(t *testing.T, args ...string) (*cli, *kong.Context) {
	t.Helper()
	var app cli
	parser, err := kong.New(&app, kong.Name("leadsctl"), kong.Exit(func(int) { t.Fatalf("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &app, kctx
}

func TestParseFlagsAndEnv(t *testing.T) {
	t.Setenv("LEADS_API_URL", "http://backend:9000")
	t.Setenv("LEADS_BASE", "7")

	app, kctx := parse(t, "leads", "--page", "3", "--search", "ana", "--medio", "Google")
	assert.Equal(t, "leads", kctx.Command())
	assert.Equal(t, "http://backend:9000", app.APIURL)
	assert.Equal(t, "7", app.Base)
	assert.Equal(t, "warn", app.LogLevel)
	assert.Equal(t, 3, app.Leads.Page)
	assert.Equal(t, "ana", app.Leads.Search)
	assert.Equal(t, "Google", app.Leads.Medio)

	app, _ = parse(t, "overview")
	assert.Equal(t, leadsapi.PeriodWeek, app.Overview.Period)

	app, _ = parse(t, "serve")
	assert.Equal(t, "127.0.0.1:5173", app.Serve.Addr)
}

func newDemoRuntime(t *testing.T) (*runtime, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	rt, err := newRuntime(context.Background(), Globals{
		Demo:        true,
		LogLevel:    "error",
		SessionFile: filepath.Join(t.TempDir(), "session.yaml"),
	}, &out, io.Discard)
	require.NoError(t, err)
	return rt, &out
}

func TestDemoSessionLifecycle(t *testing.T) {
	rt, out := newDemoRuntime(t)

	err := (&overviewCmd{Period: leadsapi.PeriodWeek}).Run(rt)
	require.ErrorIs(t, err, errNoSession)

	err = (&loginCmd{Username: "admin", Password: "wrong"}).Run(rt)
	require.EqualError(t, err, "Credenciales inválidas")

	require.NoError(t, (&loginCmd{Username: " admin ", Password: "secret"}).Run(rt))
	assert.Contains(t, out.String(), "Sesión iniciada como admin")

	out.Reset()
	require.NoError(t, (&whoamiCmd{}).Run(rt))
	assert.Equal(t, "admin\n", out.String())

	require.NoError(t, (&logoutCmd{}).Run(rt))
	_, ok := rt.store.Token()
	assert.False(t, ok)
	assert.Nil(t, rt.dash.Snapshot().KPIs)
}

func TestDemoPages(t *testing.T) {
	rt, out := newDemoRuntime(t)
	require.NoError(t, rt.store.Save("demo-admin", "admin"))

	require.NoError(t, (&overviewCmd{Period: leadsapi.PeriodMonth}).Run(rt))
	assert.Contains(t, out.String(), "Total Leads")
	assert.Contains(t, out.String(), "1.000")
	assert.Contains(t, out.String(), "08-01")

	out.Reset()
	require.NoError(t, (&funnelCmd{}).Run(rt))
	assert.Contains(t, out.String(), "Conversión total")

	out.Reset()
	require.NoError(t, (&leadsCmd{Page: 1, Search: "ana"}).Run(rt))
	assert.Contains(t, out.String(), "Ana Torres")
	assert.Contains(t, out.String(), "Página 1 de 1")

	out.Reset()
	require.NoError(t, (&agentsCmd{}).Run(rt))
	assert.Contains(t, out.String(), "lperez")
	assert.Contains(t, out.String(), "🥇")

	out.Reset()
	require.NoError(t, (&basesCmd{}).Run(rt))
	assert.Contains(t, out.String(), "Pregrado 2026-2")

	out.Reset()
	require.NoError(t, (&insightsCmd{}).Run(rt))
	assert.Contains(t, out.String(), "Google lidera")

	out.Reset()
	require.NoError(t, (&predictionsCmd{}).Run(rt))
	assert.Contains(t, out.String(), "78%")
}

func TestExpiredSessionStopsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var out, errOut bytes.Buffer
	rt, err := newRuntime(context.Background(), Globals{
		APIURL:      srv.URL,
		LogLevel:    "error",
		SessionFile: filepath.Join(t.TempDir(), "session.yaml"),
	}, &out, &errOut)
	require.NoError(t, err)
	require.NoError(t, rt.store.Save("stale", "admin"))

	err = (&agentsCmd{}).Run(rt)
	require.Error(t, err)
	assert.True(t, leadsapi.IsUnauthorized(err))
	assert.Contains(t, errOut.String(), "session expired")
	_, ok := rt.store.Token()
	assert.False(t, ok)
}

func TestInsightsSendsDashboardContext(t *testing.T) {
	var (
		mu      sync.Mutex
		payload map[string]json.RawMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/dashboard/kpis":
			_, _ = io.WriteString(w, `{"total_leads":40,"matriculados":2}`)
		case "/api/dashboard/trends":
			_, _ = io.WriteString(w, `[{"period":"2024-08-01","leads":40}]`)
		case "/api/dashboard/by-medio":
			_, _ = io.WriteString(w, `[{"medio":"Google","total":40,"efectivos":9}]`)
		case "/api/dashboard/agents":
			_, _ = io.WriteString(w, `[{"usuario":"ana","total_leads":40}]`)
		case "/api/dashboard/funnel", "/api/dashboard/by-programa":
			_, _ = io.WriteString(w, `[]`)
		case "/api/ai/insights":
			var body struct {
				ContextData map[string]json.RawMessage `json:"context_data"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			payload = body.ContextData
			mu.Unlock()
			_, _ = io.WriteString(w, `{"insights":[{"icon":"📈","title":"Google lidera","description":"40 leads"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	sessionFile := filepath.Join(t.TempDir(), "session.yaml")
	first, err := newRuntime(context.Background(), Globals{APIURL: srv.URL, LogLevel: "error", SessionFile: sessionFile}, io.Discard, io.Discard)
	require.NoError(t, err)
	require.NoError(t, first.store.Save("tok", "admin"))

	rt, err := newRuntime(context.Background(), Globals{APIURL: srv.URL, LogLevel: "error", SessionFile: sessionFile}, &out, io.Discard)
	require.NoError(t, err)
	require.NoError(t, (&insightsCmd{}).Run(rt))
	assert.Contains(t, out.String(), "Google lidera")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, payload)
	for _, key := range []string{"kpis", "funnel", "trends", "byMedio", "byPrograma", "agents"} {
		assert.Contains(t, payload, key)
	}
	assert.JSONEq(t, `[]`, string(payload["funnel"]))
	assert.JSONEq(t, `[{"usuario":"ana","total_leads":40,"contactados":0,"contacto_efectivo":0,"no_contactados":0,"matriculados":0}]`, string(payload["agents"]))
}

func TestServeMountsWebUI(t *testing.T) {
	rt, _ := newDemoRuntime(t)
	rt.errOut = io.Discard
	server, err := (&serveCmd{AssetsURL: "https://cdn.example/echarts/"}).build(rt)
	require.NoError(t, err)
	app := server.WrappedRouter()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `action="/login"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dashboard/funnel", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestChatModelFlow(t *testing.T) {
	rt, _ := newDemoRuntime(t)
	panel := aipanel.New(rt.api, aipanel.Options{Logger: rt.log})
	m := newChatModel(context.Background(), panel)

	m.input.SetValue("¿cuántos leads?")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(chatModel)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	next, _ = m.Update(m.sendCmd("¿cuántos leads?")())
	m = next.(chatModel)
	assert.False(t, m.busy)
	transcript := panel.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, leadsapi.RoleUser, transcript[1].Role)
	assert.Contains(t, m.View(), "¿cuántos leads?")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(chatModel)
	assert.True(t, m.busy)
	next, _ = m.Update(m.activateCmd(aipanel.TabInsights)())
	m = next.(chatModel)
	assert.Equal(t, aipanel.TabInsights, panel.Tab())
	assert.Contains(t, m.View(), "Google lidera")

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(chatModel)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	next, _ = m.Update(m.regenerateCmd()())
	m = next.(chatModel)
	assert.False(t, m.busy)

	assert.Equal(t, aipanel.TabPredictions, nextTab(aipanel.TabInsights))
	assert.Equal(t, aipanel.TabChat, nextTab(aipanel.TabPredictions))
}

func TestRenderHelpers(t *testing.T) {
	assert.Contains(t, renderPredictions(nil), "Sin predicciones")
	assert.Equal(t, 1, strings.Count(bar(0, "blue"), "█"))
	assert.Equal(t, barCells, strings.Count(bar(250, "blue"), "█"))
}
