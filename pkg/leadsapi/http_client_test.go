package leadsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, session.Store, *recordingNavigator) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := session.NewMemoryStore()
	nav := &recordingNavigator{}
	client, err := NewClient(Config{BaseURL: server.URL + "/", Store: store, Navigator: nav, Logger: quietLogger()})
	require.NoError(t, err)
	return client, store, nav
}

func TestClientSetsHeaders(t *testing.T) {
	client, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/kpis", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.False(t, r.URL.Query().Has("base"))
		_, _ = w.Write([]byte(`{"total_leads":1000,"matriculados":25}`))
	})
	require.NoError(t, store.Save("tok-1", "admin"))

	kpis, err := client.KPIs(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1000, kpis.TotalLeads)
	assert.Equal(t, 25, kpis.Matriculados)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"token":"abc","username":"admin"}`))
	})
	resp, err := client.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Token)
}

func TestClientUnauthorizedClearsAndNavigatesOnce(t *testing.T) {
	bodies := []string{"", `{"detail":"Token expirado"}`, "<html>nope</html>"}
	for _, body := range bodies {
		client, store, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(body))
		})
		require.NoError(t, store.Save("stale", "admin"))

		_, err := client.Me(context.Background())
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.True(t, IsUnauthorized(err))
		_, ok := store.Token()
		assert.False(t, ok, "body %q", body)
		assert.Equal(t, []string{session.RouteLogin}, nav.routes, "body %q", body)
	}
}

func TestClientConcurrentUnauthorizedEachNavigate(t *testing.T) {
	client, store, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	require.NoError(t, store.Save("stale", "admin"))

	const calls = 6
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Agents(context.Background(), ""); errors.Is(err, ErrUnauthorized) {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, calls, failures.Load())
	assert.Equal(t, calls, nav.count())
}

func TestClientServerErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", http.StatusBadRequest, `{"detail":"Base inválida"}`, "Base inválida"},
		{"message", http.StatusInternalServerError, `{"message":"boom"}`, "boom"},
		{"detail wins", http.StatusConflict, `{"detail":"first","message":"second"}`, "first"},
		{"non string detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["q"]}],"message":"fallback"}`, "fallback"},
		{"empty", http.StatusBadGateway, ``, DefaultServerMessage},
		{"not json", http.StatusInternalServerError, `oops`, DefaultServerMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, store, nav := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			require.NoError(t, store.Save("tok", "admin"))

			_, err := client.Funnel(context.Background(), "")
			require.ErrorIs(t, err, ErrServer)
			var serverErr *ServerError
			require.ErrorAs(t, err, &serverErr)
			assert.Equal(t, tc.status, serverErr.Status)
			assert.Equal(t, tc.want, serverErr.Message)
			assert.Equal(t, tc.want, MessageOf(err))

			_, ok := store.Token()
			assert.True(t, ok, "non-401 errors keep the session")
			assert.Zero(t, nav.count())
		})
	}
}

func TestClientDecodeFailure(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	_, err := client.KPIs(context.Background(), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrServer)
	assert.Nil(t, client.Context().Snapshot().KPIs)
}

func TestClientHonorsCancellation(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Bases(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClientDefaults(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	client, err := NewClient(Config{Store: session.NewMemoryStore()})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Zero(t, client.client.Timeout)
	assert.NotNil(t, client.Context())
}

func TestDashboardQueriesBuildQueryStrings(t *testing.T) {
	seen := map[string]string{}
	var mu sync.Mutex
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.URL.RawQuery
		mu.Unlock()
		if r.URL.Path == "/api/dashboard/leads" {
			_, _ = w.Write([]byte(`{"data":[],"total":0,"page":1,"per_page":20}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	_, err := client.Trends(ctx, "", "")
	require.NoError(t, err)
	_, err = client.ByPrograma(ctx, "7", 0)
	require.NoError(t, err)
	_, err = client.ByMedio(ctx, " 7 ")
	require.NoError(t, err)
	_, err = client.Leads(ctx, LeadsQuery{Page: 2, Search: "ana", Medio: "", Resultado: ResultContactado})
	require.NoError(t, err)

	assert.Equal(t, "period=week", seen["/api/dashboard/trends"])
	assert.Equal(t, "base=7&limit=15", seen["/api/dashboard/by-programa"])
	assert.Equal(t, "base=7", seen["/api/dashboard/by-medio"])
	assert.Equal(t, "page=2&resultado=Contactado&search=ana", seen["/api/dashboard/leads"])
}

func TestDashboardContextLastWriteWins(t *testing.T) {
	var calls atomic.Int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard/kpis":
			if calls.Add(1) == 1 {
				_, _ = w.Write([]byte(`{"total_leads":10}`))
				return
			}
			_, _ = w.Write([]byte(`{"total_leads":20}`))
		case "/api/dashboard/agents":
			_, _ = w.Write([]byte(`[{"usuario":"lperez","total_leads":5,"contacto_efectivo":1}]`))
		case "/api/dashboard/leads":
			_, _ = w.Write([]byte(`{"data":[{"idinterno":7,"nombre":"Ana","toques":"3"}],"total":1,"page":1,"per_page":20}`))
		}
	})
	ctx := context.Background()

	first, err := client.KPIs(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first, *client.Context().Snapshot().KPIs)

	second, err := client.KPIs(ctx, "")
	require.NoError(t, err)
	snap := client.Context().Snapshot()
	assert.Equal(t, 20, snap.KPIs.TotalLeads)
	assert.Equal(t, second, *snap.KPIs)

	agents, err := client.Agents(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, agents, client.Context().Snapshot().Agents)

	page, err := client.Leads(ctx, LeadsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, FlexString("7"), page.Data[0].ID)
	assert.Equal(t, FlexInt(3), page.Data[0].Toques)
	assert.Equal(t, snap.KPIs, client.Context().Snapshot().KPIs, "leads never touch the context")
}

func TestAIRequestsCarryContextSnapshot(t *testing.T) {
	var chatBody, insightsBody map[string]json.RawMessage
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard/kpis":
			_, _ = w.Write([]byte(`{"total_leads":42}`))
		case "/api/ai/chat":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&chatBody))
			_, _ = w.Write([]byte(`{"response":"Tenés 42 leads"}`))
		case "/api/ai/insights":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&insightsBody))
			_, _ = w.Write([]byte(`{"insights":[]}`))
		}
	})
	ctx := context.Background()
	_, err := client.KPIs(ctx, "")
	require.NoError(t, err)

	reply, err := client.AIChat(ctx, "¿cuántos leads tengo?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Tenés 42 leads", reply.Response)
	assert.JSONEq(t, `"¿cuántos leads tengo?"`, string(chatBody["message"]))
	assert.JSONEq(t, `[]`, string(chatBody["history"]))
	assert.JSONEq(t, `{"kpis":{"total_leads":42,"contactados":0,"no_contactados":0,"contacto_efectivo":0,"matriculados":0,"avg_toques":0}}`, string(chatBody["context_data"]))

	raw, err := client.AIInsights(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"insights":[]}`, string(raw))
	assert.Contains(t, insightsBody, "context_data")
	assert.NotContains(t, insightsBody, "history")
}
