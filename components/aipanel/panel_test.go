package aipanel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

type stubAI struct {
	mu          sync.Mutex
	chatErr     error
	reply       string
	histories   [][]leadsapi.ChatMessage
	insights    json.RawMessage
	insightsErr error
	predictions json.RawMessage
	calls       map[string]int
	block       chan struct{}
}

func newStubAI() *stubAI {
	return &stubAI{
		reply:       "Tenés 1.000 leads.",
		insights:    json.RawMessage(`{"insights":[{"icon":"trend","title":"Google lidera","description":"42%"}]}`),
		predictions: json.RawMessage(`{"predictions":[{"period":"2026-10-19","predicted_leads":270,"predicted_efectivos":27,"confidence":0.78}]}`),
		calls:       map[string]int{},
	}
}

func (s *stubAI) AIChat(_ context.Context, _ string, history []leadsapi.ChatMessage) (leadsapi.ChatResponse, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["chat"]++
	s.histories = append(s.histories, history)
	if s.chatErr != nil {
		return leadsapi.ChatResponse{}, s.chatErr
	}
	return leadsapi.ChatResponse{Response: s.reply}, nil
}

func (s *stubAI) AIInsights(context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["insights"]++
	return s.insights, s.insightsErr
}

func (s *stubAI) AIPredictions(context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["predictions"]++
	return s.predictions, nil
}

func quiet() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newPanel(ai leadsapi.AIClient) *Panel {
	return New(ai, Options{Validator: NewJSONSchemaValidator(), Logger: quiet()})
}

func TestPanelStartsWithGreeting(t *testing.T) {
	panel := newPanel(newStubAI())
	assert.Equal(t, TabChat, panel.Tab())
	assert.Equal(t, []leadsapi.ChatMessage{{Role: leadsapi.RoleAssistant, Content: Greeting}}, panel.Transcript())
}

func TestSendExcludesGreetingFromHistory(t *testing.T) {
	ai := newStubAI()
	panel := newPanel(ai)
	ctx := context.Background()

	sent, err := panel.Send(ctx, "¿cuántos leads tengo?")
	require.NoError(t, err)
	assert.True(t, sent)
	sent, err = panel.Send(ctx, "¿y matriculados?")
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, ai.histories, 2)
	assert.Empty(t, ai.histories[0])
	assert.Equal(t, []leadsapi.ChatMessage{
		{Role: leadsapi.RoleUser, Content: "¿cuántos leads tengo?"},
		{Role: leadsapi.RoleAssistant, Content: ai.reply},
	}, ai.histories[1])
	assert.Len(t, panel.Transcript(), 5)
}

func TestSendFailureKeepsUserMessage(t *testing.T) {
	ai := newStubAI()
	ai.chatErr = errors.New("network down")
	panel := newPanel(ai)

	sent, err := panel.Send(context.Background(), "¿cuántos leads tengo?")
	assert.True(t, sent)
	require.Error(t, err)

	transcript := panel.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, leadsapi.ChatMessage{Role: leadsapi.RoleUser, Content: "¿cuántos leads tengo?"}, transcript[1])
	assert.Equal(t, leadsapi.ChatMessage{Role: leadsapi.RoleAssistant, Content: FallbackReply}, transcript[2])
	assert.False(t, panel.Sending())
}

func TestSendIsSingleFlight(t *testing.T) {
	ai := newStubAI()
	ai.block = make(chan struct{})
	panel := newPanel(ai)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = panel.Send(context.Background(), "primera")
	}()
	require.Eventually(t, panel.Sending, timeout, tick)

	sent, err := panel.Send(context.Background(), "segunda")
	require.NoError(t, err)
	assert.False(t, sent)

	close(ai.block)
	<-done
	assert.Equal(t, 1, ai.calls["chat"])
	assert.Len(t, panel.Transcript(), 3)
}

func TestSendIgnoresBlankInput(t *testing.T) {
	ai := newStubAI()
	panel := newPanel(ai)
	sent, err := panel.Send(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Zero(t, ai.calls["chat"])
}

func TestInsightsLoadOncePerActivation(t *testing.T) {
	ai := newStubAI()
	panel := newPanel(ai)
	ctx := context.Background()

	require.NoError(t, panel.Activate(ctx, TabInsights))
	require.NoError(t, panel.Activate(ctx, TabChat))
	require.NoError(t, panel.Activate(ctx, TabInsights))
	assert.Equal(t, 1, ai.calls["insights"])

	insights, loaded := panel.Insights()
	assert.True(t, loaded)
	require.Len(t, insights, 1)
	assert.Equal(t, "Google lidera", insights[0].Title)

	require.NoError(t, panel.Regenerate(ctx))
	assert.Equal(t, 2, ai.calls["insights"])
}

func TestInsightsFailureFallsBackToErrorCard(t *testing.T) {
	ai := newStubAI()
	ai.insightsErr = errors.New("boom")
	panel := newPanel(ai)

	require.Error(t, panel.Activate(context.Background(), TabInsights))
	insights, loaded := panel.Insights()
	assert.True(t, loaded)
	assert.Equal(t, []leadsapi.Insight{ErrorInsight}, insights)
}

func TestInvalidPayloadsDegrade(t *testing.T) {
	ai := newStubAI()
	ai.insights = json.RawMessage(`{"insights":"not a list"}`)
	ai.predictions = json.RawMessage(`{"predictions":[{"period":3}]}`)
	panel := newPanel(ai)
	ctx := context.Background()

	require.Error(t, panel.Activate(ctx, TabInsights))
	insights, _ := panel.Insights()
	assert.Equal(t, []leadsapi.Insight{ErrorInsight}, insights)

	require.Error(t, panel.Activate(ctx, TabPredictions))
	predictions, loaded := panel.Predictions()
	assert.True(t, loaded)
	assert.Empty(t, predictions)
}

func TestPredictionsLoadAndRegenerate(t *testing.T) {
	ai := newStubAI()
	panel := newPanel(ai)
	ctx := context.Background()

	require.NoError(t, panel.Activate(ctx, TabPredictions))
	predictions, loaded := panel.Predictions()
	assert.True(t, loaded)
	require.Len(t, predictions, 1)
	assert.Equal(t, float64(270), predictions[0].PredictedLeads)

	require.NoError(t, panel.Regenerate(ctx))
	assert.Equal(t, 2, ai.calls["predictions"])

	require.NoError(t, panel.Activate(ctx, TabChat))
	require.NoError(t, panel.Regenerate(ctx))
	assert.Equal(t, 2, ai.calls["predictions"])
}

func TestResetDropsState(t *testing.T) {
	ai := newStubAI()
	panel := newPanel(ai)
	ctx := context.Background()
	_, _ = panel.Send(ctx, "hola")
	require.NoError(t, panel.Activate(ctx, TabInsights))

	panel.Reset()
	assert.Len(t, panel.Transcript(), 1)
	assert.Equal(t, TabChat, panel.Tab())
	_, loaded := panel.Insights()
	assert.False(t, loaded)
}

func TestPanelOverHTTPClient(t *testing.T) {
	var body map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	t.Cleanup(server.Close)
	client, err := leadsapi.NewClient(leadsapi.Config{BaseURL: server.URL, Store: session.NewMemoryStore(), Logger: quiet()})
	require.NoError(t, err)

	panel := newPanel(client)
	_, err = panel.Send(context.Background(), "¿cuántos leads tengo?")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body["history"]))
	assert.JSONEq(t, `"¿cuántos leads tengo?"`, string(body["message"]))
}

func TestParseTab(t *testing.T) {
	assert.Equal(t, TabInsights, ParseTab(" Insights "))
	assert.Equal(t, TabPredictions, ParseTab("predictions"))
	assert.Equal(t, TabChat, ParseTab("whatever"))
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "78%", FormatConfidence(0.78))
	assert.Equal(t, "0%", FormatConfidence(0))
	assert.Equal(t, "100%", FormatConfidence(1))
}
