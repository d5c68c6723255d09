package aipanel

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
)

// Tab is one of the panel views.
type Tab string

const (
	TabChat        Tab = "chat"
	TabInsights    Tab = "insights"
	TabPredictions Tab = "predictions"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabChat, TabInsights, TabPredictions}

// Label returns the tab caption.
func (t Tab) Label() string {
	switch t {
	case TabInsights:
		return "💡 Insights"
	case TabPredictions:
		return "🔮 Predicciones"
	default:
		return "💬 Chat"
	}
}

// ParseTab maps user input to a tab, defaulting to chat.
func ParseTab(raw string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case TabInsights:
		return TabInsights
	case TabPredictions:
		return TabPredictions
	default:
		return TabChat
	}
}

// Fixed panel copy.
const (
	Greeting      = "¡Hola! Soy tu analista de datos IA. Preguntame lo que necesites sobre tus leads, gestiones y conversiones. 🚀"
	FallbackReply = "Error al procesar tu pregunta. Intentá de nuevo."
)

// FormatConfidence renders a 0..1 confidence as a whole percentage.
func FormatConfidence(c float64) string {
	return strconv.FormatFloat(math.Round(c*100), 'f', 0, 64) + "%"
}

// ErrorInsight replaces the insights list when generation fails.
var ErrorInsight = leadsapi.Insight{Icon: "alert", Title: "Error", Description: "No se pudieron generar insights."}

// Panel events.
const (
	EventChat       = "aipanel.chat"
	EventInsights   = "aipanel.insights"
	EventPrediction = "aipanel.predictions"
)

// Telemetry records panel events.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

// Options configures a panel.
type Options struct {
	Validator PayloadValidator
	Telemetry Telemetry
	Logger    logrus.FieldLogger
}

// Panel holds the chat transcript and the lazily loaded insights and predictions.
// It is safe for concurrent use; network calls run without holding the lock.
type Panel struct {
	client    leadsapi.AIClient
	validator PayloadValidator
	telemetry Telemetry
	log       logrus.FieldLogger

	mu                 sync.RWMutex
	tab                Tab
	transcript         []leadsapi.ChatMessage
	sending            bool
	insights           []leadsapi.Insight
	insightsLoaded     bool
	insightsLoading    bool
	predictions        []leadsapi.Prediction
	predictionsLoaded  bool
	predictionsLoading bool
	generation         int
}

// New builds a panel on the chat tab with the greeting as the only message.
func New(client leadsapi.AIClient, opts Options) *Panel {
	p := &Panel{
		client:    client,
		validator: opts.Validator,
		telemetry: opts.Telemetry,
		log:       opts.Logger,
	}
	if p.validator == nil {
		p.validator = noopValidator{}
	}
	if p.telemetry == nil {
		p.telemetry = noopTelemetry{}
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	p.log = p.log.WithField("component", "aipanel")
	p.resetLocked()
	return p
}

// Reset returns the panel to its initial state, as a fresh mount does.
func (p *Panel) Reset() {
	p.mu.Lock()
	p.resetLocked()
	p.mu.Unlock()
}

func (p *Panel) resetLocked() {
	p.tab = TabChat
	p.transcript = []leadsapi.ChatMessage{{Role: leadsapi.RoleAssistant, Content: Greeting}}
	p.sending = false
	p.insights, p.insightsLoaded, p.insightsLoading = nil, false, false
	p.predictions, p.predictionsLoaded, p.predictionsLoading = nil, false, false
	p.generation++
}

// Tab returns the active tab.
func (p *Panel) Tab() Tab {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tab
}

// Transcript returns a copy of the chat messages, greeting first.
func (p *Panel) Transcript() []leadsapi.ChatMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]leadsapi.ChatMessage(nil), p.transcript...)
}

// Sending reports whether a chat request is in flight.
func (p *Panel) Sending() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sending
}

// Insights returns the loaded insights and whether they are loaded.
func (p *Panel) Insights() ([]leadsapi.Insight, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]leadsapi.Insight(nil), p.insights...), p.insightsLoaded
}

// Predictions returns the loaded predictions and whether they are loaded.
func (p *Panel) Predictions() ([]leadsapi.Prediction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]leadsapi.Prediction(nil), p.predictions...), p.predictionsLoaded
}

// Loading reports whether the tab has a request in flight.
func (p *Panel) Loading(tab Tab) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch tab {
	case TabInsights:
		return p.insightsLoading
	case TabPredictions:
		return p.predictionsLoading
	default:
		return p.sending
	}
}

// Activate switches tabs. Insights and predictions load the first time their tab opens.
func (p *Panel) Activate(ctx context.Context, tab Tab) error {
	p.mu.Lock()
	p.tab = tab
	p.mu.Unlock()
	switch tab {
	case TabInsights:
		return p.loadInsights(ctx, false)
	case TabPredictions:
		return p.loadPredictions(ctx, false)
	}
	return nil
}

// Regenerate drops the cached data of the active tab and fetches it again.
// It is a no-op on the chat tab.
func (p *Panel) Regenerate(ctx context.Context) error {
	switch p.Tab() {
	case TabInsights:
		return p.loadInsights(ctx, true)
	case TabPredictions:
		return p.loadPredictions(ctx, true)
	}
	return nil
}

// Send appends the question and the reply to the transcript. It returns false without
// doing anything when the text is blank or another send is in flight. A failed call
// appends FallbackReply; the user message is always kept.
func (p *Panel) Send(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	p.mu.Lock()
	if text == "" || p.sending {
		p.mu.Unlock()
		return false, nil
	}
	history := append([]leadsapi.ChatMessage{}, p.transcript[1:]...)
	p.transcript = append(p.transcript, leadsapi.ChatMessage{Role: leadsapi.RoleUser, Content: text})
	p.sending = true
	gen := p.generation
	p.mu.Unlock()

	reply, err := p.client.AIChat(ctx, text, history)
	content := reply.Response
	if err != nil {
		p.log.WithError(err).Warn("chat request failed")
		content = FallbackReply
	}

	p.mu.Lock()
	if gen == p.generation {
		p.transcript = append(p.transcript, leadsapi.ChatMessage{Role: leadsapi.RoleAssistant, Content: content})
		p.sending = false
	}
	p.mu.Unlock()
	p.telemetry.Record(ctx, EventChat, map[string]any{"history": len(history), "failed": err != nil})
	if err != nil {
		return true, fmt.Errorf("aipanel: chat: %w", err)
	}
	return true, nil
}

func (p *Panel) loadInsights(ctx context.Context, force bool) error {
	p.mu.Lock()
	if p.insightsLoading || (p.insightsLoaded && !force) {
		p.mu.Unlock()
		return nil
	}
	p.insights, p.insightsLoaded, p.insightsLoading = nil, false, true
	gen := p.generation
	p.mu.Unlock()

	insights, err := p.fetchInsights(ctx)
	if err != nil {
		p.log.WithError(err).Warn("insights unavailable")
		insights = []leadsapi.Insight{ErrorInsight}
	}

	p.mu.Lock()
	if gen == p.generation {
		p.insights, p.insightsLoaded, p.insightsLoading = insights, true, false
	}
	p.mu.Unlock()
	p.telemetry.Record(ctx, EventInsights, map[string]any{"count": len(insights), "failed": err != nil})
	return err
}

func (p *Panel) fetchInsights(ctx context.Context) ([]leadsapi.Insight, error) {
	raw, err := p.client.AIInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("aipanel: insights: %w", err)
	}
	if err := p.validator.Validate(SchemaInsights, raw); err != nil {
		return nil, err
	}
	var doc leadsapi.InsightsResponse
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("aipanel: decode insights: %w", err)
	}
	return doc.Insights, nil
}

func (p *Panel) loadPredictions(ctx context.Context, force bool) error {
	p.mu.Lock()
	if p.predictionsLoading || (p.predictionsLoaded && !force) {
		p.mu.Unlock()
		return nil
	}
	p.predictions, p.predictionsLoaded, p.predictionsLoading = nil, false, true
	gen := p.generation
	p.mu.Unlock()

	predictions, err := p.fetchPredictions(ctx)
	if err != nil {
		p.log.WithError(err).Warn("predictions unavailable")
		predictions = nil
	}

	p.mu.Lock()
	if gen == p.generation {
		p.predictions, p.predictionsLoaded, p.predictionsLoading = predictions, true, false
	}
	p.mu.Unlock()
	p.telemetry.Record(ctx, EventPrediction, map[string]any{"count": len(predictions), "failed": err != nil})
	return err
}

func (p *Panel) fetchPredictions(ctx context.Context) ([]leadsapi.Prediction, error) {
	raw, err := p.client.AIPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("aipanel: predictions: %w", err)
	}
	if err := p.validator.Validate(SchemaPredictions, raw); err != nil {
		return nil, err
	}
	var doc leadsapi.PredictionsResponse
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("aipanel: decode predictions: %w", err)
	}
	return doc.Predictions, nil
}
