package leadsapi

import (
	"context"
	"encoding/json"
	"net/http"
)

type chatRequest struct {
	Message     string          `json:"message"`
	History     []ChatMessage   `json:"history"`
	ContextData ContextSnapshot `json:"context_data"`
}

type contextRequest struct {
	ContextData ContextSnapshot `json:"context_data"`
}

// AIChat sends a question with the prior transcript and the current dashboard snapshot.
func (c *Client) AIChat(ctx context.Context, message string, history []ChatMessage) (ChatResponse, error) {
	req := chatRequest{
		Message:     message,
		History:     append([]ChatMessage{}, history...),
		ContextData: c.dash.Snapshot(),
	}
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai/chat", nil, req, &resp); err != nil {
		return ChatResponse{}, err
	}
	return resp, nil
}

// AIInsights returns the raw insights document. Callers validate it before decoding.
func (c *Client) AIInsights(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/ai/insights", nil, contextRequest{ContextData: c.dash.Snapshot()}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AIPredictions returns the raw predictions document. Callers validate it before decoding.
func (c *Client) AIPredictions(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/ai/predictions", nil, contextRequest{ContextData: c.dash.Snapshot()}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// InsightsResponse is the decoded insights document.
type InsightsResponse struct {
	Insights []Insight `json:"insights"`
}

// PredictionsResponse is the decoded predictions document.
type PredictionsResponse struct {
	Predictions []Prediction `json:"predictions"`
}
