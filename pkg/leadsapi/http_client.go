package leadsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

// DefaultBaseURL is the local development backend.
const DefaultBaseURL = "http://localhost:8000"

// Config configures the lead dashboard API client.
type Config struct {
	BaseURL    string
	Store      session.Store
	Navigator  session.Navigator
	HTTPClient *http.Client
	// Timeout applies only when HTTPClient is nil. Zero means no timeout.
	Timeout time.Duration
	Context *DashboardContext
	Logger  logrus.FieldLogger
}

// Client talks to the lead dashboard backend over JSON REST endpoints.
type Client struct {
	baseURL   string
	store     session.Store
	navigator session.Navigator
	client    *http.Client
	dash      *DashboardContext
	log       logrus.FieldLogger
}

// NewClient builds a client bound to a token store.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("leadsapi: token store is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("leadsapi: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	navigator := cfg.Navigator
	if navigator == nil {
		navigator = session.NavigatorFunc(nil)
	}
	dash := cfg.Context
	if dash == nil {
		dash = NewDashboardContext()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL:   baseURL,
		store:     cfg.Store,
		navigator: navigator,
		client:    httpClient,
		dash:      dash,
		log:       logger,
	}, nil
}

// Context exposes the accumulator fed by successful dashboard queries.
func (c *Client) Context() *DashboardContext {
	return c.dash
}

// Store exposes the token store the client authenticates with.
func (c *Client) Store() session.Store {
	return c.store
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, target any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("leadsapi: encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("leadsapi: build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token, ok := c.store.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path, "request_id": requestID})
	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return fmt.Errorf("leadsapi: http request: %w", err)
	}
	defer resp.Body.Close()
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed": time.Since(started)})

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		if err := c.store.Clear(); err != nil {
			log.WithError(err).Warn("clear session after 401")
		}
		c.navigator.Navigate(session.RouteLogin)
		log.Info("session expired")
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverErr := &ServerError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		log.WithField("message", serverErr.Message).Debug("remote error")
		return serverErr
	}
	log.Debug("request completed")
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("leadsapi: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts a readable message from an error body: "detail" first, then "message".
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return DefaultServerMessage
	}
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return DefaultServerMessage
	}
	for _, field := range []json.RawMessage{body.Detail, body.Message} {
		var msg string
		if len(field) == 0 || json.Unmarshal(field, &msg) != nil {
			continue
		}
		if msg = strings.TrimSpace(msg); msg != "" {
			return msg
		}
	}
	return DefaultServerMessage
}

// IsUnauthorized reports whether err came from a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// MessageOf returns the user-facing message of a server error, or the fallback text.
func MessageOf(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}
	return DefaultServerMessage
}
