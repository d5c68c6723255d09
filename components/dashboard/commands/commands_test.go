package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-leads-dashboard/pkg/leadsapi"
	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

func TestLoginCommandStoresSession(t *testing.T) {
	store := session.NewMemoryStore()
	auth := &stubAuth{resp: leadsapi.LoginResponse{Token: "tok", Username: "admin"}}
	telemetry := &stubTelemetry{}
	cmd := NewLoginCommand(auth, store, telemetry)

	if err := cmd.Execute(context.Background(), LoginInput{Username: " admin ", Password: "secret"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if auth.username != "admin" {
		t.Fatalf("expected trimmed username, got %q", auth.username)
	}
	if token, ok := store.Token(); !ok || token != "tok" {
		t.Fatalf("expected stored token, got %q", token)
	}
	if store.Username() != "admin" {
		t.Fatalf("expected stored username")
	}
	if telemetry.events[0] != EventLogin {
		t.Fatalf("expected login event, got %v", telemetry.events)
	}
}

func TestLoginCommandFailureWrapsInvalidCredentials(t *testing.T) {
	store := session.NewMemoryStore()
	auth := &stubAuth{err: leadsapi.ErrUnauthorized}
	telemetry := &stubTelemetry{}
	cmd := NewLoginCommand(auth, store, telemetry)

	err := cmd.Execute(context.Background(), LoginInput{Username: "admin", Password: "bad"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if !errors.Is(err, leadsapi.ErrUnauthorized) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Fatalf("expected no session after failure")
	}
	if telemetry.events[0] != EventLoginFailed {
		t.Fatalf("expected failure event, got %v", telemetry.events)
	}
}

func TestLogoutCommandClearsSessionAndContext(t *testing.T) {
	store := session.NewMemoryStore()
	if err := store.Save("tok", "admin"); err != nil {
		t.Fatalf("save: %v", err)
	}
	mock := leadsapi.NewMockClient(leadsapi.DemoData(), nil)
	if _, err := mock.KPIs(context.Background(), ""); err != nil {
		t.Fatalf("kpis: %v", err)
	}
	cmd := NewLogoutCommand(store, mock.Context(), nil)

	if err := cmd.Execute(context.Background(), LogoutInput{}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Fatalf("expected session to be cleared")
	}
	if mock.Context().Snapshot().KPIs != nil {
		t.Fatalf("expected context to be reset")
	}
	if err := cmd.Execute(context.Background(), LogoutInput{}); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
}

func TestCommandsRequireCollaborators(t *testing.T) {
	if err := NewLoginCommand(nil, nil, nil).Execute(context.Background(), LoginInput{}); err == nil {
		t.Fatalf("expected error without collaborators")
	}
	if err := NewLogoutCommand(nil, nil, nil).Execute(context.Background(), LogoutInput{}); err == nil {
		t.Fatalf("expected error without store")
	}
}

type stubAuth struct {
	resp     leadsapi.LoginResponse
	err      error
	username string
}

func (s *stubAuth) Login(_ context.Context, username, _ string) (leadsapi.LoginResponse, error) {
	s.username = username
	return s.resp, s.err
}

type stubTelemetry struct {
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.events = append(s.events, event)
}
