package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandlerHandle(t *testing.T) {
	handler := HealthHandler{}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}
	if status := decodeBody[map[string]string](t, rec)["status"]; status != "ok" {
		t.Fatalf("expected ok got %q", status)
	}
}

func TestHealthHandlerDegraded(t *testing.T) {
	handler := HealthHandler{Database: pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })}

	rec := httptest.NewRecorder()
	handler.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "degraded" || body["database"] != "unreachable" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthRouteRejectsPost(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/healthz", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected method not allowed got %d", rec.Code)
	}
}
