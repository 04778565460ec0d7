package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHealthHandler(started, nil, zerolog.Nop())
	h.now = func() time.Time { return started.Add(90 * time.Second) }

	rec := httptest.NewRecorder()
	if err := h.Liveness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp livenessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "OK" || resp.UptimeSeconds != 90 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if _, err := time.Parse(time.RFC3339Nano, resp.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC 3339: %q", resp.Timestamp)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	e := echo.New()
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewHealthHandler(time.Now(), map[string]Checker{"store": ok, "redis": nil}, zerolog.Nop())
	rec := httptest.NewRecorder()
	if err := h.Readiness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp readinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if _, present := resp.Dependencies["redis"]; present {
		t.Fatalf("nil checkers must be skipped: %+v", resp)
	}

	h = NewHealthHandler(time.Now(), map[string]Checker{"store": ok, "redis": down}, zerolog.Nop())
	rec = httptest.NewRecorder()
	_ = h.Readiness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	resp = readinessResponse{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["store"].Status != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("dependency error details must not reach the client: %s", rec.Body.String())
	}
}

func TestRootHandlers(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	_ = Root(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	if rec.Body.String() != "Hello from Acquisitions API!" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	_ = APIRoot(e.NewContext(httptest.NewRequest(http.MethodGet, "/api", nil), rec))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
