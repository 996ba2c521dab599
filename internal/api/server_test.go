package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/char5742/dualpad-cursors/internal/config"
)

func newTestServer() (*Server, *http.ServeMux) {
	s := NewServer(config.DefaultConfig(), 0)
	router := http.NewServeMux()
	s.setupRoutes(router)
	return s, router
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestServer()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestGetConfig(t *testing.T) {
	_, router := newTestServer()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cfg config.Config
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.API.Port)
	}
}

func TestUpdateConfig(t *testing.T) {
	s, router := newTestServer()

	body := `{"Daemon":{"AbsScale":0.05},"Mapping":{"Mode":"tracking_id_parity"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/config", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := s.GetConfig().Mapping.Mode; got != "tracking_id_parity" {
		t.Errorf("expected updated mode, got %q", got)
	}
	if got := s.GetConfig().Daemon.AbsScale; got != 0.05 {
		t.Errorf("expected updated scale, got %v", got)
	}
}

func TestUpdateConfigRejectsBadJSON(t *testing.T) {
	_, router := newTestServer()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/config", strings.NewReader("{broken")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCursorsUnavailableWithoutService(t *testing.T) {
	_, router := newTestServer()

	cursorService = nil
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/cursors", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestServiceStatusStopped(t *testing.T) {
	_, router := newTestServer()

	cursorService = nil
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/service/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "stopped" {
		t.Errorf("expected stopped, got %q", body["status"])
	}
}
