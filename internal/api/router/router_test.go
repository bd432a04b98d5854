package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ananta-systems/ai-inbox/internal/business"
	"github.com/ananta-systems/ai-inbox/internal/dialogue"
	"github.com/ananta-systems/ai-inbox/internal/http/handlers"
	"github.com/ananta-systems/ai-inbox/internal/turn"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

type noopLoader struct{}

func (noopLoader) Load(context.Context, string) (business.Context, error) {
	return business.Context{}, nil
}

type noopProcessor struct{}

func (noopProcessor) ProcessTurn(context.Context, turn.Request) (*turn.Response, error) {
	return &turn.Response{Reply: "ok"}, nil
}

func newTestRouter() http.Handler {
	logger := logging.Default()
	return New(&Config{
		Logger:             logger,
		ProcessMessage:     handlers.NewProcessMessageHandler(noopLoader{}, noopProcessor{}, nil, nil, logger),
		AdminConversations: handlers.NewAdminConversationsHandler(dialogue.NewMemoryStore(), logger),
		InternalAPIKey:     "internal-key",
		AdminAuthSecret:    "admin-secret",
		MetricsHandler:     promhttp.Handler(),
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestProcessMessageRequiresAPIKey(t *testing.T) {
	r := newTestRouter()

	body := `{"user_id":"u1","message_text":"hi","sheet_id":"s1","page_access_token":"p1"}`

	req := httptest.NewRequest(http.MethodPost, "/api/process-message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/process-message", strings.NewReader(body))
	req.Header.Set("X-Internal-API-Key", "internal-key")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRequiresJWT(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin/conversations/u1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
