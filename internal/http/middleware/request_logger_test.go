package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

func TestRequestLoggerRecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter("debug", &buf)

	handler := chimiddleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, "request completed") {
		t.Fatalf("expected a completion log line, got %q", out)
	}
	if !strings.Contains(out, `"status":418`) {
		t.Errorf("expected logged status 418, got %q", out)
	}
	if !strings.Contains(out, `"path":"/health"`) {
		t.Errorf("expected logged path, got %q", out)
	}
	if !strings.Contains(out, `"request_id":"`) {
		t.Errorf("expected chi request id in log line, got %q", out)
	}
}
