package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestInternalAPIKey(t *testing.T) {
	handler := InternalAPIKey("secret-key")(okHandler())

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid key", "secret-key", http.StatusOK},
		{"wrong key", "other", http.StatusUnauthorized},
		{"missing key", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/process-message", nil)
			if tc.header != "" {
				req.Header.Set("X-Internal-API-Key", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestInternalAPIKeyDisabledWithoutSecret(t *testing.T) {
	handler := InternalAPIKey("")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/process-message", nil)
	req.Header.Set("X-Internal-API-Key", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 when no key is configured, got %d", rec.Code)
	}
}

func TestAdminJWT(t *testing.T) {
	secret := "jwt-secret"
	handler := AdminJWT(secret)(okHandler())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/conversations/u1", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/conversations/u1", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/conversations/u1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with no header, got %d", rec.Code)
	}
}

func TestAdminJWTRequiresSubject(t *testing.T) {
	secret := "jwt-secret"
	handler := AdminJWT(secret)(okHandler())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/conversations/u1", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a subjectless token, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "token missing subject") {
		t.Errorf("expected JSON error naming the missing subject, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json error body, got %q", ct)
	}
}

func TestAdminSubjectFlowsToHandler(t *testing.T) {
	secret := "jwt-secret"
	var gotSubject string
	handler := AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = AdminSubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/conversations/u1", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != "ops" {
		t.Errorf("expected subject %q in handler context, got %q", "ops", gotSubject)
	}
}
