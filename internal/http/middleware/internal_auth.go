package middleware

import (
	"crypto/subtle"
	"net/http"
)

// InternalAPIKey guards the message-processing endpoint. Callers must present
// the shared key in the X-Internal-API-Key header.
func InternalAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				http.Error(w, "internal auth disabled", http.StatusUnauthorized)
				return
			}
			presented := r.Header.Get("X-Internal-API-Key")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				http.Error(w, "invalid api key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
