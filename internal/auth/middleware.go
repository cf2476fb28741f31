package auth

import (
	"encoding/json"
	"net/http"
)

const (
	apiKeyHeader     = "X-API-Key"
	apiKeyQueryParam = "api-key"
)

// Middleware returns an http.Handler middleware that enforces authentication.
// In open mode (no key file), all requests pass through. Otherwise the
// X-API-Key header or api-key query parameter must match the configured key.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}

		if s.VerifyKey(r.Header.Get(apiKeyHeader)) {
			next.ServeHTTP(w, r)
			return
		}
		if s.VerifyKey(r.URL.Query().Get(apiKeyQueryParam)) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "UNAUTHORIZED",
			"message": "authentication required",
		})
	})
}
