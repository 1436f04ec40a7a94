package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// RequireInternalKey guards service-to-service routes with a shared secret.
// With no key configured the route is unavailable.
func RequireInternalKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeJSONError(w, http.StatusServiceUnavailable, "INTERNAL_DISABLED", "Internal API is not configured")
				return
			}
			presented := r.Header.Get(InternalKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				log.Printf("[InternalKey] Rejected %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid internal key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
