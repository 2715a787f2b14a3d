package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireBearerToken is the minimal "already validated" boundary assumed
// ahead of every handler: a constant-time comparison against the
// configured token. It is not a session or CSRF layer — those are declared
// out of scope — only a stand-in so the binary is runnable standalone. An
// empty configured token disables the check entirely, for local
// development without any .env file.
func (s *Server) requireBearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, prefix) {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		presented := strings.TrimPrefix(header, prefix)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) != 1 {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
