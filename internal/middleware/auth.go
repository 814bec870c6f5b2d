package middleware

import (
	"errors"
	"net/http"
	"strings"

	"scf-community/governor/internal/auth"
	"scf-community/governor/internal/logging"
)

// credential reads "Authorization: Bearer <x>" or "X-API-Key: <x>"
func credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// AdminAuthMiddleware accepts any admin credential the authenticator knows
func AdminAuthMiddleware(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authn.Authenticate(r.Context(), credential(r))
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthenticated) {
					logging.Error("Admin authentication failed", "request_id", auth.GetRequestID(r.Context()), "error", err.Error())
					http.Error(w, "Authentication unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetAdminClaims(r.Context(), claims)))
		})
	}
}

// SharedSecretMiddleware only lets the shared secret through
func SharedSecretMiddleware(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authn.IsSharedSecret(credential(r)) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims := &auth.AdminClaims{Subject: "shared-secret", Source: auth.SourceSharedSecret}
			next.ServeHTTP(w, r.WithContext(auth.SetAdminClaims(r.Context(), claims)))
		})
	}
}
