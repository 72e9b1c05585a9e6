package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/httpapi"
)

// RequireAuthToken rejects requests that did not present a session token
// cookie. The token itself is validated downstream by the backend.
func RequireAuthToken() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseAuthToken(r.Context()); err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
