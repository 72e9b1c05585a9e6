package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/configuration"
)

// RequestParams resolves per-request metadata and the auth token cookie, and
// makes both available through composables.
func RequestParams() mux.MiddlewareFunc {
	conf := configuration.Use()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var token string
			if cookie, err := r.Cookie(conf.AuthCookieKey); err == nil {
				token = cookie.Value
			}
			if token != "" {
				ctx = composables.WithAuthToken(ctx, token)
			}

			params := &composables.Params{
				IP:            getRealIP(r, conf),
				UserAgent:     r.UserAgent(),
				Authenticated: token != "",
				Request:       r,
				Writer:        w,
			}
			next.ServeHTTP(w, r.WithContext(composables.WithParams(ctx, params)))
		})
	}
}
