package auth

import (
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
)

// Middleware attaches the bearer token's actor to the request context.
// Browsers cannot set headers on EventSource or WebSocket handshakes, so a
// "token" query parameter is accepted as well. With no secret configured every
// request runs as Anonymous.
func Middleware(v *Verifier, logger apt.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil || !v.Enabled() {
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), Anonymous)))
				return
			}

			actor, err := v.Verify(tokenFrom(r))
			if err != nil {
				logger.Debug("rejected request token", "path", r.URL.Path, "error", err)
				apt.RespondError(w, http.StatusUnauthorized, "Invalid or missing token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
