// Package admin gates administrative routes behind a caller-supplied
// privilege check.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	request "docutrack/pkg/platform/middleware/request"
)

// PrivilegeCheck reports whether the request context carries an identity
// allowed on the guarded routes.
type PrivilegeCheck func(ctx context.Context) bool

// RequirePrivilege rejects requests failing check with 403. It must run after
// the authentication middleware.
func RequirePrivilege(check PrivilegeCheck, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !check(ctx) {
				logger.WarnContext(ctx, "admin route denied",
					"request_id", request.GetRequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"super admin role required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
