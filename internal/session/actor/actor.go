// Package actor resolves the session user for each request. The user record
// is re-read on every request so role and office edits apply immediately.
package actor

import (
	"context"
	"log/slog"
	"net/http"

	dirmodels "docutrack/internal/directory/models"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/httputil"
	"docutrack/pkg/platform/middleware/admin"
	authmw "docutrack/pkg/platform/middleware/auth"
	"docutrack/pkg/requestcontext"
)

// Directory loads the user behind a session.
type Directory interface {
	GetUser(ctx context.Context, userID id.UserID) (*dirmodels.User, error)
}

type contextKeyActor struct{}

// FromContext returns the resolved session user, or nil for guests.
func FromContext(ctx context.Context) *dirmodels.User {
	if u, ok := ctx.Value(contextKeyActor{}).(*dirmodels.User); ok {
		return u
	}
	return nil
}

func WithActor(ctx context.Context, u *dirmodels.User) context.Context {
	return context.WithValue(ctx, contextKeyActor{}, u)
}

// IsSuperAdmin is an admin.PrivilegeCheck over the resolved actor.
func IsSuperAdmin(ctx context.Context) bool {
	return FromContext(ctx).IsSuperAdmin()
}

// Require loads the session user and rejects the request when there is none
// or the user has since been deleted.
func Require(directory Directory, logger *slog.Logger) func(http.Handler) http.Handler {
	return resolve(directory, logger, true)
}

// Optional loads the session user when the auth middleware recorded one and
// lets guests through otherwise.
func Optional(directory Directory, logger *slog.Logger) func(http.Handler) http.Handler {
	return resolve(directory, logger, false)
}

func resolve(directory Directory, logger *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := requestcontext.UserID(ctx)
			if userID.IsNil() {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "a session is required"))
				return
			}

			u, err := directory.GetUser(ctx, userID)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					logger.WarnContext(ctx, "session user no longer exists",
						"request_id", requestcontext.RequestID(ctx),
						"user_id", userID.String(),
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session user no longer exists"))
					return
				}
				logger.ErrorContext(ctx, "failed to resolve session user",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(ctx, u)))
		})
	}
}

// Authenticated chains token validation and actor resolution for protected
// routes.
func Authenticated(validator authmw.TokenValidator, revocations authmw.RevocationChecker, directory Directory, logger *slog.Logger) func(http.Handler) http.Handler {
	return chain(authmw.RequireAuth(validator, revocations, logger), Require(directory, logger))
}

// Guest is Authenticated for routes that also serve callers without a token.
func Guest(validator authmw.TokenValidator, revocations authmw.RevocationChecker, directory Directory, logger *slog.Logger) func(http.Handler) http.Handler {
	return chain(authmw.OptionalAuth(validator, revocations, logger), Optional(directory, logger))
}

func chain(outer, inner func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return outer(inner(next))
	}
}

// Guards are the route middlewares module handlers mount their groups with.
type Guards struct {
	// Authenticated requires a valid session and a live user.
	Authenticated func(http.Handler) http.Handler
	// Guest resolves the user when a token is sent and admits guests otherwise.
	Guest func(http.Handler) http.Handler
	// SuperAdmin must be used after Authenticated.
	SuperAdmin func(http.Handler) http.Handler
}

func NewGuards(validator authmw.TokenValidator, revocations authmw.RevocationChecker, directory Directory, logger *slog.Logger) Guards {
	return Guards{
		Authenticated: Authenticated(validator, revocations, directory, logger),
		Guest:         Guest(validator, revocations, directory, logger),
		SuperAdmin:    admin.RequirePrivilege(IsSuperAdmin, logger),
	}
}
