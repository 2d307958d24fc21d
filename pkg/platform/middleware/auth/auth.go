// Package auth validates session bearer tokens and records the session
// identity on the request context.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "docutrack/pkg/domain"
	request "docutrack/pkg/platform/middleware/request"
	"docutrack/pkg/requestcontext"
)

// TokenValidator parses and verifies a bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RevocationChecker reports whether a session has been logged out.
type RevocationChecker interface {
	IsSessionRevoked(ctx context.Context, sessionID id.SessionID) (bool, error)
}

// Claims are the identity fields the middleware needs from a token.
type Claims struct {
	UserID    id.UserID
	SessionID id.SessionID
}

const bearerPrefix = "Bearer "

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid, unrevoked session token.
func RequireAuth(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(validator, revocations, logger, true)
}

// OptionalAuth lets requests without an Authorization header through as
// guests. A token that is present must still be valid.
func OptionalAuth(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return authenticate(validator, revocations, logger, false)
}

func authenticate(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				if !required && authHeader == "" {
					next.ServeHTTP(w, r)
					return
				}
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsSessionRevoked(ctx, claims.SessionID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check session revocation",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to validate token")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - session revoked",
						"session_id", claims.SessionID.String(),
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Session has been logged out")
					return
				}
			}

			ctx = requestcontext.WithSession(ctx, claims.UserID, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
