// Package device records a display label for the client device on the
// request context.
package device

import (
	"context"
	"net/http"
)

type contextKeyDeviceLabel struct{}

// Label retrieves the device label from the context.
func Label(ctx context.Context) string {
	if label, ok := ctx.Value(contextKeyDeviceLabel{}).(string); ok {
		return label
	}
	return ""
}

// WithLabel injects a device label into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, contextKeyDeviceLabel{}, label)
}

// Labeler maps a User-Agent header to a display label.
type Labeler func(userAgent string) string

// Middleware labels every request from its User-Agent header.
func Middleware(labeler Labeler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLabel(r.Context(), labeler(r.UserAgent()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
