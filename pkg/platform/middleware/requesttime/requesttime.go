// Package requesttime pins a single "now" for the whole request so history
// entries, notifications and dashboard windows agree on the time.
package requesttime

import (
	"net/http"
	"time"

	"docutrack/pkg/requestcontext"
)

// Middleware stamps each request with the wall clock.
func Middleware(next http.Handler) http.Handler {
	return Clock(time.Now)(next)
}

// Clock stamps each request with now(), truncated to microseconds so that
// timestamps survive a PostgreSQL round trip unchanged.
func Clock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC().Truncate(time.Microsecond))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
