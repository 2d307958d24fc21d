package requesttime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docutrack/pkg/requestcontext"
)

func TestClockPinsRequestTime(t *testing.T) {
	fixed := time.Date(2026, 10, 14, 9, 30, 0, 123456789, time.FixedZone("PHT", 8*60*60))
	var seen []time.Time
	h := Clock(func() time.Time { return fixed })(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = append(seen, requestcontext.Now(r.Context()), requestcontext.Now(r.Context()))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/documents", nil))

	want := time.Date(2026, 10, 14, 1, 30, 0, 123456000, time.UTC)
	assert.Equal(t, []time.Time{want, want}, seen)
}

func TestMiddlewareUsesWallClock(t *testing.T) {
	var got time.Time
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.Now(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.WithinDuration(t, time.Now(), got, time.Second)
	assert.Equal(t, time.UTC, got.Location())
}
