// Package request assigns a correlation ID to every HTTP request.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"docutrack/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-ID"

const maxIncomingIDLength = 128

// RequestID reuses a caller-supplied X-Request-ID when it is reasonably sized,
// otherwise generates one. The ID is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" || len(reqID) > maxIncomingIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), reqID)))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
