package testutil

import (
	"net/http"

	id "docutrack/pkg/domain"
	"docutrack/pkg/requestcontext"
)

// WithUserID records userID as the session user, as the auth middleware does
// after validating a token. An unparsable ID leaves the request anonymous.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}
