package httpserver

import (
	"net/http"
	"time"
)

const writeGrace = 5 * time.Second

// New builds the HTTP server. The write timeout leaves room past
// requestTimeout so a timed-out handler can still send its error response.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + writeGrace,
		IdleTimeout:       120 * time.Second,
	}
}
