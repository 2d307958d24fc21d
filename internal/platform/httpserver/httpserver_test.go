package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDerivesWriteTimeout(t *testing.T) {
	srv := New(":0", http.NotFoundHandler(), 10*time.Second)
	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)

	srv = New(":0", http.NotFoundHandler(), 0)
	assert.Equal(t, 35*time.Second, srv.WriteTimeout)
}
