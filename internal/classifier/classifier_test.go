package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docutrack/internal/document/models"
	"docutrack/pkg/platform/circuit"
)

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	healthy atomic.Bool
	reply   atomic.Value
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.healthy.Store(true)
	s.reply.Store(`{"category":"Finance","priority":"High"}`)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !s.healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(s.reply.Load().(string)))
	}))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) newClient(b *circuit.Breaker) *Client {
	return New(s.server.URL, time.Second,
		WithBreaker(b),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ClientSuite) TestClassify() {
	c := s.newClient(circuit.New("test"))
	got, err := c.Classify(context.Background(), "Reimbursement of travel expenses for the seminar")
	s.Require().NoError(err)
	s.Equal("Finance", got.Category)
	s.Equal(models.PriorityHigh, got.Priority)
}

func (s *ClientSuite) TestInvalidAnswerIsUnavailable() {
	s.reply.Store(`{"category":"Finance","priority":"Urgent"}`)
	_, err := s.newClient(circuit.New("test")).Classify(context.Background(), "some description")
	s.True(errors.Is(err, ErrUnavailable))

	s.reply.Store(`{"category":"","priority":"Low"}`)
	_, err = s.newClient(circuit.New("test")).Classify(context.Background(), "some description")
	s.True(errors.Is(err, ErrUnavailable))
}

func (s *ClientSuite) TestCircuitBreaker() {
	b := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(2))
	c := s.newClient(b)
	ctx := context.Background()

	s.healthy.Store(false)
	for range 2 {
		_, err := c.Classify(ctx, "some description")
		s.ErrorIs(err, ErrUnavailable)
	}
	s.True(b.IsOpen())

	s.healthy.Store(true)
	_, err := c.Classify(ctx, "some description")
	s.ErrorIs(err, ErrUnavailable, "first success while open is discarded")

	got, err := c.Classify(ctx, "some description")
	s.Require().NoError(err)
	s.Equal("Finance", got.Category)
	s.False(b.IsOpen())
}
