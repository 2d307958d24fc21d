// Package classifier calls the external document classifier that suggests a
// category and priority for new documents.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"docutrack/internal/document/models"
	"docutrack/pkg/platform/circuit"
)

// ErrUnavailable is returned when the classifier failed or its circuit is open.
var ErrUnavailable = errors.New("classifier unavailable")

const maxCategoryLength = 50

// Classification is a validated category and priority suggestion.
type Classification struct {
	Category string
	Priority models.Priority
}

// Client posts descriptions to an HTTP classifier endpoint.
//
// Request:  {"description": "..."}
// Response: {"category": "Finance", "priority": "High"}
type Client struct {
	url     string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		if b != nil {
			cl.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

func New(url string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.New("classifier"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type classifyRequest struct {
	Description string `json:"description"`
}

type classifyResponse struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// Classify returns a suggestion, or ErrUnavailable. The primary is always
// called so the breaker can observe recovery; while the circuit is open a
// successful answer is still discarded.
func (c *Client) Classify(ctx context.Context, description string) (Classification, error) {
	result, err := c.call(ctx, description)
	if err != nil {
		_, change := c.breaker.RecordFailure()
		if change.Opened {
			c.logger.WarnContext(ctx, "classifier circuit opened", "error", err)
		}
		c.metrics.observe("failure")
		return Classification{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	usePrimary, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.InfoContext(ctx, "classifier circuit closed")
	}
	if !usePrimary {
		c.metrics.observe("circuit_open")
		return Classification{}, ErrUnavailable
	}
	c.metrics.observe("success")
	return result, nil
}

func (c *Client) call(ctx context.Context, description string) (Classification, error) {
	body, err := json.Marshal(classifyRequest{Description: description})
	if err != nil {
		return Classification{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Classification{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Classification{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return Classification{}, fmt.Errorf("decode response: %w", err)
	}
	return validate(out)
}

func validate(r classifyResponse) (Classification, error) {
	category := strings.TrimSpace(r.Category)
	if category == "" || len(category) > maxCategoryLength {
		return Classification{}, fmt.Errorf("invalid category %q", r.Category)
	}
	priority, err := models.ParsePriority(r.Priority)
	if err != nil {
		return Classification{}, fmt.Errorf("invalid priority %q", r.Priority)
	}
	return Classification{Category: category, Priority: priority}, nil
}

// Metrics counts classifier outcomes: success, failure, circuit_open.
type Metrics struct {
	Outcomes *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Outcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "docutrack_classifier_requests_total",
			Help: "Classifier calls by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) observe(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}
