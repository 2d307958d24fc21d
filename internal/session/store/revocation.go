// Package store records logged-out sessions until their tokens would have
// expired anyway.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
)

var isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "docutrack_session_revocation_check_duration_ms",
	Help:    "Latency of session revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const revokedSessionKeyPrefix = "session:revoked:"

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// InMemoryRevocations keeps revoked session IDs in process memory.
type InMemoryRevocations struct {
	mu      sync.RWMutex
	revoked map[id.SessionID]time.Time
	now     func() time.Time
}

func NewInMemoryRevocations() *InMemoryRevocations {
	return &InMemoryRevocations{revoked: make(map[id.SessionID]time.Time), now: time.Now}
}

func (s *InMemoryRevocations) Revoke(_ context.Context, sessionID id.SessionID, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for sid, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, sid)
		}
	}
	s.revoked[sessionID] = now.Add(ttl)
	return nil
}

func (s *InMemoryRevocations) IsRevoked(_ context.Context, sessionID id.SessionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.revoked[sessionID]
	return ok && s.now().Before(until), nil
}

// RedisRevocations shares revocation state between instances. Each revoked
// session is a key with the remaining token lifetime as TTL.
type RedisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (s *RedisRevocations) Revoke(ctx context.Context, sessionID id.SessionID, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return s.client.Set(ctx, revokedSessionKeyPrefix+sessionID.String(), "1", ttl).Err()
}

func (s *RedisRevocations) IsRevoked(ctx context.Context, sessionID id.SessionID) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	_, err := s.client.Get(ctx, revokedSessionKeyPrefix+sessionID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
