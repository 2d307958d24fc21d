//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "docutrack/pkg/domain"
	"docutrack/pkg/testutil/containers"
)

type RedisRevocationsSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisRevocations
}

func TestRedisRevocationsSuite(t *testing.T) {
	suite.Run(t, new(RedisRevocationsSuite))
}

func (s *RedisRevocationsSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = NewRedisRevocations(s.redis.Client.Client)
}

func (s *RedisRevocationsSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisRevocationsSuite) TestRevokeAndCheck() {
	ctx := context.Background()
	sessionID := id.SessionID(uuid.New())

	revoked, err := s.store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.store.Revoke(ctx, sessionID, time.Minute))
	revoked, err = s.store.IsRevoked(ctx, sessionID)
	s.Require().NoError(err)
	s.True(revoked)

	ttl, err := s.redis.Client.TTL(ctx, revokedSessionKeyPrefix+sessionID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisRevocationsSuite) TestExpiry() {
	ctx := context.Background()
	sessionID := id.SessionID(uuid.New())
	s.Require().NoError(s.store.Revoke(ctx, sessionID, time.Second))

	s.Eventually(func() bool {
		revoked, err := s.store.IsRevoked(ctx, sessionID)
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond)
}
