// Package service issues and revokes picker sessions. There are no
// credentials: choosing a user from the picker starts a session as them.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dirmodels "docutrack/internal/directory/models"
	sessiondevice "docutrack/internal/session/device"
	"docutrack/internal/session/models"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/middleware/device"
	"docutrack/pkg/requestcontext"
)

const DefaultSessionTTL = 12 * time.Hour

type UserDirectory interface {
	GetUser(ctx context.Context, userID id.UserID) (*dirmodels.User, error)
	ListUsers(ctx context.Context) ([]*dirmodels.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID id.UserID, sessionID id.SessionID, device string, expiresIn time.Duration) (string, time.Time, error)
}

// RevocationStore remembers logged-out sessions for at least the given TTL.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID id.SessionID, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID id.SessionID) (bool, error)
}

type Service struct {
	users       UserDirectory
	tokens      TokenIssuer
	revocations RevocationStore
	ttl         time.Duration
	logger      *slog.Logger
	sessionIDs  func() id.SessionID
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionIDs overrides session ID generation.
func WithSessionIDs(fn func() id.SessionID) Option {
	return func(s *Service) {
		s.sessionIDs = fn
	}
}

func New(users UserDirectory, tokens TokenIssuer, revocations RevocationStore, opts ...Option) *Service {
	s := &Service{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		ttl:         DefaultSessionTTL,
		sessionIDs:  func() id.SessionID { return id.SessionID(uuid.New()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Users lists the selectable users for the session picker.
func (s *Service) Users(ctx context.Context) ([]*dirmodels.User, error) {
	return s.users.ListUsers(ctx)
}

// Login starts a session as the chosen user and signs its token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetUser(ctx, req.ParsedUserID())
	if err != nil {
		return nil, err
	}

	label := device.Label(ctx)
	if label == "" {
		label = sessiondevice.ParseUserAgent(requestcontext.UserAgent(ctx))
	}

	sessionID := s.sessionIDs()
	token, expiresAt, err := s.tokens.GenerateToken(u.ID, sessionID, label, s.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	sess := &models.Session{
		ID:        sessionID,
		User:      u,
		Device:    label,
		IssuedAt:  expiresAt.Add(-s.ttl),
		ExpiresAt: expiresAt,
	}
	s.logger.InfoContext(ctx, "session started",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID.String(),
		"session_id", sessionID.String(),
		"device", label,
	)
	return &models.LoginResult{Session: sess, Token: token}, nil
}

// Logout revokes the session for the full token lifetime, which covers every
// token the session could still present.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "a session is required")
	}
	if err := s.revocations.Revoke(ctx, sessionID, s.ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	s.logger.InfoContext(ctx, "session ended",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID.String(),
	)
	return nil
}

// IsSessionRevoked satisfies the auth middleware's revocation check.
func (s *Service) IsSessionRevoked(ctx context.Context, sessionID id.SessionID) (bool, error) {
	return s.revocations.IsRevoked(ctx, sessionID)
}
