// Package models defines the session selected through the user picker.
package models

import (
	"strings"
	"time"

	dirmodels "docutrack/internal/directory/models"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
)

// Session is the explicit per-request identity. It is issued when a user is
// picked and ends on logout or token expiry.
type Session struct {
	ID        id.SessionID    `json:"session_id"`
	User      *dirmodels.User `json:"user"`
	Device    string          `json:"device"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// TTL is the remaining lifetime of the session at now.
func (s *Session) TTL(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// LoginRequest selects the user to act as.
type LoginRequest struct {
	UserID string `json:"user_id"`
}

func (r *LoginRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
}

func (r *LoginRequest) Validate() error {
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	if _, err := id.ParseUserID(r.UserID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "user_id must be a valid id")
	}
	return nil
}

// ParsedUserID is only meaningful after Validate succeeded.
func (r *LoginRequest) ParsedUserID() id.UserID {
	userID, _ := id.ParseUserID(r.UserID)
	return userID
}

// LoginResult pairs the session with its bearer token.
type LoginResult struct {
	Session *Session
	Token   string
}
