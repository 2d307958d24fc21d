package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/session/models"
	"docutrack/internal/session/service/mocks"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/middleware/device"
	"docutrack/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	users       *mocks.MockUserDirectory
	tokens      *mocks.MockTokenIssuer
	revocations *mocks.MockRevocationStore
	svc         *Service
	sessionID   id.SessionID
	richard     *dirmodels.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserDirectory(s.ctrl)
	s.tokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.revocations = mocks.NewMockRevocationStore(s.ctrl)
	s.sessionID = id.SessionID(uuid.New())
	s.richard = &dirmodels.User{ID: id.UserID(uuid.New()), Name: "Richard", Office: "Cashier Section", Role: dirmodels.RoleStaff}
	s.svc = New(s.users, s.tokens, s.revocations,
		WithSessionTTL(time.Hour),
		WithSessionIDs(func() id.SessionID { return s.sessionID }),
	)
}

func (s *ServiceSuite) TestLogin() {
	expires := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	s.Run("issues a token labelled with the device", func() {
		ctx := device.WithLabel(context.Background(), "Firefox on Linux")
		s.users.EXPECT().GetUser(ctx, s.richard.ID).Return(s.richard, nil)
		s.tokens.EXPECT().GenerateToken(s.richard.ID, s.sessionID, "Firefox on Linux", time.Hour).
			Return("signed", expires, nil)

		res, err := s.svc.Login(ctx, &models.LoginRequest{UserID: " " + s.richard.ID.String() + " "})
		s.Require().NoError(err)
		s.Equal("signed", res.Token)
		s.Equal(s.sessionID, res.Session.ID)
		s.Equal(s.richard, res.Session.User)
		s.Equal(expires, res.Session.ExpiresAt)
		s.Equal(expires.Add(-time.Hour), res.Session.IssuedAt)
	})

	s.Run("falls back to parsing the user agent", func() {
		ctx := requestcontext.WithClientMetadata(context.Background(), "10.0.0.1", "")
		s.users.EXPECT().GetUser(ctx, s.richard.ID).Return(s.richard, nil)
		s.tokens.EXPECT().GenerateToken(s.richard.ID, s.sessionID, "Unknown Device", time.Hour).
			Return("signed", expires, nil)

		res, err := s.svc.Login(ctx, &models.LoginRequest{UserID: s.richard.ID.String()})
		s.Require().NoError(err)
		s.Equal("Unknown Device", res.Session.Device)
	})

	s.Run("rejects a malformed user id", func() {
		_, err := s.svc.Login(context.Background(), &models.LoginRequest{UserID: "richard"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown user is not found", func() {
		s.users.EXPECT().GetUser(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "user not found"))
		_, err := s.svc.Login(context.Background(), &models.LoginRequest{UserID: uuid.NewString()})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("signing failure is internal", func() {
		s.users.EXPECT().GetUser(gomock.Any(), s.richard.ID).Return(s.richard, nil)
		s.tokens.EXPECT().GenerateToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", time.Time{}, errors.New("bad key"))
		_, err := s.svc.Login(context.Background(), &models.LoginRequest{UserID: s.richard.ID.String()})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestLogout() {
	s.Run("revokes for the session lifetime", func() {
		s.revocations.EXPECT().Revoke(gomock.Any(), s.sessionID, time.Hour).Return(nil)
		s.NoError(s.svc.Logout(context.Background(), s.sessionID))
	})

	s.Run("requires a session", func() {
		err := s.svc.Logout(context.Background(), id.SessionID{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("store failure is internal", func() {
		s.revocations.EXPECT().Revoke(gomock.Any(), s.sessionID, time.Hour).Return(errors.New("redis down"))
		err := s.svc.Logout(context.Background(), s.sessionID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestIsSessionRevoked() {
	s.revocations.EXPECT().IsRevoked(gomock.Any(), s.sessionID).Return(true, nil)
	revoked, err := s.svc.IsSessionRevoked(context.Background(), s.sessionID)
	s.Require().NoError(err)
	s.True(revoked)
}
