package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dirmodels "docutrack/internal/directory/models"
	dirservice "docutrack/internal/directory/service"
	dirstore "docutrack/internal/directory/store"
	"docutrack/internal/session/actor"
	"docutrack/internal/session/service"
	"docutrack/internal/session/store"
	"docutrack/internal/session/token"
	id "docutrack/pkg/domain"
	"docutrack/pkg/testutil"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	richard *dirmodels.User
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	users := dirstore.NewInMemoryUsers()
	s.richard = &dirmodels.User{ID: id.UserID(uuid.New()), Name: "Richard", Position: "Clerk", Office: "Cashier Section", Role: dirmodels.RoleStaff}
	s.Require().NoError(users.Create(context.Background(), s.richard))

	directory := dirservice.New(users, dirstore.NewInMemoryOffices(), nil, dirservice.WithLogger(logger))
	jwt := token.NewJWTService("test-signing-key-0123456789", "docutrack")
	sessions := service.New(directory, jwt, store.NewInMemoryRevocations(), service.WithLogger(logger))

	h := New(sessions, logger, actor.NewGuards(token.NewMiddlewareAdapter(jwt), sessions, directory, logger))
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) login() *SessionResponse {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/session", map[string]string{"user_id": s.richard.ID.String()})
	req.Header.Set("User-Agent", chromeUA)
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
}

func (s *HandlerSuite) TestPickerUsers() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/auth/session/users"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[UsersResponse](s.T(), rr)
	s.Require().Len(resp.Users, 1)
	s.Equal("Richard", resp.Users[0].Name)
}

func (s *HandlerSuite) TestLogin() {
	s.Run("issues a bearer token with a device label", func() {
		resp := s.login()
		s.NotEmpty(resp.Token)
		s.Equal("Bearer", resp.TokenType)
		s.Contains(resp.Device, "Chrome")
		s.Equal(s.richard.ID, resp.User.ID)
		s.False(resp.SessionID.IsNil())
	})

	s.Run("rejects a missing user id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/session", map[string]string{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("rejects unknown fields", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/auth/session", `{"user_id":"x","password":"y"}`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown user is not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/session", map[string]string{"user_id": uuid.NewString()}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestLogout() {
	resp := s.login()

	logout := func() int {
		req := testutil.NewRequest(s.T(), http.MethodDelete, "/auth/session")
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		return testutil.DoRequest(s.router, req).Code
	}

	s.Equal(http.StatusNoContent, logout())
	s.Equal(http.StatusUnauthorized, logout(), "revoked session cannot be reused")

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/auth/session"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}
