package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/session/actor"
	sessiondevice "docutrack/internal/session/device"
	"docutrack/internal/session/models"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/httputil"
	"docutrack/pkg/platform/middleware/device"
	"docutrack/pkg/requestcontext"
)

// Service defines the session operations the handler needs.
type Service interface {
	Users(ctx context.Context) ([]*dirmodels.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
}

// Handler serves the user picker and session endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
	guards  actor.Guards
}

// New constructs a session handler. Only logout needs a session.
func New(service Service, logger *slog.Logger, guards actor.Guards) *Handler {
	return &Handler{service: service, logger: logger, guards: guards}
}

// Register mounts session endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/session/users", h.HandleUsers)
	r.With(device.Middleware(sessiondevice.ParseUserAgent)).Post("/auth/session", h.HandleLogin)
	r.With(h.guards.Authenticated).Delete("/auth/session", h.HandleLogout)
}

type SessionResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	SessionID id.SessionID    `json:"session_id"`
	Device    string          `json:"device"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      *dirmodels.User `json:"user"`
}

type UsersResponse struct {
	Users []*dirmodels.User `json:"users"`
}

// HandleUsers handles GET /auth/session/users.
func (h *Handler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := h.service.Users(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list picker users",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if users == nil {
		users = []*dirmodels.User{}
	}
	httputil.WriteJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// HandleLogin handles POST /auth/session.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Login(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "session login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, SessionResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		SessionID: res.Session.ID,
		Device:    res.Session.Device,
		ExpiresAt: res.Session.ExpiresAt,
		User:      res.Session.User,
	})
}

// HandleLogout handles DELETE /auth/session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "session logout failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
