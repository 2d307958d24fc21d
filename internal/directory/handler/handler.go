// Package handler exposes profiles, offices and user administration.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"docutrack/internal/directory/models"
	"docutrack/internal/session/actor"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/httputil"
	"docutrack/pkg/requestcontext"
)

// Service defines the directory operations the handler needs.
type Service interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, actor *models.User, userID id.UserID, req *models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, userID id.UserID) error
	UpdateProfile(ctx context.Context, actor *models.User, req *models.ProfileUpdate) (*models.User, error)
	ListOffices(ctx context.Context) ([]*models.Office, error)
	AddOffice(ctx context.Context, actor *models.User, req *models.CreateOfficeRequest) (*models.Office, error)
	DeleteOffice(ctx context.Context, actor *models.User, name string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
	guards  actor.Guards
}

func New(service Service, logger *slog.Logger, guards actor.Guards) *Handler {
	return &Handler{service: service, logger: logger, guards: guards}
}

// Register mounts directory endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guards.Authenticated)
		r.Get("/me", h.HandleMe)
		r.Patch("/me", h.HandleUpdateProfile)
		r.Get("/offices", h.HandleListOffices)

		r.Group(func(r chi.Router) {
			r.Use(h.guards.SuperAdmin)
			r.Get("/admin/users", h.HandleListUsers)
			r.Post("/admin/users", h.HandleCreateUser)
			r.Patch("/admin/users/{id}", h.HandleUpdateUser)
			r.Delete("/admin/users/{id}", h.HandleDeleteUser)
			r.Post("/admin/offices", h.HandleAddOffice)
			r.Delete("/admin/offices/{name}", h.HandleDeleteOffice)
		})
	})
}

type UsersResponse struct {
	Users []*models.User `json:"users"`
}

type OfficesResponse struct {
	Offices []*models.Office `json:"offices"`
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func userID(r *http.Request) (id.UserID, error) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeBadRequest, "invalid user id")
	}
	return userID, nil
}

// HandleMe handles GET /me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, actor.FromContext(r.Context()))
}

// HandleUpdateProfile handles PATCH /me.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.ProfileUpdate](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	u, err := h.service.UpdateProfile(ctx, actor.FromContext(ctx), req)
	if err != nil {
		h.writeError(ctx, w, "failed to update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// HandleListOffices handles GET /offices.
func (h *Handler) HandleListOffices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offices, err := h.service.ListOffices(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to list offices", err)
		return
	}
	if offices == nil {
		offices = []*models.Office{}
	}
	httputil.WriteJSON(w, http.StatusOK, OfficesResponse{Offices: offices})
}

// HandleListUsers handles GET /admin/users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := h.service.ListUsers(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to list users", err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	httputil.WriteJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// HandleCreateUser handles POST /admin/users.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	u, err := h.service.CreateUser(ctx, actor.FromContext(ctx), req)
	if err != nil {
		h.writeError(ctx, w, "failed to create user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

// HandleUpdateUser handles PATCH /admin/users/{id}.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := userID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	u, err := h.service.UpdateUser(ctx, actor.FromContext(ctx), target, req)
	if err != nil {
		h.writeError(ctx, w, "failed to update user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// HandleDeleteUser handles DELETE /admin/users/{id}.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := userID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteUser(ctx, actor.FromContext(ctx), target); err != nil {
		h.writeError(ctx, w, "failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddOffice handles POST /admin/offices.
func (h *Handler) HandleAddOffice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateOfficeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	office, err := h.service.AddOffice(ctx, actor.FromContext(ctx), req)
	if err != nil {
		h.writeError(ctx, w, "failed to add office", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, office)
}

// HandleDeleteOffice handles DELETE /admin/offices/{name}. A blocked delete
// reports blocking_users in the error body.
func (h *Handler) HandleDeleteOffice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if err := h.service.DeleteOffice(ctx, actor.FromContext(ctx), name); err != nil {
		h.writeError(ctx, w, "failed to delete office", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
