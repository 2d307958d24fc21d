package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/notification/models"
	"docutrack/internal/session/actor"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/httputil"
	"docutrack/pkg/requestcontext"
)

// Service defines the notification inbox operations.
type Service interface {
	List(ctx context.Context, actor *dirmodels.User) ([]*models.Notification, error)
	MarkRead(ctx context.Context, actor *dirmodels.User, notificationID id.NotificationID) error
	MarkAllRead(ctx context.Context, actor *dirmodels.User) (int, error)
	UnreadCount(ctx context.Context, actor *dirmodels.User) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	guards  actor.Guards
}

func New(service Service, logger *slog.Logger, guards actor.Guards) *Handler {
	return &Handler{service: service, logger: logger, guards: guards}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guards.Authenticated)
		r.Get("/notifications", h.HandleList)
		r.Post("/notifications/read-all", h.HandleMarkAllRead)
		r.Post("/notifications/{id}/read", h.HandleMarkRead)
	})
}

type ListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Unread        int                    `json:"unread"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

// HandleList handles GET /notifications.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := actor.FromContext(ctx)
	items, err := h.service.List(ctx, current)
	if err != nil {
		h.writeError(ctx, w, "failed to list notifications", err)
		return
	}
	unread, err := h.service.UnreadCount(ctx, current)
	if err != nil {
		h.writeError(ctx, w, "failed to count notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Notifications: items, Unread: unread})
}

// HandleMarkRead handles POST /notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	if err := h.service.MarkRead(ctx, actor.FromContext(ctx), notificationID); err != nil {
		h.writeError(ctx, w, "failed to mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead handles POST /notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.service.MarkAllRead(ctx, actor.FromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to mark notifications read", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MarkAllReadResponse{Updated: n})
}
