// Package handler exposes documents, tracking lookup, the dashboard and the
// activity log over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/document/models"
	"docutrack/internal/document/service"
	"docutrack/internal/session/actor"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/httputil"
	"docutrack/pkg/requestcontext"
)

// Service defines the document operations the handler needs.
type Service interface {
	Create(ctx context.Context, actor *dirmodels.User, req *models.CreateDocumentRequest) (*models.Document, error)
	UpdateDraft(ctx context.Context, actor *dirmodels.User, docID id.DocumentID, req *models.UpdateDraftRequest) (*models.Document, error)
	Get(ctx context.Context, actor *dirmodels.User, docID id.DocumentID) (*service.Detail, error)
	List(ctx context.Context, actor *dirmodels.User, q models.ListQuery) ([]*models.Document, error)
	PerformAction(ctx context.Context, actor *dirmodels.User, docID id.DocumentID, req *models.ActionRequest) (*service.Detail, error)
	Track(ctx context.Context, actor *dirmodels.User, trackingNumber string) (*service.TrackResult, error)
	Dashboard(ctx context.Context, actor *dirmodels.User) (*service.Dashboard, error)
	ActivityLog(ctx context.Context, actor *dirmodels.User) ([]service.ActivityEntry, error)
	ForwardTargets(ctx context.Context, actor *dirmodels.User, docID id.DocumentID) ([]string, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	guards  actor.Guards
}

func New(service Service, logger *slog.Logger, guards actor.Guards) *Handler {
	return &Handler{service: service, logger: logger, guards: guards}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.guards.Guest).Get("/track/{trackingNumber}", h.HandleTrack)

	r.Group(func(r chi.Router) {
		r.Use(h.guards.Authenticated)
		r.Get("/documents", h.HandleList)
		r.Post("/documents", h.HandleCreate)
		r.Get("/documents/{id}", h.HandleGet)
		r.Patch("/documents/{id}", h.HandleUpdateDraft)
		r.Post("/documents/{id}/actions", h.HandleAction)
		r.Get("/documents/{id}/forward-targets", h.HandleForwardTargets)
		r.Get("/dashboard", h.HandleDashboard)

		r.With(h.guards.SuperAdmin).Get("/admin/activity", h.HandleActivity)
	})
}

type ListResponse struct {
	Documents []*models.Document `json:"documents"`
}

type ForwardTargetsResponse struct {
	Offices []string `json:"offices"`
}

type ActivityResponse struct {
	Entries []service.ActivityEntry `json:"entries"`
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func documentID(r *http.Request) (id.DocumentID, error) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		return id.DocumentID{}, dErrors.New(dErrors.CodeBadRequest, "invalid document id")
	}
	return docID, nil
}

// HandleList handles GET /documents?q=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.service.List(ctx, actor.FromContext(ctx), models.ListQuery{Query: r.URL.Query().Get("q")})
	if err != nil {
		h.fail(ctx, w, "failed to list documents", err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Documents: docs})
}

// HandleCreate handles POST /documents.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateDocumentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid create document request", err)
		return
	}
	doc, err := h.service.Create(ctx, actor.FromContext(ctx), &req)
	if err != nil {
		h.fail(ctx, w, "failed to create document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// HandleGet handles GET /documents/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := documentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.service.Get(ctx, actor.FromContext(ctx), docID)
	if err != nil {
		h.fail(ctx, w, "failed to get document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// HandleUpdateDraft handles PATCH /documents/{id}.
func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := documentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.UpdateDraftRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid draft edit request", err)
		return
	}
	doc, err := h.service.UpdateDraft(ctx, actor.FromContext(ctx), docID, &req)
	if err != nil {
		h.fail(ctx, w, "failed to edit draft", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// HandleAction handles POST /documents/{id}/actions.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := documentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ActionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(ctx, w, "invalid action request", err)
		return
	}
	detail, err := h.service.PerformAction(ctx, actor.FromContext(ctx), docID, &req)
	if err != nil {
		h.fail(ctx, w, "document action failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// HandleForwardTargets handles GET /documents/{id}/forward-targets.
func (h *Handler) HandleForwardTargets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := documentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	offices, err := h.service.ForwardTargets(ctx, actor.FromContext(ctx), docID)
	if err != nil {
		h.fail(ctx, w, "failed to list forward targets", err)
		return
	}
	if offices == nil {
		offices = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, ForwardTargetsResponse{Offices: offices})
}

// HandleTrack handles GET /track/{trackingNumber}. Guests may look up a
// document; only a signed-in recipient can trigger the auto-receive.
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.Track(ctx, actor.FromContext(ctx), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		h.fail(ctx, w, "tracking lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleDashboard handles GET /dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dash, err := h.service.Dashboard(ctx, actor.FromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to build dashboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dash)
}

// HandleActivity handles GET /admin/activity.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.service.ActivityLog(ctx, actor.FromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to load activity log", err)
		return
	}
	if entries == nil {
		entries = []service.ActivityEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, ActivityResponse{Entries: entries})
}
