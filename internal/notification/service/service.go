// Package service persists the notifications a transition produces and queues
// them for asynchronous delivery.
package service

import (
	"context"
	"errors"
	"log/slog"

	dirmodels "docutrack/internal/directory/models"
	docmodels "docutrack/internal/document/models"
	notifmetrics "docutrack/internal/notification/metrics"
	"docutrack/internal/notification/models"
	"docutrack/internal/notification/policy"
	id "docutrack/pkg/domain"
	dErrors "docutrack/pkg/domain-errors"
	"docutrack/pkg/platform/sentinel"
	"docutrack/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, items ...*models.Notification) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error
	MarkAllRead(ctx context.Context, userID id.UserID) (int, error)
	CountUnread(ctx context.Context, userID id.UserID) (int, error)
}

// UserDirectory resolves the members of a recipient office.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]*dirmodels.User, error)
}

// EventQueue accepts events for delivery without blocking.
type EventQueue interface {
	Enqueue(event models.Event) bool
}

type Service struct {
	store   Store
	users   UserDirectory
	policy  *policy.Policy
	queue   EventQueue
	logger  *slog.Logger
	metrics *notifmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *notifmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithQueue enables asynchronous delivery of persisted notifications.
func WithQueue(q EventQueue) Option {
	return func(s *Service) {
		s.queue = q
	}
}

func New(store Store, users UserDirectory, opts ...Option) *Service {
	s := &Service{
		store:  store,
		users:  users,
		policy: policy.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Notify computes and stores the notifications for a committed transition,
// then queues them for delivery. A full queue drops events; the stored
// notifications remain readable.
func (s *Service) Notify(ctx context.Context, updated *docmodels.Document, previous docmodels.Status, actor *dirmodels.User) error {
	if updated == nil || actor == nil || updated.Status == previous {
		return nil
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve notification recipients")
	}
	items := s.policy.For(updated, previous, actor, users, requestcontext.Now(ctx))
	if len(items) == 0 {
		return nil
	}
	if err := s.store.Create(ctx, items...); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store notifications")
	}
	s.metrics.IncrementEmitted(len(items))

	dropped := 0
	if s.queue != nil {
		for _, n := range items {
			if !s.queue.Enqueue(n.Event()) {
				dropped++
			}
		}
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "notification queue full, events dropped",
			"document_id", updated.ID.String(),
			"dropped", dropped,
		)
	}
	s.logger.InfoContext(ctx, "notifications emitted",
		"document_id", updated.ID.String(),
		"status", string(updated.Status),
		"count", len(items),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func requireActor(actor *dirmodels.User) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "a session is required")
	}
	return nil
}

// List returns the actor's notifications, newest first.
func (s *Service) List(ctx context.Context, actor *dirmodels.User) ([]*models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	items, err := s.store.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return items, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *Service) MarkRead(ctx context.Context, actor *dirmodels.User, notificationID id.NotificationID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, actor.ID, notificationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead returns how many notifications changed.
func (s *Service) MarkAllRead(ctx context.Context, actor *dirmodels.User) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notifications read")
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, actor *dirmodels.User) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	n, err := s.store.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count notifications")
	}
	return n, nil
}
