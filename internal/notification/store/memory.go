package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"docutrack/internal/notification/models"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
)

// InMemoryNotifications keeps notifications grouped by recipient.
type InMemoryNotifications struct {
	mu     sync.RWMutex
	byUser map[id.UserID][]*models.Notification
}

func NewInMemoryNotifications() *InMemoryNotifications {
	return &InMemoryNotifications{byUser: make(map[id.UserID][]*models.Notification)}
}

// Create stores every notification or none.
func (s *InMemoryNotifications) Create(_ context.Context, items ...*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[id.NotificationID]struct{}, len(items))
	for _, n := range items {
		if _, dup := seen[n.ID]; dup || s.exists(n.ID) {
			return fmt.Errorf("notification %s: %w", n.ID, sentinel.ErrAlreadyUsed)
		}
		seen[n.ID] = struct{}{}
	}
	for _, n := range items {
		c := *n
		s.byUser[n.UserID] = append(s.byUser[n.UserID], &c)
	}
	return nil
}

func (s *InMemoryNotifications) exists(notificationID id.NotificationID) bool {
	for _, list := range s.byUser {
		for _, n := range list {
			if n.ID == notificationID {
				return true
			}
		}
	}
	return false
}

// ListByUser returns the user's notifications newest first.
func (s *InMemoryNotifications) ListByUser(_ context.Context, userID id.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byUser[userID]
	out := make([]*models.Notification, 0, len(list))
	for _, n := range list {
		c := *n
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkRead flips one notification owned by userID. Someone else's
// notification is reported as not found.
func (s *InMemoryNotifications) MarkRead(_ context.Context, userID id.UserID, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.byUser[userID] {
		if n.ID == notificationID {
			n.MarkRead()
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
}

func (s *InMemoryNotifications) MarkAllRead(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.byUser[userID] {
		if item.MarkRead() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryNotifications) CountUnread(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.byUser[userID] {
		if !item.Read {
			n++
		}
	}
	return n, nil
}
