package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docutrack/internal/notification/models"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
)

func notification(userID id.UserID, at time.Time) *models.Notification {
	return &models.Notification{
		ID:        id.NotificationID(uuid.New()),
		UserID:    userID,
		Message:   "Document update",
		CreatedAt: at,
	}
}

func TestInMemoryNotifications(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())

	s := NewInMemoryNotifications()
	older := notification(alice, t0)
	newer := notification(alice, t0.Add(time.Minute))
	bobs := notification(bob, t0)
	require.NoError(t, s.Create(ctx, older, newer, bobs))

	t.Run("list is newest first and scoped to the user", func(t *testing.T) {
		list, err := s.ListByUser(ctx, alice)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)
	})

	t.Run("duplicate batch is rejected whole", func(t *testing.T) {
		fresh := notification(alice, t0)
		err := s.Create(ctx, fresh, older)
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		list, _ := s.ListByUser(ctx, alice)
		assert.Len(t, list, 2)
	})

	t.Run("mark read requires ownership", func(t *testing.T) {
		assert.ErrorIs(t, s.MarkRead(ctx, alice, bobs.ID), sentinel.ErrNotFound)
		require.NoError(t, s.MarkRead(ctx, alice, older.ID))
		n, _ := s.CountUnread(ctx, alice)
		assert.Equal(t, 1, n)
	})

	t.Run("mark all read counts only changes", func(t *testing.T) {
		n, err := s.MarkAllRead(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		unread, _ := s.CountUnread(ctx, alice)
		assert.Zero(t, unread)
		bobUnread, _ := s.CountUnread(ctx, bob)
		assert.Equal(t, 1, bobUnread)
	})
}
