//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
	"docutrack/pkg/testutil/containers"
)

func TestPostgresNotifications(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx, "notifications"))

	s := NewPostgresNotifications(pg.DB)
	t0 := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())

	older := notification(alice, t0)
	newer := notification(alice, t0.Add(time.Minute))
	docID := id.DocumentID(uuid.New())
	newer.DocumentID = &docID
	bobs := notification(bob, t0)
	require.NoError(t, s.Create(ctx, older, newer, bobs))

	t.Run("list is newest first and scoped to the user", func(t *testing.T) {
		list, err := s.ListByUser(ctx, alice)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		require.NotNil(t, list[0].DocumentID)
		assert.Equal(t, docID, *list[0].DocumentID)
		assert.Nil(t, list[1].DocumentID)
		assert.True(t, t0.Equal(list[1].CreatedAt))
	})

	t.Run("duplicate batch is rejected whole", func(t *testing.T) {
		err := s.Create(ctx, notification(alice, t0), older)
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		list, _ := s.ListByUser(ctx, alice)
		assert.Len(t, list, 2)
	})

	t.Run("mark read requires ownership", func(t *testing.T) {
		assert.ErrorIs(t, s.MarkRead(ctx, alice, bobs.ID), sentinel.ErrNotFound)
		require.NoError(t, s.MarkRead(ctx, alice, older.ID))
		n, err := s.CountUnread(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("mark all read reports changed rows", func(t *testing.T) {
		n, err := s.MarkAllRead(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, _ = s.MarkAllRead(ctx, alice)
		assert.Zero(t, n)

		unread, _ := s.CountUnread(ctx, bob)
		assert.Equal(t, 1, unread)
	})
}
