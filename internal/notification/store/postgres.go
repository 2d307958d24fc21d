package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"docutrack/internal/notification/models"
	"docutrack/internal/platform/postgres"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
	"docutrack/pkg/platform/tx"
)

type PostgresNotifications struct {
	db *sql.DB
}

func NewPostgresNotifications(db *sql.DB) *PostgresNotifications {
	return &PostgresNotifications{db: db}
}

// Create inserts the batch in one transaction, joining the caller's when open.
func (s *PostgresNotifications) Create(ctx context.Context, items ...*models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.Executor(ctx, s.db)
		for _, n := range items {
			var docID any
			if n.DocumentID != nil {
				docID = uuid.UUID(*n.DocumentID)
			}
			_, err := exec.ExecContext(ctx, `
				INSERT INTO notifications (id, user_id, document_id, message, read, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, uuid.UUID(n.ID), uuid.UUID(n.UserID), docID, n.Message, n.Read, n.CreatedAt)
			if err != nil {
				if postgres.IsUniqueViolation(err) {
					return fmt.Errorf("notification %s: %w", n.ID, sentinel.ErrAlreadyUsed)
				}
				return fmt.Errorf("create notification: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresNotifications) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Notification, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, user_id, document_id, message, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n        models.Notification
			nID, uID uuid.UUID
			docID    uuid.NullUUID
		)
		if err := rows.Scan(&nID, &uID, &docID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = id.NotificationID(nID)
		n.UserID = id.UserID(uID)
		if docID.Valid {
			d := id.DocumentID(docID.UUID)
			n.DocumentID = &d
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresNotifications) MarkRead(ctx context.Context, userID id.UserID, notificationID id.NotificationID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		uuid.UUID(notificationID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresNotifications) MarkAllRead(ctx context.Context, userID id.UserID) (int, error) {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, uuid.UUID(userID))
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresNotifications) CountUnread(ctx context.Context, userID id.UserID) (int, error) {
	var n int
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, uuid.UUID(userID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
