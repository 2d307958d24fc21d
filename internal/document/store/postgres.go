package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	dirmodels "docutrack/internal/directory/models"
	"docutrack/internal/document/models"
	"docutrack/internal/platform/postgres"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
	"docutrack/pkg/platform/tx"
)

// PostgresDocuments persists each document as one row with its history in a
// JSONB column, so a transition is a single write. The sender is joined from
// users on every read and is nil once that user is deleted.
type PostgresDocuments struct {
	db *sql.DB
}

func NewPostgresDocuments(db *sql.DB) *PostgresDocuments {
	return &PostgresDocuments{db: db}
}

const selectDocuments = `SELECT d.id, d.tracking_number, d.title, d.description, d.category, d.priority,
	d.delivery_type, d.status, u.id, u.name, u.position, u.office, u.role, u.avatar_url,
	d.recipient_office, d.created_at, d.updated_at, d.history
	FROM documents d LEFT JOIN users u ON u.id = d.sender_id`

func (s *PostgresDocuments) List(ctx context.Context) ([]*models.Document, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		selectDocuments+` ORDER BY d.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *PostgresDocuments) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		selectDocuments+` WHERE d.id = $1`, uuid.UUID(docID))
	return s.scanOne(row, fmt.Sprintf("document %s", docID))
}

func (s *PostgresDocuments) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Document, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		selectDocuments+` WHERE d.tracking_number = $1`, trackingNumber)
	return s.scanOne(row, fmt.Sprintf("tracking number %q", trackingNumber))
}

func (s *PostgresDocuments) scanOne(row *sql.Row, what string) (*models.Document, error) {
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find %s: %w", what, err)
	}
	return d, nil
}

func (s *PostgresDocuments) Create(ctx context.Context, doc *models.Document) error {
	history, err := encodeHistory(doc)
	if err != nil {
		return err
	}
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO documents (id, tracking_number, title, description, category, priority, delivery_type,
			status, sender_id, recipient_office, created_at, updated_at, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, uuid.UUID(doc.ID), doc.TrackingNumber, doc.Title, doc.Description, doc.Category,
		string(doc.Priority), string(doc.DeliveryType), string(doc.Status),
		senderID(doc), doc.RecipientOffice, doc.CreatedAt, doc.UpdatedAt, history)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create document: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresDocuments) Replace(ctx context.Context, doc *models.Document) error {
	history, err := encodeHistory(doc)
	if err != nil {
		return err
	}
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE documents SET title = $2, description = $3, category = $4, priority = $5,
			delivery_type = $6, status = $7, sender_id = $8, recipient_office = $9,
			updated_at = $10, history = $11
		WHERE id = $1
	`, uuid.UUID(doc.ID), doc.Title, doc.Description, doc.Category, string(doc.Priority),
		string(doc.DeliveryType), string(doc.Status), senderID(doc), doc.RecipientOffice,
		doc.UpdatedAt, history)
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace document: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresDocuments) ClearSender(ctx context.Context, userID id.UserID) (int, error) {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE documents SET sender_id = NULL WHERE sender_id = $1`, uuid.UUID(userID))
	if err != nil {
		return 0, fmt.Errorf("clear sender: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear sender: rows affected: %w", err)
	}
	return int(n), nil
}

func senderID(doc *models.Document) any {
	if doc.Sender == nil {
		return nil
	}
	return uuid.UUID(doc.Sender.ID)
}

// encodeHistory returns the history as text. lib/pq sends []byte as bytea,
// which jsonb does not accept.
func encodeHistory(doc *models.Document) (string, error) {
	b, err := json.Marshal(doc.History)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d                            models.Document
		docID                        uuid.UUID
		priority, delivery, status   string
		senderRef                    uuid.NullUUID
		name, position, office, role sql.NullString
		avatarURL                    sql.NullString
		historyJSON                  []byte
	)
	if err := row.Scan(&docID, &d.TrackingNumber, &d.Title, &d.Description, &d.Category,
		&priority, &delivery, &status, &senderRef, &name, &position, &office, &role, &avatarURL,
		&d.RecipientOffice, &d.CreatedAt, &d.UpdatedAt, &historyJSON); err != nil {
		return nil, err
	}
	d.ID = id.DocumentID(docID)
	d.Priority = models.Priority(priority)
	d.DeliveryType = models.DeliveryType(delivery)
	d.Status = models.Status(status)
	if senderRef.Valid {
		d.Sender = &dirmodels.User{
			ID:        id.UserID(senderRef.UUID),
			Name:      name.String,
			Position:  position.String,
			Office:    office.String,
			Role:      dirmodels.Role(role.String),
			AvatarURL: avatarURL.String,
		}
	}
	if err := json.Unmarshal(historyJSON, &d.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &d, nil
}
