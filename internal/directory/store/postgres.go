package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docutrack/internal/directory/models"
	"docutrack/internal/platform/postgres"
	id "docutrack/pkg/domain"
	"docutrack/pkg/platform/sentinel"
	"docutrack/pkg/platform/tx"
)

// PostgresUsers persists users in PostgreSQL. Queries join an open
// transaction from context when present.
type PostgresUsers struct {
	db *sql.DB
}

func NewPostgresUsers(db *sql.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

const userColumns = `id, name, position, office, role, avatar_url`

func (s *PostgresUsers) List(ctx context.Context) ([]*models.User, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (s *PostgresUsers) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresUsers) Create(ctx context.Context, u *models.User) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (id, name, position, office, role, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(u.ID), u.Name, u.Position, u.Office, string(u.Role), u.AvatarURL)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", sentinel.ErrAlreadyUsed)
		}
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("create user: office %q: %w", u.Office, sentinel.ErrNotFound)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresUsers) Update(ctx context.Context, u *models.User) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE users SET name = $2, position = $3, office = $4, role = $5, avatar_url = $6
		WHERE id = $1
	`, uuid.UUID(u.ID), u.Name, u.Position, u.Office, string(u.Role), u.AvatarURL)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("update user: office %q: %w", u.Office, sentinel.ErrNotFound)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, "update user")
}

func (s *PostgresUsers) Delete(ctx context.Context, userID id.UserID) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "delete user")
}

func (s *PostgresUsers) CountByOffice(ctx context.Context, office string) (int, error) {
	var n int
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE lower(office) = lower($1)`, office).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users by office: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u      models.User
		userID uuid.UUID
		role   string
	)
	if err := row.Scan(&userID, &u.Name, &u.Position, &u.Office, &role, &u.AvatarURL); err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.Role = models.Role(role)
	return &u, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}

// PostgresOffices persists offices in PostgreSQL. The unique index on
// lower(name) enforces case-insensitive uniqueness.
type PostgresOffices struct {
	db *sql.DB
}

func NewPostgresOffices(db *sql.DB) *PostgresOffices {
	return &PostgresOffices{db: db}
}

func (s *PostgresOffices) List(ctx context.Context) ([]*models.Office, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT name, created_at FROM offices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list offices: %w", err)
	}
	defer rows.Close()

	var out []*models.Office
	for rows.Next() {
		var o models.Office
		if err := rows.Scan(&o.Name, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan office: %w", err)
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offices: %w", err)
	}
	return out, nil
}

func (s *PostgresOffices) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM offices WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("office exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresOffices) CreateIfNameAvailable(ctx context.Context, office *models.Office) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO offices (name, created_at) VALUES ($1, $2)`, office.Name, office.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("office %q: %w", office.Name, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create office: %w", err)
	}
	return nil
}

func (s *PostgresOffices) Delete(ctx context.Context, name string) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM offices WHERE lower(name) = lower($1)`, name)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete office %q: %w", name, sentinel.ErrConflict)
		}
		return fmt.Errorf("delete office: %w", err)
	}
	return requireAffected(res, "delete office")
}
