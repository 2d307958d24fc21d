package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "docutrack/pkg/domain-errors"
)

// Runner is the transactional boundary services use for multi-store writes.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner runs fn inside a database transaction carried through ctx.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, fn)
}

const defaultLockTimeout = 5 * time.Second

// LockRunner serializes units of work over in-memory stores with a single
// mutex. It gives isolation but no rollback, so fn should validate before it
// writes.
type LockRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewLockRunner() *LockRunner {
	return &LockRunner{timeout: defaultLockTimeout}
}

func (r *LockRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
