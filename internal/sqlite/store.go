package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stagekit/depot/internal/domain/equipment"
	"github.com/stagekit/depot/internal/repository"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same ledger code runs auto-committed or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements equipment.Store and audit.Log over SQLite.
type Store struct {
	db *DB
	ledger
}

// NewStore creates a new Store.
func NewStore(db *DB) *Store {
	return &Store{db: db, ledger: ledger{q: db.DB}}
}

// InTx runs fn inside a single transaction. The callback's ledger writes
// commit together or not at all. The callback receives ctx back so its
// queries run under the transaction deadline. Lock contention and expired
// deadlines surface as repository.ErrRetryable.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, l equipment.Ledger) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(ctx, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(ctx, &ledger{q: tx}); err != nil {
		return classify(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// classify maps transient storage failures onto the retryable sentinel and
// passes domain errors through untouched. An expired transaction deadline is
// retryable even when database/sql already tore the transaction down and the
// failing query reported sql.ErrTxDone rather than the context error.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if isBusy(err) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", repository.ErrRetryable, err)
	}
	return err
}

// ledger holds the persistence operations; q is either the pooled database
// or an open transaction.
type ledger struct {
	q querier
}
