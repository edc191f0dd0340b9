// Package store holds the ledger repositories: an in-memory one seeded
// with demo data and a PostgreSQL one on pgx.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lunysse-scheduler/internal/ledger"
)

// querier is what both the pool and a transaction offer.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// Atomic runs fn inside one transaction. Nested calls reuse the outer one.
func (s *Store) Atomic(ctx context.Context, fn func(ledger.Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Migrate applies a schema script. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context, script string) error {
	_, err := s.pool.Exec(ctx, script)
	return err
}

const uniqueViolation = "23505"

func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ledger.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

// inserted turns an INSERT ... ON CONFLICT (id) DO NOTHING that wrote
// nothing into ledger.ErrIDTaken. Other unique violations still fail the
// statement and map to ledger.ErrDuplicate.
func inserted(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrIDTaken
	}
	return nil
}

// updated reports ledger.ErrNotFound when no row carried the id.
func updated(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// where accumulates AND-ed conditions with numbered placeholders.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// nullID stores the unassigned id 0 as NULL so foreign keys hold.
func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func fromNullID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
