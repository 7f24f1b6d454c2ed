// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/core/week"
	"github.com/example/rota/internal/ports/secondary"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements secondary.Transactor with SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn in a transaction and commits when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, repositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReadOnly runs fn in a transaction that is always rolled back.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(ctx, repositories(tx))
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func repositories(q dbtx) secondary.Repositories {
	return secondary.Repositories{
		Members:     NewMemberRepository(q),
		Rotation:    NewRotationRepository(q),
		Assignments: NewAssignmentRepository(q),
		Overrides:   NewOverrideRepository(q),
		Events:      NewEventRepository(q),
		Dispatches:  NewDispatchRepository(q),
	}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func notFound(entity, id string) error {
	return rotation.Errorf(rotation.ErrNotFound, "%s %s not found", entity, id)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt64(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func parseWeek(s string) (time.Time, error) {
	w, err := week.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt week_start %q: %w", s, err)
	}
	return w, nil
}

func now() time.Time {
	return time.Now().UTC()
}
