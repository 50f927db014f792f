package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"daily-tips/internal/db/migrations"
	"daily-tips/internal/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Store is the Postgres-backed repository of users, topics, tips and
// deliveries.
type Store struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// New wraps an open connection.
func New(conn *sqlx.DB) *Store {
	return &Store{
		db: conn,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Connect opens the database, verifies it and applies pending migrations.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return New(conn), nil
}

// Migrate applies the embedded goose migrations.
func Migrate(conn *sqlx.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(conn.DB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// inTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// translate maps driver errors onto model sentinels. Anything it does not
// recognise is returned unchanged.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return models.ErrDuplicate
		case pqForeignKeyViolation:
			return models.ErrNotFound
		}
	}
	return err
}

// wrap translates err and adds op context unless it became a sentinel.
func wrap(op string, err error) error {
	t := translate(err)
	if errors.Is(t, models.ErrNotFound) || errors.Is(t, models.ErrDuplicate) {
		return t
	}
	return fmt.Errorf("%s: %w", op, err)
}
