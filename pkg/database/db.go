// Package database wraps sqlx with the small surface the resolution
// pipeline needs, plus transaction and migration helpers.
package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

// DB is the handle repositories work against. Connx hands out a dedicated
// pooled connection; advisory locks need one because they are session-scoped.
type DB interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
	Connx(ctx context.Context) (*sqlx.Conn, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	PingContext(ctx context.Context) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Unsafe() *sqlx.DB
}

type handle struct {
	*sqlx.DB
	logger ectologger.Logger
}

// NewDB wraps an open sqlx pool.
func NewDB(db *sqlx.DB, logger ectologger.Logger) DB {
	return &handle{
		DB:     db,
		logger: logger,
	}
}
