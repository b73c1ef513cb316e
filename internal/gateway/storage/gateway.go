package storage

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DefaultTimeout bounds a single statement when the caller supplies no
// deadline of its own.
const DefaultTimeout = 10 * time.Second

// Gateway owns the relational connection pool. It is constructed once at
// startup, injected into the stores, and closed at shutdown. A nil or
// unconfigured Gateway signals the stores to use the file backend.
type Gateway struct {
	db      *sql.DB
	timeout time.Duration

	schemaOnce sync.Once
	schemaErr  error
}

// Open connects to the given postgres DSN and verifies the connection.
func Open(dsn string) (*Gateway, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Gateway{db: db, timeout: DefaultTimeout}, nil
}

// Configured reports whether a relational backend is available.
func (g *Gateway) Configured() bool {
	return g != nil && g.db != nil
}

func (g *Gateway) Close() error {
	if !g.Configured() {
		return nil
	}
	return g.db.Close()
}

// opCtx applies the default timeout to operations that finish inside the
// call. Query and QueryRow must not use it: their results are consumed after
// the method returns, and cancelling the statement context would close the
// rows out from under the caller.
func (g *Gateway) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	return g.db.ExecContext(ctx, query, args...)
}

func (g *Gateway) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return g.db.QueryContext(ctx, query, args...)
}

func (g *Gateway) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return g.db.QueryRowContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction, rolling back on error. Multi-row
// writes that must appear atomic to readers go through here.
func (g *Gateway) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
