// Package connection runs units of work against one live database connection.
package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// DriverName is the database/sql driver used by Open
const DriverName = "pgx"

// Conn is the part of *sql.Conn the ORM needs
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Executor runs fn with a connection that is acquired before and released
// after the call, whatever fn returns
type Executor interface {
	WithConnection(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error
}

// Options configures the pool behind a Manager
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultOptions returns the pool settings used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Manager hands out scoped connections from a *sql.DB pool
type Manager struct {
	db *sql.DB
}

// New wraps an existing pool
func New(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Open connects to url, applies opts and verifies the connection with a ping
func Open(ctx context.Context, url string, opts Options) (*Manager, error) {
	if url == "" {
		return nil, errors.New("database url is required")
	}

	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	m := New(db)
	if err := m.Ping(ctx, opts.PingTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// DB returns the underlying pool
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Ping checks the database is reachable. A zero timeout relies on ctx alone.
func (m *Manager) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// WithConnection implements Executor
func (m *Manager) WithConnection(ctx context.Context, fn func(ctx context.Context, conn Conn) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// Close closes the pool
func (m *Manager) Close() error {
	return m.db.Close()
}

// Query runs fn through ex and returns its result
func Query[T any](ctx context.Context, ex Executor, fn func(ctx context.Context, conn Conn) (T, error)) (T, error) {
	var result T
	err := ex.WithConnection(ctx, func(ctx context.Context, conn Conn) error {
		var err error
		result, err = fn(ctx, conn)
		return err
	})
	return result, err
}
