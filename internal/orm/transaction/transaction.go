// Package transaction runs units of work inside a database transaction.
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// IsolationLevel represents the transaction isolation level
type IsolationLevel int

const (
	// ReadCommitted prevents dirty reads (PostgreSQL default)
	ReadCommitted IsolationLevel = iota
	// RepeatableRead prevents non-repeatable reads
	RepeatableRead
	// Serializable provides full isolation
	Serializable
)

// String returns the SQL name of the isolation level
func (l IsolationLevel) String() string {
	switch l {
	case RepeatableRead:
		return "REPEATABLE READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return "READ COMMITTED"
	}
}

// ParseIsolationLevel parses a level name such as "serializable" or
// "repeatable_read". An empty name is ReadCommitted.
func ParseIsolationLevel(name string) (IsolationLevel, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", " ")) {
	case "", "READ COMMITTED":
		return ReadCommitted, nil
	case "REPEATABLE READ":
		return RepeatableRead, nil
	case "SERIALIZABLE":
		return Serializable, nil
	default:
		return ReadCommitted, fmt.Errorf("unknown isolation level %q", name)
	}
}

// ToSQLOptions converts the level to sql.TxOptions
func (l IsolationLevel) ToSQLOptions() *sql.TxOptions {
	switch l {
	case RepeatableRead:
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	case Serializable:
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	default:
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
}

// Beginner starts transactions; *sql.DB and *sql.Conn both satisfy it
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Run executes fn inside a read committed transaction
func Run(ctx context.Context, b Beginner, fn func(tx *sql.Tx) error) error {
	return RunIsolated(ctx, b, ReadCommitted, fn)
}

// RunIsolated executes fn inside a transaction at the given level.
// The transaction commits when fn returns nil. It rolls back when fn returns
// an error or panics; a panic is re-raised after the rollback.
func RunIsolated(ctx context.Context, b Beginner, level IsolationLevel, fn func(tx *sql.Tx) error) error {
	tx, err := b.BeginTx(ctx, level.ToSQLOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
