package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apolon-health/apolon/internal/orm/query"
)

// LedgerTable is the reserved table recording applied migrations
const LedgerTable = "__Migrations"

// DBTX is satisfied by *sql.Conn, *sql.Tx and *sql.DB
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// LedgerEntry is one applied migration
type LedgerEntry struct {
	ID          string
	Description string
	AppliedAt   time.Time
}

const (
	createLedgerSQL = `CREATE TABLE IF NOT EXISTS "__Migrations" (
	"Id" VARCHAR(255) PRIMARY KEY,
	"Description" VARCHAR(500),
	"AppliedAt" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	selectLedgerSQL = `SELECT "Id", "Description", "AppliedAt" FROM "__Migrations" ORDER BY "AppliedAt", "Id";`
	insertLedgerSQL = `INSERT INTO "__Migrations" ("Id", "Description") VALUES (@id, @description);`
	deleteLedgerSQL = `DELETE FROM "__Migrations" WHERE "Id" = @id;`
)

// Tracker reads and writes the migration ledger
type Tracker struct{}

// NewTracker creates a new migration tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Initialize creates the ledger table if it does not exist
func (t *Tracker) Initialize(ctx context.Context, db DBTX) error {
	if _, err := db.ExecContext(ctx, createLedgerSQL); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}
	return nil
}

// Entries returns every ledger row ordered by application time
func (t *Tracker) Entries(ctx context.Context, db DBTX) ([]LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, selectLedgerSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var (
			e           LedgerEntry
			description sql.NullString
		)
		if err := rows.Scan(&e.ID, &description, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		e.Description = description.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}
	return entries, nil
}

// Applied returns the applied migration ids ordered by application time
func (t *Tracker) Applied(ctx context.Context, db DBTX) ([]string, error) {
	entries, err := t.Entries(ctx, db)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, nil
}

// Record inserts the ledger row for m
func (t *Tracker) Record(ctx context.Context, db DBTX, m Migration) error {
	args := query.Args{"id": m.ID(), "description": m.Description()}
	if _, err := db.ExecContext(ctx, insertLedgerSQL, args); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// Remove deletes the ledger row for id and reports whether one existed
func (t *Tracker) Remove(ctx context.Context, db DBTX, id string) (bool, error) {
	result, err := db.ExecContext(ctx, deleteLedgerSQL, query.Args{"id": id})
	if err != nil {
		return false, fmt.Errorf("failed to remove migration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
