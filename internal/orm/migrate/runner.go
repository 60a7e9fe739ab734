package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/apolon-health/apolon/internal/orm/connection"
	"github.com/apolon-health/apolon/internal/orm/schema"
	"github.com/apolon-health/apolon/internal/orm/transaction"
)

// Direction selects which procedure of a migration to plan
type Direction int

const (
	// DirectionUp plans the forward procedure
	DirectionUp Direction = iota
	// DirectionDown plans the backward procedure
	DirectionDown
)

// String returns "up" or "down"
func (d Direction) String() string {
	if d == DirectionDown {
		return "down"
	}
	return "up"
}

// Runner applies and reverts migrations. Each apply or revert runs its DDL
// and its ledger write in one transaction on one connection.
//
// The runner does not serialize concurrent callers: two processes applying
// the same pending migration race, and the loser fails at the database on
// the duplicate ledger key or schema object.
type Runner struct {
	exec      connection.Executor
	registry  *schema.Registry
	tracker   *Tracker
	logger    *zap.Logger
	isolation transaction.IsolationLevel
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the runner logger; the default discards everything
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithIsolationLevel sets the isolation of the transaction each apply and
// revert runs in; the default is read committed
func WithIsolationLevel(level transaction.IsolationLevel) RunnerOption {
	return func(r *Runner) {
		r.isolation = level
	}
}

// NewRunner creates a runner executing through exec
func NewRunner(exec connection.Executor, registry *schema.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		exec:     exec,
		registry: registry,
		tracker:  NewTracker(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureMigrationsTable creates the ledger table if it does not exist
func (r *Runner) EnsureMigrationsTable(ctx context.Context) error {
	return r.exec.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		return r.tracker.Initialize(ctx, conn)
	})
}

// AppliedMigrations returns applied ids ordered by application time
func (r *Runner) AppliedMigrations(ctx context.Context) ([]string, error) {
	return connection.Query(ctx, r.exec, func(ctx context.Context, conn connection.Conn) ([]string, error) {
		if err := r.tracker.Initialize(ctx, conn); err != nil {
			return nil, err
		}
		return r.tracker.Applied(ctx, conn)
	})
}

// Ledger returns every ledger row ordered by application time
func (r *Runner) Ledger(ctx context.Context) ([]LedgerEntry, error) {
	return connection.Query(ctx, r.exec, func(ctx context.Context, conn connection.Conn) ([]LedgerEntry, error) {
		if err := r.tracker.Initialize(ctx, conn); err != nil {
			return nil, err
		}
		return r.tracker.Entries(ctx, conn)
	})
}

// Plan builds the statements a migration would execute in a direction
// without touching the database. A migration created by New with a nil down
// plans the inverse of Up; any other Down runs as written, and an empty Down
// plans nothing.
func (r *Runner) Plan(m Migration, direction Direction) ([]string, error) {
	inv, ok := m.(inverter)
	if direction == DirectionDown && !(ok && inv.revertsByInverse()) {
		down := NewBuilder(r.registry)
		if err := build(down, m.Down); err != nil {
			return nil, err
		}
		return down.UpStatements(), nil
	}

	up := NewBuilder(r.registry)
	if err := build(up, m.Up); err != nil {
		return nil, err
	}
	if direction == DirectionDown {
		return up.DownStatements(), nil
	}
	return up.UpStatements(), nil
}

// Apply applies m unless the ledger already records it. The forward
// statements and the ledger insert commit together or not at all.
func (r *Runner) Apply(ctx context.Context, m Migration) error {
	return r.exec.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		applied, err := r.isApplied(ctx, conn, m.ID())
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID(), err)
		}
		if applied {
			r.logger.Info("migration already applied, skipping", zap.String("id", m.ID()))
			return nil
		}

		stmts, err := r.Plan(m, DirectionUp)
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID(), err)
		}

		start := time.Now()
		err = transaction.RunIsolated(ctx, conn, r.isolation, func(tx *sql.Tx) error {
			if err := execAll(ctx, tx, stmts); err != nil {
				return err
			}
			return r.tracker.Record(ctx, tx, m)
		})
		if err != nil {
			r.logger.Error("migration failed", zap.String("id", m.ID()), zap.Error(err))
			return fmt.Errorf("apply migration %s: %w", m.ID(), err)
		}

		r.logger.Info("applied migration",
			zap.String("id", m.ID()),
			zap.String("description", m.Description()),
			zap.Int("statements", len(stmts)),
			zap.Duration("duration", time.Since(start)))
		return nil
	})
}

// Revert reverts m if the ledger records it. The backward statements and the
// ledger delete commit together or not at all; an empty plan only removes
// the ledger row.
func (r *Runner) Revert(ctx context.Context, m Migration) error {
	return r.exec.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		applied, err := r.isApplied(ctx, conn, m.ID())
		if err != nil {
			return fmt.Errorf("revert migration %s: %w", m.ID(), err)
		}
		if !applied {
			r.logger.Info("migration not applied, nothing to revert", zap.String("id", m.ID()))
			return nil
		}

		stmts, err := r.Plan(m, DirectionDown)
		if err != nil {
			return fmt.Errorf("revert migration %s: %w", m.ID(), err)
		}

		start := time.Now()
		err = transaction.RunIsolated(ctx, conn, r.isolation, func(tx *sql.Tx) error {
			if err := execAll(ctx, tx, stmts); err != nil {
				return err
			}
			_, err := r.tracker.Remove(ctx, tx, m.ID())
			return err
		})
		if err != nil {
			r.logger.Error("revert failed", zap.String("id", m.ID()), zap.Error(err))
			return fmt.Errorf("revert migration %s: %w", m.ID(), err)
		}

		r.logger.Info("reverted migration",
			zap.String("id", m.ID()),
			zap.String("description", m.Description()),
			zap.Int("statements", len(stmts)),
			zap.Duration("duration", time.Since(start)))
		return nil
	})
}

// ApplyAll applies every pending migration in ascending id order and stops
// at the first failure
func (r *Runner) ApplyAll(ctx context.Context, migrations []Migration) error {
	pending, err := r.Pending(ctx, migrations)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		r.logger.Info("no pending migrations")
		return nil
	}

	r.logger.Info("applying pending migrations", zap.Int("count", len(pending)))
	for _, m := range pending {
		if err := r.Apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the migrations the ledger does not record, ordered by id
func (r *Runner) Pending(ctx context.Context, migrations []Migration) ([]Migration, error) {
	sorted, err := Sorted(migrations)
	if err != nil {
		return nil, err
	}

	applied, err := r.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[string]bool, len(applied))
	for _, id := range applied {
		appliedSet[id] = true
	}

	var pending []Migration
	for _, m := range sorted {
		if !appliedSet[m.ID()] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// ErrNothingToRevert is returned by RevertLast when no known migration is applied
var ErrNothingToRevert = errors.New("no applied migration to revert")

// LastApplied returns the most recently applied migration found in
// migrations, or ErrNothingToRevert. Ledger rows no migration declares are
// passed over.
func (r *Runner) LastApplied(ctx context.Context, migrations []Migration) (Migration, error) {
	applied, err := r.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Migration, len(migrations))
	for _, m := range migrations {
		byID[m.ID()] = m
	}

	for i := len(applied) - 1; i >= 0; i-- {
		if m, ok := byID[applied[i]]; ok {
			return m, nil
		}
	}
	return nil, ErrNothingToRevert
}

// RevertLast reverts the most recently applied migration found in migrations
func (r *Runner) RevertLast(ctx context.Context, migrations []Migration) (Migration, error) {
	m, err := r.LastApplied(ctx, migrations)
	if err != nil {
		return nil, err
	}
	return m, r.Revert(ctx, m)
}

// RemoveRecord deletes the ledger row for id without touching the schema,
// for recovering from schema objects dropped out of band. Removing an id
// that is not recorded is not an error.
func (r *Runner) RemoveRecord(ctx context.Context, id string) error {
	return r.exec.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		if err := r.tracker.Initialize(ctx, conn); err != nil {
			return err
		}
		removed, err := r.tracker.Remove(ctx, conn, id)
		if err != nil {
			return err
		}
		r.logger.Info("removed migration record", zap.String("id", id), zap.Bool("existed", removed))
		return nil
	})
}

func (r *Runner) isApplied(ctx context.Context, conn connection.Conn, id string) (bool, error) {
	if err := r.tracker.Initialize(ctx, conn); err != nil {
		return false, err
	}
	applied, err := r.tracker.Applied(ctx, conn)
	if err != nil {
		return false, err
	}
	for _, a := range applied {
		if a == id {
			return true, nil
		}
	}
	return false, nil
}

func build(b *Builder, procedure func(*Builder) error) error {
	if err := procedure(b); err != nil {
		return err
	}
	return b.Err()
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}
	}
	return nil
}
