package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apolon-health/apolon/internal/cli/ui"
	"github.com/apolon-health/apolon/internal/orm/crud"
	"github.com/apolon-health/apolon/internal/orm/migrate"
	"github.com/apolon-health/apolon/internal/orm/schema"
)

// categorizeDatabaseError returns a user-friendly error message based on the database error
// In verbose mode, it returns the full error; otherwise, it returns a categorized message
func categorizeDatabaseError(err error, verbose bool) string {
	if verbose {
		return err.Error()
	}

	switch {
	case errors.Is(err, schema.ErrConfiguration):
		// Entity misconfiguration is a programming error; always show it
		return err.Error()
	case errors.Is(err, migrate.ErrLocked):
		return "another process is running migrations - try again later"
	case errors.Is(err, crud.ErrUniqueViolation), errors.Is(err, crud.ErrForeignKeyViolation),
		errors.Is(err, crud.ErrNotNullViolation), errors.Is(err, crud.ErrCheckViolation):
		return "constraint violation - use --verbose for details"
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "syntax") {
		return "SQL syntax error - use --verbose for details"
	}
	if strings.Contains(errStr, "constraint") || strings.Contains(errStr, "violates") {
		return "constraint violation - use --verbose for details"
	}
	if strings.Contains(errStr, "does not exist") {
		return "referenced object does not exist - use --verbose for details"
	}
	if strings.Contains(errStr, "already exists") {
		return "object already exists - use --verbose for details"
	}
	if strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "access denied") {
		return "permission denied - check database user privileges"
	}

	// Generic error for everything else
	return "migration failed - use --verbose for details"
}

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long: `Run and manage database migrations.

Migrations are compiled into the binary and identified by a sortable id
such as 20250117000000_Initial. Applied ids are recorded in the
__Migrations table.

Available subcommands:
  up      - Apply all pending migrations
  down    - Revert the last applied migration, or the one given
  status  - Show migration status
  forget  - Remove a ledger row without touching the schema
  sql     - Print the SQL of a migration without running it`,
	}

	cmd.AddCommand(newMigrateUpCommand(a))
	cmd.AddCommand(newMigrateDownCommand(a))
	cmd.AddCommand(newMigrateStatusCommand(a))
	cmd.AddCommand(newMigrateForgetCommand(a))
	cmd.AddCommand(newMigrateSQLCommand(a))

	return cmd
}

func newMigrateUpCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Long:  "Apply every pending migration in id order, stopping at the first failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			runner := s.runner()
			migrations := a.migrations()

			pending, err := runner.Pending(ctx, migrations)
			if err != nil {
				return fmt.Errorf("failed to read migration status: %s", categorizeDatabaseError(err, a.verbose))
			}
			if len(pending) == 0 {
				ui.WriteSuccess(out, "Database is up to date", a.noColor)
				return nil
			}

			color.New(color.FgCyan).Fprintf(out, "Applying %d migration(s)...\n", len(pending))
			err = migrate.WithLock(ctx, s.locker, func(ctx context.Context) error {
				return runner.ApplyAll(ctx, migrations)
			})
			if err != nil {
				return fmt.Errorf("migration failed: %s", categorizeDatabaseError(err, a.verbose))
			}

			for _, m := range pending {
				fmt.Fprintf(out, "  %s %s\n", color.GreenString("✓"), m.ID())
			}
			ui.WriteSuccess(out, fmt.Sprintf("Applied %d migration(s)", len(pending)), a.noColor)
			return nil
		},
	}
}

func newMigrateDownCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "down [id]",
		Short: "Revert a migration",
		Long:  "Revert the most recently applied migration, or the migration with the given id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target migrate.Migration
			if len(args) == 1 {
				m, err := a.findMigration(cmd.ErrOrStderr(), args[0])
				if err != nil {
					return err
				}
				target = m
			}

			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			runner := s.runner()
			if target == nil {
				target, err = runner.LastApplied(ctx, a.migrations())
				if errors.Is(err, migrate.ErrNothingToRevert) {
					ui.Message{Level: ui.LevelInfo, Title: "No applied migration to revert", NoColor: a.noColor}.
						Write(cmd.OutOrStdout())
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read migration status: %s", categorizeDatabaseError(err, a.verbose))
				}
			}

			if ok, err := a.confirmUnless(yes, fmt.Sprintf("Revert %s? Reverting may drop tables and data.", target.ID())); err != nil || !ok {
				return err
			}

			err = migrate.WithLock(ctx, s.locker, func(ctx context.Context) error {
				return runner.Revert(ctx, target)
			})
			if err != nil {
				return fmt.Errorf("revert failed: %s", categorizeDatabaseError(err, a.verbose))
			}

			ui.WriteSuccess(cmd.OutOrStdout(), "Reverted "+target.ID(), a.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newMigrateStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  "List every known migration with its ledger state, and ledger rows no migration declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := s.runner().Status(ctx, a.migrations())
			if err != nil {
				return fmt.Errorf("failed to read migration status: %s", categorizeDatabaseError(err, a.verbose))
			}

			writeStatus(cmd.OutOrStdout(), status, a.noColor)
			return nil
		},
	}
}

func writeStatus(w io.Writer, status *migrate.Status, noColor bool) {
	table := ui.NewTable(w, []string{"ID", "DESCRIPTION", "STATUS", "APPLIED AT"}, &ui.TableOptions{
		NoColor: noColor,
		CellColor: func(column int, cell string) *color.Color {
			if column != 2 {
				return nil
			}
			if cell == "applied" {
				return color.New(color.FgGreen)
			}
			return color.New(color.FgYellow)
		},
	})

	for _, sc := range status.Scripts {
		state, appliedAt := "pending", "-"
		if sc.Applied {
			state, appliedAt = "applied", sc.AppliedAt.Format("2006-01-02 15:04:05")
		}
		table.AddRow(sc.ID, sc.Description, state, appliedAt)
	}
	if table.Len() == 0 {
		fmt.Fprintln(w, "No migrations defined")
	} else {
		table.Render()
	}
	fmt.Fprintln(w)

	if len(status.Orphaned) > 0 {
		ids := make([]string, len(status.Orphaned))
		for i, e := range status.Orphaned {
			ids[i] = e.ID
		}
		ui.Message{
			Level:   ui.LevelWarning,
			Title:   "Ledger rows without a known migration: " + strings.Join(ids, ", "),
			Hints:   []string{"Remove a stale row: apolon migrate forget <id>"},
			NoColor: noColor,
		}.Write(w)
	}

	fmt.Fprintln(w, status.Summary())
}

func newMigrateForgetCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "forget <id>",
		Short: "Remove a migration ledger row",
		Long: `Delete the ledger row of a migration without running its Down procedure.

Use this after dropping a migration's schema objects by hand, so that
"migrate up" applies it again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if ok, err := a.confirmUnless(yes, fmt.Sprintf("Forget %s? The schema is left untouched.", id)); err != nil || !ok {
				return err
			}

			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.runner().RemoveRecord(ctx, id); err != nil {
				return fmt.Errorf("failed to remove ledger row: %s", categorizeDatabaseError(err, a.verbose))
			}

			ui.WriteSuccess(cmd.OutOrStdout(), "Removed ledger row "+id, a.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newMigrateSQLCommand(a *app) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "sql <id>",
		Short: "Print the SQL of a migration",
		Long:  "Print the statements a migration would execute, without connecting to the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.findMigration(cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}

			direction := migrate.DirectionUp
			if down {
				direction = migrate.DirectionDown
			}

			stmts, err := migrate.NewRunner(nil, schema.NewRegistry()).Plan(m, direction)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color.New(color.FgHiBlack).Fprintf(out, "-- %s (%s): %s\n", m.ID(), direction, m.Description())
			for _, stmt := range stmts {
				fmt.Fprintln(out, stmt)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Print the revert statements")
	return cmd
}

// findMigration returns the known migration with id, writing suggestions to
// w when there is none
func (a *app) findMigration(w io.Writer, id string) (migrate.Migration, error) {
	migrations := a.migrations()
	ids := make([]string, len(migrations))
	for i, m := range migrations {
		if m.ID() == id {
			return m, nil
		}
		ids[i] = m.ID()
	}

	ui.Message{
		Title:       "UNKNOWN MIGRATION: " + id,
		Suggestions: ui.Suggest(id, ids),
		Hints:       []string{"List migrations: apolon migrate status"},
		NoColor:     a.noColor,
	}.Write(w)
	return nil, fmt.Errorf("unknown migration %s", id)
}

// confirmUnless asks message unless yes is set
func (a *app) confirmUnless(yes bool, message string) (bool, error) {
	if yes {
		return true, nil
	}
	return a.confirm(message)
}
