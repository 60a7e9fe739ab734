package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/apolon-health/apolon/internal/cli/config"
	"github.com/apolon-health/apolon/internal/orm/connection"
	"github.com/apolon-health/apolon/internal/orm/crud"
	"github.com/apolon-health/apolon/internal/orm/dbcontext"
	"github.com/apolon-health/apolon/internal/orm/migrate"
	"github.com/apolon-health/apolon/internal/orm/ormtest"
	"github.com/apolon-health/apolon/internal/orm/schema"
)

const (
	createLedgerSQL = `CREATE TABLE IF NOT EXISTS "__Migrations" ( "Id" VARCHAR(255) PRIMARY KEY, "Description" VARCHAR(500), "AppliedAt" TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP );`
	selectLedgerSQL = `SELECT "Id", "Description", "AppliedAt" FROM "__Migrations" ORDER BY "AppliedAt", "Id";`
	insertLedgerSQL = `INSERT INTO "__Migrations" ("Id", "Description") VALUES (@id, @description);`
	deleteLedgerSQL = `DELETE FROM "__Migrations" WHERE "Id" = @id;`
	createWardSQL   = `CREATE TABLE IF NOT EXISTS "ward" ( "id" SERIAL PRIMARY KEY, "name" VARCHAR(50) NOT NULL );`
	dropWardSQL     = `DROP TABLE IF EXISTS "ward";`

	wardsID = "20250101000000_Wards"
)

type Ward struct {
	ID   int    `orm:"pk;autoincrement;column:id"`
	Name string `orm:"notnull;maxlen:50"`
}

func wardsMigration() migrate.Migration {
	return migrate.New(wardsID, "create wards", func(b *migrate.Builder) error {
		b.CreateTable(Ward{})
		return nil
	}, nil)
}

// newTestApp returns an app whose database is a sqlmock, configured
// through DATABASE_URL in an empty working directory
func newTestApp(t *testing.T) (*app, sqlmock.Sqlmock) {
	t.Helper()

	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	t.Cleanup(func() { os.Chdir(oldWd) })

	t.Setenv("DATABASE_URL", "postgres://localhost/apolon_test")
	t.Setenv("APOLON_LOG_LEVEL", "error")

	db, mock := ormtest.NewMock(t)
	a := &app{
		noColor: true,
		open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dbcontext.Context, error) {
			return dbcontext.New(connection.New(db), dbcontext.WithLogger(logger), dbcontext.WithValidation()), nil
		},
		confirm: func(message string) (bool, error) {
			t.Fatalf("unexpected confirmation prompt: %s", message)
			return false, nil
		},
		migrations: func() []migrate.Migration {
			return []migrate.Migration{wardsMigration()}
		},
	}
	return a, mock
}

func execute(a *app, args ...string) (string, error) {
	cmd := newRootCommand(a)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func expectLedger(mock sqlmock.Sqlmock, ids ...string) {
	mock.ExpectExec(createLedgerSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"Id", "Description", "AppliedAt"})
	for _, id := range ids {
		rows.AddRow(id, "description", time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC))
	}
	mock.ExpectQuery(selectLedgerSQL).WillReturnRows(rows)
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "apolon" {
		t.Errorf("expected Use to be 'apolon', got %s", cmd.Use)
	}
	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	for _, expected := range []string{"version", "migrate", "seed"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}

	migrateCmd, _, err := cmd.Find([]string{"migrate"})
	if err != nil {
		t.Fatal(err)
	}
	for _, expected := range []string{"up", "down", "status", "forget", "sql"} {
		if sub, _, err := migrateCmd.Find([]string{expected}); err != nil || sub.Name() != expected {
			t.Errorf("expected migrate subcommand %s to be registered", expected)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.24"

	a, _ := newTestApp(t)
	out, err := execute(a, "version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{"1.0.0-test", "abc123", "2025-01-01", "go1.24"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected version output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestMigrateUp(t *testing.T) {
	a, mock := newTestApp(t)

	expectLedger(mock)
	expectLedger(mock)
	expectLedger(mock)
	mock.ExpectBegin()
	mock.ExpectExec(createWardSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertLedgerSQL).
		WithArgs(ormtest.Named(map[string]interface{}{"id": wardsID, "description": "create wards"})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	out, err := execute(a, "migrate", "up")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Applied 1 migration(s)") || !strings.Contains(out, wardsID) {
		t.Errorf("unexpected output:\n%s", out)
	}
	expectationsMet(t, mock)
}

func TestMigrateUpNothingPending(t *testing.T) {
	a, mock := newTestApp(t)

	expectLedger(mock, wardsID)
	mock.ExpectClose()

	out, err := execute(a, "migrate", "up")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Database is up to date") {
		t.Errorf("unexpected output:\n%s", out)
	}
	expectationsMet(t, mock)
}

func TestMigrateUpFailure(t *testing.T) {
	a, mock := newTestApp(t)

	expectLedger(mock)
	expectLedger(mock)
	expectLedger(mock)
	mock.ExpectBegin()
	mock.ExpectExec(createWardSQL).WillReturnError(errors.New(`relation "ward" already exists`))
	mock.ExpectRollback()
	mock.ExpectClose()

	_, err := execute(a, "migrate", "up")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "object already exists") {
		t.Errorf("expected categorized error, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestMigrateUpRequiresDatabaseURL(t *testing.T) {
	a, _ := newTestApp(t)
	t.Setenv("DATABASE_URL", "")

	_, err := execute(a, "migrate", "up")
	if err == nil || !strings.Contains(err.Error(), "database url is required") {
		t.Errorf("expected missing url error, got %v", err)
	}
}

func TestMigrateUpHonoursLock(t *testing.T) {
	a, mock := newTestApp(t)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()
	t.Setenv("APOLON_MIGRATE_LOCK_REDIS_URL", "redis://"+mr.Addr())

	// another process holds the lock
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	holder, err := migrate.NewRedisLocker(migrate.DefaultRedisLockerConfig(client))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := holder.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}

	expectLedger(mock)
	mock.ExpectClose()

	_, err = execute(a, "migrate", "up")
	if err == nil || !strings.Contains(err.Error(), "another process is running migrations") {
		t.Errorf("expected lock error, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestMigrateStatus(t *testing.T) {
	a, mock := newTestApp(t)

	expectLedger(mock, "20240101000000_Legacy")
	mock.ExpectClose()

	out, err := execute(a, "migrate", "status")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{
		wardsID,
		"pending",
		"Ledger rows without a known migration: 20240101000000_Legacy",
		"1 migration(s): 0 applied, 1 pending, 1 unknown ledger row(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected status output to contain %q, got:\n%s", want, out)
		}
	}
	expectationsMet(t, mock)
}

func TestWriteStatusWithoutMigrations(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, &migrate.Status{}, true)

	out := buf.String()
	if !strings.Contains(out, "No migrations defined") {
		t.Errorf("expected empty status message, got:\n%s", out)
	}
	if strings.Contains(out, "DESCRIPTION") {
		t.Errorf("expected no table header, got:\n%s", out)
	}
}

func TestMigrateUpRejectsUnknownIsolation(t *testing.T) {
	a, _ := newTestApp(t)
	t.Setenv("APOLON_MIGRATE_ISOLATION", "snapshot")

	_, err := execute(a, "migrate", "up")
	if err == nil || !strings.Contains(err.Error(), `unknown isolation level "snapshot"`) {
		t.Errorf("expected isolation error, got %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	a, mock := newTestApp(t)
	var prompted string
	a.confirm = func(message string) (bool, error) {
		prompted = message
		return true, nil
	}

	expectLedger(mock, wardsID)
	expectLedger(mock, wardsID)
	mock.ExpectBegin()
	mock.ExpectExec(dropWardSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteLedgerSQL).
		WithArgs(ormtest.Named(map[string]interface{}{"id": wardsID})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	out, err := execute(a, "migrate", "down")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(prompted, wardsID) {
		t.Errorf("expected prompt to name the migration, got %q", prompted)
	}
	if !strings.Contains(out, "Reverted "+wardsID) {
		t.Errorf("unexpected output:\n%s", out)
	}
	expectationsMet(t, mock)
}

func TestMigrateDownDeclined(t *testing.T) {
	a, mock := newTestApp(t)
	a.confirm = func(string) (bool, error) { return false, nil }

	expectLedger(mock, wardsID)
	mock.ExpectClose()

	if _, err := execute(a, "migrate", "down"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestMigrateDownNothingApplied(t *testing.T) {
	a, mock := newTestApp(t)

	expectLedger(mock)
	mock.ExpectClose()

	out, err := execute(a, "migrate", "down", "--yes")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "No applied migration to revert") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestMigrateDownUnknownID(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := execute(a, "migrate", "down", "--yes", "wards")
	if err == nil || err.Error() != "unknown migration wards" {
		t.Errorf("expected unknown migration error, got %v", err)
	}
	if !strings.Contains(out, "Did you mean: "+wardsID+"?") {
		t.Errorf("expected a suggestion, got:\n%s", out)
	}
}

func TestMigrateForget(t *testing.T) {
	a, mock := newTestApp(t)

	mock.ExpectExec(createLedgerSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteLedgerSQL).
		WithArgs(ormtest.Named(map[string]interface{}{"id": wardsID})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	out, err := execute(a, "migrate", "forget", "--yes", wardsID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Removed ledger row "+wardsID) {
		t.Errorf("unexpected output:\n%s", out)
	}
	expectationsMet(t, mock)
}

func TestMigrateSQL(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := execute(a, "migrate", "sql", wardsID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `CREATE TABLE IF NOT EXISTS "ward"`) {
		t.Errorf("expected up SQL, got:\n%s", out)
	}

	out, err = execute(a, "migrate", "sql", "--down", wardsID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, dropWardSQL) || !strings.Contains(out, "(down)") {
		t.Errorf("expected down SQL, got:\n%s", out)
	}
}

func TestSeed(t *testing.T) {
	a, mock := newTestApp(t)

	mock.ExpectQuery(`SELECT COUNT(*) FROM "checkup_types"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))
	mock.ExpectClose()

	out, err := execute(a, "seed")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Checkup types already seeded") {
		t.Errorf("unexpected output:\n%s", out)
	}
	expectationsMet(t, mock)
}

func TestCategorizeDatabaseError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		verbose bool
		want    string
	}{
		{"verbose shows everything", errors.New("syntax error at or near FOO"), true, "syntax error at or near FOO"},
		{"syntax", errors.New("syntax error at or near FOO"), false, "SQL syntax error - use --verbose for details"},
		{"unique sentinel", fmt.Errorf("failed to add: %w", crud.ErrUniqueViolation), false, "constraint violation - use --verbose for details"},
		{"constraint text", errors.New("insert violates foreign key"), false, "constraint violation - use --verbose for details"},
		{"missing object", errors.New(`relation "patients" does not exist`), false, "referenced object does not exist - use --verbose for details"},
		{"existing object", errors.New(`relation "patients" already exists`), false, "object already exists - use --verbose for details"},
		{"permission", errors.New("permission denied for schema public"), false, "permission denied - check database user privileges"},
		{"locked", fmt.Errorf("wrap: %w", migrate.ErrLocked), false, "another process is running migrations - try again later"},
		{"configuration", schema.UnknownField("Ward", "Floor"), false, "entity Ward field Floor: unknown field"},
		{"other", errors.New("boom"), false, "migration failed - use --verbose for details"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeDatabaseError(tt.err, tt.verbose); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
