// Package ormtest provides sqlmock helpers for statements that bind pgx.NamedArgs.
package ormtest

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// NamedArgsConverter lets pgx.NamedArgs reach the mock driver untouched
type NamedArgsConverter struct{}

// ConvertValue implements driver.ValueConverter
func (NamedArgsConverter) ConvertValue(v interface{}) (driver.Value, error) {
	if args, ok := v.(pgx.NamedArgs); ok {
		return args, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// NewMock returns a mock database that matches statements by exact text
// (whitespace collapsed) and accepts named arguments. It is closed when the
// test ends.
func NewMock(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.ValueConverterOption(NamedArgsConverter{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

// Named matches a single pgx.NamedArgs argument equal to expected
func Named(expected map[string]interface{}) sqlmock.Argument {
	return namedArgs(expected)
}

type namedArgs map[string]interface{}

func (n namedArgs) Match(v driver.Value) bool {
	args, ok := v.(pgx.NamedArgs)
	if !ok {
		return false
	}
	return reflect.DeepEqual(map[string]interface{}(n), map[string]interface{}(args))
}

func (n namedArgs) String() string {
	return fmt.Sprintf("named args %v", map[string]interface{}(n))
}
