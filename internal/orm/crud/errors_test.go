package crud

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConvertDBError(t *testing.T) {
	other := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrUniqueViolation},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrForeignKeyViolation},
		{"check", &pgconn.PgError{Code: "23514"}, ErrCheckViolation},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "first_name"}, ErrNotNullViolation},
		{"unclassified pg error", &pgconn.PgError{Code: "42P01"}, nil},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertDBError(tt.err)
			if tt.want == nil {
				assert.Same(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, ConvertDBError(nil))
	assert.True(t, IsNotFound(ConvertDBError(sql.ErrNoRows)))
}
