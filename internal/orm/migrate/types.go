package migrate

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apolon-health/apolon/internal/orm/query"
	"github.com/apolon-health/apolon/internal/orm/schema"
)

var (
	timeType       = reflect.TypeOf(time.Time{})
	uuidType       = reflect.TypeOf(uuid.UUID{})
	bytesType      = reflect.TypeOf([]byte(nil))
	nullStringType = reflect.TypeOf(sql.NullString{})
	nullInt16Type  = reflect.TypeOf(sql.NullInt16{})
	nullInt32Type  = reflect.TypeOf(sql.NullInt32{})
	nullInt64Type  = reflect.TypeOf(sql.NullInt64{})
	nullFloatType  = reflect.TypeOf(sql.NullFloat64{})
	nullBoolType   = reflect.TypeOf(sql.NullBool{})
	nullTimeType   = reflect.TypeOf(sql.NullTime{})
)

// PostgresType maps a Go field type to a PostgreSQL column type.
// Unrecognized types map to TEXT.
func PostgresType(t reflect.Type) string {
	switch t {
	case timeType, nullTimeType:
		return "TIMESTAMP"
	case uuidType:
		return "UUID"
	case bytesType:
		return "BYTEA"
	case nullStringType:
		return "VARCHAR"
	case nullInt16Type:
		return "SMALLINT"
	case nullInt32Type:
		return "INTEGER"
	case nullInt64Type:
		return "BIGINT"
	case nullFloatType:
		return "DOUBLE PRECISION"
	case nullBoolType:
		return "BOOLEAN"
	}

	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return "SMALLINT"
	case reflect.Int, reflect.Int32, reflect.Uint16:
		return "INTEGER"
	case reflect.Int64, reflect.Uint32, reflect.Uint, reflect.Uint64:
		return "BIGINT"
	case reflect.String:
		return "VARCHAR"
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Float32:
		return "REAL"
	case reflect.Float64:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// serialType returns the auto-increment variant of an integer column type
func serialType(t reflect.Type) (string, bool) {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16:
		return "SMALLSERIAL", true
	case reflect.Int, reflect.Int32:
		return "SERIAL", true
	case reflect.Int64:
		return "BIGSERIAL", true
	default:
		return "", false
	}
}

// columnType resolves the type of f: the explicit override or the mapped Go
// type, with the max length applied to VARCHAR columns
func columnType(f *schema.Field) string {
	typ := f.Facet.DBType
	if typ == "" {
		typ = PostgresType(f.Base)
	}
	if f.Facet.MaxLength > 0 && strings.Contains(strings.ToUpper(typ), "VARCHAR") && !strings.Contains(typ, "(") {
		typ = fmt.Sprintf("%s(%d)", typ, f.Facet.MaxLength)
	}
	return typ
}

// columnDefinition renders f as a CREATE TABLE column line
func columnDefinition(f *schema.Field) string {
	typ := columnType(f)
	if f.PrimaryKey && f.AutoIncrement && f.Facet.DBType == "" {
		if serial, ok := serialType(f.Base); ok {
			typ = serial
		}
	}

	def := query.Quote(f.Column) + " " + typ
	if f.PrimaryKey {
		def += " PRIMARY KEY"
	} else if !f.Facet.Nullable {
		def += " NOT NULL"
	}
	return def
}
