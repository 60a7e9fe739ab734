// Package query builds parameterized SQL statements from entity metadata.
// Identifiers are always quoted and values are always bound as @name
// parameters; nothing here talks to a database.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/apolon-health/apolon/internal/orm/schema"
)

// Args are named parameters referenced as @name in statement text
type Args = pgx.NamedArgs

// Parameter names used for key lookups
const (
	ParamID   = "id"
	ParamPKID = "pkId"
)

// ErrNothingToUpdate is returned when an entity has no columns besides its primary key
var ErrNothingToUpdate = errors.New("entity has no columns to update")

// Quote quotes an identifier for PostgreSQL
func Quote(name string) string {
	return pq.QuoteIdentifier(name)
}

// Builder builds statements for a single entity type
type Builder struct {
	meta *schema.EntityMetadata
}

// New creates a builder for meta
func New(meta *schema.EntityMetadata) *Builder {
	return &Builder{meta: meta}
}

// Metadata returns the entity metadata the builder was created with
func (b *Builder) Metadata() *schema.EntityMetadata {
	return b.meta
}

// Select returns SELECT * over the entity table. A non-empty where fragment
// is appended verbatim after WHERE and args are passed through untouched.
func (b *Builder) Select(where string, args Args) (string, Args) {
	sql := "SELECT * FROM " + Quote(b.meta.Table)
	if strings.TrimSpace(where) != "" {
		sql += " WHERE " + where
	}
	return sql, args
}

// SelectByID selects the row whose primary key equals id
func (b *Builder) SelectByID(id interface{}) (string, Args) {
	return b.Select(b.keyPredicate(ParamID), Args{ParamID: id})
}

// Count counts rows matching an optional where fragment
func (b *Builder) Count(where string, args Args) (string, Args) {
	sql := "SELECT COUNT(*) FROM " + Quote(b.meta.Table)
	if strings.TrimSpace(where) != "" {
		sql += " WHERE " + where
	}
	return sql, args
}

// Exists reports through a single boolean column whether a row with id exists
func (b *Builder) Exists(id interface{}) (string, Args) {
	sql := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", Quote(b.meta.Table), b.keyPredicate(ParamID))
	return sql, Args{ParamID: id}
}

// Insert writes every column of entity except an auto-increment primary key
// and returns the primary key through RETURNING
func (b *Builder) Insert(entity interface{}) (string, Args) {
	fields := b.meta.InsertFields()
	args := make(Args, len(fields))

	var sql strings.Builder
	sql.WriteString("INSERT INTO ")
	sql.WriteString(Quote(b.meta.Table))

	if len(fields) == 0 {
		sql.WriteString(" DEFAULT VALUES")
	} else {
		columns := make([]string, len(fields))
		params := make([]string, len(fields))
		for i, f := range fields {
			columns[i] = Quote(f.Column)
			params[i] = "@" + f.Column
			args[f.Column] = f.Value(entity)
		}
		fmt.Fprintf(&sql, " (%s) VALUES (%s)", strings.Join(columns, ", "), strings.Join(params, ", "))
	}

	sql.WriteString(" RETURNING ")
	sql.WriteString(Quote(b.meta.PrimaryKey.Column))
	return sql.String(), args
}

// Update sets every non-key column of entity, keyed by its current primary key
func (b *Builder) Update(entity interface{}) (string, Args, error) {
	fields := b.meta.NonKeyFields()
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%s: %w", b.meta.Name, ErrNothingToUpdate)
	}

	args := make(Args, len(fields)+1)
	sets := make([]string, len(fields))
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = @%s", Quote(f.Column), f.Column)
		args[f.Column] = f.Value(entity)
	}
	args[ParamPKID] = b.meta.PrimaryKey.Value(entity)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		Quote(b.meta.Table), strings.Join(sets, ", "), b.keyPredicate(ParamPKID))
	return sql, args, nil
}

// Delete removes the row whose primary key equals id
func (b *Builder) Delete(id interface{}) (string, Args) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", Quote(b.meta.Table), b.keyPredicate(ParamID))
	return sql, Args{ParamID: id}
}

func (b *Builder) keyPredicate(param string) string {
	return Quote(b.meta.PrimaryKey.Column) + " = @" + param
}

// ArgList expands args into a driver argument list. Empty args bind nothing,
// so statements without placeholders are sent unchanged.
func ArgList(args Args) []interface{} {
	if len(args) == 0 {
		return nil
	}
	return []interface{}{args}
}
