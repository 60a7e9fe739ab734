package migrate

import (
	"fmt"
	"strings"

	"github.com/apolon-health/apolon/internal/orm/query"
	"github.com/apolon-health/apolon/internal/orm/schema"
)

// Builder accumulates forward DDL and, for every reversible statement, its
// exact inverse. Entities are passed as prototypes (Patient{} or &Patient{}).
//
// The first error sticks: later calls are ignored and Err reports it.
type Builder struct {
	registry *schema.Registry
	up       []string
	down     []string // inverse statements, most recent first
	err      error
}

// NewBuilder creates an empty builder resolving metadata through registry
func NewBuilder(registry *schema.Registry) *Builder {
	return &Builder{registry: registry}
}

// Err returns the first error raised by a builder call
func (b *Builder) Err() error {
	return b.err
}

// UpStatements returns the forward statements in call order
func (b *Builder) UpStatements() []string {
	return append([]string(nil), b.up...)
}

// DownStatements returns the inverse statements, most recent call first, so
// that running them undoes the forward statements in reverse
func (b *Builder) DownStatements() []string {
	return append([]string(nil), b.down...)
}

// UpSQL returns the forward statements as one script, one statement per line
func (b *Builder) UpSQL() string {
	var sql strings.Builder
	for _, stmt := range b.up {
		sql.WriteString(stmt)
		sql.WriteString("\n")
	}
	return sql.String()
}

// DownSQL returns the inverse statements as one script
func (b *Builder) DownSQL() string {
	return strings.Join(b.down, "\n")
}

// CreateTable creates the table of entity with a column per mapped field
func (b *Builder) CreateTable(entity interface{}) *Builder {
	meta, ok := b.metadata(entity)
	if !ok {
		return b
	}

	columns := make([]string, len(meta.Fields))
	for i, f := range meta.Fields {
		columns[i] = "  " + columnDefinition(f)
	}

	table := query.Quote(meta.Table)
	b.push(
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);", table, strings.Join(columns, ",\n")),
		fmt.Sprintf("DROP TABLE IF EXISTS %s;", table),
	)
	return b
}

// CreateForeignKey constrains field of entity to reference the primary key
// of referenced, or referencedField when given
func (b *Builder) CreateForeignKey(entity interface{}, field string, referenced interface{}, referencedField ...string) *Builder {
	fk := schema.References(field, referenced)
	if len(referencedField) > 0 {
		fk = fk.On(referencedField[0])
	}
	return b.foreignKey(entity, fk)
}

// CreateDeclaredForeignKeys creates every foreign key entity declares
// through schema.ForeignKeyer, in declaration order
func (b *Builder) CreateDeclaredForeignKeys(entity interface{}) *Builder {
	meta, ok := b.metadata(entity)
	if !ok {
		return b
	}
	for _, fk := range meta.ForeignKeys() {
		b.foreignKey(entity, fk)
	}
	return b
}

func (b *Builder) foreignKey(entity interface{}, fk schema.ForeignKey) *Builder {
	meta, f, ok := b.field(entity, fk.Field)
	if !ok {
		return b
	}
	target, ok := b.metadata(fk.Target)
	if !ok {
		return b
	}

	targetColumn := target.PrimaryKey.Column
	if fk.TargetField != "" {
		tf, ok := target.Field(fk.TargetField)
		if !ok {
			b.fail(schema.UnknownField(target.Name, fk.TargetField))
			return b
		}
		targetColumn = tf.Column
	}
	if fk.ReferencedColumn != "" {
		targetColumn = fk.ReferencedColumn
	}

	table := query.Quote(meta.Table)
	name := query.Quote(ForeignKeyName(meta.Table, f.Column))
	b.push(
		fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
			table, name, query.Quote(f.Column), query.Quote(target.Table), query.Quote(targetColumn)),
		fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", table, name),
	)
	return b
}

// CreateIndex indexes the column of field. The default name is ix_<table>_<column>.
func (b *Builder) CreateIndex(entity interface{}, field string, indexName ...string) *Builder {
	meta, f, ok := b.field(entity, field)
	if !ok {
		return b
	}

	name := query.Quote(indexNameFor(meta, f, indexName))
	b.push(
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", name, query.Quote(meta.Table), query.Quote(f.Column)),
		fmt.Sprintf("DROP INDEX IF EXISTS %s;", name),
	)
	return b
}

// AddColumn adds the column of field to an existing table
func (b *Builder) AddColumn(entity interface{}, field string) *Builder {
	meta, f, ok := b.field(entity, field)
	if !ok {
		return b
	}

	def := query.Quote(f.Column) + " " + columnType(f)
	if !f.Facet.Nullable && !f.PrimaryKey {
		def += " NOT NULL"
	}

	table := query.Quote(meta.Table)
	b.push(
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", table, def),
		fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s;", table, query.Quote(f.Column)),
	)
	return b
}

// DropTable drops the table of entity. It has no inverse.
func (b *Builder) DropTable(entity interface{}) *Builder {
	meta, ok := b.metadata(entity)
	if !ok {
		return b
	}
	b.push(fmt.Sprintf("DROP TABLE IF EXISTS %s;", query.Quote(meta.Table)), "")
	return b
}

// DropForeignKey drops the constraint CreateForeignKey names for field. It has no inverse.
func (b *Builder) DropForeignKey(entity interface{}, field string) *Builder {
	meta, f, ok := b.field(entity, field)
	if !ok {
		return b
	}
	b.push(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;",
		query.Quote(meta.Table), query.Quote(ForeignKeyName(meta.Table, f.Column))), "")
	return b
}

// DropIndex drops an index created by CreateIndex. It has no inverse.
func (b *Builder) DropIndex(entity interface{}, field string, indexName ...string) *Builder {
	meta, f, ok := b.field(entity, field)
	if !ok {
		return b
	}
	b.push(fmt.Sprintf("DROP INDEX IF EXISTS %s;", query.Quote(indexNameFor(meta, f, indexName))), "")
	return b
}

// DropColumn drops the column of field. It has no inverse.
func (b *Builder) DropColumn(entity interface{}, field string) *Builder {
	meta, f, ok := b.field(entity, field)
	if !ok {
		return b
	}
	b.push(fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s;",
		query.Quote(meta.Table), query.Quote(f.Column)), "")
	return b
}

// ForeignKeyName returns the constraint name used for a foreign key column
func ForeignKeyName(table, column string) string {
	return fmt.Sprintf("fk_%s_%s", table, column)
}

// IndexName returns the default name of an index on a column
func IndexName(table, column string) string {
	return fmt.Sprintf("ix_%s_%s", table, column)
}

func indexNameFor(meta *schema.EntityMetadata, f *schema.Field, override []string) string {
	if len(override) > 0 && override[0] != "" {
		return override[0]
	}
	return IndexName(meta.Table, f.Column)
}

func (b *Builder) push(up, down string) {
	b.up = append(b.up, up)
	if down != "" {
		b.down = append([]string{down}, b.down...)
	}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) metadata(entity interface{}) (*schema.EntityMetadata, bool) {
	if b.err != nil {
		return nil, false
	}
	meta, err := b.registry.Get(entity)
	if err != nil {
		b.fail(err)
		return nil, false
	}
	return meta, true
}

func (b *Builder) field(entity interface{}, name string) (*schema.EntityMetadata, *schema.Field, bool) {
	meta, ok := b.metadata(entity)
	if !ok {
		return nil, nil, false
	}
	f, ok := meta.Field(name)
	if !ok {
		b.fail(schema.UnknownField(meta.Name, name))
		return nil, nil, false
	}
	return meta, f, true
}
