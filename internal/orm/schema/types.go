// Package schema extracts and caches entity metadata from annotated Go structs.
//
// An entity is a struct whose exported fields map to columns of one table.
// Fields are configured with the `orm` struct tag:
//
//	type Patient struct {
//		ID        int    `orm:"pk;autoincrement"`
//		FirstName string `orm:"notnull;maxlen:100"`
//		Notes     string `orm:"type:TEXT"`
//		Visits    []Visit `orm:"-"`
//	}
//
// Entities may implement Tabler to override the table name and ForeignKeyer to
// declare foreign keys.
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Tabler overrides the derived table name of an entity
type Tabler interface {
	TableName() string
}

// ForeignKeyer declares the foreign keys of an entity
type ForeignKeyer interface {
	ForeignKeys() []ForeignKey
}

// Facet holds the column configuration of a field
type Facet struct {
	Name      string // explicit column name, folded to snake_case like any other name
	Nullable  bool
	MaxLength int    // 0 means unset
	DBType    string // explicit database type, empty means derived
}

// ForeignKey declares that Field references an entity of type Target
type ForeignKey struct {
	Field            string
	Target           reflect.Type
	TargetField      string // empty means the primary key of Target
	ReferencedColumn string // overrides the resolved column of TargetField
}

// References declares a foreign key from field to the primary key of the
// entity that prototype is an instance of
func References(field string, prototype interface{}) ForeignKey {
	return ForeignKey{Field: field, Target: indirectType(reflect.TypeOf(prototype))}
}

// On sets the referenced field
func (fk ForeignKey) On(field string) ForeignKey {
	fk.TargetField = field
	return fk
}

// Column overrides the referenced column name
func (fk ForeignKey) Column(name string) ForeignKey {
	fk.ReferencedColumn = name
	return fk
}

// Field is one mapped struct field
type Field struct {
	Name          string       // Go field name
	Column        string       // resolved column name
	Type          reflect.Type // declared type
	Base          reflect.Type // declared type with one pointer level removed
	Facet         Facet
	PrimaryKey    bool
	AutoIncrement bool

	index []int
}

// Value returns the field value of entity, which may be a struct or a pointer
// to one. Nil pointer fields yield nil.
func (f *Field) Value(entity interface{}) interface{} {
	v := reflect.Indirect(reflect.ValueOf(entity))
	if !v.IsValid() {
		return nil
	}

	fv := v.FieldByIndex(f.index)
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil
		}
		return fv.Elem().Interface()
	}
	return fv.Interface()
}

// Assign stores value into the field of entity, which must be a non-nil
// pointer. A nil value resets the field to its zero value. Values of the
// base type, or of another type of the same kind, are accepted; anything
// else is an error and the field is left untouched.
func (f *Field) Assign(entity interface{}, value interface{}) error {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("assign %s: entity must be a non-nil pointer, got %T", f.Name, entity)
	}

	fv := v.Elem().FieldByIndex(f.index)
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(f.Base):
	case rv.Kind() == f.Base.Kind() && rv.Type().ConvertibleTo(f.Base):
		rv = rv.Convert(f.Base)
	default:
		return fmt.Errorf("assign %s: cannot use %T as %s", f.Name, value, f.Base)
	}

	if f.Type.Kind() == reflect.Pointer {
		ptr := reflect.New(f.Base)
		ptr.Elem().Set(rv)
		fv.Set(ptr)
		return nil
	}
	fv.Set(rv)
	return nil
}

// EntityMetadata describes how an entity type maps to its table.
// It is immutable once built; callers must not modify its slices.
type EntityMetadata struct {
	Type       reflect.Type
	Name       string // Go type name
	Table      string
	PrimaryKey *Field
	Fields     []*Field // mapped fields in declaration order

	foreignKeys []ForeignKey
	lookup      map[string]*Field
}

// Field finds a mapped field by Go name or column name, ignoring case
func (m *EntityMetadata) Field(name string) (*Field, bool) {
	f, ok := m.lookup[strings.ToLower(name)]
	return f, ok
}

// Columns returns the column names in declaration order
func (m *EntityMetadata) Columns() []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Column
	}
	return cols
}

// NonKeyFields returns every mapped field except the primary key
func (m *EntityMetadata) NonKeyFields() []*Field {
	fields := make([]*Field, 0, len(m.Fields)-1)
	for _, f := range m.Fields {
		if !f.PrimaryKey {
			fields = append(fields, f)
		}
	}
	return fields
}

// InsertFields returns the fields written by an INSERT. An auto-increment
// primary key is left to the database.
func (m *EntityMetadata) InsertFields() []*Field {
	if !m.PrimaryKey.AutoIncrement {
		return m.Fields
	}
	return m.NonKeyFields()
}

// ForeignKeys returns the declared foreign keys in declaration order
func (m *EntityMetadata) ForeignKeys() []ForeignKey {
	out := make([]ForeignKey, len(m.foreignKeys))
	copy(out, m.foreignKeys)
	return out
}

// ForeignKeyFor returns the foreign key declared on the named field
func (m *EntityMetadata) ForeignKeyFor(field string) (ForeignKey, bool) {
	f, ok := m.Field(field)
	if !ok {
		return ForeignKey{}, false
	}
	for _, fk := range m.foreignKeys {
		if fk.Field == f.Name {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

// New allocates a zero entity and returns a pointer to it
func (m *EntityMetadata) New() interface{} {
	return reflect.New(m.Type).Interface()
}

func indirectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
