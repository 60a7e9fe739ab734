package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	utilstrings "github.com/apolon-health/apolon/internal/util/strings"
)

const tagName = "orm"

// tagSettings is the parsed form of one orm struct tag
type tagSettings struct {
	skip          bool
	primaryKey    bool
	autoIncrement bool
	facet         Facet
}

// parseTag parses a tag such as "pk;autoincrement" or "column:given_name;maxlen:100"
func parseTag(tag string) (tagSettings, error) {
	settings := tagSettings{facet: Facet{Nullable: true}}
	if strings.TrimSpace(tag) == "-" {
		settings.skip = true
		return settings, nil
	}

	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "pk", "primarykey":
			settings.primaryKey = true
		case "autoincrement":
			settings.autoIncrement = true
		case "notnull":
			settings.facet.Nullable = false
		case "nullable":
			settings.facet.Nullable = true
		case "column":
			if !hasValue || value == "" {
				return settings, fmt.Errorf("column requires a name")
			}
			settings.facet.Name = value
		case "maxlen", "size":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return settings, fmt.Errorf("%s requires a non-negative integer, got %q", key, value)
			}
			settings.facet.MaxLength = n
		case "type":
			if !hasValue || value == "" {
				return settings, fmt.Errorf("type requires a database type")
			}
			settings.facet.DBType = value
		default:
			return settings, fmt.Errorf("unknown key %q", key)
		}
	}

	if settings.autoIncrement && !settings.primaryKey {
		return settings, fmt.Errorf("autoincrement requires pk")
	}
	return settings, nil
}

// Build computes the metadata of the struct type t. Pointer types are
// dereferenced. The result is not cached; use a Registry for that.
func Build(t reflect.Type) (*EntityMetadata, error) {
	t = indirectType(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &ConfigError{Entity: fmt.Sprint(t), Err: ErrNotStruct}
	}

	meta := &EntityMetadata{
		Type:   t,
		Name:   t.Name(),
		Table:  tableName(t),
		lookup: make(map[string]*Field),
	}

	if err := collectFields(meta, t, nil); err != nil {
		return nil, err
	}

	for _, f := range meta.Fields {
		if !f.PrimaryKey {
			continue
		}
		if meta.PrimaryKey != nil {
			return nil, &ConfigError{
				Entity: meta.Name,
				Field:  f.Name,
				Err:    ErrDuplicatePrimaryKey,
				Detail: "already declared on " + meta.PrimaryKey.Name,
			}
		}
		meta.PrimaryKey = f
	}
	if meta.PrimaryKey == nil {
		return nil, &ConfigError{Entity: meta.Name, Err: ErrMissingPrimaryKey}
	}

	if err := collectForeignKeys(meta); err != nil {
		return nil, err
	}

	return meta, nil
}

// collectFields appends the mapped fields of t, flattening embedded structs
func collectFields(meta *EntityMetadata, t reflect.Type, parent []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)
		tag, tagged := sf.Tag.Lookup(tagName)

		if sf.Anonymous && !tagged && sf.Type.Kind() == reflect.Struct {
			if err := collectFields(meta, sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		settings, err := parseTag(tag)
		if err != nil {
			return &ConfigError{Entity: meta.Name, Field: sf.Name, Err: ErrInvalidTag, Detail: err.Error()}
		}
		if settings.skip {
			continue
		}

		name := sf.Name
		if settings.facet.Name != "" {
			name = settings.facet.Name
		}

		f := &Field{
			Name:          sf.Name,
			Column:        utilstrings.ToSnakeCase(name),
			Type:          sf.Type,
			Base:          sf.Type,
			Facet:         settings.facet,
			PrimaryKey:    settings.primaryKey,
			AutoIncrement: settings.autoIncrement,
			index:         index,
		}
		if f.Base.Kind() == reflect.Pointer {
			f.Base = f.Base.Elem()
		}

		meta.Fields = append(meta.Fields, f)
		meta.lookup[strings.ToLower(f.Name)] = f
		if _, taken := meta.lookup[f.Column]; !taken {
			meta.lookup[f.Column] = f
		}
	}
	return nil
}

func collectForeignKeys(meta *EntityMetadata) error {
	fker, ok := reflect.New(meta.Type).Interface().(ForeignKeyer)
	if !ok {
		return nil
	}

	for _, fk := range fker.ForeignKeys() {
		f, ok := meta.Field(fk.Field)
		if !ok {
			return &ConfigError{Entity: meta.Name, Field: fk.Field, Err: ErrUnknownField, Detail: "foreign key"}
		}
		if fk.Target == nil {
			return &ConfigError{Entity: meta.Name, Field: fk.Field, Err: ErrInvalidTag, Detail: "foreign key has no target"}
		}
		fk.Field = f.Name
		fk.Target = indirectType(fk.Target)
		meta.foreignKeys = append(meta.foreignKeys, fk)
	}
	return nil
}

// tableName resolves the table of t: a Tabler override or the type name,
// folded to snake_case either way
func tableName(t reflect.Type) string {
	name := t.Name()
	if tabler, ok := reflect.New(t).Interface().(Tabler); ok {
		if override := tabler.TableName(); override != "" {
			name = override
		}
	}
	return utilstrings.ToSnakeCase(name)
}
