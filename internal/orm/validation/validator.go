// Package validation checks entity values against the column facets of
// their metadata before they are written.
package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/apolon-health/apolon/internal/orm/schema"
)

// Operation selects which columns a write touches
type Operation int

const (
	// OperationInsert skips an auto-increment primary key
	OperationInsert Operation = iota
	// OperationUpdate checks every column
	OperationUpdate
)

// Validate checks entity against meta: a nil value in a not-null column and
// a string longer than its max length are errors. It returns nil or *Errors.
func Validate(meta *schema.EntityMetadata, entity interface{}, op Operation) error {
	errs := NewErrors(meta.Name)

	for _, f := range meta.Fields {
		if op == OperationInsert && f.PrimaryKey && f.AutoIncrement {
			continue
		}

		value := f.Value(entity)
		if value == nil {
			if !f.Facet.Nullable && !f.PrimaryKey {
				errs.Add(f.Column, "must not be null")
			}
			continue
		}

		if f.Facet.MaxLength > 0 {
			if s, ok := value.(string); ok {
				if n := utf8.RuneCountInString(s); n > f.Facet.MaxLength {
					errs.Add(f.Column, fmt.Sprintf("must be at most %d characters, got %d", f.Facet.MaxLength, n))
				}
			}
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
