package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrValidation matches every *Errors with errors.Is
var ErrValidation = errors.New("validation failed")

// Errors contains the validation errors of one entity, keyed by column
type Errors struct {
	Entity string
	Fields map[string][]string
}

// NewErrors creates an empty error set for entity
func NewErrors(entity string) *Errors {
	return &Errors{Entity: entity, Fields: make(map[string][]string)}
}

// Add adds a validation error for a specific column
func (e *Errors) Add(column, message string) {
	e.Fields[column] = append(e.Fields[column], message)
}

// HasErrors returns true if there are any validation errors
func (e *Errors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Count returns the total number of validation errors across all columns
func (e *Errors) Count() int {
	count := 0
	for _, messages := range e.Fields {
		count += len(messages)
	}
	return count
}

// Error implements the error interface. Columns are listed in name order.
func (e *Errors) Error() string {
	columns := make([]string, 0, len(e.Fields))
	for column := range e.Fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var messages []string
	for _, column := range columns {
		for _, msg := range e.Fields[column] {
			messages = append(messages, fmt.Sprintf("%s: %s", column, msg))
		}
	}

	if len(messages) == 1 {
		return fmt.Sprintf("%s validation failed: %s", e.Entity, messages[0])
	}
	return fmt.Sprintf("%s validation failed:\n  - %s", e.Entity, strings.Join(messages, "\n  - "))
}

// Is reports whether target is ErrValidation
func (e *Errors) Is(target error) bool {
	return target == ErrValidation
}
