package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every entity configuration error
	ErrConfiguration = errors.New("entity configuration error")

	// ErrMissingPrimaryKey is returned when no field is marked pk
	ErrMissingPrimaryKey = errors.New("no primary key declared")

	// ErrDuplicatePrimaryKey is returned when more than one field is marked pk
	ErrDuplicatePrimaryKey = errors.New("more than one primary key declared")

	// ErrUnknownField is returned when a declaration names a field that is not mapped
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidTag is returned for malformed orm tags
	ErrInvalidTag = errors.New("invalid orm tag")

	// ErrNotStruct is returned when metadata is requested for a non-struct type
	ErrNotStruct = errors.New("entity must be a struct")
)

// ConfigError reports a misconfigured entity. It matches ErrConfiguration and
// its underlying cause with errors.Is.
type ConfigError struct {
	Entity string
	Field  string
	Err    error
	Detail string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("entity %s", e.Entity)
	if e.Field != "" {
		msg += fmt.Sprintf(" field %s", e.Field)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownField builds the error returned when name is not a mapped field of entity
func UnknownField(entity, name string) error {
	return &ConfigError{Entity: entity, Field: name, Err: ErrUnknownField}
}
