package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apolon-health/apolon/internal/orm/schema"
)

type Patient struct {
	ID        int     `orm:"pk;autoincrement;column:id"`
	FirstName string  `orm:"notnull;maxlen:5"`
	Email     *string `orm:"notnull;maxlen:10"`
	Notes     *string
	Label     string `orm:"maxlen:3"`
}

func metadata(t *testing.T) *schema.EntityMetadata {
	t.Helper()
	meta, err := schema.NewRegistry().Get(Patient{})
	require.NoError(t, err)
	return meta
}

func ptr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	meta := metadata(t)

	err := Validate(meta, &Patient{FirstName: "Ana", Email: ptr("a@b.hr")}, OperationInsert)
	assert.NoError(t, err)

	err = Validate(meta, &Patient{FirstName: "Ana"}, OperationInsert)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Patient validation failed: email: must not be null")

	var verrs *Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, 1, verrs.Count())
	assert.Equal(t, []string{"must not be null"}, verrs.Fields["email"])
}

func TestValidateMaxLength(t *testing.T) {
	meta := metadata(t)

	err := Validate(meta, &Patient{
		FirstName: "Anastazija",
		Email:     ptr("anastazija@example.com"),
		Label:     "čćž",
	}, OperationUpdate)
	require.Error(t, err)

	var verrs *Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, 2, verrs.Count(), "multibyte label fits in three characters")
	assert.Equal(t, []string{"must be at most 5 characters, got 10"}, verrs.Fields["first_name"])
	assert.Equal(t, []string{"must be at most 10 characters, got 22"}, verrs.Fields["email"])
	assert.True(t, strings.HasPrefix(err.Error(), "Patient validation failed:\n  - email:"))
}

func TestValidateEmptyStringIsNotNull(t *testing.T) {
	meta := metadata(t)
	assert.NoError(t, Validate(meta, &Patient{Email: ptr("")}, OperationInsert))
}
