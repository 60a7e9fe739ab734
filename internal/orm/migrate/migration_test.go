package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apolon-health/apolon/internal/orm/schema"
)

func TestSorted(t *testing.T) {
	c := New("20250103000000_C", "c", nil, nil)
	a := New("20250101000000_A", "a", nil, nil)
	b := New("20250102000000_B", "b", nil, nil)

	input := []Migration{c, a, b}
	sorted, err := Sorted(input)
	require.NoError(t, err)

	ids := make([]string, len(sorted))
	for i, m := range sorted {
		ids[i] = m.ID()
	}
	assert.Equal(t, []string{"20250101000000_A", "20250102000000_B", "20250103000000_C"}, ids)
	assert.Equal(t, c, input[0], "input slice must not be reordered")
}

func TestSortedRejectsBadIDs(t *testing.T) {
	_, err := Sorted([]Migration{New("", "unnamed", nil, nil)})
	assert.ErrorContains(t, err, "empty id")

	_, err = Sorted([]Migration{New("1", "a", nil, nil), New("1", "b", nil, nil)})
	assert.ErrorContains(t, err, "duplicate migration id 1")
}

func TestNilProceduresEmitNothing(t *testing.T) {
	m := New("1", "noop", nil, nil)
	b := NewBuilder(schema.NewRegistry())

	require.NoError(t, m.Up(b))
	require.NoError(t, m.Down(b))
	assert.Empty(t, b.UpStatements())
	assert.Equal(t, "noop", m.Description())
}
