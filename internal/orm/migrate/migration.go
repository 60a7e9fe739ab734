// Package migrate derives reversible DDL from entity metadata and applies it
// transactionally, recording every applied migration in a ledger table.
package migrate

import (
	"fmt"
	"sort"
)

// Migration is a forward and backward schema change identified by a
// lexicographically sortable id, such as a timestamp prefix
type Migration interface {
	ID() string
	Description() string
	Up(b *Builder) error
	Down(b *Builder) error
}

// inverter is implemented by migrations whose revert is the inverse of Up
type inverter interface {
	revertsByInverse() bool
}

type script struct {
	id          string
	description string
	up          func(b *Builder) error
	down        func(b *Builder) error
}

// New creates a migration from functions. A nil down reverts by undoing
// whatever up emitted, in reverse order.
func New(id, description string, up, down func(b *Builder) error) Migration {
	return &script{id: id, description: description, up: up, down: down}
}

func (s *script) ID() string          { return s.id }
func (s *script) Description() string { return s.description }

func (s *script) Up(b *Builder) error {
	if s.up == nil {
		return nil
	}
	return s.up(b)
}

// revertsByInverse reports whether reverting s undoes Up instead of running Down
func (s *script) revertsByInverse() bool { return s.down == nil }

func (s *script) Down(b *Builder) error {
	if s.down == nil {
		return nil
	}
	return s.down(b)
}

// Sorted returns migrations ordered by id, rejecting empty and duplicate ids
func Sorted(migrations []Migration) ([]Migration, error) {
	seen := make(map[string]bool, len(migrations))
	sorted := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		id := m.ID()
		if id == "" {
			return nil, fmt.Errorf("migration %q has an empty id", m.Description())
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate migration id %s", id)
		}
		seen[id] = true
		sorted = append(sorted, m)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID() < sorted[j].ID()
	})
	return sorted, nil
}
