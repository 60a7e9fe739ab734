package migrate

import (
	"context"
	"fmt"
	"time"
)

// ScriptStatus is the ledger state of one known migration
type ScriptStatus struct {
	ID          string
	Description string
	Applied     bool
	AppliedAt   time.Time
}

// Status compares known migrations with the ledger
type Status struct {
	Scripts  []ScriptStatus // known migrations ordered by id
	Orphaned []LedgerEntry  // ledger rows without a known migration
}

// Applied returns the number of known migrations that are applied
func (s *Status) Applied() int {
	n := 0
	for _, sc := range s.Scripts {
		if sc.Applied {
			n++
		}
	}
	return n
}

// Pending returns the number of known migrations that are not applied
func (s *Status) Pending() int {
	return len(s.Scripts) - s.Applied()
}

// Summary returns a one-line description of the status
func (s *Status) Summary() string {
	summary := fmt.Sprintf("%d migration(s): %d applied, %d pending", len(s.Scripts), s.Applied(), s.Pending())
	if len(s.Orphaned) > 0 {
		summary += fmt.Sprintf(", %d unknown ledger row(s)", len(s.Orphaned))
	}
	return summary
}

// Status reports which of migrations the ledger records
func (r *Runner) Status(ctx context.Context, migrations []Migration) (*Status, error) {
	sorted, err := Sorted(migrations)
	if err != nil {
		return nil, err
	}

	entries, err := r.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]LedgerEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	status := &Status{Scripts: make([]ScriptStatus, 0, len(sorted))}
	known := make(map[string]bool, len(sorted))
	for _, m := range sorted {
		known[m.ID()] = true
		sc := ScriptStatus{ID: m.ID(), Description: m.Description()}
		if e, ok := byID[m.ID()]; ok {
			sc.Applied = true
			sc.AppliedAt = e.AppliedAt
		}
		status.Scripts = append(status.Scripts, sc)
	}
	for _, e := range entries {
		if !known[e.ID] {
			status.Orphaned = append(status.Orphaned, e)
		}
	}
	return status, nil
}
