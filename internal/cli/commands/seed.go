package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apolon-health/apolon/internal/cli/ui"
)

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed lookup tables",
		Long:  "Insert the checkup types when the checkup_types table is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.db.SeedCheckupTypes(ctx)
			if err != nil {
				return fmt.Errorf("seed failed: %s", categorizeDatabaseError(err, a.verbose))
			}

			out := cmd.OutOrStdout()
			if n == 0 {
				ui.Message{Level: ui.LevelInfo, Title: "Checkup types already seeded", NoColor: a.noColor}.Write(out)
				return nil
			}
			ui.WriteSuccess(out, fmt.Sprintf("Seeded %d checkup types", n), a.noColor)
			return nil
		},
	}
}
