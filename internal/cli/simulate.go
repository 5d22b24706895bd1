package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/simulate"
	"github.com/uplift-stats/uplift/internal/store"
)

func init() {
	rootCmd.AddCommand(newSimulateCmd())
}

func newSimulateCmd() *cobra.Command {
	var (
		days     int
		seed     int64
		baseRate float64
		uplift   float64
	)

	cmd := &cobra.Command{
		Use:   "simulate <name>",
		Short: "Fill an experiment with synthetic observations",
		Long: `Generate synthetic daily observations for an experiment's groups and
import them. The first group converts at --base-rate; each following
group gets an extra relative --uplift. The same seed reproduces the
same data.

Example:
  uplift simulate checkout --days 28 --base-rate 0.10 --uplift 0.15 --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				exp, err := s.GetExperiment(ctx, name)
				if err != nil {
					if err == store.ErrNotFound {
						return fmt.Errorf("experiment '%s' not found", name)
					}
					return fmt.Errorf("failed to get experiment: %w", err)
				}

				start := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)
				observations := simulate.New(seed).Observations(exp.Groups, days, start, baseRate, uplift)

				batchID, err := s.AddObservations(ctx, name, observations)
				if err != nil {
					return fmt.Errorf("failed to store simulated observations: %w", err)
				}

				fmt.Printf("Simulated %d days for '%s' (%d observations, seed %d, batch %s)\n",
					days, name, len(observations), seed, batchID)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 28, "number of days to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (default: current time)")
	cmd.Flags().Float64Var(&baseRate, "base-rate", 0.10, "baseline conversion rate")
	cmd.Flags().Float64Var(&uplift, "uplift", 0.10, "relative uplift per later group")

	return cmd
}
