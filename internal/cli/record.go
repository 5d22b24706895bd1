package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

func init() {
	rootCmd.AddCommand(newRecordCmd())
}

func newRecordCmd() *cobra.Command {
	var (
		group       string
		period      string
		visitors    int
		conversions int
		revenue     float64
		retained    int
	)

	cmd := &cobra.Command{
		Use:   "record <name>",
		Short: "Record a single observation",
		Long: `Record one per-period observation for a group of an experiment.

Example:
  uplift record checkout --group control --period 2026-08-01 \
    --visitors 500 --conversions 50 --revenue 1250.0 --retained 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			when := time.Now().Truncate(24 * time.Hour)
			if period != "" {
				parsed, err := parsePeriod(period)
				if err != nil {
					return err
				}
				when = parsed
			}

			obs := stats.Observation{
				Period:      when,
				Group:       group,
				Visitors:    visitors,
				Conversions: conversions,
				Revenue:     revenue,
				Retained:    retained,
			}
			if err := obs.Validate(); err != nil {
				return err
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
				if !exp.HasGroup(group) {
					return fmt.Errorf("experiment '%s' has no group '%s' (groups: %v)", name, group, exp.Groups)
				}

				if err := s.AddObservation(ctx, name, obs); err != nil {
					return fmt.Errorf("failed to record observation: %w", err)
				}

				fmt.Printf("Recorded %s/%s for %s: %d visitors, %d conversions\n",
					name, group, when.Format("2006-01-02"), visitors, conversions)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "group label (required)")
	cmd.Flags().StringVar(&period, "period", "", "observation date (default: today)")
	cmd.Flags().IntVar(&visitors, "visitors", 0, "visitor count")
	cmd.Flags().IntVar(&conversions, "conversions", 0, "conversion count")
	cmd.Flags().Float64Var(&revenue, "revenue", 0, "revenue")
	cmd.Flags().IntVar(&retained, "retained", 0, "retained conversion count")
	cmd.MarkFlagRequired("group")

	return cmd
}
