package cli

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/store"
)

func init() {
	rootCmd.AddCommand(newWinnerCmd())
}

func newWinnerCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "winner <name>",
		Short: "Declare a winning group",
		Long: `Declare a winning group for an experiment and mark it completed.

Example:
  uplift winner checkout --group treatment`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				exp, err := s.GetExperiment(ctx, name)
				if err != nil {
					if err == store.ErrNotFound {
						return fmt.Errorf("experiment '%s' not found", name)
					}
					return fmt.Errorf("failed to get experiment: %w", err)
				}

				if exp.State != store.StateRunning {
					return fmt.Errorf("experiment is not running (current state: %s)", exp.State)
				}

				if group == "" {
					prompt := promptui.Select{
						Label: "Winning group",
						Items: exp.Groups,
					}
					_, group, err = prompt.Run()
					if err != nil {
						if err == promptui.ErrInterrupt {
							return fmt.Errorf("cancelled")
						}
						return fmt.Errorf("prompt failed: %w", err)
					}
				}

				if !exp.HasGroup(group) {
					return fmt.Errorf("experiment '%s' has no group '%s' (groups: %v)", name, group, exp.Groups)
				}

				if err := s.SetWinner(ctx, name, group); err != nil {
					return fmt.Errorf("failed to set winner: %w", err)
				}

				fmt.Printf("Declared winner for experiment '%s': %s\n", name, group)
				fmt.Println("Experiment has been marked as completed.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "winning group (prompted when omitted)")

	return cmd
}
