package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/store"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		groups      string
		baseline    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new experiment",
		Long: `Create a new experiment with the specified name and groups.
The baseline group is what every other group gets compared against; it
defaults to the first group listed.

Examples:
  uplift create checkout --groups "control,variant"
  uplift create pricing --groups "control,low,high" --baseline control
  uplift create hero --groups "A,B" --description "hero banner copy"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			groupList := strings.Split(groups, ",")
			for i := range groupList {
				groupList[i] = strings.TrimSpace(groupList[i])
			}

			if len(groupList) < 2 {
				return fmt.Errorf("need at least 2 groups. Example: --groups \"control,variant\"")
			}

			return withStore(func(s *store.SQLiteStore) error {
				exp, err := s.CreateExperiment(context.Background(), name, groupList, baseline, description)
				if err != nil {
					return fmt.Errorf("failed to create experiment: %w", err)
				}

				fmt.Printf("Created experiment '%s' with %d groups:\n", exp.Name, len(exp.Groups))
				for _, g := range exp.Groups {
					marker := ""
					if g == exp.Baseline {
						marker = " (baseline)"
					}
					fmt.Printf("  %s%s\n", g, marker)
				}
				if description != "" {
					fmt.Printf("  Description: %s\n", description)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&groups, "groups", "g", "", "comma-separated group labels (required)")
	cmd.Flags().StringVarP(&baseline, "baseline", "b", "", "baseline group (default: first group)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what the experiment changes (optional)")
	cmd.MarkFlagRequired("groups")

	return cmd
}
