package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		experiments, err := s.ListExperiments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		if len(experiments) == 0 {
			fmt.Println("No experiments yet. Create one with 'uplift create'.")
			return nil
		}

		fmt.Println("NAME              STATE      GROUPS             VISITORS  CREATED")
		fmt.Println(strings.Repeat("─", 72))

		for _, exp := range experiments {
			totals, err := s.GetGroupTotals(ctx, exp.Name)
			if err != nil {
				return fmt.Errorf("failed to get totals for '%s': %w", exp.Name, err)
			}
			visitors := 0
			for _, t := range totals {
				visitors += t.Visitors
			}

			name := exp.Name
			if len(name) > 16 {
				name = name[:13] + "..."
			}
			groups := strings.Join(exp.Groups, ",")
			if len(groups) > 17 {
				groups = groups[:14] + "..."
			}

			state := string(exp.State)
			if exp.WinnerGroup != nil {
				state = fmt.Sprintf("%s (%s)", state, *exp.WinnerGroup)
			}

			fmt.Printf("%-16s  %-9s  %-17s  %-8d  %s\n",
				name, state, groups, visitors, exp.CreatedAt.Format("2006-01-02"))
		}

		return nil
	})
}
