package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results <name>",
	Short: "Show detailed results for an experiment",
	Long:  `Show per-group summaries, confidence intervals and the comparison of each group against the baseline.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
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

		observations, err := s.GetObservations(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get observations: %w", err)
		}

		summaries, err := stats.Summarize(observations)
		if err != nil {
			return fmt.Errorf("failed to summarize: %w", err)
		}

		// Print header
		fmt.Printf("EXPERIMENT: %s\n", exp.Name)
		fmt.Printf("STATE: %s\n", exp.State)
		if exp.Description != "" {
			fmt.Printf("DESCRIPTION: %s\n", exp.Description)
		}
		fmt.Printf("BASELINE: %s\n", exp.Baseline)
		fmt.Printf("CREATED: %s\n", exp.CreatedAt.Format("2006-01-02"))
		fmt.Println()

		fmt.Println("GROUP             VISITORS  CONV    RATE     95% CI            RPV      RETENTION")
		fmt.Println(strings.Repeat("─", 86))

		for _, group := range orderedGroups(exp, summaries) {
			sum, ok := summaries[group]
			if !ok {
				fmt.Printf("%-16s  no observations\n", truncate(group, 16))
				continue
			}

			rateStr := "N/A"
			ciStr := "N/A"
			rpvStr := "N/A"
			if sum.RateValid {
				rateStr = formatPercent(sum.Rate)
				ciStr = fmt.Sprintf("[%.1f%%, %.1f%%]", sum.CILower*100, sum.CIUpper*100)
				rpvStr = fmt.Sprintf("%.2f", sum.RevenuePerVisitor)
			}
			retStr := "N/A"
			if sum.RetentionValid {
				retStr = formatPercent(sum.RetentionRate)
			}

			marker := ""
			if group == exp.Baseline {
				marker = " (baseline)"
			}

			fmt.Printf("%-16s  %-8d  %-6d  %-7s  %-16s  %-7s  %s%s\n",
				truncate(group, 16), sum.Visitors, sum.Conversions, rateStr, ciStr, rpvStr, retStr, marker)
		}

		fmt.Println()
		printComparisons(exp, summaries)
		return nil
	})
}

// printComparisons runs the z-test and posterior for every group
// against the baseline. Degenerate groups are reported, not skipped
// silently.
func printComparisons(exp *store.Experiment, summaries map[string]stats.GroupSummary) {
	base, ok := summaries[exp.Baseline]
	if !ok {
		fmt.Println("No baseline data yet; comparisons unavailable.")
		return
	}

	for _, group := range orderedGroups(exp, summaries) {
		if group == exp.Baseline {
			continue
		}
		variant, ok := summaries[group]
		if !ok {
			continue
		}

		result, err := stats.CompareRates(base, variant, cfg.Confidence)
		if err != nil {
			if errors.Is(err, stats.ErrDegenerateInput) {
				fmt.Printf("%s vs %s: not comparable (%v)\n", group, exp.Baseline, err)
				continue
			}
			fmt.Printf("%s vs %s: %v\n", group, exp.Baseline, err)
			continue
		}

		verdict := "not significant"
		if result.Significant() {
			verdict = "significant"
		}
		fmt.Printf("%s vs %s: uplift %+.2f pp, z=%.2f, p=%.3f (%s at %.0f%%)\n",
			group, exp.Baseline, result.RateDiff*100, result.ZScore, result.PValue,
			verdict, cfg.Confidence*100)

		confidence := stats.WinnerConfidence(base, variant) * 100
		if confidence >= 95 {
			fmt.Printf("  %.1f%% confident \"%s\" beats the baseline\n", confidence, group)
		}
	}

	fmt.Println()
	fmt.Println("Posterior means (Beta, uniform prior):")
	for _, group := range orderedGroups(exp, summaries) {
		sum, ok := summaries[group]
		if !ok {
			continue
		}
		posterior, err := stats.Posterior(sum)
		if err != nil {
			fmt.Printf("  %-16s N/A\n", truncate(group, 16))
			continue
		}
		fmt.Printf("  %-16s %s\n", truncate(group, 16), formatPercent(posterior.Mean()))
	}
}

// orderedGroups returns the experiment's groups in their declared
// order, followed by any stray groups present only in the data.
func orderedGroups(exp *store.Experiment, summaries map[string]stats.GroupSummary) []string {
	seen := make(map[string]bool, len(exp.Groups))
	groups := make([]string, 0, len(summaries))
	for _, g := range exp.Groups {
		seen[g] = true
		groups = append(groups, g)
	}

	var extra []string
	for g := range summaries {
		if !seen[g] {
			extra = append(extra, g)
		}
	}
	sort.Strings(extra)
	return append(groups, extra...)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
