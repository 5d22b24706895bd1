package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

func init() {
	rootCmd.AddCommand(newCompareCmd())
}

func newCompareCmd() *cobra.Command {
	var (
		baseline   string
		variant    string
		resamples  int
		seed       int64
		confidence float64
	)

	cmd := &cobra.Command{
		Use:   "compare <name>",
		Short: "Compare two groups of an experiment",
		Long: `Run the full comparison between two groups: two-proportion z-test
with confidence interval, bootstrap interval for the rate uplift, and
Beta posteriors. Pass --seed to make the bootstrap reproducible; the
default seed is the current time.

Example:
  uplift compare checkout --baseline control --variant treatment --resamples 2000 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			if resamples == 0 {
				resamples = cfg.Resamples
			}
			if confidence == 0 {
				confidence = cfg.Confidence
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

				if baseline == "" {
					baseline = exp.Baseline
				}
				if variant == "" {
					variant, err = selectGroup(exp, baseline)
					if err != nil {
						return err
					}
				}
				for _, g := range []string{baseline, variant} {
					if !exp.HasGroup(g) {
						return fmt.Errorf("experiment '%s' has no group '%s' (groups: %v)", name, g, exp.Groups)
					}
				}

				observations, err := s.GetObservations(ctx, name)
				if err != nil {
					return fmt.Errorf("failed to get observations: %w", err)
				}
				summaries, err := stats.Summarize(observations)
				if err != nil {
					return fmt.Errorf("failed to summarize: %w", err)
				}

				result, err := stats.CompareRates(summaries[baseline], summaries[variant], confidence)
				if err != nil {
					return fmt.Errorf("cannot compare '%s' and '%s': %w", baseline, variant, err)
				}

				fmt.Printf("COMPARISON: %s vs %s (baseline)\n\n", variant, baseline)
				fmt.Printf("Rate difference:   %+.4f (%+.2f pp)\n", result.RateDiff, result.RateDiff*100)
				fmt.Printf("Standard error:    %.5f\n", result.StdErr)
				fmt.Printf("z-score:           %.3f\n", result.ZScore)
				fmt.Printf("p-value:           %.4f (two-sided)\n", result.PValue)
				fmt.Printf("%.0f%% CI:            [%+.4f, %+.4f]\n", confidence*100, result.CILower, result.CIUpper)

				rates, err := s.GetGroupRates(ctx, name)
				if err != nil {
					return fmt.Errorf("failed to get group rates: %w", err)
				}
				boot, err := stats.BootstrapUplift(rates[baseline], rates[variant], resamples, seed)
				if err != nil {
					fmt.Printf("Bootstrap:         unavailable (%v)\n", err)
				} else {
					fmt.Printf("Bootstrap 95%% CI:  [%+.4f, %+.4f] (%d resamples, seed %d)\n",
						boot.Low, boot.High, resamples, seed)
				}

				// The z-test above works on pooled counts; the t-test treats
				// each day's rate as one sample, so day-to-day variance counts.
				ttest, err := stats.WelchTTest(rates[baseline], rates[variant])
				if err != nil {
					fmt.Printf("Welch t-test:      unavailable (%v)\n", err)
				} else {
					fmt.Printf("Welch t-test:      t=%.3f, df=%.1f, p=%.4f (daily rates)\n",
						ttest.TStat, ttest.DF, ttest.PValue)
				}

				fmt.Println()
				for _, g := range []string{baseline, variant} {
					posterior, err := stats.Posterior(summaries[g])
					if err != nil {
						continue
					}
					fmt.Printf("Posterior %-12s Beta(%.0f, %.0f), mean %s\n",
						g+":", posterior.Alpha, posterior.Beta, formatPercent(posterior.Mean()))
				}

				if result.Significant() {
					fmt.Printf("\nThe difference is significant at the %.0f%% level.\n", confidence*100)
				} else {
					fmt.Printf("\nThe difference is not significant at the %.0f%% level.\n", confidence*100)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&baseline, "baseline", "b", "", "baseline group (default: experiment baseline)")
	cmd.Flags().StringVarP(&variant, "variant", "v", "", "variant group (prompted when omitted)")
	cmd.Flags().IntVar(&resamples, "resamples", 0, "bootstrap resamples (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "bootstrap RNG seed (default: current time)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "confidence level (default from config)")

	return cmd
}

// selectGroup prompts for a variant group among the experiment's
// non-baseline groups.
func selectGroup(exp *store.Experiment, baseline string) (string, error) {
	var choices []string
	for _, g := range exp.Groups {
		if g != baseline {
			choices = append(choices, g)
		}
	}
	if len(choices) == 0 {
		return "", fmt.Errorf("experiment '%s' has no group besides the baseline", exp.Name)
	}
	if len(choices) == 1 {
		return choices[0], nil
	}

	prompt := promptui.Select{
		Label: "Variant group",
		Items: choices,
	}
	_, choice, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			return "", fmt.Errorf("cancelled")
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return choice, nil
}
