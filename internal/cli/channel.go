package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/channel"
	"github.com/uplift-stats/uplift/internal/simulate"
)

func init() {
	channelCmd := &cobra.Command{
		Use:   "channel",
		Short: "Channel sales analytics",
	}
	channelCmd.AddCommand(newChannelReportCmd())
	rootCmd.AddCommand(channelCmd)
}

func newChannelReportCmd() *cobra.Command {
	var (
		file string
		demo bool
		seed int64
		top  int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report channel metrics from a daily data CSV",
		Long: `Aggregate a channel daily data CSV (header: date,channel,product_id,
product_name,uv,pv,impressions,clicks,orders,gmv,cost,gross_profit)
into per-channel CVR, ROI and GMV share, top-ROI products, the best
channel+category combinations and cost anomaly days.

Examples:
  uplift channel report --file channel_daily_data.csv
  uplift channel report --demo --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var days []channel.Day

			switch {
			case demo:
				if !cmd.Flags().Changed("seed") {
					seed = time.Now().UnixNano()
				}
				start := time.Now().AddDate(0, 0, -30).Truncate(24 * time.Hour)
				days = simulate.New(seed).ChannelDays(
					[]string{"search", "social", "email"},
					[]string{"shoes_runner", "shoes_trail", "apparel_tee"},
					30, start,
				)
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()
				days, err = channel.ReadDays(f)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("either --file or --demo is required")
			}

			if len(days) == 0 {
				return fmt.Errorf("no rows to report on")
			}

			printChannelSummary(channel.SummarizeChannels(days))
			printTopProducts(channel.TopROIProducts(days, top))
			printCombos(channel.ChannelCategoryROI(days), top)
			printCostAlerts(channel.CostAnomalies(days, 5))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "channel daily data CSV")
	cmd.Flags().BoolVar(&demo, "demo", false, "use simulated data instead of a file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for --demo (default: current time)")
	cmd.Flags().IntVar(&top, "top", 10, "how many rows to show in rankings")

	return cmd
}

func printChannelSummary(summaries []channel.Summary) {
	fmt.Println("CHANNEL SUMMARY")
	fmt.Println("CHANNEL       UV        ORDERS   CVR      ROI     GMV SHARE")
	fmt.Println(strings.Repeat("─", 62))
	for _, s := range summaries {
		fmt.Printf("%-12s  %-8d  %-7d  %-7s  %-6s  %s\n",
			truncate(s.Channel, 12), s.UV, s.Orders,
			formatRatioPercent(s.CVR), formatRatio(s.ROI), formatPercent(s.GMVShare))
	}
	fmt.Println()
}

func printTopProducts(products []channel.ProductROI) {
	fmt.Println("TOP ROI PRODUCTS")
	fmt.Println("PRODUCT                    GMV         COST        ROI")
	fmt.Println(strings.Repeat("─", 56))
	for _, p := range products {
		fmt.Printf("%-24s  %-10.2f  %-10.2f  %s\n",
			truncate(p.ProductName+" ("+p.ProductID+")", 24), p.GMV, p.Cost, formatRatio(p.ROI))
	}
	fmt.Println()
}

func printCombos(combos []channel.ComboROI, top int) {
	if top > 0 && len(combos) > top {
		combos = combos[:top]
	}
	fmt.Println("CHANNEL + CATEGORY ROI")
	fmt.Println("CHANNEL       CATEGORY      GMV         ROI")
	fmt.Println(strings.Repeat("─", 48))
	for _, c := range combos {
		fmt.Printf("%-12s  %-12s  %-10.2f  %s\n",
			truncate(c.Channel, 12), truncate(c.Category, 12), c.GMV, formatRatio(c.ROI))
	}
	fmt.Println()
}

func printCostAlerts(alerts []channel.CostAlert) {
	fmt.Println("COST ANOMALY DAYS")
	fmt.Println("DATE        CHANNEL       COST        MEAN        SEVERITY")
	fmt.Println(strings.Repeat("─", 60))
	for _, a := range alerts {
		fmt.Printf("%s  %-12s  %-10.2f  %-10.2f  %.2fx\n",
			a.Date.Format("2006-01-02"), truncate(a.Channel, 12), a.Cost, a.MeanCost, a.Severity)
	}
}

func formatRatio(r channel.Ratio) string {
	if !r.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

func formatRatioPercent(r channel.Ratio) string {
	if !r.Valid {
		return "N/A"
	}
	return formatPercent(r.Value)
}
