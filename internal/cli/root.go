package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/config"
)

var (
	cfg    config.Config
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "uplift",
	Short: "Uplift - self-hosted experiment analytics",
	Long: `Uplift is a self-hosted analytics tool for group experiments.
It stores per-period observations tagged by group, computes conversion,
revenue and retention summaries, and compares groups with a z-test,
bootstrap resampling and Bayesian posteriors. Single Go binary,
embedded SQLite.

Running without a subcommand starts the server (same as 'uplift serve').`,
	RunE: runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cfg = loadConfig()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", cfg.DBPath, "database path")
}

func loadConfig() config.Config {
	c, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		return config.Default()
	}
	return c
}
