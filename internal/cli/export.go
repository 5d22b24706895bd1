package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export raw observation data",
	Long: `Export an experiment's observations in CSV or JSON format.

Examples:
  uplift export checkout --format csv > checkout.csv
  uplift export checkout --format json > checkout.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	name := args[0]

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		// Verify experiment exists
		if _, err := s.GetExperiment(ctx, name); err != nil {
			if err == store.ErrNotFound {
				return fmt.Errorf("experiment '%s' not found", name)
			}
			return fmt.Errorf("failed to get experiment: %w", err)
		}

		observations, err := s.GetObservations(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get observations: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(observations)
		}
		return exportJSON(observations)
	})
}

func exportCSV(observations []stats.Observation) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(observationHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, o := range observations {
		row := []string{
			o.Period.Format("2006-01-02"),
			o.Group,
			strconv.Itoa(o.Visitors),
			strconv.Itoa(o.Conversions),
			strconv.FormatFloat(o.Revenue, 'f', 2, 64),
			strconv.Itoa(o.Retained),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}

type jsonExport struct {
	Observations []jsonObservation `json:"observations"`
}

type jsonObservation struct {
	Period      string  `json:"period"`
	Group       string  `json:"group"`
	Visitors    int     `json:"visitors"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Retained    int     `json:"retained"`
}

func exportJSON(observations []stats.Observation) error {
	export := jsonExport{
		Observations: make([]jsonObservation, len(observations)),
	}

	for i, o := range observations {
		export.Observations[i] = jsonObservation{
			Period:      o.Period.Format("2006-01-02"),
			Group:       o.Group,
			Visitors:    o.Visitors,
			Conversions: o.Conversions,
			Revenue:     o.Revenue,
			Retained:    o.Retained,
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
