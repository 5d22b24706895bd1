package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

var observationHeader = []string{"period", "group", "visitors", "conversions", "revenue", "retained"}

func init() {
	rootCmd.AddCommand(newImportCmd())
}

func newImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Import observations from a CSV file",
		Long: `Import per-period observations for an experiment from a CSV file
with header: period,group,visitors,conversions,revenue,retained.

Rows are validated (conversions <= visitors, retained <= conversions)
and the whole file is imported in one transaction under a batch id.

Example:
  uplift import checkout --file observations.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			observations, err := readObservations(f)
			if err != nil {
				return err
			}
			if len(observations) == 0 {
				return fmt.Errorf("%s contains no observations", file)
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
				for i, o := range observations {
					if !exp.HasGroup(o.Group) {
						return fmt.Errorf("row %d: experiment '%s' has no group '%s'", i+2, name, o.Group)
					}
				}

				batchID, err := s.AddObservations(ctx, name, observations)
				if err != nil {
					return fmt.Errorf("import failed: %w", err)
				}

				fmt.Printf("Imported %d observations into '%s' (batch %s)\n", len(observations), name, batchID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func readObservations(r io.Reader) ([]stats.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(observationHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, want := range observationHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}

	var observations []stats.Observation
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		obs, err := parseObservation(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		observations = append(observations, obs)
	}

	return observations, nil
}

func parseObservation(record []string) (stats.Observation, error) {
	period, err := parsePeriod(record[0])
	if err != nil {
		return stats.Observation{}, err
	}

	visitors, err := strconv.Atoi(record[2])
	if err != nil {
		return stats.Observation{}, fmt.Errorf("bad visitors %q: %w", record[2], err)
	}
	conversions, err := strconv.Atoi(record[3])
	if err != nil {
		return stats.Observation{}, fmt.Errorf("bad conversions %q: %w", record[3], err)
	}
	revenue, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return stats.Observation{}, fmt.Errorf("bad revenue %q: %w", record[4], err)
	}
	retained, err := strconv.Atoi(record[5])
	if err != nil {
		return stats.Observation{}, fmt.Errorf("bad retained %q: %w", record[5], err)
	}

	obs := stats.Observation{
		Period:      period,
		Group:       record[1],
		Visitors:    visitors,
		Conversions: conversions,
		Revenue:     revenue,
		Retained:    retained,
	}
	if err := obs.Validate(); err != nil {
		return stats.Observation{}, err
	}
	return obs, nil
}
