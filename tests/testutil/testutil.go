package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

// SetupTestStore creates a test database and returns the store with a cleanup function.
// Uses t.TempDir() for automatic cleanup on test completion.
func SetupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := tmpDir + "/test.db"

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// SeedExperiment creates an experiment with two groups and a few days
// of observations at the given per-day counts.
func SeedExperiment(t *testing.T, s *store.SQLiteStore, name string, days int, visitors, convControl, convVariant int) {
	t.Helper()

	ctx := context.Background()
	if _, err := s.CreateExperiment(ctx, name, []string{"control", "variant"}, "control", ""); err != nil {
		t.Fatalf("failed to create experiment: %v", err)
	}

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var obs []stats.Observation
	for d := 0; d < days; d++ {
		period := start.AddDate(0, 0, d)
		obs = append(obs,
			stats.Observation{Period: period, Group: "control", Visitors: visitors, Conversions: convControl},
			stats.Observation{Period: period, Group: "variant", Visitors: visitors, Conversions: convVariant},
		)
	}
	if _, err := s.AddObservations(ctx, name, obs); err != nil {
		t.Fatalf("failed to seed observations: %v", err)
	}
}
