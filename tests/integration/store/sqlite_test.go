package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
	"github.com/uplift-stats/uplift/tests/testutil"
)

func TestCreateAndGetExperiment(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	created, err := s.CreateExperiment(ctx, "checkout", []string{"control", "variant"}, "control", "checkout flow test")
	if err != nil {
		t.Fatalf("CreateExperiment failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected a nonzero id")
	}

	got, err := s.GetExperiment(ctx, "checkout")
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if got.Name != "checkout" || got.Baseline != "control" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if len(got.Groups) != 2 || got.Groups[0] != "control" || got.Groups[1] != "variant" {
		t.Errorf("groups %v, want [control variant]", got.Groups)
	}
	if got.State != store.StateRunning {
		t.Errorf("state %s, want running", got.State)
	}
	if got.Description != "checkout flow test" {
		t.Errorf("description %q", got.Description)
	}
}

func TestCreateExperiment_DefaultsBaselineToFirstGroup(t *testing.T) {
	s := testutil.SetupTestStore(t)

	exp, err := s.CreateExperiment(context.Background(), "x", []string{"a", "b"}, "", "")
	if err != nil {
		t.Fatalf("CreateExperiment failed: %v", err)
	}
	if exp.Baseline != "a" {
		t.Errorf("baseline %q, want a", exp.Baseline)
	}
}

func TestCreateExperiment_RejectsBadInput(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateExperiment(ctx, "x", []string{"only"}, "", ""); err == nil {
		t.Error("expected error for a single group")
	}
	if _, err := s.CreateExperiment(ctx, "x", []string{"a", "b"}, "c", ""); err == nil {
		t.Error("expected error for a baseline outside the groups")
	}
}

func TestCreateExperiment_DuplicateName(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateExperiment(ctx, "dup", []string{"a", "b"}, "", ""); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := s.CreateExperiment(ctx, "dup", []string{"a", "b"}, "", ""); err == nil {
		t.Error("expected unique-name violation")
	}
}

func TestGetExperiment_NotFound(t *testing.T) {
	s := testutil.SetupTestStore(t)

	_, err := s.GetExperiment(context.Background(), "ghost")
	if err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListExperiments(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two"} {
		if _, err := s.CreateExperiment(ctx, name, []string{"a", "b"}, "", ""); err != nil {
			t.Fatalf("create %s failed: %v", name, err)
		}
	}

	experiments, err := s.ListExperiments(ctx)
	if err != nil {
		t.Fatalf("ListExperiments failed: %v", err)
	}
	if len(experiments) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(experiments))
	}
}

func TestSetWinnerAndState(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateExperiment(ctx, "x", []string{"a", "b"}, "", ""); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateState(ctx, "x", store.StatePaused); err != nil {
		t.Fatalf("UpdateState failed: %v", err)
	}
	exp, _ := s.GetExperiment(ctx, "x")
	if exp.State != store.StatePaused {
		t.Errorf("state %s, want paused", exp.State)
	}

	if err := s.SetWinner(ctx, "x", "b"); err != nil {
		t.Fatalf("SetWinner failed: %v", err)
	}
	exp, _ = s.GetExperiment(ctx, "x")
	if exp.State != store.StateCompleted {
		t.Errorf("state %s, want completed", exp.State)
	}
	if exp.WinnerGroup == nil || *exp.WinnerGroup != "b" {
		t.Errorf("winner %v, want b", exp.WinnerGroup)
	}

	if err := s.SetWinner(ctx, "ghost", "b"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown experiment, got %v", err)
	}
}

func TestObservations_RoundTrip(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedExperiment(t, s, "x", 3, 500, 50, 60)

	observations, err := s.GetObservations(ctx, "x")
	if err != nil {
		t.Fatalf("GetObservations failed: %v", err)
	}
	if len(observations) != 6 {
		t.Fatalf("expected 6 observations, got %d", len(observations))
	}

	summaries, err := stats.Summarize(observations)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summaries["control"].Visitors != 1500 || summaries["control"].Conversions != 150 {
		t.Errorf("control totals wrong: %+v", summaries["control"])
	}
}

func TestAddObservation_RejectsInvalid(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedExperiment(t, s, "x", 1, 100, 10, 12)

	bad := stats.Observation{
		Period:      time.Now(),
		Group:       "control",
		Visitors:    10,
		Conversions: 20,
	}
	err := s.AddObservation(ctx, "x", bad)
	if !errors.Is(err, stats.ErrInvalidObservation) {
		t.Fatalf("expected ErrInvalidObservation, got %v", err)
	}
}

func TestAddObservations_BatchIDAndAtomicity(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateExperiment(ctx, "x", []string{"a", "b"}, "", ""); err != nil {
		t.Fatal(err)
	}

	good := stats.Observation{Period: time.Now(), Group: "a", Visitors: 10, Conversions: 1}
	bad := stats.Observation{Period: time.Now(), Group: "b", Visitors: 10, Conversions: 99}

	if _, err := s.AddObservations(ctx, "x", []stats.Observation{good, bad}); err == nil {
		t.Fatal("expected batch with an invalid row to fail")
	}

	// Nothing from the failed batch may persist.
	observations, err := s.GetObservations(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(observations) != 0 {
		t.Errorf("failed batch leaked %d observations", len(observations))
	}

	batchID, err := s.AddObservations(ctx, "x", []stats.Observation{good})
	if err != nil {
		t.Fatalf("valid batch failed: %v", err)
	}
	if batchID == "" {
		t.Error("expected a batch id")
	}
}

func TestGetGroupTotals(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedExperiment(t, s, "x", 4, 250, 20, 30)

	totals, err := s.GetGroupTotals(ctx, "x")
	if err != nil {
		t.Fatalf("GetGroupTotals failed: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(totals))
	}

	// Sorted by group: control before variant.
	if totals[0].Group != "control" || totals[0].Visitors != 1000 || totals[0].Conversions != 80 {
		t.Errorf("control totals wrong: %+v", totals[0])
	}
	if totals[1].Group != "variant" || totals[1].Conversions != 120 {
		t.Errorf("variant totals wrong: %+v", totals[1])
	}
	if totals[0].Observations != 4 {
		t.Errorf("control observation count %d, want 4", totals[0].Observations)
	}
}

func TestGetGroupRates(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateExperiment(ctx, "x", []string{"a", "b"}, "", ""); err != nil {
		t.Fatal(err)
	}
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	obs := []stats.Observation{
		{Period: day, Group: "a", Visitors: 10, Conversions: 1},
		{Period: day.AddDate(0, 0, 1), Group: "a", Visitors: 20, Conversions: 10},
		{Period: day.AddDate(0, 0, 2), Group: "a", Visitors: 0, Conversions: 0}, // no rate
		{Period: day, Group: "b", Visitors: 10, Conversions: 5},
	}
	if _, err := s.AddObservations(ctx, "x", obs); err != nil {
		t.Fatal(err)
	}

	rates, err := s.GetGroupRates(ctx, "x")
	if err != nil {
		t.Fatalf("GetGroupRates failed: %v", err)
	}
	if len(rates["a"]) != 2 {
		t.Fatalf("group a rates %v, want 2 entries", rates["a"])
	}
	if rates["a"][0] != 0.1 || rates["a"][1] != 0.5 {
		t.Errorf("group a rates %v, want [0.1, 0.5]", rates["a"])
	}
	if len(rates["b"]) != 1 || rates["b"][0] != 0.5 {
		t.Errorf("group b rates %v, want [0.5]", rates["b"])
	}
}

func TestDeleteExperiment(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedExperiment(t, s, "x", 2, 100, 10, 12)

	if err := s.DeleteExperiment(ctx, "x"); err != nil {
		t.Fatalf("DeleteExperiment failed: %v", err)
	}
	if _, err := s.GetExperiment(ctx, "x"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	observations, err := s.GetObservations(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(observations) != 0 {
		t.Errorf("observations survived delete: %d", len(observations))
	}

	if err := s.DeleteExperiment(ctx, "x"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}
