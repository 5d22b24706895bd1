package stats_test

import (
	"errors"
	"testing"
	"time"

	"github.com/uplift-stats/uplift/internal/stats"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarize_Basic(t *testing.T) {
	observations := []stats.Observation{
		{Period: day(1), Group: "A", Visitors: 100, Conversions: 10, Revenue: 250, Retained: 6},
		{Period: day(2), Group: "A", Visitors: 200, Conversions: 30, Revenue: 750, Retained: 18},
		{Period: day(1), Group: "B", Visitors: 150, Conversions: 15, Revenue: 300, Retained: 5},
	}

	summaries, err := stats.Summarize(observations)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(summaries))
	}

	a := summaries["A"]
	if a.Visitors != 300 || a.Conversions != 40 {
		t.Errorf("group A totals wrong: %d visitors, %d conversions", a.Visitors, a.Conversions)
	}
	if !a.RateValid {
		t.Fatal("group A rate should be valid")
	}
	if a.Rate < 0.133 || a.Rate > 0.134 {
		t.Errorf("group A rate %f not ~0.1333", a.Rate)
	}
	if a.RevenuePerVisitor < 3.32 || a.RevenuePerVisitor > 3.34 {
		t.Errorf("group A RPV %f not ~3.33", a.RevenuePerVisitor)
	}
	if !a.RetentionValid || a.RetentionRate != 0.6 {
		t.Errorf("group A retention %f (valid=%v), want 0.6", a.RetentionRate, a.RetentionValid)
	}
}

func TestSummarize_RatesWithinUnitInterval(t *testing.T) {
	observations := []stats.Observation{
		{Period: day(1), Group: "A", Visitors: 3, Conversions: 3},
		{Period: day(2), Group: "A", Visitors: 17, Conversions: 0},
		{Period: day(1), Group: "B", Visitors: 1, Conversions: 1},
		{Period: day(1), Group: "C", Visitors: 999, Conversions: 1},
	}

	summaries, err := stats.Summarize(observations)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	for group, s := range summaries {
		if !s.RateValid {
			t.Errorf("group %s should have a valid rate", group)
			continue
		}
		if s.Rate < 0 || s.Rate > 1 {
			t.Errorf("group %s rate %f outside [0,1]", group, s.Rate)
		}
		if s.CILower < 0 || s.CIUpper > 1 || s.CILower > s.CIUpper {
			t.Errorf("group %s CI [%f, %f] malformed", group, s.CILower, s.CIUpper)
		}
	}
}

func TestSummarize_ZeroVisitorsGroup(t *testing.T) {
	observations := []stats.Observation{
		{Period: day(1), Group: "empty", Visitors: 0, Conversions: 0},
	}

	summaries, err := stats.Summarize(observations)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	s := summaries["empty"]
	if s.RateValid {
		t.Error("rate should be undefined with zero visitors")
	}
	if s.RetentionValid {
		t.Error("retention should be undefined with zero conversions")
	}
}

func TestSummarize_RetentionUndefinedWithoutConversions(t *testing.T) {
	observations := []stats.Observation{
		{Period: day(1), Group: "A", Visitors: 50, Conversions: 0, Retained: 0},
	}

	summaries, err := stats.Summarize(observations)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	s := summaries["A"]
	if !s.RateValid || s.Rate != 0 {
		t.Errorf("rate should be a valid 0, got %f (valid=%v)", s.Rate, s.RateValid)
	}
	if s.RetentionValid {
		t.Error("retention must be flagged undefined, not silently zero")
	}
}

func TestSummarize_RejectsConversionsOverVisitors(t *testing.T) {
	observations := []stats.Observation{
		{Period: day(1), Group: "A", Visitors: 10, Conversions: 11},
	}

	_, err := stats.Summarize(observations)
	if !errors.Is(err, stats.ErrInvalidObservation) {
		t.Fatalf("expected ErrInvalidObservation, got %v", err)
	}
}

func TestSummarize_RejectsRetainedOverConversions(t *testing.T) {
	observations := []stats.Observation{
		{Period: day(1), Group: "A", Visitors: 10, Conversions: 2, Retained: 3},
	}

	_, err := stats.Summarize(observations)
	if !errors.Is(err, stats.ErrInvalidObservation) {
		t.Fatalf("expected ErrInvalidObservation, got %v", err)
	}
}

func TestSummarize_Empty(t *testing.T) {
	summaries, err := stats.Summarize(nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected empty map, got %d groups", len(summaries))
	}
}

func TestGroupRates_SkipsZeroVisitorRows(t *testing.T) {
	observations := []stats.Observation{
		{Period: day(1), Group: "A", Visitors: 10, Conversions: 1},
		{Period: day(2), Group: "A", Visitors: 0, Conversions: 0},
		{Period: day(3), Group: "A", Visitors: 20, Conversions: 10},
		{Period: day(1), Group: "B", Visitors: 10, Conversions: 5},
	}

	rates := stats.GroupRates(observations, "A")
	if len(rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(rates))
	}
	if rates[0] != 0.1 || rates[1] != 0.5 {
		t.Errorf("rates %v, want [0.1, 0.5]", rates)
	}
}
