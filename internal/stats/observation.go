// Package stats is the group-comparison engine: it turns per-period
// observations tagged by group into group summaries and pairwise
// inferential comparisons. Every function is pure; errors are returned,
// never surfaced as NaN or Inf.
package stats

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidObservation marks rows that violate the observation
	// invariants (conversions <= visitors, retained <= conversions,
	// nothing negative).
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrDegenerateInput marks inputs a statistic is undefined for:
	// zero visitors, zero standard error, fewer than two samples.
	ErrDegenerateInput = errors.New("degenerate input")
)

// Observation is one per-period row for one group.
type Observation struct {
	Period      time.Time
	Group       string
	Visitors    int
	Conversions int
	Revenue     float64
	Retained    int
}

// Validate checks the observation invariants.
func (o Observation) Validate() error {
	switch {
	case o.Group == "":
		return fmt.Errorf("%w: empty group label", ErrInvalidObservation)
	case o.Visitors < 0:
		return fmt.Errorf("%w: negative visitors (%d)", ErrInvalidObservation, o.Visitors)
	case o.Conversions < 0:
		return fmt.Errorf("%w: negative conversions (%d)", ErrInvalidObservation, o.Conversions)
	case o.Retained < 0:
		return fmt.Errorf("%w: negative retained (%d)", ErrInvalidObservation, o.Retained)
	case o.Revenue < 0:
		return fmt.Errorf("%w: negative revenue (%f)", ErrInvalidObservation, o.Revenue)
	case o.Conversions > o.Visitors:
		return fmt.Errorf("%w: conversions (%d) exceed visitors (%d)", ErrInvalidObservation, o.Conversions, o.Visitors)
	case o.Retained > o.Conversions:
		return fmt.Errorf("%w: retained (%d) exceed conversions (%d)", ErrInvalidObservation, o.Retained, o.Conversions)
	}
	return nil
}

// Rate returns the observation's conversion rate. The boolean is false
// when visitors is zero and the rate is undefined.
func (o Observation) Rate() (float64, bool) {
	if o.Visitors == 0 {
		return 0, false
	}
	return float64(o.Conversions) / float64(o.Visitors), true
}

// GroupSummary holds per-group totals and derived metrics.
type GroupSummary struct {
	Group        string
	Observations int
	Visitors     int
	Conversions  int
	Retained     int
	Revenue      float64

	// Rate is conversions/visitors; RateValid is false when the group
	// has no visitors.
	Rate      float64
	RateValid bool

	// RevenuePerVisitor shares RateValid's definition of "defined".
	RevenuePerVisitor float64

	// RetentionRate is retained/conversions; RetentionValid is false
	// when the group has no conversions.
	RetentionRate  float64
	RetentionValid bool

	// CILower/CIUpper bound the 95% Wilson interval on the rate.
	CILower float64
	CIUpper float64
}

// Summarize partitions observations by group and reduces each partition
// to a GroupSummary. Rows are validated first; the first invalid row
// fails the whole call. An empty input yields an empty map.
func Summarize(observations []Observation) (map[string]GroupSummary, error) {
	for i, o := range observations {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
	}

	summaries := make(map[string]GroupSummary)
	for _, o := range observations {
		s := summaries[o.Group]
		s.Group = o.Group
		s.Observations++
		s.Visitors += o.Visitors
		s.Conversions += o.Conversions
		s.Retained += o.Retained
		s.Revenue += o.Revenue
		summaries[o.Group] = s
	}

	for g, s := range summaries {
		if s.Visitors > 0 {
			s.Rate = float64(s.Conversions) / float64(s.Visitors)
			s.RevenuePerVisitor = s.Revenue / float64(s.Visitors)
			s.RateValid = true
		}
		if s.Conversions > 0 {
			s.RetentionRate = float64(s.Retained) / float64(s.Conversions)
			s.RetentionValid = true
		}
		s.CILower, s.CIUpper = WilsonInterval(s.Conversions, s.Visitors, 0.95)
		summaries[g] = s
	}

	return summaries, nil
}

// GroupRates returns the per-observation conversion rates for one group,
// in input order. Observations with zero visitors are skipped; they
// carry no rate information.
func GroupRates(observations []Observation, group string) []float64 {
	var rates []float64
	for _, o := range observations {
		if o.Group != group {
			continue
		}
		if r, ok := o.Rate(); ok {
			rates = append(rates, r)
		}
	}
	return rates
}
