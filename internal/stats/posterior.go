package stats

import (
	"fmt"
	"math"
)

// Beta is a beta distribution over a conversion rate.
type Beta struct {
	Alpha float64
	Beta  float64
}

// Posterior returns the conjugate posterior over a group's true
// conversion rate under a uniform Beta(1,1) prior:
// Beta(conversions+1, visitors-conversions+1). A group with no visitors
// has nothing to update on and is rejected.
func Posterior(s GroupSummary) (Beta, error) {
	if s.Visitors == 0 {
		return Beta{}, fmt.Errorf("%w: group %q has no visitors", ErrDegenerateInput, s.Group)
	}
	return Beta{
		Alpha: float64(s.Conversions) + 1,
		Beta:  float64(s.Visitors-s.Conversions) + 1,
	}, nil
}

// Mean returns alpha / (alpha + beta).
func (b Beta) Mean() float64 {
	return b.Alpha / (b.Alpha + b.Beta)
}

// PDF evaluates the density at x. Outside (0, 1) the density is zero.
func (b Beta) PDF(x float64) float64 {
	if x <= 0 || x >= 1 {
		return 0
	}
	return math.Exp(b.LogPDF(x))
}

// LogPDF evaluates the log density at x in (0, 1).
func (b Beta) LogPDF(x float64) float64 {
	if x <= 0 || x >= 1 {
		return math.Inf(-1)
	}
	lgab, _ := math.Lgamma(b.Alpha + b.Beta)
	lga, _ := math.Lgamma(b.Alpha)
	lgb, _ := math.Lgamma(b.Beta)
	return lgab - lga - lgb + (b.Alpha-1)*math.Log(x) + (b.Beta-1)*math.Log(1-x)
}

// Curve samples the density on a uniform grid over [lo, hi], for
// plotting. The caller picks the range; points must be at least 2.
func (b Beta) Curve(lo, hi float64, points int) (xs, ys []float64) {
	if points < 2 {
		points = 2
	}
	xs = make([]float64, points)
	ys = make([]float64, points)
	step := (hi - lo) / float64(points-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
		ys[i] = b.PDF(xs[i])
	}
	return xs, ys
}
