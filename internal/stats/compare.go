package stats

import (
	"fmt"
	"math"
)

// ComparisonResult is the two-proportion z-test for an ordered
// (baseline, variant) pair. RateDiff is variant minus baseline, so a
// positive value means the variant converts better.
type ComparisonResult struct {
	Baseline string
	Variant  string

	RateDiff float64
	StdErr   float64
	ZScore   float64
	PValue   float64

	// Confidence is the level the interval below was built at.
	Confidence float64
	CILower    float64
	CIUpper    float64
}

// Significant reports whether the difference is significant at the
// result's confidence level.
func (r ComparisonResult) Significant() bool {
	return r.PValue < 1-r.Confidence
}

// CompareRates runs an unpooled two-proportion z-test between a baseline
// and a variant summary.
//
//	SE = sqrt(pA(1-pA)/nA + pB(1-pB)/nB)
//	z  = (pB - pA) / SE
//	p  = 2 * (1 - Phi(|z|))
//	CI = (pB - pA) +/- z_crit * SE
//
// Both groups need visitors, and SE must be nonzero (two groups pinned
// at 0% or 100% have no sampling variance to test against); otherwise
// ErrDegenerateInput is returned.
func CompareRates(baseline, variant GroupSummary, confidence float64) (ComparisonResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return ComparisonResult{}, fmt.Errorf("%w: confidence level %v outside (0, 1)", ErrDegenerateInput, confidence)
	}
	if baseline.Visitors == 0 {
		return ComparisonResult{}, fmt.Errorf("%w: baseline group %q has no visitors", ErrDegenerateInput, baseline.Group)
	}
	if variant.Visitors == 0 {
		return ComparisonResult{}, fmt.Errorf("%w: variant group %q has no visitors", ErrDegenerateInput, variant.Group)
	}

	pA := float64(baseline.Conversions) / float64(baseline.Visitors)
	pB := float64(variant.Conversions) / float64(variant.Visitors)
	nA := float64(baseline.Visitors)
	nB := float64(variant.Visitors)

	se := math.Sqrt(pA*(1-pA)/nA + pB*(1-pB)/nB)
	if se == 0 {
		return ComparisonResult{}, fmt.Errorf("%w: zero standard error (rates %v and %v are degenerate)", ErrDegenerateInput, pA, pB)
	}

	diff := pB - pA
	z := diff / se
	p := 2 * (1 - normalCDF(math.Abs(z)))

	zCrit := criticalZ(confidence)

	return ComparisonResult{
		Baseline:   baseline.Group,
		Variant:    variant.Group,
		RateDiff:   diff,
		StdErr:     se,
		ZScore:     z,
		PValue:     p,
		Confidence: confidence,
		CILower:    diff - zCrit*se,
		CIUpper:    diff + zCrit*se,
	}, nil
}

// WinnerConfidence returns the probability-like confidence (0-1) that
// the variant's true rate exceeds the baseline's, using the pooled
// standard error under the null of equal rates. It deliberately never
// errors: with no data it answers 0.5, which reads as "no idea" in the
// places that display it.
func WinnerConfidence(baseline, variant GroupSummary) float64 {
	if baseline.Visitors == 0 || variant.Visitors == 0 {
		return 0.5
	}

	pA := float64(baseline.Conversions) / float64(baseline.Visitors)
	pB := float64(variant.Conversions) / float64(variant.Visitors)
	pooled := float64(baseline.Conversions+variant.Conversions) / float64(baseline.Visitors+variant.Visitors)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(baseline.Visitors) + 1/float64(variant.Visitors)))
	if se == 0 {
		switch {
		case pB > pA:
			return 1
		case pB < pA:
			return 0
		}
		return 0.5
	}

	return normalCDF((pB - pA) / se)
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
