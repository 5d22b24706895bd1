package stats

import (
	"fmt"
	"math/rand"
	"sort"
)

// BootstrapResult is a percentile bootstrap interval for the difference
// in mean rates (variant minus baseline), plus the full resampled
// distribution so a caller can draw a histogram.
type BootstrapResult struct {
	Low     float64
	High    float64
	Samples []float64
}

// BootstrapUplift resamples each group's per-observation rates with
// replacement, computes mean(variant) - mean(baseline) for each
// resample, and returns the 2.5th-97.5th percentile interval of the
// resulting distribution. The seed is explicit: the same seed, inputs
// and resample count always produce the same interval.
func BootstrapUplift(ratesA, ratesB []float64, resamples int, seed int64) (BootstrapResult, error) {
	return BootstrapPercentiles(ratesA, ratesB, resamples, 2.5, 97.5, seed)
}

// BootstrapPercentiles is BootstrapUplift with caller-chosen percentile
// bounds. A single-observation group is valid: every resample equals
// that one value and the group contributes no variance. Interactive
// callers should keep resamples in the low thousands.
func BootstrapPercentiles(ratesA, ratesB []float64, resamples int, pctLow, pctHigh float64, seed int64) (BootstrapResult, error) {
	if len(ratesA) == 0 || len(ratesB) == 0 {
		return BootstrapResult{}, fmt.Errorf("%w: bootstrap needs at least one rate per group", ErrDegenerateInput)
	}
	if resamples < 1 {
		return BootstrapResult{}, fmt.Errorf("%w: resamples must be positive, got %d", ErrDegenerateInput, resamples)
	}
	if pctLow < 0 || pctHigh > 100 || pctLow >= pctHigh {
		return BootstrapResult{}, fmt.Errorf("%w: bad percentile bounds (%v, %v)", ErrDegenerateInput, pctLow, pctHigh)
	}

	rnd := rand.New(rand.NewSource(seed))

	samples := make([]float64, resamples)
	for i := range samples {
		samples[i] = resampleMean(rnd, ratesB) - resampleMean(rnd, ratesA)
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return BootstrapResult{
		Low:     percentile(sorted, pctLow),
		High:    percentile(sorted, pctHigh),
		Samples: samples,
	}, nil
}

func resampleMean(rnd *rand.Rand, rates []float64) float64 {
	sum := 0.0
	for range rates {
		sum += rates[rnd.Intn(len(rates))]
	}
	return sum / float64(len(rates))
}

// percentile interpolates linearly between order statistics, matching
// the default behavior of most numeric packages. The input must be
// sorted ascending.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := pct / 100 * float64(len(sorted)-1)
	lo := int(h)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
