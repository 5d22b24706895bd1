package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/uplift-stats/uplift/internal/stats"
)

func TestPosterior_Parameters(t *testing.T) {
	posterior, err := stats.Posterior(summary("A", 500, 50))
	if err != nil {
		t.Fatalf("Posterior failed: %v", err)
	}

	if posterior.Alpha != 51 {
		t.Errorf("alpha %f, want 51 (conversions+1)", posterior.Alpha)
	}
	if posterior.Beta != 451 {
		t.Errorf("beta %f, want 451 (visitors-conversions+1)", posterior.Beta)
	}
}

func TestPosterior_MeanConvergesToEmpiricalRate(t *testing.T) {
	// Fixed 10% rate, growing visitor counts: the posterior mean
	// approaches 0.10 as the prior washes out.
	previousGap := math.Inf(1)
	for _, n := range []int{10, 100, 1000, 100000} {
		posterior, err := stats.Posterior(summary("A", n, n/10))
		if err != nil {
			t.Fatalf("Posterior failed at n=%d: %v", n, err)
		}
		gap := math.Abs(posterior.Mean() - 0.10)
		if gap >= previousGap {
			t.Errorf("gap to empirical rate grew at n=%d: %f -> %f", n, previousGap, gap)
		}
		previousGap = gap
	}
	if previousGap > 0.0001 {
		t.Errorf("posterior mean still %f away from 0.10 at n=100000", previousGap)
	}
}

func TestPosterior_UniformPriorWithNoConversions(t *testing.T) {
	posterior, err := stats.Posterior(summary("A", 10, 0))
	if err != nil {
		t.Fatalf("Posterior failed: %v", err)
	}
	// Beta(1, 11): mean 1/12.
	if math.Abs(posterior.Mean()-1.0/12.0) > 1e-12 {
		t.Errorf("mean %f, want 1/12", posterior.Mean())
	}
}

func TestPosterior_ZeroVisitors(t *testing.T) {
	_, err := stats.Posterior(summary("A", 0, 0))
	if !errors.Is(err, stats.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestBeta_PDFIntegratesToOne(t *testing.T) {
	b := stats.Beta{Alpha: 51, Beta: 451}

	// Trapezoid rule over a fine grid; the density lives well inside (0, 1).
	const steps = 20000
	sum := 0.0
	for i := 0; i <= steps; i++ {
		x := float64(i) / steps
		w := 1.0
		if i == 0 || i == steps {
			w = 0.5
		}
		sum += w * b.PDF(x)
	}
	integral := sum / steps

	if math.Abs(integral-1) > 0.001 {
		t.Errorf("PDF integrates to %f, want ~1", integral)
	}
}

func TestBeta_PDFZeroOutsideSupport(t *testing.T) {
	b := stats.Beta{Alpha: 3, Beta: 7}
	for _, x := range []float64{-0.5, 0, 1, 1.5} {
		if got := b.PDF(x); got != 0 {
			t.Errorf("PDF(%f) = %f, want 0", x, got)
		}
	}
}

func TestBeta_PDFPeaksNearMode(t *testing.T) {
	// Beta(51, 451): mode at (a-1)/(a+b-2) = 50/500 = 0.10.
	b := stats.Beta{Alpha: 51, Beta: 451}
	mode := b.PDF(0.10)
	if b.PDF(0.05) >= mode || b.PDF(0.20) >= mode {
		t.Error("density should peak near the mode 0.10")
	}
}

func TestBeta_Curve(t *testing.T) {
	b := stats.Beta{Alpha: 2, Beta: 2}
	xs, ys := b.Curve(0, 1, 101)

	if len(xs) != 101 || len(ys) != 101 {
		t.Fatalf("expected 101 points, got %d/%d", len(xs), len(ys))
	}
	if xs[0] != 0 || xs[100] != 1 {
		t.Errorf("grid endpoints %f..%f, want 0..1", xs[0], xs[100])
	}
	// Beta(2,2) is symmetric with peak at 0.5.
	if ys[50] <= ys[25] || ys[50] <= ys[75] {
		t.Error("Beta(2,2) density should peak at the middle of the grid")
	}
}
