package stats_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/uplift-stats/uplift/internal/stats"
)

// Hand-checked case: means 3 and 4, equal variances 2.5, n=5 each.
// t = 1, Welch-Satterthwaite df = 8, two-sided p ~ 0.3466.
func TestWelchTTest_KnownValue(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 3, 4, 5, 6}

	result, err := stats.WelchTTest(a, b)
	if err != nil {
		t.Fatalf("WelchTTest failed: %v", err)
	}

	if math.Abs(result.TStat-1) > 1e-9 {
		t.Errorf("t %f, want 1", result.TStat)
	}
	if math.Abs(result.DF-8) > 1e-9 {
		t.Errorf("df %f, want 8", result.DF)
	}
	if math.Abs(result.PValue-0.3466) > 0.001 {
		t.Errorf("p %f, want ~0.3466", result.PValue)
	}
}

func TestWelchTTest_IdenticalSamples(t *testing.T) {
	a := []float64{0.10, 0.12, 0.08, 0.11}

	result, err := stats.WelchTTest(a, a)
	if err != nil {
		t.Fatalf("WelchTTest failed: %v", err)
	}

	if result.TStat != 0 {
		t.Errorf("t %f, want 0", result.TStat)
	}
	if math.Abs(result.PValue-1) > 1e-9 {
		t.Errorf("p %f, want 1", result.PValue)
	}
}

func TestWelchTTest_SameDistribution(t *testing.T) {
	// Two seeded draws from the same normal distribution should not
	// look significantly different.
	rnd := rand.New(rand.NewSource(99))
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = 0.10 + 0.02*rnd.NormFloat64()
		b[i] = 0.10 + 0.02*rnd.NormFloat64()
	}

	result, err := stats.WelchTTest(a, b)
	if err != nil {
		t.Fatalf("WelchTTest failed: %v", err)
	}
	if result.PValue <= 0.05 {
		t.Errorf("identical distributions flagged significant: p=%f", result.PValue)
	}
}

func TestWelchTTest_ClearDifference(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	a := make([]float64, 40)
	b := make([]float64, 40)
	for i := range a {
		a[i] = 0.10 + 0.01*rnd.NormFloat64()
		b[i] = 0.20 + 0.01*rnd.NormFloat64()
	}

	result, err := stats.WelchTTest(a, b)
	if err != nil {
		t.Fatalf("WelchTTest failed: %v", err)
	}
	if result.PValue >= 0.001 {
		t.Errorf("10pp gap at tiny variance should be overwhelming: p=%f", result.PValue)
	}
	if result.TStat <= 0 {
		t.Errorf("t %f should be positive for a higher second sample", result.TStat)
	}
}

func TestWelchTTest_TooFewSamples(t *testing.T) {
	cases := [][2][]float64{
		{{1}, {1, 2}},
		{{1, 2}, {3}},
		{nil, {1, 2}},
	}
	for _, c := range cases {
		_, err := stats.WelchTTest(c[0], c[1])
		if !errors.Is(err, stats.ErrDegenerateInput) {
			t.Errorf("samples %v/%v: expected ErrDegenerateInput, got %v", c[0], c[1], err)
		}
	}
}

func TestWelchTTest_ZeroVariance(t *testing.T) {
	_, err := stats.WelchTTest([]float64{2, 2, 2}, []float64{2, 2, 2})
	if !errors.Is(err, stats.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput for zero variance, got %v", err)
	}
}
