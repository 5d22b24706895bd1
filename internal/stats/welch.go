package stats

import (
	"fmt"
	"math"
)

// TTestResult holds a Welch's t-test outcome.
type TTestResult struct {
	TStat  float64
	DF     float64
	PValue float64
}

// WelchTTest runs the two-sample t-test for a difference in means
// without assuming equal variances. The t statistic is
// (mean(b) - mean(a)) / sqrt(sa^2/na + sb^2/nb) with
// Welch-Satterthwaite degrees of freedom, p-value two-sided. Samples
// with fewer than two values have no variance and are rejected, as are
// pairs whose pooled spread is exactly zero.
func WelchTTest(a, b []float64) (TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TTestResult{}, fmt.Errorf("%w: Welch's t-test needs at least 2 samples per group (got %d and %d)", ErrDegenerateInput, len(a), len(b))
	}

	meanA, varA := meanVariance(a)
	meanB, varB := meanVariance(b)

	na := float64(len(a))
	nb := float64(len(b))

	seSq := varA/na + varB/nb
	if seSq == 0 {
		return TTestResult{}, fmt.Errorf("%w: both samples have zero variance", ErrDegenerateInput)
	}

	t := (meanB - meanA) / math.Sqrt(seSq)
	df := seSq * seSq / ((varA/na)*(varA/na)/(na-1) + (varB/nb)*(varB/nb)/(nb-1))

	return TTestResult{
		TStat:  t,
		DF:     df,
		PValue: studentTwoSidedP(t, df),
	}, nil
}

func meanVariance(xs []float64) (mean, variance float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return mean, variance
}

// studentTwoSidedP is P(|T| >= |t|) for a Student's t variable with df
// degrees of freedom: the regularized incomplete beta
// I_{df/(df+t^2)}(df/2, 1/2).
func studentTwoSidedP(t, df float64) float64 {
	return regIncompleteBeta(df/2, 0.5, df/(df+t*t))
}

// regIncompleteBeta computes the regularized incomplete beta function
// I_x(a, b) with the continued-fraction expansion, switching to the
// symmetric form when x is past the distribution's bulk so the fraction
// converges quickly.
func regIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lgab, _ := math.Lgamma(a + b)
	lga, _ := math.Lgamma(a)
	lgb, _ := math.Lgamma(b)
	front := math.Exp(lgab - lga - lgb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction evaluates the incomplete beta continued
// fraction by the modified Lentz method.
func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	result := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)

		// Even step.
		num := fm * (b - fm) * x / ((qam + 2*fm) * (a + 2*fm))
		d = 1 + num*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + num/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		result *= d * c

		// Odd step.
		num = -(a + fm) * (qab + fm) * x / ((a + 2*fm) * (qap + 2*fm))
		d = 1 + num*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + num/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		result *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}

	return result
}
