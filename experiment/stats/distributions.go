// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stats

import "math"

// Distribution functions.
//
// The exact p-value path needs the t and chi-square CDFs, which reduce to the
// regularized incomplete beta and gamma functions. Both are implemented with
// the standard series/continued-fraction split; accuracy is far beyond what a
// significance decision needs.

// normalCDF approximates the standard normal CDF.
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// zScore returns the z-score for a given percentile.
func zScore(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// tTwoTailedPValue returns the exact two-tailed p-value for a t statistic.
//
// P(|T| > t) = I_x(df/2, 1/2) with x = df/(df + t²).
func tTwoTailedPValue(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	t = math.Abs(t)
	x := df / (df + t*t)
	return clamp01(regIncompleteBeta(df/2, 0.5, x))
}

// chiSquareUpperPValue returns P(X > x) for a chi-square variable.
func chiSquareUpperPValue(x, df float64) float64 {
	if x <= 0 || df <= 0 {
		return 1
	}
	return clamp01(1 - regLowerGamma(df/2, x/2))
}

// clamp01 clamps to [0, 1].
func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// -----------------------------------------------------------------------------
// Regularized Incomplete Beta
// -----------------------------------------------------------------------------

// regIncompleteBeta computes I_x(a, b).
func regIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lg1, _ := math.Lgamma(a + b)
	lg2, _ := math.Lgamma(a)
	lg3, _ := math.Lgamma(b)
	front := math.Exp(lg1 - lg2 - lg3 + a*math.Log(x) + b*math.Log(1-x))

	// Use the continued fraction on the side where it converges fast.
	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction evaluates the incomplete beta continued fraction
// with the modified Lentz method.
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
		m2 := 2 * fm

		// Even step.
		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		result *= d * c

		// Odd step.
		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
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

// -----------------------------------------------------------------------------
// Regularized Lower Incomplete Gamma
// -----------------------------------------------------------------------------

// regLowerGamma computes P(a, x) = γ(a, x)/Γ(a).
func regLowerGamma(a, x float64) float64 {
	if x <= 0 || a <= 0 {
		return 0
	}
	if x < a+1 {
		return gammaSeries(a, x)
	}
	return 1 - gammaContinuedFraction(a, x)
}

// gammaSeries evaluates P(a, x) by series expansion, for x < a+1.
func gammaSeries(a, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
	)

	lg, _ := math.Lgamma(a)
	ap := a
	sum := 1 / a
	del := sum
	for i := 0; i < maxIterations; i++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*epsilon {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x)-lg)
}

// gammaContinuedFraction evaluates Q(a, x) = 1 - P(a, x) by continued
// fraction, for x >= a+1.
func gammaContinuedFraction(a, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	lg, _ := math.Lgamma(a)
	b := x + 1 - a
	c := 1 / tiny
	d := 1 / b
	result := d
	for i := 1; i <= maxIterations; i++ {
		fi := float64(i)
		an := -fi * (fi - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = b + an/c
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
	return result * math.Exp(-x+a*math.Log(x)-lg)
}
