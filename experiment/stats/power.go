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

// -----------------------------------------------------------------------------
// Power Analysis
// -----------------------------------------------------------------------------

// defaultPlanningPower is the target power assumed when the caller does not
// choose one.
const defaultPlanningPower = 0.8

// LegacyPower estimates statistical power from sample sizes and effect size.
//
// Description:
//
//	min(0.95, (n1+n2)/1000 × |d| × 10). This is a rough heuristic, not a
//	proper power calculation; existing reports and their alert thresholds
//	are calibrated against its output range, so it stays the default.
//	PowerNormalApprox gives the statistically grounded figure.
//
// Thread Safety: Stateless, safe for concurrent use.
func LegacyPower(n1, n2 int, effectSize float64) float64 {
	if n1 < 2 || n2 < 2 {
		return 0
	}
	power := float64(n1+n2) / 1000 * math.Abs(effectSize) * 10
	return math.Min(0.95, power)
}

// PowerNormalApprox estimates power with the normal approximation to the
// non-central t distribution.
//
// Inputs:
//   - n1, n2: Group sample sizes.
//   - effectSize: Cohen's d.
//   - alpha: Significance level (e.g., 0.05).
//
// Outputs:
//   - float64: Power in [0, 1].
//
// Thread Safety: Stateless, safe for concurrent use.
func PowerNormalApprox(n1, n2 int, effectSize, alpha float64) float64 {
	if n1 < 2 || n2 < 2 {
		return 0
	}

	// Harmonic mean handles unequal group sizes.
	nHarmonic := 2 * float64(n1) * float64(n2) / float64(n1+n2)
	ncp := math.Abs(effectSize) * math.Sqrt(nHarmonic/2)
	zCrit := zScore(1 - alpha/2)

	return clamp01(1 - normalCDF(zCrit-ncp))
}

// RequiredSampleSize returns the per-group sample size needed to detect the
// difference between two conversion rates.
//
// Description:
//
//	n = ceil(2(zα + zβ)²(p1(1-p1) + p2(1-p2)) / mde²) with
//	mde = |p2 - p1| / p1, the relative minimum detectable effect.
//
// Inputs:
//   - p1, p2: Control and treatment conversion rates.
//   - confidenceLevel: e.g., 0.95.
//   - power: Target power, e.g., 0.8.
//
// Outputs:
//   - int: Required users per group. math.MaxInt32 when the rates are equal
//     or p1 is zero (no finite sample detects a zero relative effect).
//
// Thread Safety: Stateless, safe for concurrent use.
func RequiredSampleSize(p1, p2, confidenceLevel, power float64) int {
	if p1 == 0 || p1 == p2 {
		return math.MaxInt32
	}

	alpha := 1 - confidenceLevel
	zAlpha := zScore(1 - alpha/2)
	zBeta := zScore(power)
	mde := math.Abs(p2-p1) / p1

	n := 2 * (zAlpha + zBeta) * (zAlpha + zBeta) * (p1*(1-p1) + p2*(1-p2)) / (mde * mde)
	return int(math.Ceil(n))
}

// CalculateSampleSizeRequired plans an experiment before any data exists.
//
// Description:
//
//	Standalone planner: given a baseline conversion rate and the relative
//	effect worth detecting, returns the users needed per group.
//
// Inputs:
//   - baselineRate: Expected control conversion rate, in (0, 1).
//   - minDetectableEffect: Relative effect, e.g. 0.1 for a 10% lift.
//   - confidenceLevel: Zero selects 0.95.
//   - power: Target power. Zero selects 0.8.
//
// Outputs:
//   - int: Required users per group.
//
// Thread Safety: Stateless, safe for concurrent use.
func CalculateSampleSizeRequired(baselineRate, minDetectableEffect, confidenceLevel, power float64) int {
	if confidenceLevel == 0 {
		confidenceLevel = 0.95
	}
	if power == 0 {
		power = defaultPlanningPower
	}
	treatment := baselineRate * (1 + minDetectableEffect)
	return RequiredSampleSize(baselineRate, treatment, confidenceLevel, power)
}
