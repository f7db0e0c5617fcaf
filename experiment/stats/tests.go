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
// Hypothesis Tests
// -----------------------------------------------------------------------------

// Result holds the outcome of one two-sample hypothesis test, comparing a
// treatment variant against control.
type Result struct {
	// Statistic is the raw test statistic (t or chi-square).
	Statistic float64 `json:"statistic"`

	// PValue is the two-tailed p-value.
	PValue float64 `json:"p_value"`

	// Significant is true when PValue < 1 - ConfidenceLevel.
	Significant bool `json:"significant"`

	// ConfidenceLevel is the level the significance call was made at.
	ConfidenceLevel float64 `json:"confidence_level"`

	// EffectSize is Cohen's d with pooled standard deviation. Positive
	// means treatment > control.
	EffectSize float64 `json:"effect_size"`

	// Lift is the relative improvement of treatment over control, in
	// percent. Zero when the control mean is zero.
	Lift float64 `json:"lift"`

	// Power is the estimated probability of detecting the observed effect
	// at the current sample sizes.
	Power float64 `json:"power"`

	// RequiredSampleSize is the per-group sample size needed to confirm
	// the observed difference in rates at this confidence level with 80%
	// power. math.MaxInt32 when the observed means admit no finite answer.
	RequiredSampleSize int `json:"required_sample_size"`

	// ControlN and TreatmentN are the group sizes.
	ControlN   int `json:"control_n"`
	TreatmentN int `json:"treatment_n"`

	// ControlMean and TreatmentMean are the group means.
	ControlMean   float64 `json:"control_mean"`
	TreatmentMean float64 `json:"treatment_mean"`
}

// HypothesisTest compares a treatment sample against a control sample.
//
// Thread Safety: Implementations must be stateless and safe for concurrent
// use.
type HypothesisTest interface {
	// Test runs the comparison at the given confidence level.
	Test(control, treatment []float64, confidenceLevel float64) Result
}

// -----------------------------------------------------------------------------
// T-Test
// -----------------------------------------------------------------------------

// TTest is a two-sample pooled-variance t-test on conversion values.
//
// Description:
//
//	Student's t-test with pooled standard deviation and
//	df = n1 + n2 - 2. The exact p-value comes from the t distribution;
//	Banded selects the historical threshold bands instead
//	(|t| > 2.5 → 0.01, > 2.0 → 0.05, > 1.5 → 0.1, else 0.5).
//
// Thread Safety: Stateless, safe for concurrent use.
type TTest struct {
	// Banded selects banded p-values over exact ones.
	Banded bool
}

// Test implements HypothesisTest.
//
// Groups with fewer than two values yield p = 1, no significance, and zero
// effect and power.
func (t TTest) Test(control, treatment []float64, confidenceLevel float64) Result {
	out := baseResult(control, treatment, confidenceLevel)
	if out.ControlN < 2 || out.TreatmentN < 2 {
		return out
	}

	n1 := float64(out.ControlN)
	n2 := float64(out.TreatmentN)
	var1 := sampleVariance(control, out.ControlMean)
	var2 := sampleVariance(treatment, out.TreatmentMean)

	df := n1 + n2 - 2
	pooledVar := ((n1-1)*var1 + (n2-1)*var2) / df
	pooledSD := math.Sqrt(pooledVar)
	diff := out.TreatmentMean - out.ControlMean

	if pooledSD == 0 {
		// Degenerate samples: identical constants on both sides.
		if diff == 0 {
			out.PValue = 1
			return out
		}
		out.Statistic = math.Inf(sign(diff))
		out.PValue = 0
		out.Significant = true
		out.Lift = lift(out.ControlMean, out.TreatmentMean)
		out.Power = LegacyPower(out.ControlN, out.TreatmentN, math.Inf(1))
		return out
	}

	se := pooledSD * math.Sqrt(1/n1+1/n2)
	out.Statistic = diff / se
	if t.Banded {
		out.PValue = bandedTPValue(out.Statistic)
	} else {
		out.PValue = tTwoTailedPValue(out.Statistic, df)
	}
	out.Significant = out.PValue < 1-confidenceLevel
	out.EffectSize = diff / pooledSD
	out.Lift = lift(out.ControlMean, out.TreatmentMean)
	out.Power = LegacyPower(out.ControlN, out.TreatmentN, out.EffectSize)
	return out
}

// bandedTPValue maps |t| onto the historical p-value bands.
func bandedTPValue(t float64) float64 {
	abs := math.Abs(t)
	switch {
	case abs > 2.5:
		return 0.01
	case abs > 2.0:
		return 0.05
	case abs > 1.5:
		return 0.1
	default:
		return 0.5
	}
}

// -----------------------------------------------------------------------------
// Chi-Square Test
// -----------------------------------------------------------------------------

// ChiSquareTest compares conversion counts between two groups.
//
// Description:
//
//	Treats each group's mean as a conversion rate, reconstructs success
//	counts (mean × n), and tests (s2 - s1)² / (s1 + s2) against the
//	chi-square distribution with one degree of freedom. Banded selects the
//	historical threshold bands (> 6.63 → 0.01, > 3.84 → 0.05,
//	> 2.71 → 0.1, else 0.5).
//
// Thread Safety: Stateless, safe for concurrent use.
type ChiSquareTest struct {
	// Banded selects banded p-values over exact ones.
	Banded bool
}

// Test implements HypothesisTest.
func (c ChiSquareTest) Test(control, treatment []float64, confidenceLevel float64) Result {
	out := baseResult(control, treatment, confidenceLevel)
	if out.ControlN < 2 || out.TreatmentN < 2 {
		return out
	}

	s1 := out.ControlMean * float64(out.ControlN)
	s2 := out.TreatmentMean * float64(out.TreatmentN)
	if s1+s2 == 0 {
		out.PValue = 1
		return out
	}

	diff := s2 - s1
	out.Statistic = diff * diff / (s1 + s2)
	if c.Banded {
		out.PValue = bandedChiSquarePValue(out.Statistic)
	} else {
		out.PValue = chiSquareUpperPValue(out.Statistic, 1)
	}
	out.Significant = out.PValue < 1-confidenceLevel

	// Effect size and power reuse the pooled-sd machinery so the two tests
	// report comparable magnitudes.
	var1 := sampleVariance(control, out.ControlMean)
	var2 := sampleVariance(treatment, out.TreatmentMean)
	n1 := float64(out.ControlN)
	n2 := float64(out.TreatmentN)
	pooledSD := math.Sqrt(((n1-1)*var1 + (n2-1)*var2) / (n1 + n2 - 2))
	if pooledSD > 0 {
		out.EffectSize = (out.TreatmentMean - out.ControlMean) / pooledSD
	}
	out.Lift = lift(out.ControlMean, out.TreatmentMean)
	out.Power = LegacyPower(out.ControlN, out.TreatmentN, out.EffectSize)
	return out
}

// bandedChiSquarePValue maps the statistic onto the historical bands.
func bandedChiSquarePValue(x float64) float64 {
	switch {
	case x > 6.63:
		return 0.01
	case x > 3.84:
		return 0.05
	case x > 2.71:
		return 0.1
	default:
		return 0.5
	}
}

// -----------------------------------------------------------------------------
// Shared Helpers
// -----------------------------------------------------------------------------

// baseResult fills the fields shared by every test, with the degenerate
// small-sample outcome (p = 1, nothing else) pre-applied.
func baseResult(control, treatment []float64, confidenceLevel float64) Result {
	controlMean := mean(control)
	treatmentMean := mean(treatment)
	return Result{
		PValue:          1,
		ConfidenceLevel: confidenceLevel,
		ControlN:        len(control),
		TreatmentN:      len(treatment),
		ControlMean:     controlMean,
		TreatmentMean:   treatmentMean,
		RequiredSampleSize: RequiredSampleSize(
			controlMean, treatmentMean, confidenceLevel, defaultPlanningPower),
	}
}

// lift returns the relative improvement of treatment over control in percent.
func lift(controlMean, treatmentMean float64) float64 {
	if controlMean == 0 {
		return 0
	}
	return (treatmentMean - controlMean) / controlMean * 100
}

// sign returns +1 or -1 for use with math.Inf.
func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

var (
	_ HypothesisTest = TTest{}
	_ HypothesisTest = ChiSquareTest{}
)
