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

import (
	"errors"
	"math"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNoControl indicates the data set lacks the control variant.
	ErrNoControl = errors.New("analysis requires a control variant")

	// ErrNoData indicates the data set is empty.
	ErrNoData = errors.New("analysis requires at least one variant with data")
)

// -----------------------------------------------------------------------------
// Descriptive Statistics
// -----------------------------------------------------------------------------

// VariantStats summarizes one variant's conversion values.
type VariantStats struct {
	// N is the number of conversion values.
	N int `json:"n"`

	// Mean is the arithmetic mean. Zero when N is zero.
	Mean float64 `json:"mean"`

	// StdDev is the population standard deviation.
	StdDev float64 `json:"std_dev"`

	// CILower and CIUpper bound the confidence interval for the mean,
	// mean ± z·σ/√n. With fewer than two values the interval collapses
	// to the mean.
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`

	// ConfidenceLevel is the level the interval was computed at.
	ConfidenceLevel float64 `json:"confidence_level"`
}

// Describe computes descriptive statistics for one variant's values.
//
// Inputs:
//   - values: The conversion values. May be empty.
//   - confidenceLevel: Confidence level for the interval (e.g., 0.95).
//
// Outputs:
//   - VariantStats: Count, mean, population stddev, and normal-approximation
//     confidence interval.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Describe(values []float64, confidenceLevel float64) VariantStats {
	n := len(values)
	m := mean(values)
	sd := math.Sqrt(populationVariance(values, m))

	out := VariantStats{
		N:               n,
		Mean:            m,
		StdDev:          sd,
		CILower:         m,
		CIUpper:         m,
		ConfidenceLevel: confidenceLevel,
	}
	if n > 1 {
		margin := zForConfidence(confidenceLevel) * sd / math.Sqrt(float64(n))
		out.CILower = m - margin
		out.CIUpper = m + margin
	}
	return out
}

// zForConfidence maps a confidence level to its two-tailed z critical value.
//
// Only the levels historical reports used are tabulated; anything else gets
// the 0.95 value.
func zForConfidence(level float64) float64 {
	switch level {
	case 0.90:
		return 1.645
	case 0.95, 0.975:
		return 1.96
	case 0.99:
		return 2.326
	case 0.995:
		return 2.576
	default:
		return 1.96
	}
}

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

// mean calculates the arithmetic mean.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationVariance calculates population variance (divides by n).
func populationVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(values))
}

// sampleVariance calculates sample variance (divides by n-1).
func sampleVariance(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(values)-1)
}
