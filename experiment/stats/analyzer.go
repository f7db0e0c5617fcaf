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
	"fmt"
	"sort"
)

// -----------------------------------------------------------------------------
// Variant Analysis
// -----------------------------------------------------------------------------

// ControlVariant is the baseline group every treatment is compared against.
const ControlVariant = "control"

// Options selects the test and confidence level for Analyze.
type Options struct {
	// ConfidenceLevel for intervals and significance calls. Zero selects
	// 0.95.
	ConfidenceLevel float64

	// Banded selects banded p-values over exact ones.
	Banded bool

	// ChiSquare selects the chi-square test over the t-test.
	ChiSquare bool
}

// test returns the configured hypothesis test.
func (o Options) test() HypothesisTest {
	if o.ChiSquare {
		return ChiSquareTest{Banded: o.Banded}
	}
	return TTest{Banded: o.Banded}
}

// Analysis is the full comparison of every treatment against control.
type Analysis struct {
	// ConfidenceLevel the analysis ran at.
	ConfidenceLevel float64 `json:"confidence_level"`

	// TotalSamples counts values across all variants.
	TotalSamples int `json:"total_samples"`

	// Variants holds descriptive statistics per variant, control included.
	Variants map[string]VariantStats `json:"variants"`

	// Comparisons holds one test result per non-control variant.
	Comparisons map[string]Result `json:"comparisons"`

	// BestVariant is the significant treatment with the highest lift, or
	// empty when no treatment is significant. The lift may be negative.
	BestVariant string `json:"best_variant,omitempty"`

	// Recommendation is "implement <variant>" when the best variant's lift
	// is positive, otherwise "continue experiment".
	Recommendation string `json:"recommendation"`
}

// Analyze compares every treatment variant against control.
//
// Description:
//
//	Runs descriptive statistics on every variant, then the configured
//	hypothesis test on each (control, treatment) pair. The best variant is
//	the statistically significant treatment with the highest lift; ties
//	break lexicographically so repeated runs agree. Only a positive best
//	lift turns into an "implement" recommendation.
//
// Inputs:
//   - data: Variant name → conversion values. Must contain "control".
//   - opts: Test selection and confidence level.
//
// Outputs:
//   - *Analysis: The full comparison.
//   - error: ErrNoData for an empty map, ErrNoControl when "control" is
//     absent.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Analyze(data map[string][]float64, opts Options) (*Analysis, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	control, ok := data[ControlVariant]
	if !ok {
		return nil, fmt.Errorf("%w: have %d variants", ErrNoControl, len(data))
	}
	if opts.ConfidenceLevel == 0 {
		opts.ConfidenceLevel = 0.95
	}
	test := opts.test()

	out := &Analysis{
		ConfidenceLevel: opts.ConfidenceLevel,
		Variants:        make(map[string]VariantStats, len(data)),
		Comparisons:     make(map[string]Result, len(data)-1),
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	bestLift := 0.0
	for _, name := range names {
		values := data[name]
		out.TotalSamples += len(values)
		out.Variants[name] = Describe(values, opts.ConfidenceLevel)
		if name == ControlVariant {
			continue
		}

		result := test.Test(control, values, opts.ConfidenceLevel)
		out.Comparisons[name] = result

		// Sorted iteration plus strict > keeps the lexicographically
		// first winner on equal lift.
		if result.Significant && (out.BestVariant == "" || result.Lift > bestLift) {
			bestLift = result.Lift
			out.BestVariant = name
		}
	}

	if out.BestVariant != "" && bestLift > 0 {
		out.Recommendation = "implement " + out.BestVariant
	} else {
		out.Recommendation = "continue experiment"
	}
	return out, nil
}
