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
	"math"
	"testing"
)

func TestDescribe(t *testing.T) {
	t.Run("basic statistics", func(t *testing.T) {
		got := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 0.95)

		if got.N != 8 {
			t.Errorf("N = %d, want 8", got.N)
		}
		if got.Mean != 5 {
			t.Errorf("Mean = %v, want 5", got.Mean)
		}
		// Textbook population stddev for this set is exactly 2.
		if math.Abs(got.StdDev-2) > 1e-12 {
			t.Errorf("StdDev = %v, want 2", got.StdDev)
		}
	})

	t.Run("confidence interval brackets the mean", func(t *testing.T) {
		got := Describe(synthetic(100, 10, 1), 0.95)

		if got.CILower >= got.Mean || got.CIUpper <= got.Mean {
			t.Errorf("CI [%v, %v] does not bracket mean %v", got.CILower, got.CIUpper, got.Mean)
		}
		wantMargin := 1.96 * got.StdDev / 10
		if math.Abs((got.CIUpper-got.CILower)/2-wantMargin) > 1e-9 {
			t.Errorf("CI half-width = %v, want %v", (got.CIUpper-got.CILower)/2, wantMargin)
		}
	})

	t.Run("higher confidence widens the interval", func(t *testing.T) {
		values := synthetic(50, 10, 2)
		narrow := Describe(values, 0.90)
		wide := Describe(values, 0.99)

		if wide.CIUpper-wide.CILower <= narrow.CIUpper-narrow.CILower {
			t.Error("99% interval should be wider than 90%")
		}
	})

	t.Run("single value collapses the interval", func(t *testing.T) {
		got := Describe([]float64{3.5}, 0.95)
		if got.CILower != 3.5 || got.CIUpper != 3.5 {
			t.Errorf("CI [%v, %v], want collapsed to 3.5", got.CILower, got.CIUpper)
		}
	})

	t.Run("empty values", func(t *testing.T) {
		got := Describe(nil, 0.95)
		if got.N != 0 || got.Mean != 0 || got.StdDev != 0 {
			t.Errorf("unexpected stats for empty input: %+v", got)
		}
	})
}

func TestZForConfidence(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{0.90, 1.645},
		{0.95, 1.96},
		{0.975, 1.96},
		{0.99, 2.326},
		{0.995, 2.576},
		{0.123, 1.96}, // untabulated falls back to 0.95
	}
	for _, tt := range tests {
		if got := zForConfidence(tt.level); got != tt.want {
			t.Errorf("zForConfidence(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
