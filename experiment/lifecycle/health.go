// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lifecycle

import "context"

// -----------------------------------------------------------------------------
// Health Scoring
// -----------------------------------------------------------------------------

// HealthStatus buckets a health score.
type HealthStatus string

const (
	// HealthHealthy is a score of 80 or above.
	HealthHealthy HealthStatus = "healthy"

	// HealthWarning is a score of 60 to 79.
	HealthWarning HealthStatus = "warning"

	// HealthCritical is a score below 60.
	HealthCritical HealthStatus = "critical"
)

// Health scoring deductions and thresholds. The score starts at 100.
const (
	deductionUnderSample = 30
	deductionSkewedSplit = 20
	minVariantRatio      = 0.8
	healthyThreshold     = 80
	warningThreshold     = 60
	considerPauseBelow   = 40
)

// Health is one experiment's health evaluation.
type Health struct {
	ExperimentID string       `json:"experiment_id"`
	Score        float64      `json:"score"`
	Status       HealthStatus `json:"status"`

	// TotalUsers and VariantCounts snapshot the assignment table.
	TotalUsers    int            `json:"total_users"`
	VariantCounts map[string]int `json:"variant_counts"`

	// Issues names the deductions applied.
	Issues []string `json:"issues,omitempty"`

	// Recommendations are derived, human-readable follow-ups.
	Recommendations []string `json:"recommendations,omitempty"`
}

// GetExperimentHealth scores an experiment's data collection health.
//
// Description:
//
//	The score starts at 100. Being under the experiment's minimum sample
//	size deducts 30; a least-to-most-populated variant ratio under 0.8
//	deducts 20 more. Scores of 80+ are healthy, 60+ a warning, the rest
//	critical. The score is also exported on the experiment_health gauge.
//
// Inputs:
//   - ctx: Context for the telemetry gauge.
//   - id: The experiment id.
//
// Outputs:
//   - *Health: The evaluation.
//   - error: The engine's ErrNotFound for unknown ids.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) GetExperimentHealth(ctx context.Context, id string) (*Health, error) {
	summary, err := m.engine.GetExperimentSummary(id)
	if err != nil {
		return nil, err
	}

	h := &Health{
		ExperimentID:  id,
		Score:         100,
		TotalUsers:    summary.TotalAssignments,
		VariantCounts: summary.VariantCounts,
	}

	if summary.TotalAssignments < summary.MinSampleSize {
		h.Score -= deductionUnderSample
		h.Issues = append(h.Issues, "below minimum sample size")
		h.Recommendations = append(h.Recommendations,
			"increase traffic allocation or extend the experiment runtime")
	}

	if ratio, ok := variantRatio(summary.VariantCounts); ok && ratio < minVariantRatio {
		h.Score -= deductionSkewedSplit
		h.Issues = append(h.Issues, "uneven variant distribution")
		h.Recommendations = append(h.Recommendations,
			"investigate variant distribution for assignment skew")
	}

	switch {
	case h.Score >= healthyThreshold:
		h.Status = HealthHealthy
	case h.Score >= warningThreshold:
		h.Status = HealthWarning
	default:
		h.Status = HealthCritical
	}
	if h.Score < considerPauseBelow {
		h.Recommendations = append(h.Recommendations, "consider pausing the experiment")
	}

	m.sink.SetExperimentHealth(ctx, id, h.Score)
	return h, nil
}

// variantRatio returns least/most populated variant counts. ok is false when
// no variant has any assignments yet.
func variantRatio(counts map[string]int) (float64, bool) {
	min, max := -1, 0
	for _, c := range counts {
		if c > max {
			max = c
		}
		if min == -1 || c < min {
			min = c
		}
	}
	if max == 0 {
		return 0, false
	}
	return float64(min) / float64(max), true
}
