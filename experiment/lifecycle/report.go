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

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AleutianAI/abkit/experiment"
	"github.com/AleutianAI/abkit/experiment/stats"
)

// -----------------------------------------------------------------------------
// Reporting
// -----------------------------------------------------------------------------

// Report composes everything known about an experiment into one document.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`

	Summary *experiment.Summary `json:"summary"`
	Health  *Health             `json:"health"`

	// Analyses holds one analysis per metric with data.
	Analyses []experiment.MetricAnalysis `json:"analyses,omitempty"`

	// Recommendations aggregates derived follow-ups across health and
	// every analyzed metric.
	Recommendations []string `json:"recommendations"`
}

// GenerateExperimentReport builds the full report for one experiment.
//
// Description:
//
//	Composes the summary, the health evaluation, and an analysis per
//	declared metric, then derives a recommendation list: significance
//	call-outs per winning variant, "increase sample" for comparisons
//	with power under 0.8, and "continue collecting data" while under
//	the minimum sample size.
//
// Inputs:
//   - ctx: Context for telemetry and the results mirror.
//   - id: The experiment id.
//   - opts: Test selection for the analyses.
//
// Outputs:
//   - *Report: The composed report.
//   - error: The engine's ErrNotFound for unknown ids.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) GenerateExperimentReport(ctx context.Context, id string, opts stats.Options) (*Report, error) {
	summary, err := m.engine.GetExperimentSummary(id)
	if err != nil {
		return nil, err
	}
	health, err := m.GetExperimentHealth(ctx, id)
	if err != nil {
		return nil, err
	}
	analyses, err := m.engine.AnalyzeAllMetrics(ctx, id, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt: m.clock(),
		Summary:     summary,
		Health:      health,
		Analyses:    analyses,
	}
	report.Recommendations = deriveRecommendations(summary, health, analyses)
	return report, nil
}

// deriveRecommendations builds the aggregated recommendation list.
func deriveRecommendations(summary *experiment.Summary, health *Health, analyses []experiment.MetricAnalysis) []string {
	var out []string

	for _, ma := range analyses {
		for _, variant := range sortedComparisonKeys(ma.Analysis) {
			result := ma.Analysis.Comparisons[variant]
			if result.Significant {
				out = append(out, fmt.Sprintf(
					"%s: variant %q differs significantly from control (p=%.4f, lift %.1f%%)",
					ma.Metric, variant, result.PValue, result.Lift))
			}
			if result.Power < 0.8 {
				out = append(out, fmt.Sprintf(
					"%s: variant %q is underpowered (%.2f); increase sample size",
					ma.Metric, variant, result.Power))
			}
		}
		if best := ma.Analysis.BestVariant; best != "" && ma.Analysis.Comparisons[best].Lift > 0 {
			out = append(out, fmt.Sprintf("%s: %s", ma.Metric, ma.Analysis.Recommendation))
		}
	}

	if summary.TotalAssignments < summary.MinSampleSize {
		out = append(out, "continue collecting data until the minimum sample size is reached")
	}
	out = append(out, health.Recommendations...)
	return out
}

// sortedComparisonKeys returns comparison variants in stable order.
func sortedComparisonKeys(a *stats.Analysis) []string {
	keys := make([]string, 0, len(a.Comparisons))
	for k := range a.Comparisons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
