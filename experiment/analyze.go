// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/abkit/experiment/stats"
)

// MetricAnalysis pairs one metric with its variant analysis.
type MetricAnalysis struct {
	Metric   string          `json:"metric"`
	Analysis *stats.Analysis `json:"analysis"`
}

// AnalyzeExperiment runs the statistical analysis for one metric of an
// experiment.
//
// Description:
//
//	Groups the experiment's conversion values by variant, compares every
//	treatment against control at the experiment's configured confidence
//	level, records p-value, lift, and power telemetry per comparison, and
//	caches the result JSON in the store under the results key.
//
// Inputs:
//   - ctx: Context for telemetry and the results mirror.
//   - id: The experiment id.
//   - metric: Which declared metric to analyze.
//   - opts: Test selection. The zero value selects the exact t-test. A
//     zero ConfidenceLevel is replaced by the experiment's own.
//
// Outputs:
//   - *stats.Analysis: The full comparison.
//   - error: ErrNotFound, ErrUnknownMetric, or a stats error when no
//     control data exists yet.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) AnalyzeExperiment(ctx context.Context, id, metric string, opts stats.Options) (*stats.Analysis, error) {
	e.mu.RLock()
	exp, ok := e.experiments[id]
	if !ok {
		e.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !exp.HasMetric(metric) {
		e.mu.RUnlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	confidence := exp.ConfidenceLevel
	data := make(map[string][]float64)
	for _, ev := range e.conversions[id] {
		if ev.Metric == metric {
			data[ev.Variant] = append(data[ev.Variant], ev.Value)
		}
	}
	e.mu.RUnlock()

	if opts.ConfidenceLevel == 0 {
		opts.ConfidenceLevel = confidence
	}
	analysis, err := stats.Analyze(data, opts)
	if err != nil {
		return nil, err
	}

	for variant, result := range analysis.Comparisons {
		e.sink.ObservePValue(ctx, id, variant, result.PValue)
		e.sink.ObserveLift(ctx, id, variant, result.Lift)
		e.sink.ObservePower(ctx, id, variant, result.Power)
	}
	e.mirrorResults(ctx, id, MetricAnalysis{Metric: metric, Analysis: analysis})

	e.logger.Info("experiment analyzed",
		slog.String("experiment_id", id),
		slog.String("metric", metric),
		slog.Int("samples", analysis.TotalSamples),
		slog.String("recommendation", analysis.Recommendation),
	)
	return analysis, nil
}

// AnalyzeAllMetrics runs AnalyzeExperiment for every declared metric.
//
// Metrics with no control data yet are skipped rather than failing the
// whole sweep.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) AnalyzeAllMetrics(ctx context.Context, id string, opts stats.Options) ([]MetricAnalysis, error) {
	exp, err := e.Experiment(id)
	if err != nil {
		return nil, err
	}

	out := make([]MetricAnalysis, 0, len(exp.Metrics))
	for _, metric := range exp.Metrics {
		analysis, err := e.AnalyzeExperiment(ctx, id, metric, opts)
		if err != nil {
			e.logger.Debug("metric skipped during analysis",
				slog.String("experiment_id", id),
				slog.String("metric", metric),
				slog.String("reason", err.Error()),
			)
			continue
		}
		out = append(out, MetricAnalysis{Metric: metric, Analysis: analysis})
	}
	return out, nil
}
