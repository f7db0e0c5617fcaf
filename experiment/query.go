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
	"fmt"
	"sort"
)

// -----------------------------------------------------------------------------
// Read-Only Queries
// -----------------------------------------------------------------------------

// Experiment returns a deep copy of an experiment.
//
// Outputs:
//   - *Experiment: A copy safe to read without synchronization.
//   - error: ErrNotFound for an unknown id.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Experiment(id string) (*Experiment, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	exp, ok := e.experiments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return exp.clone(), nil
}

// GetExperimentSummary returns the experiment projection with live counters.
//
// Outputs:
//   - *Summary: Name, status, variant list, per-variant assignment counts
//     and total conversions.
//   - error: ErrNotFound for an unknown id.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) GetExperimentSummary(id string) (*Summary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	exp, ok := e.experiments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	counts := make(map[string]int, len(exp.Variants))
	for name := range exp.Variants {
		counts[name] = 0
	}
	total := 0
	for _, a := range e.assignments {
		if a.ExperimentID == id {
			counts[a.Variant]++
			total++
		}
	}

	return &Summary{
		ID:               exp.ID,
		Name:             exp.Name,
		Status:           exp.Status,
		CreatedAt:        exp.CreatedAt,
		UpdatedAt:        exp.UpdatedAt,
		Variants:         exp.VariantNames(),
		Metrics:          append([]string(nil), exp.Metrics...),
		Tags:             append([]string(nil), exp.Tags...),
		TotalAssignments: total,
		VariantCounts:    counts,
		TotalConversions: len(e.conversions[id]),
		MinSampleSize:    exp.MinSampleSize,
		ConfidenceLevel:  exp.ConfidenceLevel,
	}, nil
}

// ListExperiments returns copies of the experiments matching the filter,
// ordered by creation time (oldest first), breaking ties by id.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) ListExperiments(filter Filter) []*Experiment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Experiment, 0, len(e.experiments))
	for _, exp := range e.experiments {
		if filter.Status != nil && exp.Status != *filter.Status {
			continue
		}
		if len(filter.Tags) > 0 && !exp.hasAllTags(filter.Tags) {
			continue
		}
		out = append(out, exp.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ConversionValues groups the conversion values for one metric by variant.
//
// Outputs:
//   - map[string][]float64: Variant name → recorded values in append order.
//     Variants with no events are absent from the map.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) ConversionValues(experimentID, metric string) map[string][]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string][]float64)
	for _, ev := range e.conversions[experimentID] {
		if ev.Metric == metric {
			out[ev.Variant] = append(out[ev.Variant], ev.Value)
		}
	}
	return out
}

// AssignmentCounts returns the per-variant assignment counts for an experiment.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) AssignmentCounts(experimentID string) map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]int)
	for _, a := range e.assignments {
		if a.ExperimentID == experimentID {
			out[a.Variant]++
		}
	}
	return out
}
