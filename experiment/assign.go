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
)

// AssignOptions carries the optional inputs of AssignUserToVariant.
type AssignOptions struct {
	// SessionID is recorded on the assignment when present.
	SessionID string

	// Attributes are user attributes checked against the experiment's
	// segment rules. Users missing a ruled attribute are not eligible.
	Attributes map[string]string
}

// AssignUserToVariant returns the user's committed variant for an
// experiment, assigning one deterministically on first call.
//
// Description:
//
//	Returns (nil, nil), not an error, when the experiment is unknown or
//	not ACTIVE, when the user fails the segmentation rules, or when the
//	user falls outside the traffic-allocation bucket.
//
//	If an assignment already exists for (userID, experimentID) its variant
//	is returned unchanged. Otherwise the variant is computed from a 64-bit
//	hash over the sorted variant list and committed. The read-or-create
//	sequence runs as one critical section, so unbounded concurrent callers
//	for the same pair converge on a single variant.
//
// Inputs:
//   - ctx: Context for the best-effort persistence mirror.
//   - userID: Caller-defined stable user identity. Must be non-empty.
//   - experimentID: The experiment id.
//   - opts: Optional session id and segmentation attributes.
//
// Outputs:
//   - *Assignment: The committed assignment, or nil when not eligible.
//   - error: Reserved for future hard failures; currently always nil.
//
// Thread Safety: Safe for unbounded concurrent use.
func (e *Engine) AssignUserToVariant(ctx context.Context, userID, experimentID string, opts AssignOptions) (*Assignment, error) {
	if userID == "" {
		return nil, nil
	}

	e.mu.Lock()

	exp, ok := e.experiments[experimentID]
	if !ok || exp.Status != StatusActive {
		e.mu.Unlock()
		return nil, nil
	}
	if !matchesSegment(exp.SegmentRules, opts.Attributes) {
		e.mu.Unlock()
		return nil, nil
	}
	if !inTraffic(userID, exp.TrafficAllocation) {
		e.mu.Unlock()
		return nil, nil
	}

	key := assignmentKey(userID, experimentID)
	if existing, ok := e.assignments[key]; ok {
		// Idempotent read: the first committed variant always wins.
		out := *existing
		e.mu.Unlock()
		return &out, nil
	}

	assignment := &Assignment{
		UserID:       userID,
		ExperimentID: experimentID,
		Variant:      pickVariant(userID, experimentID, exp.VariantNames()),
		AssignedAt:   e.clock(),
		SessionID:    opts.SessionID,
	}
	e.assignments[key] = assignment
	out := *assignment
	e.mu.Unlock()

	e.mirrorAssignment(ctx, &out)
	e.sink.UserAssigned(ctx, experimentID, out.Variant)
	e.logger.Debug("user assigned",
		slog.String("experiment_id", experimentID),
		slog.String("variant", out.Variant),
	)
	return &out, nil
}

// GetAssignment returns the committed assignment for (userID, experimentID),
// or nil when none exists.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) GetAssignment(userID, experimentID string) *Assignment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if a, ok := e.assignments[assignmentKey(userID, experimentID)]; ok {
		out := *a
		return &out
	}
	return nil
}

// TrackConversion appends a conversion event for a previously assigned user.
//
// Description:
//
//	Returns (false, nil), not an error, when the user holds no
//	assignment for the experiment; nothing is appended. The event copies
//	the committed variant from the assignment, which guarantees the
//	write-before-read ordering between assignment and conversion for a
//	given user.
//
// Inputs:
//   - ctx: Context for the best-effort persistence mirror.
//   - userID, experimentID: The assignment identity.
//   - metric: Must be one of the experiment's declared metrics.
//   - value: Numeric conversion value.
//   - metadata: Free-form event metadata. May be nil.
//
// Outputs:
//   - bool: True if an event was recorded.
//   - error: ErrUnknownMetric if metric is not declared on the experiment.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) TrackConversion(ctx context.Context, userID, experimentID, metric string, value float64, metadata map[string]any) (bool, error) {
	e.mu.Lock()

	assignment, ok := e.assignments[assignmentKey(userID, experimentID)]
	if !ok {
		e.mu.Unlock()
		return false, nil
	}

	exp, ok := e.experiments[experimentID]
	if !ok {
		// Assignment outlived its experiment; treat as not assigned.
		e.mu.Unlock()
		return false, nil
	}
	if !exp.HasMetric(metric) {
		e.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	event := ConversionEvent{
		UserID:       userID,
		ExperimentID: experimentID,
		Variant:      assignment.Variant,
		Metric:       metric,
		Value:        value,
		Timestamp:    e.clock(),
		Metadata:     metadata,
	}
	e.conversions[experimentID] = append(e.conversions[experimentID], event)
	e.mu.Unlock()

	e.mirrorConversion(ctx, &event)
	e.sink.ConversionTracked(ctx, experimentID, event.Variant, metric)
	e.sink.ObserveConversionValue(ctx, experimentID, metric, value)
	return true, nil
}
