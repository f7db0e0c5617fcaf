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
	"encoding/json"
	"log/slog"
	"time"

	"github.com/AleutianAI/abkit/storage"
)

// Persistence mirrors.
//
// The in-memory tables are the source of truth; the store holds JSON mirrors
// written best-effort. A failed mirror write is logged and dropped, never
// surfaced to the caller.

const (
	// experimentTTL keeps experiment mirrors for roughly a release cycle.
	experimentTTL = 90 * 24 * time.Hour

	// assignmentTTL matches the longest experiment runtime we expect.
	assignmentTTL = 30 * 24 * time.Hour

	// conversionTTL matches assignmentTTL so the two expire together.
	conversionTTL = 30 * 24 * time.Hour

	// resultsTTL is short: analysis snapshots go stale quickly.
	resultsTTL = time.Hour
)

// mirrorExperiment writes the experiment JSON mirror.
func (e *Engine) mirrorExperiment(ctx context.Context, exp *Experiment) {
	data, err := json.Marshal(exp)
	if err != nil {
		e.logger.Warn("experiment mirror marshal failed",
			slog.String("experiment_id", exp.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := e.store.Set(ctx, storage.ExperimentKey(exp.ID), data, experimentTTL); err != nil {
		e.logger.Warn("experiment mirror write failed",
			slog.String("experiment_id", exp.ID),
			slog.String("error", err.Error()),
		)
	}
}

// mirrorAssignment writes the assignment JSON mirror.
func (e *Engine) mirrorAssignment(ctx context.Context, a *Assignment) {
	data, err := json.Marshal(a)
	if err != nil {
		e.logger.Warn("assignment mirror marshal failed",
			slog.String("experiment_id", a.ExperimentID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := e.store.Set(ctx, storage.AssignmentKey(a.UserID, a.ExperimentID), data, assignmentTTL); err != nil {
		e.logger.Warn("assignment mirror write failed",
			slog.String("experiment_id", a.ExperimentID),
			slog.String("error", err.Error()),
		)
	}
}

// mirrorConversion appends the event to the per-user conversion mirror.
//
// Mirrors are keyed by (experiment, user); the event list for a pair is
// read, appended, and rewritten. Lost updates between processes are
// acceptable for a best-effort mirror.
func (e *Engine) mirrorConversion(ctx context.Context, event *ConversionEvent) {
	key := storage.ConversionKey(event.ExperimentID, event.UserID)

	var events []ConversionEvent
	if existing, found, err := e.store.Get(ctx, key); err == nil && found {
		if err := json.Unmarshal(existing, &events); err != nil {
			e.logger.Debug("conversion mirror reset after decode failure",
				slog.String("experiment_id", event.ExperimentID),
			)
			events = nil
		}
	}
	events = append(events, *event)

	data, err := json.Marshal(events)
	if err != nil {
		e.logger.Warn("conversion mirror marshal failed",
			slog.String("experiment_id", event.ExperimentID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := e.store.Set(ctx, key, data, conversionTTL); err != nil {
		e.logger.Warn("conversion mirror write failed",
			slog.String("experiment_id", event.ExperimentID),
			slog.String("error", err.Error()),
		)
	}
}

// mirrorResults caches an analysis snapshot under the results key.
func (e *Engine) mirrorResults(ctx context.Context, experimentID string, results any) {
	data, err := json.Marshal(results)
	if err != nil {
		e.logger.Warn("results mirror marshal failed",
			slog.String("experiment_id", experimentID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := e.store.Set(ctx, storage.ResultsKey(experimentID), data, resultsTTL); err != nil {
		e.logger.Warn("results mirror write failed",
			slog.String("experiment_id", experimentID),
			slog.String("error", err.Error()),
		)
	}
}
