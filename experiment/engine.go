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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/abkit/pkg/logging"
	"github.com/AleutianAI/abkit/storage"
	"github.com/AleutianAI/abkit/telemetry"
)

// -----------------------------------------------------------------------------
// Engine
// -----------------------------------------------------------------------------

// Engine owns all experimentation state for one process.
//
// Description:
//
//	Engine holds the experiment table, the assignment table, and the
//	conversion log behind a single RWMutex. Collaborators (persistence
//	store, telemetry sink) are optional and default to no-ops.
//
// Thread Safety: Safe for concurrent use.
type Engine struct {
	mu          sync.RWMutex
	experiments map[string]*Experiment
	assignments map[string]*Assignment       // keyed by userID:experimentID
	conversions map[string][]ConversionEvent // keyed by experimentID

	store  storage.Store
	sink   telemetry.Sink
	logger *slog.Logger
	clock  func() time.Time
	newID  func() string
}

// Option configures the Engine.
type Option func(*Engine)

// WithStore wires the persistence collaborator.
func WithStore(store storage.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithSink wires the telemetry collaborator.
func WithSink(sink telemetry.Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New creates an Engine.
//
// Outputs:
//   - *Engine: The new engine with no experiments. Never nil.
func New(opts ...Option) *Engine {
	e := &Engine{
		experiments: make(map[string]*Experiment),
		assignments: make(map[string]*Assignment),
		conversions: make(map[string][]ConversionEvent),
		store:       storage.NopStore{},
		sink:        telemetry.NopSink{},
		logger:      logging.Default().Slog(),
		clock:       time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// -----------------------------------------------------------------------------
// Creation
// -----------------------------------------------------------------------------

// CreateExperiment validates the configuration and creates an experiment in
// DRAFT state.
//
// Inputs:
//   - ctx: Context for the best-effort persistence mirror.
//   - cfg: Experiment parameters. Zero MinSampleSize and ConfidenceLevel
//     select the defaults (1000, 0.95).
//
// Outputs:
//   - string: The generated experiment id.
//   - error: ErrInvalidConfig if variants lack "control", metrics are empty,
//     trafficAllocation is outside (0,1], or confidenceLevel is outside (0,1).
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) CreateExperiment(ctx context.Context, cfg Config) (string, error) {
	cfg.applyDefaults()
	if err := cfg.check(); err != nil {
		return "", err
	}

	now := e.clock()
	exp := &Experiment{
		ID:                e.newID(),
		Name:              cfg.Name,
		Description:       cfg.Description,
		Status:            StatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
		TrafficAllocation: cfg.TrafficAllocation,
		Variants:          cfg.Variants,
		Metrics:           cfg.Metrics,
		SegmentRules:      cfg.SegmentRules,
		MinSampleSize:     cfg.MinSampleSize,
		ConfidenceLevel:   cfg.ConfidenceLevel,
		CreatedBy:         cfg.CreatedBy,
		Tags:              cfg.Tags,
	}
	// The stored experiment must never alias the caller's maps; templates in
	// particular hand the same Config to many creations.
	exp = exp.clone()

	e.mu.Lock()
	e.experiments[exp.ID] = exp
	mirror := exp.clone()
	e.mu.Unlock()

	e.mirrorExperiment(ctx, mirror)
	e.sink.ExperimentCreated(ctx)
	e.logger.Info("experiment created",
		slog.String("experiment_id", exp.ID),
		slog.String("name", exp.Name),
		slog.Int("variants", len(exp.Variants)),
	)
	return exp.ID, nil
}

// -----------------------------------------------------------------------------
// Status Transitions
// -----------------------------------------------------------------------------

// ActivateExperiment transitions DRAFT → ACTIVE.
//
// Outputs:
//   - error: ErrNotFound for an unknown id; ErrInvalidState unless the
//     current status is DRAFT.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) ActivateExperiment(id string) error {
	return e.transition(id, StatusActive, StatusDraft)
}

// PauseExperiment transitions ACTIVE → PAUSED.
func (e *Engine) PauseExperiment(id string) error {
	return e.transition(id, StatusPaused, StatusActive)
}

// ResumeExperiment transitions PAUSED → ACTIVE.
func (e *Engine) ResumeExperiment(id string) error {
	return e.transition(id, StatusActive, StatusPaused)
}

// CompleteExperiment transitions ACTIVE or PAUSED → COMPLETED.
func (e *Engine) CompleteExperiment(id string) error {
	return e.transition(id, StatusCompleted, StatusActive, StatusPaused)
}

// ArchiveExperiment transitions COMPLETED → ARCHIVED.
//
// Intended for the lifecycle manager's retention sweep; application code
// normally leaves completed experiments in place until cleanup.
func (e *Engine) ArchiveExperiment(id string) error {
	return e.transition(id, StatusArchived, StatusCompleted)
}

// transition applies a status change if the current status is one of from.
func (e *Engine) transition(id string, to Status, from ...Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	allowed := false
	for _, f := range from {
		if exp.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s → %s", ErrInvalidState, exp.Status, to)
	}

	now := e.clock()
	exp.Status = to
	exp.UpdatedAt = now
	switch to {
	case StatusActive:
		if exp.StartedAt == nil {
			exp.StartedAt = &now
		}
	case StatusCompleted:
		exp.EndedAt = &now
	}

	e.logger.Info("experiment status changed",
		slog.String("experiment_id", id),
		slog.String("status", string(to)),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Removal
// -----------------------------------------------------------------------------

// RemoveExperiment deletes an experiment together with its assignments and
// conversion events.
//
// Description:
//
//	Used by the lifecycle manager's retention sweep. ACTIVE experiments
//	are never removed.
//
// Outputs:
//   - int: The number of assignments removed alongside the experiment.
//   - error: ErrNotFound for an unknown id; ErrInvalidState if ACTIVE.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) RemoveExperiment(id string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, ok := e.experiments[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if exp.Status == StatusActive {
		return 0, fmt.Errorf("%w: cannot remove an active experiment", ErrInvalidState)
	}

	removed := 0
	for key, a := range e.assignments {
		if a.ExperimentID == id {
			delete(e.assignments, key)
			removed++
		}
	}
	delete(e.conversions, id)
	delete(e.experiments, id)

	e.logger.Info("experiment removed",
		slog.String("experiment_id", id),
		slog.Int("assignments_removed", removed),
	)
	return removed, nil
}
