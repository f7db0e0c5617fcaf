// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lifecycle is the orchestration layer above the experiment engine:
// templates for common experiment shapes, time-based scheduling, periodic
// health monitoring with alerting, report generation, and retention cleanup.
package lifecycle

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/abkit/experiment"
	"github.com/AleutianAI/abkit/pkg/logging"
	"github.com/AleutianAI/abkit/storage"
	"github.com/AleutianAI/abkit/telemetry"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnknownTemplate indicates the template name is not registered.
	ErrUnknownTemplate = errors.New("unknown experiment template")

	// ErrInvalidSchedule indicates the start/end times are not usable.
	ErrInvalidSchedule = errors.New("invalid experiment schedule")
)

// -----------------------------------------------------------------------------
// Manager
// -----------------------------------------------------------------------------

// Manager orchestrates experiments over their whole lifespan.
//
// Description:
//
//	Manager owns the template registry, the per-experiment schedule
//	timers, and the background health monitor. It drives the engine
//	through its public API only; engine state stays authoritative.
//
// Thread Safety: Safe for concurrent use.
type Manager struct {
	engine *experiment.Engine
	store  storage.Store
	sink   telemetry.Sink
	logger *slog.Logger
	clock  func() time.Time

	mu        sync.Mutex
	templates map[string]Template
	schedules map[string]*schedule

	monitorInterval    time.Duration
	monitorConcurrency int
	monitorStop        chan struct{}
	monitorDone        chan struct{}
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore wires the archive target for cleanup.
func WithStore(store storage.Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithSink wires the telemetry collaborator.
func WithSink(sink telemetry.Sink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.sink = sink
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithMonitorInterval sets the health sweep interval.
func WithMonitorInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.monitorInterval = interval
		}
	}
}

// WithMonitorConcurrency bounds concurrent health evaluations per sweep.
func WithMonitorConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.monitorConcurrency = n
		}
	}
}

// NewManager creates a Manager over an engine, with the built-in templates
// pre-registered.
//
// Outputs:
//   - *Manager: The new manager. Never nil.
func NewManager(engine *experiment.Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:             engine,
		store:              storage.NopStore{},
		sink:               telemetry.NopSink{},
		logger:             logging.Default().Slog(),
		clock:              time.Now,
		templates:          make(map[string]Template),
		schedules:          make(map[string]*schedule),
		monitorInterval:    time.Minute,
		monitorConcurrency: 4,
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, tpl := range builtinTemplates() {
		m.templates[tpl.Name] = tpl
	}
	return m
}

// Engine returns the underlying engine.
func (m *Manager) Engine() *experiment.Engine { return m.engine }

// Close stops the monitor and cancels every pending schedule.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) Close() error {
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.schedules {
		s.cancel()
		delete(m.schedules, id)
	}
	return nil
}
