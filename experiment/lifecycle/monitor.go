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
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/abkit/experiment"
)

// -----------------------------------------------------------------------------
// Health Monitor
// -----------------------------------------------------------------------------

// Start launches the background health monitor.
//
// Description:
//
//	On every interval the monitor lists ACTIVE experiments (a short
//	read), evaluates their health concurrently, and emits a Warn log
//	for every critical result. Health evaluation takes its own short
//	reads per experiment; the engine lock is never held across a sweep.
//	Starting a running monitor is a no-op.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.monitorStop != nil {
		return
	}
	m.monitorStop = make(chan struct{})
	m.monitorDone = make(chan struct{})
	go m.runMonitor(m.monitorStop, m.monitorDone)

	m.logger.Info("health monitor started",
		slog.Duration("interval", m.monitorInterval),
	)
}

// Stop halts the monitor and waits for the current sweep to finish.
// Stopping a stopped monitor is a no-op.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop, done := m.monitorStop, m.monitorDone
	m.monitorStop, m.monitorDone = nil, nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	m.logger.Info("health monitor stopped")
}

// runMonitor is the monitor goroutine.
func (m *Manager) runMonitor(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep(context.Background())
		case <-stop:
			return
		}
	}
}

// sweep evaluates the health of every ACTIVE experiment.
func (m *Manager) sweep(ctx context.Context) {
	active := experiment.StatusActive
	experiments := m.engine.ListExperiments(experiment.Filter{Status: &active})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.monitorConcurrency)
	for _, exp := range experiments {
		id := exp.ID
		g.Go(func() error {
			h, err := m.GetExperimentHealth(ctx, id)
			if err != nil {
				// Raced with removal; nothing to alert on.
				return nil
			}
			if h.Status == HealthCritical {
				m.logger.Warn("experiment health critical",
					slog.String("experiment_id", id),
					slog.Float64("score", h.Score),
					slog.Any("issues", h.Issues),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}
