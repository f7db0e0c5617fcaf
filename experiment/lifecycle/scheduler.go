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
	"fmt"
	"log/slog"
	"time"
)

// -----------------------------------------------------------------------------
// Scheduling
// -----------------------------------------------------------------------------

// schedule holds the pending timers for one experiment.
type schedule struct {
	startTimer *time.Timer
	endTimer   *time.Timer
}

// cancel stops both timers. Stopping an already-fired timer is a no-op.
func (s *schedule) cancel() {
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
	if s.endTimer != nil {
		s.endTimer.Stop()
	}
}

// ScheduleExperiment arms activation and completion timers for an experiment.
//
// Description:
//
//	At start the experiment is activated; at end it is completed. A
//	deferred transition that fails (experiment deleted meanwhile, state
//	moved on manually) is logged and dropped; timers never crash the
//	process. Re-scheduling an experiment replaces its previous schedule.
//
// Inputs:
//   - id: An existing experiment id.
//   - start: Activation time. Must be in the future.
//   - end: Completion time. A zero value arms no completion timer; the
//     experiment runs until stopped manually. Otherwise must be after start.
//
// Outputs:
//   - error: ErrInvalidSchedule for bad times, or the engine's ErrNotFound.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) ScheduleExperiment(id string, start, end time.Time) error {
	if _, err := m.engine.Experiment(id); err != nil {
		return err
	}

	now := m.clock()
	if !start.After(now) {
		return fmt.Errorf("%w: start %s is not in the future", ErrInvalidSchedule, start.Format(time.RFC3339))
	}
	if !end.IsZero() && !end.After(start) {
		return fmt.Errorf("%w: end %s is not after start", ErrInvalidSchedule, end.Format(time.RFC3339))
	}

	s := &schedule{}
	s.startTimer = time.AfterFunc(start.Sub(now), func() {
		if err := m.engine.ActivateExperiment(id); err != nil {
			m.logger.Warn("scheduled activation failed",
				slog.String("experiment_id", id),
				slog.String("error", err.Error()),
			)
			return
		}
		m.logger.Info("experiment activated on schedule", slog.String("experiment_id", id))
	})
	if !end.IsZero() {
		s.endTimer = time.AfterFunc(end.Sub(now), func() {
			if err := m.engine.CompleteExperiment(id); err != nil {
				m.logger.Warn("scheduled completion failed",
					slog.String("experiment_id", id),
					slog.String("error", err.Error()),
				)
				return
			}
			m.logger.Info("experiment completed on schedule", slog.String("experiment_id", id))
		})
	}

	m.mu.Lock()
	if prev, ok := m.schedules[id]; ok {
		prev.cancel()
	}
	m.schedules[id] = s
	m.mu.Unlock()

	m.logger.Info("experiment scheduled",
		slog.String("experiment_id", id),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	return nil
}

// CancelSchedule cancels any pending timers for an experiment.
//
// Outputs:
//   - bool: True if a schedule existed.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) CancelSchedule(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedules[id]
	if !ok {
		return false
	}
	s.cancel()
	delete(m.schedules, id)
	return true
}
