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
	"encoding/json"
	"log/slog"
	"time"

	"github.com/AleutianAI/abkit/experiment"
	"github.com/AleutianAI/abkit/storage"
)

// -----------------------------------------------------------------------------
// Retention Cleanup
// -----------------------------------------------------------------------------

// archiveRecord is the JSON document written to the archive key before an
// experiment is removed.
type archiveRecord struct {
	Experiment  *experiment.Experiment `json:"experiment"`
	Summary     *experiment.Summary    `json:"summary"`
	ArchivedAt  time.Time              `json:"archived_at"`
	Assignments int                    `json:"assignments"`
}

// CleanupOldExperiments removes finished experiments past the retention
// window.
//
// Description:
//
//	Targets COMPLETED and ARCHIVED experiments whose last update is older
//	than daysOld days. Each target is snapshotted to the store's archive
//	key (best-effort), then removed together with its assignments and
//	conversion events. ACTIVE, PAUSED, and DRAFT experiments are never
//	touched.
//
// Inputs:
//   - ctx: Context for the archive writes.
//   - daysOld: Retention window in days. Non-positive cleans everything
//     finished.
//
// Outputs:
//   - int: The number of experiments removed.
//   - error: Reserved; archive and removal failures are logged and skipped.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) CleanupOldExperiments(ctx context.Context, daysOld int) (int, error) {
	cutoff := m.clock().AddDate(0, 0, -daysOld)
	removed := 0

	for _, exp := range m.engine.ListExperiments(experiment.Filter{}) {
		if exp.Status != experiment.StatusCompleted && exp.Status != experiment.StatusArchived {
			continue
		}
		if exp.UpdatedAt.After(cutoff) {
			continue
		}

		m.archiveExperiment(ctx, exp)
		count, err := m.engine.RemoveExperiment(exp.ID)
		if err != nil {
			// Raced with a state change since the list snapshot.
			m.logger.Warn("cleanup removal failed",
				slog.String("experiment_id", exp.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
		m.CancelSchedule(exp.ID)
		m.logger.Info("experiment cleaned up",
			slog.String("experiment_id", exp.ID),
			slog.Int("assignments_removed", count),
		)
	}
	return removed, nil
}

// archiveExperiment writes the archive snapshot, best-effort.
func (m *Manager) archiveExperiment(ctx context.Context, exp *experiment.Experiment) {
	summary, err := m.engine.GetExperimentSummary(exp.ID)
	if err != nil {
		return
	}
	record := archiveRecord{
		Experiment:  exp,
		Summary:     summary,
		ArchivedAt:  m.clock(),
		Assignments: summary.TotalAssignments,
	}
	data, err := json.Marshal(record)
	if err != nil {
		m.logger.Warn("archive marshal failed",
			slog.String("experiment_id", exp.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := m.store.Set(ctx, storage.ArchiveKey(exp.ID), data, 0); err != nil {
		m.logger.Warn("archive write failed",
			slog.String("experiment_id", exp.ID),
			slog.String("error", err.Error()),
		)
	}
}
