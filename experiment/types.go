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
	"sort"
	"time"
)

// -----------------------------------------------------------------------------
// Status
// -----------------------------------------------------------------------------

// Status is an experiment lifecycle state.
//
// The state machine is:
//
//	DRAFT → ACTIVE → {PAUSED ⇄ ACTIVE} → COMPLETED → ARCHIVED
//
// COMPLETED and ARCHIVED are terminal. ARCHIVED is reachable only through
// the lifecycle manager's retention sweep.
type Status string

const (
	// StatusDraft is the initial state after creation.
	StatusDraft Status = "draft"

	// StatusActive accepts assignments and conversions.
	StatusActive Status = "active"

	// StatusPaused suspends assignment without losing state.
	StatusPaused Status = "paused"

	// StatusCompleted is terminal; data remains readable for analysis.
	StatusCompleted Status = "completed"

	// StatusArchived marks an experiment awaiting retention cleanup.
	StatusArchived Status = "archived"
)

// ControlVariant is the mandatory baseline variant name.
const ControlVariant = "control"

// Variant is an opaque payload bag describing one treatment option.
type Variant map[string]any

// -----------------------------------------------------------------------------
// Experiment
// -----------------------------------------------------------------------------

// Experiment is a single A/B test definition plus its lifecycle state.
//
// The variants map always contains the "control" entry; this is enforced at
// creation and never mutated afterwards.
type Experiment struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Status            Status             `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	StartedAt         *time.Time         `json:"started_at,omitempty"`
	EndedAt           *time.Time         `json:"ended_at,omitempty"`
	TrafficAllocation float64            `json:"traffic_allocation"`
	Variants          map[string]Variant `json:"variants"`
	Metrics           []string           `json:"metrics"`
	SegmentRules      map[string]string  `json:"segment_rules,omitempty"`
	MinSampleSize     int                `json:"min_sample_size"`
	ConfidenceLevel   float64            `json:"confidence_level"`
	CreatedBy         string             `json:"created_by,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
}

// VariantNames returns the variant names in lexicographic order.
//
// Sorted iteration makes variant selection reproducible across processes;
// map iteration order is never relied on.
func (e *Experiment) VariantNames() []string {
	names := make([]string, 0, len(e.Variants))
	for name := range e.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasMetric reports whether the experiment declares the metric.
func (e *Experiment) HasMetric(metric string) bool {
	for _, m := range e.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// hasAllTags reports whether the experiment carries every given tag.
func (e *Experiment) hasAllTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range e.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// clone returns a deep copy safe to hand out across the lock boundary.
func (e *Experiment) clone() *Experiment {
	out := *e
	out.Variants = make(map[string]Variant, len(e.Variants))
	for name, payload := range e.Variants {
		p := make(Variant, len(payload))
		for k, v := range payload {
			p[k] = v
		}
		out.Variants[name] = p
	}
	out.Metrics = append([]string(nil), e.Metrics...)
	out.Tags = append([]string(nil), e.Tags...)
	if e.SegmentRules != nil {
		out.SegmentRules = make(map[string]string, len(e.SegmentRules))
		for k, v := range e.SegmentRules {
			out.SegmentRules[k] = v
		}
	}
	if e.StartedAt != nil {
		t := *e.StartedAt
		out.StartedAt = &t
	}
	if e.EndedAt != nil {
		t := *e.EndedAt
		out.EndedAt = &t
	}
	return &out
}

// -----------------------------------------------------------------------------
// Assignment
// -----------------------------------------------------------------------------

// Assignment is the committed variant for a (user, experiment) pair.
//
// Assignments are immutable once written: a second assignment request for
// the same pair returns this record unchanged.
type Assignment struct {
	UserID       string    `json:"user_id"`
	ExperimentID string    `json:"experiment_id"`
	Variant      string    `json:"variant"`
	AssignedAt   time.Time `json:"assigned_at"`
	SessionID    string    `json:"session_id,omitempty"`
}

// assignmentKey builds the assignment table key for a (user, experiment) pair.
func assignmentKey(userID, experimentID string) string {
	return userID + ":" + experimentID
}

// -----------------------------------------------------------------------------
// Conversion Event
// -----------------------------------------------------------------------------

// ConversionEvent is one append-only conversion record.
//
// The variant is copied from the user's Assignment at write time, so events
// stay attributable even if the experiment configuration is later inspected
// in isolation.
type ConversionEvent struct {
	UserID       string         `json:"user_id"`
	ExperimentID string         `json:"experiment_id"`
	Variant      string         `json:"variant"`
	Metric       string         `json:"metric"`
	Value        float64        `json:"value"`
	Timestamp    time.Time      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// -----------------------------------------------------------------------------
// Summary
// -----------------------------------------------------------------------------

// Summary is a read-only projection of an experiment and its counters.
type Summary struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Status           Status         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Variants         []string       `json:"variants"`
	Metrics          []string       `json:"metrics"`
	Tags             []string       `json:"tags,omitempty"`
	TotalAssignments int            `json:"total_assignments"`
	VariantCounts    map[string]int `json:"variant_counts"`
	TotalConversions int            `json:"total_conversions"`
	MinSampleSize    int            `json:"min_sample_size"`
	ConfidenceLevel  float64        `json:"confidence_level"`
}

// Filter selects experiments in ListExperiments.
//
// A nil Status matches every status. Tags match only experiments carrying
// ALL listed tags.
type Filter struct {
	Status *Status
	Tags   []string
}
