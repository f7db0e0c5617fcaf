// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage provides the persistence collaborator for the experiment
// engine: a namespaced key/value store with per-key TTL.
//
// The engine treats every store as a best-effort mirror. In-memory state is
// authoritative within a process lifetime; a store failure is logged by the
// caller and never changes the outcome of an engine operation.
//
// Three implementations ship with this package:
//
//   - NopStore: discards everything (the default when nothing is wired)
//   - MemoryStore: process-local map with TTL, for tests and single-process use
//   - BadgerStore: embedded BadgerDB with native TTL, for durability across
//     restarts
package storage

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Store Interface
// -----------------------------------------------------------------------------

// Store is a namespaced key/value store with per-key TTL.
//
// Description:
//
//	Store is the persistence port of the experiment engine. Get reports a
//	miss with found=false rather than an error. Set with ttl <= 0 stores
//	the value without expiry.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or found=false on a miss.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// -----------------------------------------------------------------------------
// Key Namespacing
// -----------------------------------------------------------------------------

// Key prefixes for engine data. All engine keys live under the "ab:"
// namespace so a shared store can host other tenants.
const (
	prefixExperiment = "ab:experiment:"
	prefixAssignment = "ab:assignment:"
	prefixConversion = "ab:conversion:"
	prefixResults    = "ab:results:"
	prefixArchive    = "ab:archive:"
)

// ExperimentKey returns the key for an experiment configuration.
func ExperimentKey(experimentID string) string {
	return prefixExperiment + experimentID
}

// AssignmentKey returns the key for a (user, experiment) assignment.
func AssignmentKey(userID, experimentID string) string {
	return prefixAssignment + userID + ":" + experimentID
}

// ConversionKey returns the key for a user's conversion list on an experiment.
func ConversionKey(experimentID, userID string) string {
	return prefixConversion + experimentID + ":" + userID
}

// ResultsKey returns the key for cached analysis results.
func ResultsKey(experimentID string) string {
	return prefixResults + experimentID
}

// ArchiveKey returns the key for archived experiment data.
func ArchiveKey(experimentID string) string {
	return prefixArchive + experimentID
}

// -----------------------------------------------------------------------------
// Nop Store
// -----------------------------------------------------------------------------

// NopStore discards all writes and misses all reads.
//
// Description:
//
//	NopStore is the default collaborator when no store is wired in. An
//	engine configured with NopStore behaves identically to one with a real
//	store, minus durability.
//
// Thread Safety: Safe for concurrent use (stateless).
type NopStore struct{}

// Get always reports a miss.
func (NopStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (NopStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

// Delete is a no-op.
func (NopStore) Delete(ctx context.Context, key string) error { return nil }

// Close is a no-op.
func (NopStore) Close() error { return nil }

var _ Store = NopStore{}
