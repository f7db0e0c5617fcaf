// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store backed by a map with TTL.
//
// Description:
//
//	MemoryStore keeps values in memory and expires them lazily on read
//	plus periodically via a janitor goroutine. It is intended for tests
//	and single-process deployments where durability is not required.
//
// Thread Safety: Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates a MemoryStore with a background janitor.
//
// Inputs:
//   - janitorInterval: How often expired entries are swept. Zero disables
//     the janitor; entries still expire lazily on read.
//
// Outputs:
//   - *MemoryStore: The new store. Never nil. Call Close() when done.
func NewMemoryStore(janitorInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	if janitorInterval > 0 {
		go s.janitor(janitorInterval)
	} else {
		close(s.doneCh)
	}
	return s
}

// Get returns the value for key, honoring expiry.
//
// Thread Safety: Safe for concurrent use.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && s.clock().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

// Set stores value under key with the given TTL.
//
// Thread Safety: Safe for concurrent use.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = s.clock().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes key.
//
// Thread Safety: Safe for concurrent use.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor. The store remains readable after Close.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stopCh) })
	<-s.doneCh
	return nil
}

// Len returns the number of live entries (including not-yet-swept expired ones).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
