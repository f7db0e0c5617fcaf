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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set get delete roundtrip", func(t *testing.T) {
		s := NewMemoryStore(0)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))

		got, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("v"), got)

		require.NoError(t, s.Delete(ctx, "k"))
		_, found, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("missing key is a miss not an error", func(t *testing.T) {
		s := NewMemoryStore(0)
		defer s.Close()

		_, found, err := s.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete missing key is fine", func(t *testing.T) {
		s := NewMemoryStore(0)
		defer s.Close()
		assert.NoError(t, s.Delete(ctx, "absent"))
	})

	t.Run("ttl expires lazily", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		s := NewMemoryStore(0)
		defer s.Close()
		s.clock = func() time.Time { return now }

		require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

		_, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found, "not expired yet")

		now = now.Add(2 * time.Minute)
		_, found, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found, "expired")
		assert.Equal(t, 0, s.Len(), "expired entry should be dropped on read")
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		s := NewMemoryStore(0)
		defer s.Close()
		s.clock = func() time.Time { return now }

		require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
		now = now.AddDate(10, 0, 0)

		_, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("sweep removes expired entries", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		s := NewMemoryStore(0)
		defer s.Close()
		s.clock = func() time.Time { return now }

		require.NoError(t, s.Set(ctx, "short", []byte("v"), time.Second))
		require.NoError(t, s.Set(ctx, "long", []byte("v"), time.Hour))

		now = now.Add(time.Minute)
		s.sweep()

		assert.Equal(t, 1, s.Len())
		_, found, err := s.Get(ctx, "long")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("values are copied both ways", func(t *testing.T) {
		s := NewMemoryStore(0)
		defer s.Close()

		value := []byte("original")
		require.NoError(t, s.Set(ctx, "k", value, 0))
		value[0] = 'X'

		got, _, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), got)

		got[0] = 'Y'
		again, _, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), again)
	})

	t.Run("cancelled context fails fast", func(t *testing.T) {
		s := NewMemoryStore(0)
		defer s.Close()

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(t, s.Set(cancelled, "k", []byte("v"), 0))
		_, _, err := s.Get(cancelled, "k")
		assert.Error(t, err)
	})

	t.Run("concurrent access", func(t *testing.T) {
		s := NewMemoryStore(0)
		defer s.Close()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := testKey(i)
				_ = s.Set(ctx, key, []byte("v"), time.Minute)
				_, _, _ = s.Get(ctx, key)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 50, s.Len())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := NewMemoryStore(time.Hour)
		assert.NoError(t, s.Close())
		assert.NoError(t, s.Close())
	})
}

// testKey builds a unique store key for concurrency tests.
func testKey(i int) string {
	return ExperimentKey(string(rune('a'+i%26)) + string(rune('0'+i/26)))
}

func TestKeyNamespacing(t *testing.T) {
	assert.Equal(t, "ab:experiment:e1", ExperimentKey("e1"))
	assert.Equal(t, "ab:assignment:u1:e1", AssignmentKey("u1", "e1"))
	assert.Equal(t, "ab:conversion:e1:u1", ConversionKey("e1", "u1"))
	assert.Equal(t, "ab:results:e1", ResultsKey("e1"))
	assert.Equal(t, "ab:archive:e1", ArchiveKey("e1"))
}

func TestNopStore(t *testing.T) {
	ctx := context.Background()
	var s NopStore

	assert.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	_, found, err := s.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, found, "nop store never stores anything")
	assert.NoError(t, s.Delete(ctx, "k"))
	assert.NoError(t, s.Close())
}
