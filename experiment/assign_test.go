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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userName builds a deterministic test user id.
func userName(i int) string {
	return fmt.Sprintf("user-%04d", i)
}

// newActiveExperiment creates and activates a fresh experiment.
func newActiveExperiment(t *testing.T, engine *Engine, cfg Config) string {
	t.Helper()
	id, err := engine.CreateExperiment(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, engine.ActivateExperiment(id))
	return id
}

func TestAssignUserToVariant(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns a declared variant", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())

		a, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{SessionID: "s1"})
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Contains(t, []string{"control", "green"}, a.Variant)
		assert.Equal(t, "alice", a.UserID)
		assert.Equal(t, "s1", a.SessionID)
	})

	t.Run("idempotent across repeated calls", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())

		first, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
		require.NoError(t, err)
		require.NotNil(t, first)

		for i := 0; i < 50; i++ {
			again, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
			require.NoError(t, err)
			require.NotNil(t, again)
			assert.Equal(t, first.Variant, again.Variant)
			assert.Equal(t, first.AssignedAt, again.AssignedAt)
		}
	})

	t.Run("idempotent under concurrency", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())

		const workers = 100
		variants := make([]string, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				a, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
				if err == nil && a != nil {
					variants[i] = a.Variant
				}
			}(i)
		}
		wg.Wait()

		for i := 1; i < workers; i++ {
			assert.Equal(t, variants[0], variants[i])
		}
		counts := engine.AssignmentCounts(id)
		total := 0
		for _, c := range counts {
			total += c
		}
		assert.Equal(t, 1, total, "exactly one assignment should exist")
	})

	t.Run("unknown experiment yields nil", func(t *testing.T) {
		a, err := New().AssignUserToVariant(ctx, "alice", "nope", AssignOptions{})
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("inactive experiment yields nil", func(t *testing.T) {
		engine := New()
		id, err := engine.CreateExperiment(ctx, validConfig())
		require.NoError(t, err)

		a, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
		require.NoError(t, err)
		assert.Nil(t, a, "draft experiments assign nobody")

		require.NoError(t, engine.ActivateExperiment(id))
		require.NoError(t, engine.PauseExperiment(id))
		a, err = engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
		require.NoError(t, err)
		assert.Nil(t, a, "paused experiments assign nobody")
	})

	t.Run("empty user id yields nil", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())
		a, err := engine.AssignUserToVariant(ctx, "", id, AssignOptions{})
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("segment rules gate assignment", func(t *testing.T) {
		engine := New()
		cfg := validConfig()
		cfg.SegmentRules = map[string]string{"country": "US", "device": "mobile"}
		id := newActiveExperiment(t, engine, cfg)

		a, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{
			Attributes: map[string]string{"country": "US", "device": "mobile"},
		})
		require.NoError(t, err)
		assert.NotNil(t, a, "matching attributes should assign")

		a, err = engine.AssignUserToVariant(ctx, "bob", id, AssignOptions{
			Attributes: map[string]string{"country": "US", "device": "desktop"},
		})
		require.NoError(t, err)
		assert.Nil(t, a, "mismatched attribute should not assign")

		a, err = engine.AssignUserToVariant(ctx, "carol", id, AssignOptions{
			Attributes: map[string]string{"country": "US"},
		})
		require.NoError(t, err)
		assert.Nil(t, a, "missing attribute should not assign")
	})

	t.Run("traffic allocation excludes users", func(t *testing.T) {
		engine := New()
		cfg := validConfig()
		cfg.TrafficAllocation = 0.3
		id := newActiveExperiment(t, engine, cfg)

		assigned := 0
		const users = 2000
		for i := 0; i < users; i++ {
			a, err := engine.AssignUserToVariant(ctx, userName(i), id, AssignOptions{})
			require.NoError(t, err)
			if a != nil {
				assigned++
			}
		}
		// 30% gate over the hash space; allow generous slack.
		share := float64(assigned) / users
		assert.InDelta(t, 0.3, share, 0.05, "assigned share %v", share)
	})

	t.Run("full allocation includes everyone", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())
		for i := 0; i < 100; i++ {
			a, err := engine.AssignUserToVariant(ctx, userName(i), id, AssignOptions{})
			require.NoError(t, err)
			assert.NotNil(t, a)
		}
	})
}

func TestGetAssignment(t *testing.T) {
	ctx := context.Background()
	engine := New()
	id := newActiveExperiment(t, engine, validConfig())

	assert.Nil(t, engine.GetAssignment("alice", id))

	a, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
	require.NoError(t, err)
	require.NotNil(t, a)

	got := engine.GetAssignment("alice", id)
	require.NotNil(t, got)
	assert.Equal(t, a.Variant, got.Variant)
}

func TestTrackConversion(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a prior assignment", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())

		ok, err := engine.TrackConversion(ctx, "stranger", id, "conversion_rate", 1, nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, engine.ConversionValues(id, "conversion_rate"))
	})

	t.Run("unknown experiment is not an error", func(t *testing.T) {
		ok, err := New().TrackConversion(ctx, "alice", "nope", "conversion_rate", 1, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown metric is an error", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())
		_, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
		require.NoError(t, err)

		_, err = engine.TrackConversion(ctx, "alice", id, "revenue", 1, nil)
		assert.ErrorIs(t, err, ErrUnknownMetric)
	})

	t.Run("event carries the committed variant", func(t *testing.T) {
		engine := New()
		id := newActiveExperiment(t, engine, validConfig())
		a, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
		require.NoError(t, err)
		require.NotNil(t, a)

		ok, err := engine.TrackConversion(ctx, "alice", id, "conversion_rate", 2.5,
			map[string]any{"source": "email"})
		require.NoError(t, err)
		require.True(t, ok)

		values := engine.ConversionValues(id, "conversion_rate")
		require.Len(t, values[a.Variant], 1)
		assert.Equal(t, 2.5, values[a.Variant][0])
	})

	t.Run("values grouped per metric", func(t *testing.T) {
		engine := New()
		cfg := validConfig()
		cfg.Metrics = []string{"clicks", "revenue"}
		id := newActiveExperiment(t, engine, cfg)
		a, err := engine.AssignUserToVariant(ctx, "alice", id, AssignOptions{})
		require.NoError(t, err)
		require.NotNil(t, a)

		_, err = engine.TrackConversion(ctx, "alice", id, "clicks", 1, nil)
		require.NoError(t, err)
		_, err = engine.TrackConversion(ctx, "alice", id, "revenue", 9.99, nil)
		require.NoError(t, err)

		assert.Len(t, engine.ConversionValues(id, "clicks")[a.Variant], 1)
		assert.Equal(t, 9.99, engine.ConversionValues(id, "revenue")[a.Variant][0])
	})
}
