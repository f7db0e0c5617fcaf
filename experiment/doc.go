// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package experiment implements the A/B experimentation engine: experiment
// definitions, deterministic user-to-variant assignment, and conversion
// tracking.
//
// # Overview
//
// The Engine is an explicit instance holding all mutable state (experiments,
// assignments, conversion events). Construct one per process and pass it to
// collaborators; there are no package-level registries.
//
//	engine := experiment.New(
//	    experiment.WithStore(store),       // optional durability mirror
//	    experiment.WithSink(sink),         // optional telemetry
//	    experiment.WithLogger(logger),
//	)
//
//	id, err := engine.CreateExperiment(ctx, experiment.Config{
//	    Name:    "checkout-button",
//	    Variants: map[string]experiment.Variant{
//	        "control": {"color": "blue"},
//	        "green":   {"color": "green"},
//	    },
//	    Metrics:           []string{"conversion_rate"},
//	    TrafficAllocation: 0.5,
//	})
//	_ = engine.ActivateExperiment(id)
//
//	a, _ := engine.AssignUserToVariant(ctx, userID, id, experiment.AssignOptions{})
//	if a != nil {
//	    // render a.Variant, later:
//	    engine.TrackConversion(ctx, userID, id, "conversion_rate", 1, nil)
//	}
//
// # Determinism
//
// Assignment is a pure function of the user id, the experiment id, and the
// experiment's configuration: a 64-bit murmur3 hash buckets users for traffic
// allocation and indexes into the lexicographically sorted variant list. The
// same user always lands on the same variant across calls, processes, and
// restarts.
//
// # Concurrency
//
// All Engine methods are safe for concurrent use. The read-or-create path of
// AssignUserToVariant runs as a single critical section under the engine
// lock, so concurrent callers for the same (user, experiment) converge on one
// committed variant. Sharding the lock by experiment id is a possible future
// optimization if contention becomes measurable; it is not required for
// correctness.
//
// # Collaborators
//
// The persistence store and telemetry sink are optional capability ports.
// Store writes are best-effort mirrors: failures are logged and never change
// the outcome of an engine operation. An engine with neither collaborator
// behaves identically, minus external visibility.
package experiment
