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
	"math"

	"github.com/spaolacci/murmur3"
)

// Deterministic bucketing and variant selection.
//
// Both gates hash with 64-bit murmur3: well-distributed, non-cryptographic,
// and stable across processes and architectures. Traffic inclusion hashes
// the user id alone, so a user's inclusion decision is identical for every
// experiment at a given allocation. Variant selection hashes user and
// experiment together, so the same user can land on different variants in
// different experiments.

// inTraffic reports whether userID falls inside the traffic-allocation gate.
//
// include = (hash(userID) mod 100) < floor(allocation × 100)
func inTraffic(userID string, allocation float64) bool {
	bucket := murmur3.Sum64([]byte(userID)) % 100
	return bucket < uint64(math.Floor(allocation*100))
}

// pickVariant deterministically selects a variant for (userID, experimentID).
//
// index = hash(userID ++ ":" ++ experimentID) mod len(variants), applied to
// the lexicographically sorted variant list. variants must be non-empty and
// pre-sorted (see Experiment.VariantNames).
func pickVariant(userID, experimentID string, variants []string) string {
	h := murmur3.Sum64([]byte(userID + ":" + experimentID))
	return variants[h%uint64(len(variants))]
}

// matchesSegment reports whether the user attributes satisfy every segment
// rule. A missing attribute fails the rule. Nil rules match everyone.
func matchesSegment(rules map[string]string, attrs map[string]string) bool {
	for key, want := range rules {
		if attrs[key] != want {
			return false
		}
	}
	return true
}
