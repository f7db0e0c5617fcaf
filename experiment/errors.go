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

import "errors"

// Engine errors. All four indicate caller mistakes: fix the input before
// retrying. Expected "not eligible" and "not assigned" outcomes are reported
// through sentinel return values (nil assignment, false), not errors.
var (
	// ErrInvalidConfig indicates rejected experiment parameters. The
	// experiment is never partially created.
	ErrInvalidConfig = errors.New("invalid experiment configuration")

	// ErrNotFound indicates an unknown experiment id.
	ErrNotFound = errors.New("experiment not found")

	// ErrInvalidState indicates an illegal status transition.
	ErrInvalidState = errors.New("invalid experiment state transition")

	// ErrUnknownMetric indicates a conversion for a metric the experiment
	// does not declare.
	ErrUnknownMetric = errors.New("metric not declared on experiment")
)
