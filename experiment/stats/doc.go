// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stats implements the statistical analysis layer for A/B
// experiments: descriptive statistics with confidence intervals, two-sample
// hypothesis tests (t-test, chi-square), effect size and lift, power
// estimation, sample-size planning, and variant comparison with a
// recommendation.
//
// Every function in this package is pure: inputs are plain float slices and
// outputs are value structs. Grouping conversion data by variant and feeding
// telemetry is the caller's job (see the experiment package).
//
// Two p-value modes exist. The default computes exact p-values from the t
// and chi-square distributions. Setting Banded on a test selects the coarse
// threshold bands some historical dashboards were calibrated against
// (0.01 / 0.05 / 0.1 / 0.5); the modes are never switched implicitly.
package stats
