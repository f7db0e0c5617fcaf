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
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Experiment Configuration
// -----------------------------------------------------------------------------

// Config holds the parameters for CreateExperiment.
//
// Zero values for MinSampleSize and ConfidenceLevel select the defaults
// (1000 and 0.95). Everything else is validated as given.
type Config struct {
	// Name is the human-readable experiment name.
	// Required.
	Name string `validate:"required"`

	// Description is free-form text.
	Description string

	// Variants maps variant name to its opaque payload.
	// Must contain at least the "control" entry.
	Variants map[string]Variant `validate:"required,min=1"`

	// Metrics lists the metric names tracked by this experiment.
	// Must be non-empty.
	Metrics []string `validate:"required,min=1,dive,required"`

	// TrafficAllocation is the fraction of eligible users included in the
	// experiment at all. Must be in (0, 1].
	TrafficAllocation float64 `validate:"gt=0,lte=1"`

	// SegmentRules restricts assignment to users whose attributes match
	// every rule (exact equality per key). Optional.
	SegmentRules map[string]string

	// MinSampleSize is the minimum users per experiment before results are
	// considered healthy. Zero selects the default of 1000.
	MinSampleSize int `validate:"gte=0"`

	// ConfidenceLevel is the statistical confidence for analysis, in (0, 1).
	// Zero selects the default of 0.95.
	ConfidenceLevel float64 `validate:"gte=0,lt=1"`

	// CreatedBy identifies the creator. Optional.
	CreatedBy string

	// Tags are free-form labels used by ListExperiments filtering.
	Tags []string
}

const (
	defaultMinSampleSize   = 1000
	defaultConfidenceLevel = 0.95
)

// validate is shared across engines; validator instances are safe for
// concurrent use and cache struct metadata.
var validate = validator.New()

// applyDefaults fills in the documented defaults for zero-valued fields.
func (c *Config) applyDefaults() {
	if c.MinSampleSize == 0 {
		c.MinSampleSize = defaultMinSampleSize
	}
	if c.ConfidenceLevel == 0 {
		c.ConfidenceLevel = defaultConfidenceLevel
	}
}

// check validates the configuration, wrapping every failure in
// ErrInvalidConfig so callers can classify with errors.Is.
func (c *Config) check() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidConfig, f.Field(), f.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, ok := c.Variants[ControlVariant]; !ok {
		return fmt.Errorf("%w: variants must contain %q", ErrInvalidConfig, ControlVariant)
	}
	return nil
}
