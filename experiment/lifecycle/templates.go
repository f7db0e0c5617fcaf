// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/abkit/experiment"
)

// -----------------------------------------------------------------------------
// Templates
// -----------------------------------------------------------------------------

// Template is a reusable experiment shape.
//
// A template carries everything CreateExperiment needs except the final
// name; overrides adjust individual fields at instantiation time.
type Template struct {
	// Name is the registry key.
	Name string

	// Description becomes the experiment description unless overridden.
	Description string

	// Variants, Metrics, and the remaining fields map directly onto
	// experiment.Config.
	Variants          map[string]experiment.Variant
	Metrics           []string
	TrafficAllocation float64
	MinSampleSize     int
	ConfidenceLevel   float64
	Tags              []string
}

// Overrides adjusts template fields at instantiation. Zero-valued fields
// keep the template's value.
type Overrides struct {
	Description       string
	Variants          map[string]experiment.Variant
	Metrics           []string
	TrafficAllocation float64
	SegmentRules      map[string]string
	MinSampleSize     int
	ConfidenceLevel   float64
	CreatedBy         string
	Tags              []string
}

// builtinTemplates returns the templates every manager starts with.
func builtinTemplates() []Template {
	return []Template{
		{
			Name:        "button_color",
			Description: "Call-to-action button color test",
			Variants: map[string]experiment.Variant{
				"control": {"color": "blue"},
				"green":   {"color": "green"},
				"red":     {"color": "red"},
			},
			Metrics:           []string{"click_rate", "conversion_rate"},
			TrafficAllocation: 1.0,
			MinSampleSize:     1000,
			ConfidenceLevel:   0.95,
			Tags:              []string{"ui"},
		},
		{
			Name:        "pricing_page",
			Description: "Pricing page layout test",
			Variants: map[string]experiment.Variant{
				"control":  {"layout": "three_tier"},
				"two_tier": {"layout": "two_tier"},
			},
			Metrics:           []string{"conversion_rate", "revenue_per_visitor"},
			TrafficAllocation: 0.5,
			MinSampleSize:     2000,
			ConfidenceLevel:   0.95,
			Tags:              []string{"pricing", "revenue"},
		},
		{
			Name:        "onboarding_flow",
			Description: "Signup onboarding flow test",
			Variants: map[string]experiment.Variant{
				"control": {"steps": 5},
				"short":   {"steps": 3},
			},
			Metrics:           []string{"completion_rate", "time_to_complete"},
			TrafficAllocation: 0.8,
			MinSampleSize:     1500,
			ConfidenceLevel:   0.95,
			Tags:              []string{"onboarding", "growth"},
		},
	}
}

// RegisterTemplate adds or replaces a template.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) RegisterTemplate(tpl Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.Name] = tpl
}

// Templates returns the registered template names.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) Templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	return names
}

// CreateExperimentWithTemplate instantiates a template as a DRAFT experiment.
//
// Inputs:
//   - ctx: Context for the engine's persistence mirror.
//   - templateName: A registered template name.
//   - name: The experiment name. Required.
//   - overrides: Field adjustments; zero-valued fields keep the template's.
//
// Outputs:
//   - string: The new experiment id.
//   - error: ErrUnknownTemplate, or the engine's validation error.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) CreateExperimentWithTemplate(ctx context.Context, templateName, name string, overrides Overrides) (string, error) {
	m.mu.Lock()
	tpl, ok := m.templates[templateName]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, templateName)
	}

	cfg := experiment.Config{
		Name:              name,
		Description:       tpl.Description,
		Variants:          tpl.Variants,
		Metrics:           tpl.Metrics,
		TrafficAllocation: tpl.TrafficAllocation,
		MinSampleSize:     tpl.MinSampleSize,
		ConfidenceLevel:   tpl.ConfidenceLevel,
		Tags:              tpl.Tags,
	}
	applyOverrides(&cfg, overrides)

	id, err := m.engine.CreateExperiment(ctx, cfg)
	if err != nil {
		return "", err
	}
	m.logger.Info("experiment created from template",
		slog.String("experiment_id", id),
		slog.String("template", templateName),
	)
	return id, nil
}

// applyOverrides copies non-zero override fields onto the config.
func applyOverrides(cfg *experiment.Config, o Overrides) {
	if o.Description != "" {
		cfg.Description = o.Description
	}
	if o.Variants != nil {
		cfg.Variants = o.Variants
	}
	if o.Metrics != nil {
		cfg.Metrics = o.Metrics
	}
	if o.TrafficAllocation != 0 {
		cfg.TrafficAllocation = o.TrafficAllocation
	}
	if o.SegmentRules != nil {
		cfg.SegmentRules = o.SegmentRules
	}
	if o.MinSampleSize != 0 {
		cfg.MinSampleSize = o.MinSampleSize
	}
	if o.ConfidenceLevel != 0 {
		cfg.ConfidenceLevel = o.ConfidenceLevel
	}
	if o.CreatedBy != "" {
		cfg.CreatedBy = o.CreatedBy
	}
	if o.Tags != nil {
		cfg.Tags = o.Tags
	}
}
