// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides the observability collaborator for the
// experiment engine.
//
// The Sink interface is the engine's only telemetry contract: fire-and-forget
// counters for lifecycle events, histograms for statistical outputs, and a
// gauge for experiment health. Implementations ship for OpenTelemetry and
// Prometheus, plus a CompositeSink for fan-out and a NopSink default. Absence
// of a sink never affects engine correctness.
package telemetry

import "context"

// -----------------------------------------------------------------------------
// Sink Interface
// -----------------------------------------------------------------------------

// Sink receives engine telemetry.
//
// Description:
//
//	Every method is fire-and-forget: implementations must not block the
//	caller beyond trivial instrument updates and must swallow their own
//	export errors.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Sink interface {
	// ExperimentCreated increments the experiments_created counter.
	ExperimentCreated(ctx context.Context)

	// UserAssigned increments user_assignments{experiment,variant}.
	UserAssigned(ctx context.Context, experiment, variant string)

	// ConversionTracked increments conversions{experiment,variant,metric}.
	ConversionTracked(ctx context.Context, experiment, variant, metric string)

	// ObserveConversionValue records a conversion value observation.
	ObserveConversionValue(ctx context.Context, experiment, metric string, value float64)

	// ObservePValue records a p-value produced by an analysis run.
	ObservePValue(ctx context.Context, experiment, variant string, p float64)

	// ObserveLift records a lift percentage produced by an analysis run.
	ObserveLift(ctx context.Context, experiment, variant string, lift float64)

	// ObservePower records an estimated statistical power.
	ObservePower(ctx context.Context, experiment, variant string, power float64)

	// SetExperimentHealth sets the experiment_health{experiment} gauge.
	SetExperimentHealth(ctx context.Context, experiment string, score float64)

	// Close releases resources held by the sink.
	Close() error
}

// -----------------------------------------------------------------------------
// Nop Sink
// -----------------------------------------------------------------------------

// NopSink discards all telemetry.
//
// Thread Safety: Safe for concurrent use (stateless).
type NopSink struct{}

func (NopSink) ExperimentCreated(ctx context.Context) {}

func (NopSink) UserAssigned(ctx context.Context, experiment, variant string) {}

func (NopSink) ConversionTracked(ctx context.Context, experiment, variant, metric string) {}

func (NopSink) ObserveConversionValue(ctx context.Context, experiment, metric string, value float64) {}

func (NopSink) ObservePValue(ctx context.Context, experiment, variant string, p float64) {}

func (NopSink) ObserveLift(ctx context.Context, experiment, variant string, lift float64) {}

func (NopSink) ObservePower(ctx context.Context, experiment, variant string, power float64) {}

func (NopSink) SetExperimentHealth(ctx context.Context, experiment string, score float64) {}

func (NopSink) Close() error { return nil }

var _ Sink = NopSink{}

// -----------------------------------------------------------------------------
// Composite Sink
// -----------------------------------------------------------------------------

// CompositeSink fans telemetry out to multiple sinks.
//
// Thread Safety: Safe for concurrent use if all member sinks are.
type CompositeSink struct {
	sinks []Sink
}

// NewCompositeSink creates a sink that forwards to every given sink.
//
// Outputs:
//   - *CompositeSink: The composite. Never nil; empty composites are no-ops.
func NewCompositeSink(sinks ...Sink) *CompositeSink {
	return &CompositeSink{sinks: sinks}
}

func (c *CompositeSink) ExperimentCreated(ctx context.Context) {
	for _, s := range c.sinks {
		s.ExperimentCreated(ctx)
	}
}

func (c *CompositeSink) UserAssigned(ctx context.Context, experiment, variant string) {
	for _, s := range c.sinks {
		s.UserAssigned(ctx, experiment, variant)
	}
}

func (c *CompositeSink) ConversionTracked(ctx context.Context, experiment, variant, metric string) {
	for _, s := range c.sinks {
		s.ConversionTracked(ctx, experiment, variant, metric)
	}
}

func (c *CompositeSink) ObserveConversionValue(ctx context.Context, experiment, metric string, value float64) {
	for _, s := range c.sinks {
		s.ObserveConversionValue(ctx, experiment, metric, value)
	}
}

func (c *CompositeSink) ObservePValue(ctx context.Context, experiment, variant string, p float64) {
	for _, s := range c.sinks {
		s.ObservePValue(ctx, experiment, variant, p)
	}
}

func (c *CompositeSink) ObserveLift(ctx context.Context, experiment, variant string, lift float64) {
	for _, s := range c.sinks {
		s.ObserveLift(ctx, experiment, variant, lift)
	}
}

func (c *CompositeSink) ObservePower(ctx context.Context, experiment, variant string, power float64) {
	for _, s := range c.sinks {
		s.ObservePower(ctx, experiment, variant, power)
	}
}

func (c *CompositeSink) SetExperimentHealth(ctx context.Context, experiment string, score float64) {
	for _, s := range c.sinks {
		s.SetExperimentHealth(ctx, experiment, score)
	}
}

// Close closes every member sink and returns the first error.
func (c *CompositeSink) Close() error {
	var first error
	for _, s := range c.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Sink = (*CompositeSink)(nil)
