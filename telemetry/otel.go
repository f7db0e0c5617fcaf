// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrOTelInitFailed is returned when OpenTelemetry initialization fails.
	ErrOTelInitFailed = errors.New("opentelemetry initialization failed")

	// ErrInvalidOTelConfig is returned when the OTel configuration is invalid.
	ErrInvalidOTelConfig = errors.New("invalid opentelemetry configuration")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// OTelConfig configures the OpenTelemetry sink.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type OTelConfig struct {
	// ServiceName is the service name for telemetry.
	// Required.
	ServiceName string

	// ServiceVersion is the service version for telemetry.
	// Optional.
	ServiceVersion string

	// MeterProvider is the meter provider to use.
	// If nil, uses the global meter provider.
	MeterProvider metric.MeterProvider
}

// DefaultOTelConfig returns a configuration with sensible defaults.
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    "abkit",
		ServiceVersion: "1.0.0",
	}
}

// Validate checks that the configuration is valid.
func (c *OTelConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service name is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// OpenTelemetry Sink
// -----------------------------------------------------------------------------

// OTelSink exports engine telemetry via OpenTelemetry metrics.
//
// Description:
//
//	OTelSink registers the engine's counters, histograms, and health gauge
//	with an OTel meter. Without a configured provider, instruments are
//	no-ops, matching the optional-collaborator contract.
//
// Thread Safety: Safe for concurrent use.
//
// Example:
//
//	sink, err := telemetry.NewOTelSink(telemetry.DefaultOTelConfig())
//	if err != nil {
//	    return fmt.Errorf("create otel sink: %w", err)
//	}
//	defer sink.Close()
type OTelSink struct {
	config *OTelConfig
	meter  metric.Meter

	experimentsCreated metric.Int64Counter
	userAssignments    metric.Int64Counter
	conversions        metric.Int64Counter
	conversionValues   metric.Float64Histogram
	pValues            metric.Float64Histogram
	lifts              metric.Float64Histogram
	power              metric.Float64Histogram
	experimentHealth   metric.Float64Gauge
}

// NewOTelSink creates a new OpenTelemetry telemetry sink.
//
// Inputs:
//   - config: OpenTelemetry configuration. Must not be nil.
//
// Outputs:
//   - *OTelSink: The created sink. Never nil on success.
//   - error: Non-nil if configuration is invalid or registration fails.
//
// Thread Safety: The returned sink is safe for concurrent use.
func NewOTelSink(config *OTelConfig) (*OTelSink, error) {
	if config == nil {
		return nil, ErrInvalidOTelConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidOTelConfig, err)
	}

	cfg := *config

	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(
		"github.com/AleutianAI/abkit/telemetry",
		metric.WithInstrumentationVersion(cfg.ServiceVersion),
	)

	sink := &OTelSink{config: &cfg, meter: meter}
	if err := sink.initializeInstruments(); err != nil {
		return nil, errors.Join(ErrOTelInitFailed, err)
	}
	return sink, nil
}

func (s *OTelSink) initializeInstruments() error {
	var err error

	s.experimentsCreated, err = s.meter.Int64Counter(
		"ab_experiments_created",
		metric.WithDescription("Total experiments created"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return err
	}

	s.userAssignments, err = s.meter.Int64Counter(
		"ab_user_assignments",
		metric.WithDescription("Total user-to-variant assignments"),
		metric.WithUnit("{assignment}"),
	)
	if err != nil {
		return err
	}

	s.conversions, err = s.meter.Int64Counter(
		"ab_conversions",
		metric.WithDescription("Total conversion events"),
		metric.WithUnit("{conversion}"),
	)
	if err != nil {
		return err
	}

	s.conversionValues, err = s.meter.Float64Histogram(
		"ab_conversion_values",
		metric.WithDescription("Distribution of conversion values"),
	)
	if err != nil {
		return err
	}

	s.pValues, err = s.meter.Float64Histogram(
		"ab_p_values",
		metric.WithDescription("Distribution of analysis p-values"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return err
	}

	s.lifts, err = s.meter.Float64Histogram(
		"ab_lifts",
		metric.WithDescription("Distribution of variant lift percentages"),
	)
	if err != nil {
		return err
	}

	s.power, err = s.meter.Float64Histogram(
		"ab_power",
		metric.WithDescription("Distribution of estimated statistical power"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.4, 0.6, 0.8, 0.9, 0.95, 1),
	)
	if err != nil {
		return err
	}

	s.experimentHealth, err = s.meter.Float64Gauge(
		"ab_experiment_health",
		metric.WithDescription("Latest health score per experiment"),
	)
	return err
}

func (s *OTelSink) ExperimentCreated(ctx context.Context) {
	s.experimentsCreated.Add(ctx, 1)
}

func (s *OTelSink) UserAssigned(ctx context.Context, experiment, variant string) {
	s.userAssignments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("experiment", experiment),
		attribute.String("variant", variant),
	))
}

func (s *OTelSink) ConversionTracked(ctx context.Context, experiment, variant, metricName string) {
	s.conversions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("experiment", experiment),
		attribute.String("variant", variant),
		attribute.String("metric", metricName),
	))
}

func (s *OTelSink) ObserveConversionValue(ctx context.Context, experiment, metricName string, value float64) {
	s.conversionValues.Record(ctx, value, metric.WithAttributes(
		attribute.String("experiment", experiment),
		attribute.String("metric", metricName),
	))
}

func (s *OTelSink) ObservePValue(ctx context.Context, experiment, variant string, p float64) {
	s.pValues.Record(ctx, p, metric.WithAttributes(
		attribute.String("experiment", experiment),
		attribute.String("variant", variant),
	))
}

func (s *OTelSink) ObserveLift(ctx context.Context, experiment, variant string, lift float64) {
	s.lifts.Record(ctx, lift, metric.WithAttributes(
		attribute.String("experiment", experiment),
		attribute.String("variant", variant),
	))
}

func (s *OTelSink) ObservePower(ctx context.Context, experiment, variant string, power float64) {
	s.power.Record(ctx, power, metric.WithAttributes(
		attribute.String("experiment", experiment),
		attribute.String("variant", variant),
	))
}

func (s *OTelSink) SetExperimentHealth(ctx context.Context, experiment string, score float64) {
	s.experimentHealth.Record(ctx, score, metric.WithAttributes(
		attribute.String("experiment", experiment),
	))
}

// Close is a no-op; provider shutdown is the caller's responsibility.
func (s *OTelSink) Close() error { return nil }

var _ Sink = (*OTelSink)(nil)
