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

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig configures the Prometheus sink.
type PrometheusConfig struct {
	// Namespace is the metric namespace (e.g., "abkit").
	Namespace string

	// Subsystem is the metric subsystem (e.g., "experiment").
	Subsystem string

	// Registerer is the registry to register with.
	// If nil, prometheus.DefaultRegisterer is used.
	Registerer prometheus.Registerer
}

// PrometheusSink exports engine telemetry as Prometheus metrics.
//
// Description:
//
//	PrometheusSink registers the engine's counters, histograms, and health
//	gauge with a Prometheus registerer. Collection is pull-based; exposing
//	the /metrics endpoint is the embedding application's concern.
//
// Thread Safety: Safe for concurrent use.
type PrometheusSink struct {
	experimentsCreated prometheus.Counter
	userAssignments    *prometheus.CounterVec
	conversions        *prometheus.CounterVec
	conversionValues   *prometheus.HistogramVec
	pValues            *prometheus.HistogramVec
	lifts              *prometheus.HistogramVec
	power              *prometheus.HistogramVec
	experimentHealth   *prometheus.GaugeVec
}

// NewPrometheusSink creates a Prometheus telemetry sink.
//
// Inputs:
//   - cfg: Sink configuration. A zero value registers unnamespaced metrics
//     with the default registerer.
//
// Outputs:
//   - *PrometheusSink: The created sink. Never nil on success.
//   - error: Non-nil if a collector is already registered.
//
// Thread Safety: The returned sink is safe for concurrent use.
func NewPrometheusSink(cfg PrometheusConfig) (*PrometheusSink, error) {
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &PrometheusSink{
		experimentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "experiments_created_total",
			Help:      "Total experiments created.",
		}),
		userAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "user_assignments_total",
			Help:      "Total user-to-variant assignments.",
		}, []string{"experiment", "variant"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "conversions_total",
			Help:      "Total conversion events.",
		}, []string{"experiment", "variant", "metric"}),
		conversionValues: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "conversion_values",
			Help:      "Distribution of conversion values.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"experiment", "metric"}),
		pValues: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "p_values",
			Help:      "Distribution of analysis p-values.",
			Buckets:   []float64{0.001, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"experiment", "variant"}),
		lifts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "lifts",
			Help:      "Distribution of variant lift percentages.",
			Buckets:   []float64{-50, -20, -10, -5, 0, 5, 10, 20, 50, 100},
		}, []string{"experiment", "variant"}),
		power: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "power",
			Help:      "Distribution of estimated statistical power.",
			Buckets:   []float64{0.1, 0.2, 0.4, 0.6, 0.8, 0.9, 0.95, 1},
		}, []string{"experiment", "variant"}),
		experimentHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "experiment_health",
			Help:      "Latest health score per experiment.",
		}, []string{"experiment"}),
	}

	collectors := []prometheus.Collector{
		s.experimentsCreated, s.userAssignments, s.conversions,
		s.conversionValues, s.pValues, s.lifts, s.power, s.experimentHealth,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PrometheusSink) ExperimentCreated(ctx context.Context) {
	s.experimentsCreated.Inc()
}

func (s *PrometheusSink) UserAssigned(ctx context.Context, experiment, variant string) {
	s.userAssignments.WithLabelValues(experiment, variant).Inc()
}

func (s *PrometheusSink) ConversionTracked(ctx context.Context, experiment, variant, metric string) {
	s.conversions.WithLabelValues(experiment, variant, metric).Inc()
}

func (s *PrometheusSink) ObserveConversionValue(ctx context.Context, experiment, metric string, value float64) {
	s.conversionValues.WithLabelValues(experiment, metric).Observe(value)
}

func (s *PrometheusSink) ObservePValue(ctx context.Context, experiment, variant string, p float64) {
	s.pValues.WithLabelValues(experiment, variant).Observe(p)
}

func (s *PrometheusSink) ObserveLift(ctx context.Context, experiment, variant string, lift float64) {
	s.lifts.WithLabelValues(experiment, variant).Observe(lift)
}

func (s *PrometheusSink) ObservePower(ctx context.Context, experiment, variant string, power float64) {
	s.power.WithLabelValues(experiment, variant).Observe(power)
}

func (s *PrometheusSink) SetExperimentHealth(ctx context.Context, experiment string, score float64) {
	s.experimentHealth.WithLabelValues(experiment).Set(score)
}

// Close is a no-op; unregistration is the caller's concern.
func (s *PrometheusSink) Close() error { return nil }

var _ Sink = (*PrometheusSink)(nil)
