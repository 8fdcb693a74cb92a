// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the pipeline service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring pipeline runs.
// Metrics include:
//   - Run counters (by pipeline and outcome)
//   - Stage latency histograms and stage failure counters
//   - Provider failover counters
//   - Risk score distribution for completed compliance runs
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
)

// Namespace for all metrics
const metricsNamespace = "lexicon"

// Subsystem for pipeline metrics
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for pipeline operations.
//
// # Fields
//
//   - RunsTotal: Counter of pipeline runs by pipeline name and status
//   - StageDurationSeconds: Histogram of per-stage wall time
//   - StageErrorsTotal: Counter of stage errors by pipeline and stage
//   - FailoversTotal: Counter of LLM provider failovers by provider and reason
//   - RiskScoreDistribution: Histogram of risk scores from completed runs
//
// # Thread Safety
//
// All operations are thread-safe.
type PipelineMetrics struct {
	// RunsTotal counts pipeline runs.
	// Labels: pipeline (compliance, drafting), status (success, error)
	RunsTotal *prometheus.CounterVec

	// StageDurationSeconds measures per-stage latency.
	// Labels: pipeline, stage
	StageDurationSeconds *prometheus.HistogramVec

	// StageErrorsTotal counts stage errors, recoverable and fatal alike.
	// Labels: pipeline, stage
	StageErrorsTotal *prometheus.CounterVec

	// FailoversTotal counts provider skips and failures during generation.
	// Labels: provider, reason (limiter, rate_limit, error)
	FailoversTotal *prometheus.CounterVec

	// RiskScoreDistribution observes the 0-100 risk score of each
	// completed compliance run.
	RiskScoreDistribution prometheus.Histogram
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup.
//
// # Outputs
//
//   - *PipelineMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *PipelineMetrics {
	DefaultMetrics = &PipelineMetrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "runs_total",
				Help:      "Total pipeline runs by pipeline and status",
			},
			[]string{"pipeline", "status"},
		),

		StageDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Wall time per pipeline stage in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"pipeline", "stage"},
		),

		StageErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_errors_total",
				Help:      "Total stage errors by pipeline and stage",
			},
			[]string{"pipeline", "stage"},
		),

		FailoversTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "llm_failovers_total",
				Help:      "Total LLM provider failovers by provider and reason",
			},
			[]string{"provider", "reason"},
		),

		RiskScoreDistribution: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "risk_score",
				Help:      "Risk score of completed compliance runs (0-100)",
				Buckets:   []float64{0, 5, 10, 20, 30, 50, 75, 100},
			},
		),
	}

	return DefaultMetrics
}

// RecordRun records a completed pipeline run.
//
// # Inputs
//
//   - pipelineName: "compliance" or "drafting".
//   - success: Whether the run completed without a fatal error.
func (m *PipelineMetrics) RecordRun(pipelineName string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(pipelineName, status).Inc()
}

// RecordFailover records a provider failover event.
//
// # Inputs
//
//   - provider: The backend that was skipped or failed.
//   - reason: "limiter", "rate_limit", or "error".
func (m *PipelineMetrics) RecordFailover(provider, reason string) {
	m.FailoversTotal.WithLabelValues(provider, reason).Inc()
}

// RecordRiskScore observes the risk score of a completed compliance run.
func (m *PipelineMetrics) RecordRiskScore(score int) {
	m.RiskScoreDistribution.Observe(float64(score))
}

// StageHook returns a pipeline.StageHook bound to pipelineName that
// feeds the stage duration and error metrics.
func (m *PipelineMetrics) StageHook(pipelineName string) pipeline.StageHook {
	return func(stage string, duration time.Duration, err error) {
		m.StageDurationSeconds.WithLabelValues(pipelineName, stage).Observe(duration.Seconds())
		if err != nil {
			m.StageErrorsTotal.WithLabelValues(pipelineName, stage).Inc()
		}
	}
}
