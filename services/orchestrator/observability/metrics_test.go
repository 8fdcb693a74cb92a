// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestMetrics creates a PipelineMetrics instance with a custom registry.
// This avoids conflicts with the global Prometheus registry and allows
// parallel testing.
func newTestMetrics(t *testing.T) *PipelineMetrics {
	t.Helper()

	reg := prometheus.NewRegistry()

	m := &PipelineMetrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "runs_total",
				Help:      "Total pipeline runs by pipeline and status",
			},
			[]string{"pipeline", "status"},
		),
		StageDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Wall time per pipeline stage in seconds",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"pipeline", "stage"},
		),
		StageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_errors_total",
				Help:      "Total stage errors by pipeline and stage",
			},
			[]string{"pipeline", "stage"},
		),
		FailoversTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "llm_failovers_total",
				Help:      "Total LLM provider failovers by provider and reason",
			},
			[]string{"provider", "reason"},
		),
		RiskScoreDistribution: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "risk_score",
				Help:      "Risk score of completed compliance runs (0-100)",
				Buckets:   []float64{0, 5, 10, 20, 30, 50, 75, 100},
			},
		),
	}

	reg.MustRegister(m.RunsTotal, m.StageDurationSeconds, m.StageErrorsTotal,
		m.FailoversTotal, m.RiskScoreDistribution)
	return m
}

func TestRecordRun(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRun("compliance", true)
	m.RecordRun("compliance", true)
	m.RecordRun("compliance", false)
	m.RecordRun("drafting", true)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("compliance", "success")); got != 2 {
		t.Errorf("compliance success runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("compliance", "error")); got != 1 {
		t.Errorf("compliance error runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("drafting", "success")); got != 1 {
		t.Errorf("drafting success runs = %v, want 1", got)
	}
}

func TestRecordFailover(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordFailover("openai", "rate_limit")
	m.RecordFailover("openai", "rate_limit")
	m.RecordFailover("gemini", "limiter")

	if got := testutil.ToFloat64(m.FailoversTotal.WithLabelValues("openai", "rate_limit")); got != 2 {
		t.Errorf("openai rate_limit failovers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FailoversTotal.WithLabelValues("gemini", "limiter")); got != 1 {
		t.Errorf("gemini limiter failovers = %v, want 1", got)
	}
}

func TestStageHook(t *testing.T) {
	m := newTestMetrics(t)
	hook := m.StageHook("compliance")

	hook("Ingestion", 50*time.Millisecond, nil)
	hook("Reasoning", 2*time.Second, nil)
	hook("ClauseExtraction", 10*time.Millisecond, errors.New("no clauses"))

	if got := testutil.CollectAndCount(m.StageDurationSeconds); got != 3 {
		t.Errorf("stage duration series = %d, want 3", got)
	}
	if got := testutil.ToFloat64(m.StageErrorsTotal.WithLabelValues("compliance", "ClauseExtraction")); got != 1 {
		t.Errorf("ClauseExtraction errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StageErrorsTotal.WithLabelValues("compliance", "Ingestion")); got != 0 {
		t.Errorf("Ingestion errors = %v, want 0", got)
	}
}

func TestRecordRiskScore(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRiskScore(0)
	m.RecordRiskScore(45)
	m.RecordRiskScore(100)

	if got := testutil.CollectAndCount(m.RiskScoreDistribution); got != 1 {
		t.Errorf("risk score series = %d, want 1", got)
	}
}
