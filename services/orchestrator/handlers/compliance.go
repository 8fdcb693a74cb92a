// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/datatypes"
	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/observability"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/compliance"
	"github.com/LexiconLegalAI/LexiconCore/services/risk"
)

var handlerTracer = otel.Tracer("lexicon.orchestrator.handlers")

// HandleComplianceCheck runs the compliance pipeline over a submitted
// contract and returns the populated state. A fatal pipeline error maps
// to 500 with the partial state attached so callers can inspect the
// audit trail.
func HandleComplianceCheck(orch *compliance.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleComplianceCheck")
		defer span.End()

		var request datatypes.ComplianceCheckRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind compliance request JSON", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := request.Validate(); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		requestID := uuid.New().String()
		c.Header("X-Request-ID", requestID)
		span.SetAttributes(
			attribute.String("request_id", requestID),
			attribute.Int("contract_chars", len(request.ContractText)))

		state, err := orch.Run(ctx, request.ContractText, request.Metadata)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Compliance pipeline failed", "error", err)
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordRun("compliance", false)
			}
			c.JSON(http.StatusInternalServerError, datatypes.ComplianceCheckResponse{
				Status: "error",
				State:  state,
			})
			return
		}

		// The scoring stage owns the summary; recompute only when it is absent.
		if state.RiskSummary == nil && len(state.ComplianceFindings) > 0 {
			levels := make(map[string]risk.Level, len(state.ComplianceFindings))
			for id, finding := range state.ComplianceFindings {
				levels[id] = risk.Level(finding.RiskLevel)
			}
			summary := risk.Aggregate(levels)
			state.RiskSummary = &summary
		}

		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.RecordRun("compliance", true)
			if state.RiskSummary != nil {
				observability.DefaultMetrics.RecordRiskScore(state.RiskSummary.OverallScore)
			}
		}
		span.SetAttributes(attribute.Int("clauses", len(state.Clauses)))

		c.JSON(http.StatusOK, datatypes.ComplianceCheckResponse{
			Status: "success",
			State:  state,
		})
	}
}
