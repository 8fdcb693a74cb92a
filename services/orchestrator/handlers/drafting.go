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
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/datatypes"
	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/observability"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/drafting"
)

// HandleDraftContract runs the drafting pipeline. The pipeline itself
// never returns an error; a policy block maps to 403 and a total
// generation failure maps to 502, both with the state attached.
func HandleDraftContract(orch *drafting.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleDraftContract")
		defer span.End()

		var request datatypes.DraftContractRequest
		if err := c.BindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind drafting request JSON", "error", err)
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
		span.SetAttributes(attribute.String("request_id", requestID))

		metadata := map[string]any{}
		if request.ContractType != "" {
			metadata["contract_type"] = request.ContractType
		}
		if request.Jurisdiction != "" {
			metadata["jurisdiction"] = request.Jurisdiction
		}
		if len(request.Parties) > 0 {
			metadata["parties"] = request.Parties
		}

		state := orch.Run(ctx, request.Requirements, metadata)

		if reason, blocked := state.Metadata["policy_block"]; blocked {
			span.SetAttributes(attribute.Bool("policy_block", true))
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordRun("drafting", false)
			}
			c.JSON(http.StatusForbidden, gin.H{
				"error":  "Request blocked by drafting policy",
				"reason": reason,
				"state":  state,
			})
			return
		}

		if strings.HasPrefix(state.FinalContract, "Error:") {
			span.SetStatus(codes.Error, "drafting pipeline exhausted all fallbacks")
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordRun("drafting", false)
			}
			c.JSON(http.StatusBadGateway, datatypes.DraftContractResponse{
				Status:   "error",
				Contract: state.FinalContract,
				State:    state,
			})
			return
		}

		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.RecordRun("drafting", true)
		}
		span.SetAttributes(attribute.Int("contract_chars", len(state.FinalContract)))

		c.JSON(http.StatusOK, datatypes.DraftContractResponse{
			Status:   "success",
			Contract: state.FinalContract,
			State:    state,
		})
	}
}
