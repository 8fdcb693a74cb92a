// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/datatypes"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/compliance"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/drafting"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedGenerator returns the reply whose key appears in the prompt,
// else the fallback text.
type scriptedGenerator struct {
	replies  map[string]string
	fallback string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	for key, reply := range g.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return g.fallback, nil
}

const sampleContract = `1. The Supplier shall deliver all goods within thirty days of the order date.

2. Payment is due within forty five days of receipt of a valid invoice.

3. Either party may terminate this agreement with sixty days written notice.

4. All confidential information shall remain the property of the disclosing party.`

// =============================================================================
// Compliance Handler Tests
// =============================================================================

func complianceRouter(gen llm.Generator) *gin.Engine {
	router := gin.New()
	orch := compliance.NewOrchestrator(gen, nil, nil)
	router.POST("/v1/compliance/check", HandleComplianceCheck(orch))
	return router
}

func TestHandleComplianceCheck_ReturnsState(t *testing.T) {
	// A generator that never yields JSON exercises every fallback path:
	// default jurisdiction, warning-level findings, zero risk citations.
	router := complianceRouter(&scriptedGenerator{fallback: "not json"})

	body, _ := json.Marshal(datatypes.ComplianceCheckRequest{
		ContractText: sampleContract,
		Metadata:     map[string]any{"jurisdiction": "Delhi"},
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/compliance/check", strings.NewReader(string(body)))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response datatypes.ComplianceCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "success", response.Status)
	require.NotNil(t, response.State)
	assert.Len(t, response.State.Clauses, 4)
	assert.Len(t, response.State.ComplianceFindings, 4)
	require.NotNil(t, response.State.RiskSummary)
	assert.Equal(t, "India", response.State.Jurisdiction["country"])
}

func TestHandleComplianceCheck_MissingContractText(t *testing.T) {
	router := complianceRouter(&scriptedGenerator{fallback: "not json"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/compliance/check", strings.NewReader(`{"metadata": {}}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleComplianceCheck_NoClausesIsServerError(t *testing.T) {
	router := complianceRouter(&scriptedGenerator{fallback: "not json"})

	body := `{"contract_text": "short", "metadata": {"jurisdiction": "Delhi"}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/compliance/check", strings.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var response datatypes.ComplianceCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "error", response.Status)
	assert.NotNil(t, response.State, "partial state carries the audit trail")
}

// =============================================================================
// Drafting Handler Tests
// =============================================================================

func draftingRouter(gen llm.Generator) *gin.Engine {
	router := gin.New()
	orch := drafting.NewOrchestrator(gen)
	router.POST("/v1/drafting/draft", HandleDraftContract(orch))
	return router
}

func TestHandleDraftContract_Success(t *testing.T) {
	contract := strings.Repeat("This agreement binds both parties to the stated terms. ", 5)
	router := draftingRouter(&scriptedGenerator{
		replies: map[string]string{
			"expert legal contract drafter": contract,
		},
		fallback: "not json",
	})

	body, _ := json.Marshal(datatypes.DraftContractRequest{
		Requirements: "Draft a simple services agreement.",
		ContractType: "service",
		Jurisdiction: "Delaware",
		Parties:      []string{"Alpha Corp", "Beta Ltd"},
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/drafting/draft", strings.NewReader(string(body)))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response datatypes.DraftContractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "success", response.Status)
	// The draft is split into clauses and reassembled, which trims
	// surrounding whitespace.
	assert.Equal(t, strings.TrimSpace(contract), response.Contract)
}

func TestHandleDraftContract_PolicyBlock(t *testing.T) {
	router := draftingRouter(&scriptedGenerator{
		replies: map[string]string{
			"policy compliance reviewer": `{"allowed": false, "policy_warnings": [], "suggestions": [], "block_reason": "Unenforceable terms"}`,
		},
		fallback: "not json",
	})

	body := `{"requirements": "Draft an agreement with illegal terms."}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/drafting/draft", strings.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Unenforceable terms", response["reason"])
}

func TestHandleDraftContract_MissingRequirements(t *testing.T) {
	router := draftingRouter(&scriptedGenerator{fallback: "not json"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/drafting/draft", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
