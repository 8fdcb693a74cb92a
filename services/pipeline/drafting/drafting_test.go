// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package drafting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
)

type scriptedGenerator struct {
	replies  map[string]string
	fallback string
	err      error
	prompts  []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, _ llm.GenerationParams) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	for key, reply := range g.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return g.fallback, nil
}

const generatedContract = `# SERVICE AGREEMENT

This Service Agreement is entered into between Alpha Corp and Beta Ltd.

## Definitions

"Services" means the consulting services described in Schedule A of this agreement.

## Term and Termination

This agreement runs for twelve months and either party may terminate with notice.

## Governing Law

This agreement is governed by the laws of the State of Delaware.`

func fullScript() map[string]string {
	return map[string]string{
		"extract structured information": `{"detected_intent": "Service Agreement", "detected_entities": ["Alpha Corp", "Beta Ltd"], "key_requirements": ["12 month term"], "suggested_clauses": ["Termination"]}`,
		"policy compliance reviewer":     `{"allowed": true, "policy_warnings": [], "suggestions": [], "block_reason": null}`,
		"best template structure":        `{"selected_template_key": "service", "required_sections": ["Definitions", "Term"], "optional_sections": [], "jurisdiction_specific_notes": ""}`,
		"expert legal contract drafter":  generatedContract,
		"senior legal reviewer":          `{"overall_quality": "good", "completeness_score": 8, "issues": [], "missing_clauses": [], "improvement_suggestions": []}`,
	}
}

func TestOrchestratorFullRun(t *testing.T) {
	gen := &scriptedGenerator{replies: fullScript()}
	o := NewOrchestrator(gen)

	state := o.Run(context.Background(), "Draft a 12 month consulting services agreement.", map[string]any{
		"contract_type": "service",
		"jurisdiction":  "Delaware",
		"parties":       []string{"Alpha Corp", "Beta Ltd"},
	})

	assert.Equal(t, "Service Agreement", state.Metadata["detected_intent"])
	assert.Equal(t, "ServiceAgreement_Standard_v1", state.Metadata["selected_template"])
	assert.Equal(t, "good", state.Metadata["review_quality"])

	require.NotEmpty(t, state.DraftedClauses)
	assert.Equal(t, state.FinalContract, strings.Join(clauseTexts(state.DraftedClauses), "\n\n"))
	assert.Contains(t, state.FinalContract, "Governing Law")

	for _, e := range state.AuditLog {
		assert.NotEqual(t, "Fallback", e.Action, "successful run must not fall back")
	}
	last := state.AuditLog[len(state.AuditLog)-1]
	assert.Equal(t, "End", last.Action)
}

func TestOrchestratorFallbackOnShortDraft(t *testing.T) {
	script := fullScript()
	script["expert legal contract drafter"] = "too short"
	fallbackText := strings.Repeat("This is the fallback contract text. ", 10)
	script["highly skilled legal counsel"] = fallbackText

	gen := &scriptedGenerator{replies: script}
	o := NewOrchestrator(gen)

	state := o.Run(context.Background(), "Draft something.", nil)

	assert.Equal(t, fallbackText, state.FinalContract)
	assert.True(t, hasAudit(state, "DraftingOrchestrator", "Fallback Success"))
}

func TestOrchestratorTotalFailure(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("all providers failed")}
	o := NewOrchestrator(gen)

	state := o.Run(context.Background(), "Draft something.", nil)
	require.NotNil(t, state, "total failure still returns a state")

	assert.True(t, strings.HasPrefix(state.FinalContract, "Error: Could not generate contract."))
	assert.True(t, hasAudit(state, "DraftingOrchestrator", "Total Failure"))
	last := state.AuditLog[len(state.AuditLog)-1]
	assert.Equal(t, "End", last.Action)
}

func TestSplitMarkdownClauses(t *testing.T) {
	clauses := SplitMarkdownClauses(generatedContract)
	require.Len(t, clauses, 4)

	assert.Equal(t, "SERVICE AGREEMENT", clauses[0].Title)
	assert.Contains(t, clauses[0].Text, "# SERVICE AGREEMENT")

	assert.Equal(t, "Definitions", clauses[1].Title)
	assert.True(t, strings.HasPrefix(clauses[1].Text, "## Definitions"))

	assert.Equal(t, "Governing Law", clauses[3].Title)
	for _, c := range clauses {
		assert.Equal(t, "llm_generated", c.Type)
	}
}

func TestSplitMarkdownClausesNoHeadings(t *testing.T) {
	clauses := SplitMarkdownClauses("Flat text with no markdown structure at all.")
	require.Len(t, clauses, 1)
	assert.Equal(t, "Preamble", clauses[0].Title)
}

func TestIntentAnalysisFallbackOnParseError(t *testing.T) {
	gen := &scriptedGenerator{fallback: "no json"}
	stage := &IntentAnalysis{Generator: gen}

	state := pipeline.NewState("Draft an NDA for two companies.", map[string]any{"contract_type": "nda"})
	require.NoError(t, stage.Process(context.Background(), state))

	assert.Equal(t, "nda", state.Metadata["detected_intent"])
	assert.True(t, hasAudit(state, "IntentAnalysis", "Fallback"))
}

func TestPolicyCheckBlocks(t *testing.T) {
	gen := &scriptedGenerator{
		fallback: `{"allowed": false, "policy_warnings": ["unenforceable"], "suggestions": [], "block_reason": "Illegal terms requested"}`,
	}
	stage := &PolicyCheck{Generator: gen}

	state := pipeline.NewState("Draft an illegal agreement.", nil)
	require.NoError(t, stage.Process(context.Background(), state))

	assert.Equal(t, "Illegal terms requested", state.Metadata["policy_block"])
	assert.True(t, hasAudit(state, "PolicyCheck", "Block"))
}

func TestPolicyCheckFailOpen(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("provider down")}
	stage := &PolicyCheck{Generator: gen}

	state := pipeline.NewState("Draft something.", nil)
	require.NoError(t, stage.Process(context.Background(), state), "policy check is fail-open")
	_, blocked := state.Metadata["policy_block"]
	assert.False(t, blocked)
}

func TestTemplateSelectionKeywordFallback(t *testing.T) {
	gen := &scriptedGenerator{fallback: "garbage"}
	stage := &TemplateSelection{Generator: gen}

	state := pipeline.NewState("need a mutual nda", map[string]any{"contract_type": "nda"})
	require.NoError(t, stage.Process(context.Background(), state))
	assert.Equal(t, "NDA_Standard_v1", state.Metadata["selected_template"])
}

func TestTemplateSelectionUnknownKeyBuildsCustomName(t *testing.T) {
	gen := &scriptedGenerator{
		fallback: `{"selected_template_key": "general", "required_sections": [], "optional_sections": [], "jurisdiction_specific_notes": ""}`,
	}
	stage := &TemplateSelection{Generator: gen}

	state := pipeline.NewState("something unusual", map[string]any{"detected_intent": "Joint Venture"})
	require.NoError(t, stage.Process(context.Background(), state))
	assert.Equal(t, "JointVenture_Custom_v1", state.Metadata["selected_template"])
}

func TestTemplateSelectionPromptCarriesRequirements(t *testing.T) {
	gen := &scriptedGenerator{
		fallback: `{"selected_template_key": "service", "required_sections": [], "optional_sections": [], "jurisdiction_specific_notes": ""}`,
	}
	stage := &TemplateSelection{Generator: gen}

	state := pipeline.NewState("Monthly retainer with a 30 day notice period.",
		map[string]any{"contract_type": "service"})
	require.NoError(t, stage.Process(context.Background(), state))

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "**User Requirements:** Monthly retainer with a 30 day notice period.")
	assert.Contains(t, prompt, "nda", "template key list must render")
	assert.NotContains(t, prompt, "MISSING")
}

func TestSelfReviewSkipsErrorClause(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("must not be called")}
	stage := &SelfReview{Generator: gen}

	state := pipeline.NewState("", nil)
	state.DraftedClauses = []pipeline.Clause{{Title: "Error", Text: "failed", Type: "error"}}

	require.NoError(t, stage.Process(context.Background(), state))
	assert.Empty(t, gen.prompts, "error clause must not be sent for review")
	assert.True(t, hasAudit(state, "SelfReview", "Skip"))
}

func TestGenerationErrorClauseOnFailure(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("provider down")}
	stage := &Generation{Generator: gen}

	state := pipeline.NewState("Draft something.", nil)
	require.NoError(t, stage.Process(context.Background(), state), "generation failure is recoverable, fallback handles it")
	require.Len(t, state.DraftedClauses, 1)
	assert.Equal(t, "error", state.DraftedClauses[0].Type)
}

func clauseTexts(clauses []pipeline.Clause) []string {
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = c.Text
	}
	return out
}

func hasAudit(state *pipeline.ContractState, stage, action string) bool {
	for _, e := range state.AuditLog {
		if e.Stage == stage && e.Action == action {
			return true
		}
	}
	return false
}
