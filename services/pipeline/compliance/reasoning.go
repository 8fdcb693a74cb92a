// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LexiconLegalAI/LexiconCore/pkg/jsonextract"
	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
	"github.com/LexiconLegalAI/LexiconCore/services/risk"
)

// Reasoning runs the per-clause compliance analysis against the model.
// Individual clause failures never abort the run: an unparseable reply
// yields a manual-review warning and a failed call yields a high-risk
// error finding, both recorded against that clause only.
type Reasoning struct {
	Generator llm.Generator
}

func (s *Reasoning) Name() string { return "ComplianceReasoning" }

// reasoningReply mirrors the JSON contract the model is asked to follow.
type reasoningReply struct {
	Status              string                   `json:"status"`
	RiskLevel           string                   `json:"risk_level"`
	Reason              string                   `json:"reason"`
	SuggestedFix        string                   `json:"suggested_fix"`
	MissingRequirements []string                 `json:"missing_requirements"`
	Citations           jsonextract.StringOrList `json:"citations"`
}

func (s *Reasoning) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("ComplianceReasoning: analyzing compliance", "clauses", len(state.Clauses))

	country := state.Jurisdiction["country"]
	if country == "" {
		country = defaultCountry
	}
	referencesBlock := formatReferenceLines(state)

	findings := make(map[string]*pipeline.Finding, len(state.Clauses))
	for _, clause := range state.Clauses {
		findings[clause.ID] = s.analyzeClause(ctx, clause, country, referencesBlock)

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reasoning interrupted: %w", err)
		}
	}

	state.ComplianceFindings = findings
	state.AddAudit(s.Name(), "Analyze", fmt.Sprintf("Analyzed %d clauses with LLM reasoning", len(state.Clauses)))
	return nil
}

func (s *Reasoning) analyzeClause(ctx context.Context, clause pipeline.Clause, country, referencesBlock string) *pipeline.Finding {
	prompt := fmt.Sprintf(`Analyze the following legal clause for compliance against the provided statutes and common legal standards in %s.

Clause Title: %s
Clause Text: %s

Relevant Statutes:
%s

Determine:
1. Status: 'compliant', 'violation', or 'warning'.
2. Risk Level: 'low', 'medium', or 'high'.
3. Reason: Why it is or isn't compliant.
4. Suggested Fix: How to make it compliant if it's not.
5. Missing Requirements: list of requirements the clause fails to cover.
6. Citations: statutes or sections supporting the analysis.

Return ONLY a JSON object:
{
    "status": "...",
    "risk_level": "...",
    "reason": "...",
    "suggested_fix": "...",
    "missing_requirements": [...],
    "citations": [...]
}`, country, clause.Title, clause.Text, referencesBlock)

	lowTemp := float32(0.1)
	response, err := s.Generator.Generate(ctx, prompt, llm.GenerationParams{Temperature: &lowTemp})
	if err != nil {
		slog.Error("Reasoning failed for clause", "clause_id", clause.ID, "error", err)
		return &pipeline.Finding{
			Status:       "error",
			RiskLevel:    string(risk.LevelHigh),
			Reason:       fmt.Sprintf("Analysis error: %v", err),
			SuggestedFix: "Contact support.",
		}
	}

	var reply reasoningReply
	if !jsonextract.UnmarshalObject(response, &reply) {
		slog.Warn("Could not parse reasoning reply for clause", "clause_id", clause.ID)
		return &pipeline.Finding{
			Status:       "warning",
			RiskLevel:    string(risk.LevelMedium),
			Reason:       "LLM failed to parse analysis for this clause.",
			SuggestedFix: "Review manually.",
		}
	}

	return &pipeline.Finding{
		Status:              strings.ToLower(strings.TrimSpace(reply.Status)),
		RiskLevel:           reply.RiskLevel,
		Reason:              reply.Reason,
		SuggestedFix:        reply.SuggestedFix,
		MissingRequirements: reply.MissingRequirements,
		Citations:           reply.Citations,
	}
}

func formatReferenceLines(state *pipeline.ContractState) string {
	if len(state.RetrievedReferences) == 0 {
		return "No reference material available."
	}
	var b strings.Builder
	for _, ref := range state.RetrievedReferences {
		fmt.Fprintf(&b, "- %s (Section %s): %s\n", ref.Source, ref.Section, ref.Text)
	}
	return strings.TrimSpace(b.String())
}
