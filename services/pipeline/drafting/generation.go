// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
)

const generationSystemPrompt = `You are an expert legal contract drafter. Generate a complete, professional legal contract.

RULES:
1. Output ONLY the contract text in well-structured Markdown format.
2. Do NOT include any preamble like "Here is the contract" or "I've drafted".
3. Do NOT include any commentary or explanations outside the contract.
4. Use clear headings (##), numbered clauses (1., 1.1, etc.), and proper legal language.
5. Include standard legal boilerplate appropriate for the jurisdiction.
6. The contract must be comprehensive and ready for legal review.
7. Include signature blocks at the end.`

// Generation drafts the contract body. The generated markdown is split on
// "## " headings into structured clauses; a call failure yields a single
// error-typed clause so the orchestrator-level fallback can take over.
type Generation struct {
	Generator llm.Generator
}

func (s *Generation) Name() string { return "Generation" }

func (s *Generation) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("Generation: generating contract clauses via LLM")

	contractType := state.MetadataString("contract_type", "General Agreement")
	jurisdiction := state.MetadataString("jurisdiction", "United States")
	detectedIntent := state.MetadataString("detected_intent", contractType)
	selectedTemplate := state.MetadataString("selected_template", "Standard")

	parties := state.MetadataStrings("parties")
	partiesText := "- Party A\n- Party B"
	if len(parties) > 0 {
		lines := make([]string, len(parties))
		for i, p := range parties {
			lines[i] = "- " + p
		}
		partiesText = strings.Join(lines, "\n")
	}

	warnings := state.MetadataStrings("policy_warnings")
	warningsText := "None"
	if len(warnings) > 0 {
		lines := make([]string, len(warnings))
		for i, w := range warnings {
			lines[i] = "WARNING: " + w
		}
		warningsText = strings.Join(lines, "\n")
	}

	userPrompt := fmt.Sprintf(`Draft a %s contract with the following details:

**Contract Type:** %s

**Parties:**
%s

**Jurisdiction:** %s

**Selected Template Style:** %s

**User Requirements:**
%s

**Policy Warnings to Address:**
%s

Generate a complete, professional legal agreement covering:
- Definitions and Interpretation
- Scope of Work / Subject Matter
- Term and Duration
- Payment Terms (if applicable)
- Representations and Warranties
- Confidentiality
- Intellectual Property (if applicable)
- Indemnification and Liability
- Termination
- Dispute Resolution
- Governing Law (%s)
- General Provisions (Force Majeure, Amendments, Notices, Severability, Entire Agreement)
- Signature Blocks

Customize all clauses specifically for %s law and %s context.
Output ONLY the final contract in Markdown. No explanations.`,
		detectedIntent, contractType, partiesText, jurisdiction, selectedTemplate,
		state.RawText, warningsText, jurisdiction, jurisdiction, detectedIntent)

	temp := float32(0.3)
	maxTokens := 6000
	generated, err := s.Generator.Generate(ctx,
		generationSystemPrompt+"\n\n"+userPrompt,
		llm.GenerationParams{Temperature: &temp, MaxTokens: &maxTokens})
	if err != nil {
		slog.Error("Generation LLM call failed", "error", err)
		state.DraftedClauses = []pipeline.Clause{{
			Title: "Error",
			Text:  fmt.Sprintf("Contract generation failed: %v. Please try again.", err),
			Type:  "error",
		}}
		state.AddAudit(s.Name(), "Error", fmt.Sprintf("LLM generation failed: %v", err))
		return nil
	}

	clauses := SplitMarkdownClauses(generated)
	state.DraftedClauses = clauses

	state.AddAudit(s.Name(), "Generate",
		fmt.Sprintf("LLM generated %d clauses (%d chars)", len(clauses), len(generated)))
	slog.Info("Generation produced clauses", "count", len(clauses), "chars", len(generated))
	return nil
}

// SplitMarkdownClauses breaks generated markdown into clauses on "## "
// headings. Text before the first heading becomes a Preamble clause; when
// no heading structure is found, the whole text is one Full Contract
// clause.
func SplitMarkdownClauses(generated string) []pipeline.Clause {
	var clauses []pipeline.Clause
	sections := strings.Split(generated, "\n## ")

	for i, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		if i == 0 && !strings.HasPrefix(section, "#") {
			clauses = append(clauses, pipeline.Clause{
				Title: "Preamble",
				Text:  section,
				Type:  "llm_generated",
			})
			continue
		}

		title, _, _ := strings.Cut(section, "\n")
		title = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(title), "# "))
		text := section
		if i > 0 {
			text = "## " + section
		}
		clauses = append(clauses, pipeline.Clause{
			Title: title,
			Text:  text,
			Type:  "llm_generated",
		})
	}

	if len(clauses) == 0 {
		return []pipeline.Clause{{
			Title: "Full Contract",
			Text:  generated,
			Type:  "llm_generated",
		}}
	}
	return clauses
}
