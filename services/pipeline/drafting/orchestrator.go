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

// A final contract shorter than this is treated as a failed draft and
// triggers the single-prompt fallback.
const minContractLength = 100

// Orchestrator runs the drafting pipeline with a whole-pipeline fallback:
// if the stage chain fails or produces an insufficient draft, one
// consolidated prompt drafts the entire contract in a single call.
type Orchestrator struct {
	gen    llm.Generator
	stages []pipeline.Stage

	// Hook observes stage completion for metrics. May be nil.
	Hook pipeline.StageHook
}

// NewOrchestrator wires the drafting stage chain over gen.
func NewOrchestrator(gen llm.Generator) *Orchestrator {
	return &Orchestrator{
		gen: gen,
		stages: []pipeline.Stage{
			&IntentAnalysis{Generator: gen},
			&PolicyCheck{Generator: gen},
			&TemplateSelection{Generator: gen},
			&Generation{Generator: gen},
			&SelfReview{Generator: gen},
		},
	}
}

// Run drafts a contract from rawRequirements. The returned state is always
// non-nil: even a total failure produces a state whose final contract
// explains the error and whose audit trail shows every attempt.
func (o *Orchestrator) Run(ctx context.Context, rawRequirements string, metadata map[string]any) *pipeline.ContractState {
	state := pipeline.NewState(rawRequirements, metadata)
	state.AddAudit("DraftingOrchestrator", "Start", "Drafting process initiated")

	err := pipeline.RunStages(ctx, state, o.Hook, o.stages...)
	if err == nil {
		state.FinalContract = assemble(state.DraftedClauses)
		if len(state.FinalContract) < minContractLength {
			err = fmt.Errorf("agent pipeline produced insufficient content")
		}
	}

	if err != nil {
		slog.Warn("Drafting pipeline failed or produced poor results, running fallback", "error", err)
		state.AddAudit("DraftingOrchestrator", "Fallback", fmt.Sprintf("Error: %v", err))
		o.runFallback(ctx, state)
	}

	state.AddAudit("DraftingOrchestrator", "End", "Drafting process completed")
	return state
}

// runFallback drafts the whole contract in one consolidated prompt when
// the staged pipeline crashes or underdelivers.
func (o *Orchestrator) runFallback(ctx context.Context, state *pipeline.ContractState) {
	prompt := fmt.Sprintf(`You are a highly skilled legal counsel. The automated drafting pipeline encountered an issue,
so you must now manually draft the entire contract in one go.

CONTRACT REQUIREMENTS:
%s

METADATA:
%v

Please provide a professional, complete legal contract in Markdown format.
Include all necessary clauses (Parties, Effective Date, Termination, Liability, etc.)
based on the user's jurisdiction and purpose.`, state.RawText, state.Metadata)

	response, err := o.gen.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		slog.Error("Fallback also failed", "error", err)
		state.FinalContract = fmt.Sprintf("Error: Could not generate contract. %v", err)
		state.AddAudit("DraftingOrchestrator", "Total Failure", err.Error())
		return
	}

	state.FinalContract = response
	state.AddAudit("DraftingOrchestrator", "Fallback Success", "Contract generated via fallback LLM call")
}

func assemble(clauses []pipeline.Clause) string {
	texts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, "\n\n")
}
