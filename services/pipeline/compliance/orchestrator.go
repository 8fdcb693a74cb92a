// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package compliance

import (
	"context"
	"log/slog"

	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
	"github.com/LexiconLegalAI/LexiconCore/services/policy"
	"github.com/LexiconLegalAI/LexiconCore/services/retrieval"
)

// Orchestrator runs the full compliance check over a contract.
type Orchestrator struct {
	stages []pipeline.Stage

	// Hook observes stage completion for metrics. May be nil.
	Hook pipeline.StageHook
}

// NewOrchestrator wires the stage chain. policyEngine and retriever may be
// nil, in which case their stages degrade gracefully.
func NewOrchestrator(gen llm.Generator, policyEngine *policy.Engine, retriever retrieval.Retriever) *Orchestrator {
	return &Orchestrator{
		stages: []pipeline.Stage{
			&Ingestion{Policy: policyEngine},
			&Jurisdiction{Generator: gen},
			&ClauseExtraction{},
			&ReferenceRetrieval{Retriever: retriever, TopK: 5},
			&Reasoning{Generator: gen},
			&Remediation{},
			&RiskScoring{},
		},
	}
}

// Run executes the compliance pipeline over rawText. The returned state is
// always non-nil and carries the audit trail of everything that ran; the
// error is non-nil only for pipeline-fatal failures, and the state then
// shows how far the run got.
func (o *Orchestrator) Run(ctx context.Context, rawText string, metadata map[string]any) (*pipeline.ContractState, error) {
	state := pipeline.NewState(rawText, metadata)
	state.AddAudit("Orchestrator", "Start", "Compliance check initiated")

	if err := pipeline.RunStages(ctx, state, o.Hook, o.stages...); err != nil {
		slog.Error("Compliance pipeline aborted", "error", err)
		state.AddAudit("Orchestrator", "Abort", err.Error())
		return state, err
	}

	state.AddAudit("Orchestrator", "End", "Compliance check completed")
	return state, nil
}
