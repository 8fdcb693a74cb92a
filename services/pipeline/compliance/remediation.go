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

	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
	"github.com/LexiconLegalAI/LexiconCore/services/risk"
)

// Remediation finalizes each finding: the risk level is normalized through
// the classifier and non-compliant findings get a concrete fix built from
// the analysis fields. Compliant findings keep whatever fix text the model
// offered.
type Remediation struct{}

func (s *Remediation) Name() string { return "Remediation" }

func (s *Remediation) Process(_ context.Context, state *pipeline.ContractState) error {
	slog.Info("Remediation: suggesting fixes")

	for _, finding := range state.ComplianceFindings {
		in := risk.Input{
			RiskLevel:           finding.RiskLevel,
			IssueSummary:        finding.Reason,
			SuggestedFix:        finding.SuggestedFix,
			MissingRequirements: finding.MissingRequirements,
			Citations:           finding.Citations,
		}

		finding.RiskLevel = string(risk.Classify(in))
		finding.Citations = risk.ExtractCitations(in)

		if finding.Status != "compliant" {
			finding.SuggestedFix = risk.BuildFix(in)
		}
	}

	state.AddAudit(s.Name(), "Suggest", "Generated remediation suggestions")
	return nil
}

// RiskScoring aggregates per-clause levels into the document summary.
type RiskScoring struct{}

func (s *RiskScoring) Name() string { return "RiskScoring" }

func (s *RiskScoring) Process(_ context.Context, state *pipeline.ContractState) error {
	slog.Info("RiskScoring: calculating risk score")

	levels := make(map[string]risk.Level, len(state.ComplianceFindings))
	for id, finding := range state.ComplianceFindings {
		levels[id] = risk.Level(finding.RiskLevel)
	}

	summary := risk.Aggregate(levels)
	state.RiskSummary = &summary

	state.AddAudit(s.Name(), "Calculate", fmt.Sprintf("Risk Score: %d", summary.OverallScore))
	return nil
}
