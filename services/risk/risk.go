// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package risk classifies compliance findings into risk levels and turns
// them into actionable remediation text.
//
// Classification is deterministic: model output feeds in as parsed fields,
// but every decision below is a pure function of those fields so the same
// finding always scores the same.
package risk

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is a per-clause risk classification.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Valid reports whether l is one of the recognized levels.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Input carries the parsed fields of a single compliance analysis, as
// returned by the reasoning model for one clause.
type Input struct {
	RiskLevel           string
	IssueSummary        string
	SuggestedFix        string
	MissingRequirements []string
	Citations           []string
}

// Assessment is a completed per-clause risk decision.
type Assessment struct {
	Level     Level
	Fix       string
	Citations []string
}

// Assess produces the full risk decision for one parsed analysis.
func Assess(in Input) Assessment {
	return Assessment{
		Level:     Classify(in),
		Fix:       BuildFix(in),
		Citations: ExtractCitations(in),
	}
}

// Classify determines the risk level for a parsed analysis.
//
// An explicit, valid risk_level from the model wins. Otherwise the level is
// inferred from indicator phrases in the summary and fix text, then from
// the count of missing requirements. The heuristic is ordered: any high
// indicator outranks every medium indicator regardless of position.
func Classify(in Input) Level {
	explicit := Level(strings.ToLower(strings.TrimSpace(in.RiskLevel)))
	if explicit.Valid() {
		return explicit
	}
	return heuristicLevel(in)
}

var highIndicators = []string{
	"high", "critical", "severe", "violation",
	"illegal", "non-compliant", "non compliant", "breach",
	"mandatory", "required", "must be", "fails to",
}

var mediumIndicators = []string{
	"medium", "concern", "missing",
	"should", "may", "consider", "recommend", "suggested",
	"advisable", "improve", "enhance", "unclear",
}

var lowIndicators = []string{
	"compliant", "acceptable", "adequate", "satisfactory",
	"meets requirements", "no issues", "low risk", "minimal",
}

func heuristicLevel(in Input) Level {
	combined := strings.ToLower(in.IssueSummary + " " + in.SuggestedFix)
	missing := len(in.MissingRequirements)

	for _, ind := range highIndicators {
		if strings.Contains(combined, ind) {
			slog.Debug("high risk indicator matched", "indicator", ind)
			return LevelHigh
		}
	}
	if missing >= 3 {
		slog.Debug("high risk from missing requirements", "count", missing)
		return LevelHigh
	}

	for _, ind := range mediumIndicators {
		if strings.Contains(combined, ind) {
			slog.Debug("medium risk indicator matched", "indicator", ind)
			return LevelMedium
		}
	}
	if missing > 0 {
		return LevelMedium
	}

	for _, ind := range lowIndicators {
		if strings.Contains(combined, ind) {
			return LevelLow
		}
	}
	return LevelLow
}

// BuildFix extracts or synthesizes a remediation recommendation.
//
// Preference order: the model's explicit suggested_fix (unless it is the
// literal "none"), a numbered list built from missing requirements, a
// "Review and address" wrapper around the issue summary, then a generic
// counsel-review fallback.
func BuildFix(in Input) string {
	if fix := strings.TrimSpace(in.SuggestedFix); fix != "" && strings.ToLower(fix) != "none" {
		return fix
	}

	if len(in.MissingRequirements) > 0 {
		parts := []string{"The following requirements should be addressed:"}
		for i, req := range in.MissingRequirements {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, req))
		}
		return strings.Join(parts, "\n")
	}

	if in.IssueSummary != "" {
		return "Review and address: " + in.IssueSummary
	}

	return "No specific fix recommended. Consider review by legal counsel."
}

// ExtractCitations returns the citations with duplicates removed, first
// occurrence order preserved. Empty entries are dropped.
func ExtractCitations(in Input) []string {
	seen := make(map[string]struct{}, len(in.Citations))
	var unique []string
	for _, c := range in.Citations {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// SummaryText renders a human-readable one-finding summary for display in
// review tooling.
func SummaryText(level Level, fix string) string {
	var desc string
	switch level {
	case LevelHigh:
		desc = "HIGH RISK - Immediate attention required"
	case LevelMedium:
		desc = "MEDIUM RISK - Review and consider modifications"
	case LevelLow:
		desc = "LOW RISK - Generally acceptable"
	default:
		desc = "UNKNOWN RISK"
	}

	out := desc + "\n\n"
	if fix != "" {
		out += "Recommended Action:\n" + fix
	}
	return out
}
