// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline defines the shared contract state threaded through the
// compliance and drafting workflows, and the stage contract both
// orchestrators run.
package pipeline

import (
	"time"
	"unicode/utf8"

	"github.com/LexiconLegalAI/LexiconCore/services/retrieval"
	"github.com/LexiconLegalAI/LexiconCore/services/risk"
)

// Clause is one extracted or generated contract clause.
type Clause struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
	Type  string `json:"type"`
}

// Finding is the per-clause compliance analysis result.
type Finding struct {
	Status              string   `json:"status"`
	RiskLevel           string   `json:"risk_level"`
	Reason              string   `json:"reason"`
	SuggestedFix        string   `json:"suggested_fix"`
	MissingRequirements []string `json:"missing_requirements,omitempty"`
	Citations           []string `json:"citations,omitempty"`
}

// AuditEntry records one stage action in the state's audit trail.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Stage     string    `json:"stage"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// ContractState is the shared mutable state passed between stages. A state
// belongs to exactly one pipeline run and is never accessed concurrently:
// stages execute in order and each receives the state after its
// predecessor finished.
type ContractState struct {
	// Core input.
	RawText  string         `json:"raw_text"`
	Metadata map[string]any `json:"metadata"`

	// Context resolved early in the run.
	Jurisdiction map[string]string `json:"jurisdiction"`

	// Processing artifacts.
	Clauses             []Clause              `json:"clauses"`
	RetrievedReferences []retrieval.Reference `json:"retrieved_references"`

	// Analysis results.
	ComplianceFindings map[string]*Finding `json:"compliance_findings"`
	RiskSummary        *risk.Summary       `json:"risk_summary,omitempty"`

	// Generation artifacts.
	DraftedClauses []Clause `json:"drafted_clauses"`
	FinalContract  string   `json:"final_contract"`

	// Observability.
	AuditLog []AuditEntry `json:"audit_log"`

	now func() time.Time
}

// NewState initializes a state for one pipeline run. metadata may be nil.
func NewState(rawText string, metadata map[string]any) *ContractState {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &ContractState{
		RawText:            rawText,
		Metadata:           metadata,
		Jurisdiction:       make(map[string]string),
		ComplianceFindings: make(map[string]*Finding),
		now:                time.Now,
	}
}

// AddAudit appends an entry to the audit trail. The trail is append-only:
// stages record what they did, never rewrite history.
func (s *ContractState) AddAudit(stage, action, details string) {
	clock := s.now
	if clock == nil {
		clock = time.Now
	}
	s.AuditLog = append(s.AuditLog, AuditEntry{
		Timestamp: clock(),
		Stage:     stage,
		Action:    action,
		Details:   details,
	})
}

// MetadataString returns a string metadata value, or fallback when the key
// is absent or holds a non-string.
func (s *ContractState) MetadataString(key, fallback string) string {
	if v, ok := s.Metadata[key]; ok {
		if str, ok := v.(string); ok && str != "" {
			return str
		}
	}
	return fallback
}

// MetadataStrings returns a string-slice metadata value, accepting either
// []string or []any of strings. Returns nil when absent.
func (s *ContractState) MetadataStrings(key string) []string {
	v, ok := s.Metadata[key]
	if !ok {
		return nil
	}
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Truncate caps s at limit bytes without splitting a UTF-8 sequence. Used
// to bound how much contract text goes into a prompt.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
