// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package compliance implements the contract compliance review pipeline:
// ingestion, jurisdiction resolution, clause extraction, reference
// retrieval, per-clause reasoning, remediation, and risk scoring.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LexiconLegalAI/LexiconCore/pkg/jsonextract"
	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
	"github.com/LexiconLegalAI/LexiconCore/services/policy"
	"github.com/LexiconLegalAI/LexiconCore/services/retrieval"
	"github.com/LexiconLegalAI/LexiconCore/services/segmenter"
)

const defaultCountry = "India"

// jurisdictionTextLimit caps how much contract text goes into the
// jurisdiction detection prompt.
const jurisdictionTextLimit = 2000

// Ingestion normalizes the raw input and scans it for sensitive content
// before any text leaves the service.
type Ingestion struct {
	Policy *policy.Engine
}

func (s *Ingestion) Name() string { return "Ingestion" }

func (s *Ingestion) Process(_ context.Context, state *pipeline.ContractState) error {
	slog.Info("Ingestion: processing input text")

	state.RawText = strings.TrimSpace(state.RawText)
	if state.RawText == "" {
		slog.Warn("No text provided to ingestion")
		state.AddAudit(s.Name(), "Skip", "No input text provided")
		return nil
	}

	// Sensitive content pre-scan. Findings never block the run, they go
	// into the audit trail for the reviewer.
	if s.Policy != nil {
		findings := s.Policy.ScanText(state.RawText)
		if len(findings) > 0 {
			classification := s.Policy.ClassifyText(state.RawText)
			state.Metadata["sensitive_classification"] = classification
			state.AddAudit(s.Name(), "PolicyScan",
				fmt.Sprintf("Found %d sensitive content matches, classification: %s", len(findings), classification))
			slog.Warn("Sensitive content detected in contract text",
				"matches", len(findings), "classification", classification)
		}
	}

	state.AddAudit(s.Name(), "Process", fmt.Sprintf("Processed input of length %d", len(state.RawText)))
	return nil
}

// Jurisdiction resolves the governing jurisdiction. A metadata hint wins;
// otherwise the model is asked, and on any failure the configured default
// country applies.
type Jurisdiction struct {
	Generator llm.Generator
}

func (s *Jurisdiction) Name() string { return "JurisdictionResolver" }

type jurisdictionReply struct {
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
}

func (s *Jurisdiction) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("JurisdictionResolver: determining jurisdiction")

	if hint := state.MetadataString("jurisdiction", ""); hint != "" {
		state.Jurisdiction = map[string]string{"country": defaultCountry, "region": hint}
		state.AddAudit(s.Name(), "Check", fmt.Sprintf("Used metadata: %v", state.Jurisdiction))
		return nil
	}

	text := pipeline.Truncate(state.RawText, jurisdictionTextLimit)
	prompt := fmt.Sprintf(`Analyze the following contract text and identify the governing law and jurisdiction.
Return JSON with keys: "country", "state" (if applicable), "city" (if applicable).

Text: %s`, text)

	lowTemp := float32(0.1)
	response, err := s.Generator.Generate(ctx, prompt, llm.GenerationParams{Temperature: &lowTemp})
	if err != nil {
		slog.Error("Jurisdiction detection failed", "error", err)
		state.Jurisdiction = map[string]string{"country": defaultCountry, "error": err.Error()}
		state.AddAudit(s.Name(), "Error", err.Error())
		return nil
	}

	var reply jurisdictionReply
	if !jsonextract.UnmarshalObject(response, &reply) || reply.Country == "" {
		state.Jurisdiction = map[string]string{"country": defaultCountry, "derived_from": "default"}
		state.AddAudit(s.Name(), "Inference", "Could not parse model reply, defaulted to "+defaultCountry)
		return nil
	}

	state.Jurisdiction = map[string]string{"country": reply.Country}
	if reply.State != "" {
		state.Jurisdiction["state"] = reply.State
	}
	if reply.City != "" {
		state.Jurisdiction["city"] = reply.City
	}
	state.AddAudit(s.Name(), "Inference", fmt.Sprintf("Detected jurisdiction: %v", state.Jurisdiction))
	return nil
}

// ClauseExtraction splits the contract into clauses. A contract that
// yields no clauses cannot be analyzed, so that case is pipeline-fatal.
type ClauseExtraction struct{}

func (s *ClauseExtraction) Name() string { return "ClauseExtractor" }

func (s *ClauseExtraction) Process(_ context.Context, state *pipeline.ContractState) error {
	slog.Info("ClauseExtractor: extracting clauses")

	texts := segmenter.Segment(state.RawText)
	if len(texts) == 0 {
		state.AddAudit(s.Name(), "Error", "No analyzable clauses found in input")
		return fmt.Errorf("no analyzable clauses found in input")
	}

	clauses := make([]pipeline.Clause, len(texts))
	for i, text := range texts {
		clauses[i] = pipeline.Clause{
			ID:   fmt.Sprintf("c%d", i+1),
			Text: text,
			Type: clauseType(text),
		}
	}
	state.Clauses = clauses

	state.AddAudit(s.Name(), "Extract", fmt.Sprintf("Extracted %d candidates", len(clauses)))
	return nil
}

var clauseTypeKeywords = []struct {
	keyword string
	typ     string
}{
	{"terminat", "termination"},
	{"payment", "payment"},
	{"confidential", "confidentiality"},
	{"liabilit", "liability"},
	{"indemnif", "liability"},
	{"governing law", "governing_law"},
	{"jurisdiction", "governing_law"},
}

// clauseType assigns a coarse category from keyword matching. First match
// wins in the order above.
func clauseType(text string) string {
	lower := strings.ToLower(text)
	for _, kt := range clauseTypeKeywords {
		if strings.Contains(lower, kt.keyword) {
			return kt.typ
		}
	}
	return "general"
}

// ReferenceRetrieval looks up corpus references for the resolved
// jurisdiction. Retrieval failures degrade to an empty reference list so
// reasoning can still proceed.
type ReferenceRetrieval struct {
	Retriever retrieval.Retriever
	TopK      int
}

func (s *ReferenceRetrieval) Name() string { return "ReferenceRetrieval" }

func (s *ReferenceRetrieval) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("ReferenceRetrieval: retrieving relevant statutes")

	country := state.Jurisdiction["country"]
	if country == "" {
		country = defaultCountry
	}
	contractType := state.MetadataString("contract_type", "general contracts")
	query := fmt.Sprintf("Contract laws in %s regarding %s", country, contractType)

	if s.Retriever == nil {
		state.RetrievedReferences = nil
		state.AddAudit(s.Name(), "Skip", "No retriever configured")
		return nil
	}

	refs, err := s.Retriever.Search(ctx, query, s.TopK, map[string]string{"jurisdiction": country})
	if err != nil {
		slog.Error("Reference retrieval failed", "error", err)
		state.RetrievedReferences = nil
		state.AddAudit(s.Name(), "Error", err.Error())
		return nil
	}

	if len(refs) == 0 {
		slog.Warn("No references found, proceeding with general fallback", "country", country)
	}
	state.RetrievedReferences = refs
	state.AddAudit(s.Name(), "Search", fmt.Sprintf("Retrieved %d references", len(refs)))
	return nil
}
