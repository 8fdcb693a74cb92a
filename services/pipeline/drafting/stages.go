// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package drafting implements the contract drafting pipeline: intent
// analysis, policy checking, template selection, generation, and
// self-review, with a whole-pipeline single-prompt fallback.
package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LexiconLegalAI/LexiconCore/pkg/jsonextract"
	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
)

// IntentAnalysis extracts contract intent and entities from the user's
// request. Parse or call failures fall back to metadata-based defaults.
type IntentAnalysis struct {
	Generator llm.Generator
}

func (s *IntentAnalysis) Name() string { return "IntentAnalysis" }

type intentReply struct {
	DetectedIntent   string   `json:"detected_intent"`
	DetectedEntities []string `json:"detected_entities"`
	KeyRequirements  []string `json:"key_requirements"`
	SuggestedClauses []string `json:"suggested_clauses"`
}

func (s *IntentAnalysis) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("IntentAnalysis: analyzing requirements via LLM")

	prompt := fmt.Sprintf(`Analyze the following contract request and extract structured information.

**User Request:**
%s

**Provided Metadata:**
- Contract Type: %s
- Jurisdiction: %s
- Parties: %v

Respond in valid JSON only (no markdown fences, no explanation):
{
  "detected_intent": "<the type of contract being requested, e.g. 'Service Agreement', 'NDA', 'Employment Contract'>",
  "detected_entities": ["<list of key actors/parties/organizations mentioned>"],
  "key_requirements": ["<list of the main requirements extracted from the request>"],
  "suggested_clauses": ["<list of clauses that should be included based on the request>"]
}`,
		state.RawText,
		state.MetadataString("contract_type", "Not specified"),
		state.MetadataString("jurisdiction", "Not specified"),
		state.MetadataStrings("parties"))

	lowTemp := float32(0.1)
	maxTokens := 1000
	response, err := s.Generator.Generate(ctx, prompt, llm.GenerationParams{Temperature: &lowTemp, MaxTokens: &maxTokens})
	if err != nil {
		slog.Error("IntentAnalysis failed", "error", err)
		state.Metadata["detected_intent"] = state.MetadataString("contract_type", "General Agreement")
		state.Metadata["detected_entities"] = state.MetadataStrings("parties")
		state.AddAudit(s.Name(), "Error", fmt.Sprintf("LLM call failed: %v", err))
		return nil
	}

	var reply intentReply
	if !jsonextract.UnmarshalObject(response, &reply) {
		slog.Warn("IntentAnalysis: could not parse JSON, using fallback")
		state.Metadata["detected_intent"] = state.MetadataString("contract_type", "General Agreement")
		state.Metadata["detected_entities"] = state.MetadataStrings("parties")
		state.Metadata["key_requirements"] = []string{pipeline.Truncate(state.RawText, 200)}
		state.AddAudit(s.Name(), "Fallback", "Used metadata-based defaults due to parse error")
		return nil
	}

	intent := reply.DetectedIntent
	if intent == "" {
		intent = state.MetadataString("contract_type", "General")
	}
	state.Metadata["detected_intent"] = intent
	state.Metadata["detected_entities"] = reply.DetectedEntities
	state.Metadata["key_requirements"] = reply.KeyRequirements
	state.Metadata["suggested_clauses"] = reply.SuggestedClauses

	state.AddAudit(s.Name(), "Analyze",
		fmt.Sprintf("Detected intent: %s, %d entities, %d requirements",
			intent, len(reply.DetectedEntities), len(reply.KeyRequirements)))
	return nil
}

// PolicyCheck validates the request against drafting policy. The check is
// fail-open: when the model cannot be reached or parsed, the request is
// allowed and the audit trail records why.
type PolicyCheck struct {
	Generator llm.Generator
}

func (s *PolicyCheck) Name() string { return "PolicyCheck" }

type policyReply struct {
	Allowed        *bool    `json:"allowed"`
	PolicyWarnings []string `json:"policy_warnings"`
	Suggestions    []string `json:"suggestions"`
	BlockReason    string   `json:"block_reason"`
}

func (s *PolicyCheck) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("PolicyCheck: checking policies via LLM")

	prompt := fmt.Sprintf(`You are a legal policy compliance reviewer. Analyze the following contract drafting request for any policy violations or risks.

**User Request:**
%s

**Detected Intent:** %s
**Jurisdiction:** %s

Check for:
1. Requests for illegal or unenforceable contract terms
2. Potentially unethical clauses
3. Terms that may violate public policy in the given jurisdiction
4. Missing critical protective clauses
5. Any red flags that should be addressed

Respond in valid JSON only (no markdown fences, no explanation):
{
  "allowed": true/false,
  "policy_warnings": ["<list of warnings or concerns, empty if none>"],
  "suggestions": ["<list of suggested additions or modifications>"],
  "block_reason": "<reason if blocked, null if allowed>"
}`,
		state.RawText,
		state.MetadataString("detected_intent", "Unknown"),
		state.MetadataString("jurisdiction", "Not specified"))

	lowTemp := float32(0.1)
	maxTokens := 1000
	response, err := s.Generator.Generate(ctx, prompt, llm.GenerationParams{Temperature: &lowTemp, MaxTokens: &maxTokens})
	if err != nil {
		slog.Error("PolicyCheck failed", "error", err)
		state.Metadata["policy_warnings"] = []string{}
		state.AddAudit(s.Name(), "Error", fmt.Sprintf("LLM call failed: %v, allowed by default", err))
		return nil
	}

	var reply policyReply
	if !jsonextract.UnmarshalObject(response, &reply) {
		slog.Warn("PolicyCheck: could not parse LLM response, allowing by default")
		state.Metadata["policy_warnings"] = []string{}
		state.AddAudit(s.Name(), "Fallback", "Parse error, allowed by default")
		return nil
	}

	state.Metadata["policy_warnings"] = reply.PolicyWarnings
	state.Metadata["policy_suggestions"] = reply.Suggestions

	if reply.Allowed != nil && !*reply.Allowed {
		blockReason := reply.BlockReason
		if blockReason == "" {
			blockReason = "Policy violation detected"
		}
		state.Metadata["policy_block"] = blockReason
		state.AddAudit(s.Name(), "Block", "Blocked: "+blockReason)
		slog.Warn("PolicyCheck: request blocked", "reason", blockReason)
		return nil
	}

	state.AddAudit(s.Name(), "Pass", fmt.Sprintf("Policy check passed with %d warning(s)", len(reply.PolicyWarnings)))
	return nil
}

// Standard template structures per contract type.
var templateStructures = []struct {
	key      string
	template string
}{
	{"nda", "NDA_Standard_v1"},
	{"non-disclosure", "NDA_Standard_v1"},
	{"service agreement", "ServiceAgreement_Standard_v1"},
	{"service", "ServiceAgreement_Standard_v1"},
	{"employment", "Employment_Standard_v1"},
	{"lease", "Lease_Standard_v1"},
	{"purchase", "Purchase_Standard_v1"},
	{"consulting", "Consulting_Standard_v1"},
	{"partnership", "Partnership_Standard_v1"},
	{"licensing", "Licensing_Standard_v1"},
}

func templateKeys() []string {
	keys := make([]string, len(templateStructures))
	for i, ts := range templateStructures {
		keys[i] = ts.key
	}
	return keys
}

func lookupTemplate(key string) (string, bool) {
	for _, ts := range templateStructures {
		if ts.key == key {
			return ts.template, true
		}
	}
	return "", false
}

// TemplateSelection picks the template structure for the draft. The
// model's choice is validated against the catalog; parse or call failures
// fall back to keyword matching.
type TemplateSelection struct {
	Generator llm.Generator
}

func (s *TemplateSelection) Name() string { return "TemplateSelection" }

type templateReply struct {
	SelectedTemplateKey       string   `json:"selected_template_key"`
	RequiredSections          []string `json:"required_sections"`
	OptionalSections          []string `json:"optional_sections"`
	JurisdictionSpecificNotes string   `json:"jurisdiction_specific_notes"`
}

func (s *TemplateSelection) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("TemplateSelection: selecting template via LLM")

	contractType := state.MetadataString("contract_type", "General")
	detectedIntent := state.MetadataString("detected_intent", contractType)
	jurisdiction := state.MetadataString("jurisdiction", "United States")

	requirements := pipeline.Truncate(state.RawText, 500)

	prompt := fmt.Sprintf(`Based on this contract request, determine the best template structure.

**Detected Intent:** %s
**Contract Type:** %s
**Jurisdiction:** %s
**User Requirements:** %s

Available template types: %v

Respond in valid JSON only (no markdown fences):
{
  "selected_template_key": "<best matching key from the available types, or 'general' if none fit>",
  "required_sections": ["<ordered list of sections that MUST be in this contract>"],
  "optional_sections": ["<sections that would be beneficial but not mandatory>"],
  "jurisdiction_specific_notes": "<any jurisdiction-specific requirements>"
}`, detectedIntent, contractType, jurisdiction, requirements, templateKeys())

	lowTemp := float32(0.1)
	maxTokens := 1000
	response, err := s.Generator.Generate(ctx, prompt, llm.GenerationParams{Temperature: &lowTemp, MaxTokens: &maxTokens})
	if err != nil {
		slog.Error("TemplateSelection failed", "error", err)
		fallback := matchTemplate(detectedIntent, contractType)
		state.Metadata["selected_template"] = fallback
		state.AddAudit(s.Name(), "Error", "LLM failed, fallback: "+fallback)
		return nil
	}

	var reply templateReply
	if !jsonextract.UnmarshalObject(response, &reply) {
		fallback := matchTemplate(detectedIntent, contractType)
		state.Metadata["selected_template"] = fallback
		state.AddAudit(s.Name(), "Fallback", "Used keyword matching: "+fallback)
		slog.Warn("TemplateSelection: parse error, fallback", "template", fallback)
		return nil
	}

	templateName, ok := lookupTemplate(reply.SelectedTemplateKey)
	if !ok {
		templateName = strings.ReplaceAll(detectedIntent, " ", "") + "_Custom_v1"
	}

	state.Metadata["selected_template"] = templateName
	state.Metadata["required_sections"] = reply.RequiredSections
	state.Metadata["optional_sections"] = reply.OptionalSections
	state.Metadata["jurisdiction_notes"] = reply.JurisdictionSpecificNotes

	state.AddAudit(s.Name(), "Select",
		fmt.Sprintf("Selected: %s with %d required sections", templateName, len(reply.RequiredSections)))
	return nil
}

// matchTemplate is the keyword-based fallback when the model cannot pick.
func matchTemplate(detectedIntent, contractType string) string {
	searchText := strings.ToLower(detectedIntent + " " + contractType)
	for _, ts := range templateStructures {
		if strings.Contains(searchText, ts.key) {
			return ts.template
		}
	}
	return contractType + "_General_v1"
}

// SelfReview asks the model to review the assembled draft. Review never
// mutates the drafted clauses' text; it annotates metadata only. Empty or
// error-only drafts are skipped.
type SelfReview struct {
	Generator llm.Generator
}

func (s *SelfReview) Name() string { return "SelfReview" }

type reviewReply struct {
	OverallQuality         string   `json:"overall_quality"`
	CompletenessScore      int      `json:"completeness_score"`
	Issues                 []string `json:"issues"`
	MissingClauses         []string `json:"missing_clauses"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

func (s *SelfReview) Process(ctx context.Context, state *pipeline.ContractState) error {
	slog.Info("SelfReview: reviewing draft via LLM")

	if len(state.DraftedClauses) == 0 {
		state.AddAudit(s.Name(), "Skip", "No clauses to review")
		return nil
	}
	if len(state.DraftedClauses) == 1 && state.DraftedClauses[0].Type == "error" {
		state.AddAudit(s.Name(), "Skip", "Skipping review of error clause")
		return nil
	}

	texts := make([]string, len(state.DraftedClauses))
	for i, c := range state.DraftedClauses {
		texts[i] = c.Text
	}
	fullDraft := pipeline.Truncate(strings.Join(texts, "\n\n"), 4000)

	requirements := pipeline.Truncate(state.RawText, 800)
	if requirements == "" {
		requirements = "No specific requirements"
	}

	keyReqs := marshalOr(state.MetadataStrings("key_requirements"), "Not specified")
	suggested := marshalOr(state.MetadataStrings("suggested_clauses"), "Not specified")

	prompt := fmt.Sprintf(`You are a senior legal reviewer. Review the following drafted contract for quality, completeness, and legal soundness.

**Original Requirements:**
%s

**Key Requirements Identified:**
%s

**Suggested Clauses:**
%s

**Jurisdiction:** %s

**Drafted Contract:**
%s

Review for:
1. Are all user requirements addressed?
2. Are essential legal clauses present (terms, termination, governing law, liability)?
3. Is the language consistent and professional?
4. Are there any gaps or missing protections?
5. Is it appropriate for the specified jurisdiction?

Respond in valid JSON only (no markdown fences):
{
  "overall_quality": "<excellent/good/needs_improvement/poor>",
  "completeness_score": <1-10>,
  "issues": ["<list of specific issues found, empty if none>"],
  "missing_clauses": ["<list of important clauses that are missing>"],
  "improvement_suggestions": ["<list of concrete suggestions to improve the draft>"]
}`,
		requirements, keyReqs, suggested,
		state.MetadataString("jurisdiction", "Not specified"),
		fullDraft)

	lowTemp := float32(0.1)
	maxTokens := 1500
	response, err := s.Generator.Generate(ctx, prompt, llm.GenerationParams{Temperature: &lowTemp, MaxTokens: &maxTokens})
	if err != nil {
		slog.Error("SelfReview failed", "error", err)
		state.AddAudit(s.Name(), "Error", fmt.Sprintf("Review failed: %v", err))
		return nil
	}

	var reply reviewReply
	if !jsonextract.UnmarshalObject(response, &reply) {
		slog.Warn("SelfReview: could not parse review response")
		state.AddAudit(s.Name(), "Fallback", "LLM response could not be parsed")
		return nil
	}

	if reply.OverallQuality == "" {
		reply.OverallQuality = "good"
	}
	if reply.CompletenessScore == 0 {
		reply.CompletenessScore = 7
	}

	state.Metadata["review_quality"] = reply.OverallQuality
	state.Metadata["review_score"] = reply.CompletenessScore
	state.Metadata["review_issues"] = reply.Issues
	state.Metadata["review_missing_clauses"] = reply.MissingClauses
	state.Metadata["review_suggestions"] = reply.ImprovementSuggestions

	state.AddAudit(s.Name(), "Review",
		fmt.Sprintf("Quality: %s, Score: %d/10, Issues: %d, Missing: %d",
			reply.OverallQuality, reply.CompletenessScore, len(reply.Issues), len(reply.MissingClauses)))
	return nil
}

func marshalOr(vals []string, fallback string) string {
	if len(vals) == 0 {
		return fallback
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return fallback
	}
	return string(b)
}
