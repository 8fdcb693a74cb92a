// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package policy classifies contract text against embedded sensitive
// content rules before it is sent to external generation providers.
package policy

import (
	"fmt"
	"strings"

	"github.com/LexiconLegalAI/LexiconCore/services/policy/enforcement"
	"gopkg.in/yaml.v3"
)

// Engine is the entry point for sensitive-content classification. It holds
// the compiled rule set and provides methods to scan contract text against
// those rules.
type Engine struct {
	Classifiers []Classification
}

// NewEngine initializes an Engine from the policy definitions embedded in
// the binary via the enforcement package.
//
// It performs the following operations:
// 1. Unmarshals the embedded YAML data.
// 2. Compiles all regex patterns.
// 3. Sorts classifications by priority.
//
// Returns an error if the embedded YAML is malformed or contains invalid regex.
func NewEngine() (*Engine, error) {
	var classificationFile ClassificationFile
	if err := yaml.Unmarshal(enforcement.SensitiveContentPatterns, &classificationFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded policy file: %w", err)
	}

	if err := classificationFile.CompileRegexes(); err != nil {
		return nil, fmt.Errorf("failed to compile a regex %w", err)
	}

	classificationFile.SortByPriority()

	return &Engine{Classifiers: classificationFile.ClassificationPatterns}, nil
}

// ClassifyText performs a quick check on text and returns the name of the
// first (highest-priority) classification that matches. If no rule matches
// it returns "public".
func (e *Engine) ClassifyText(text string) string {
	data := []byte(text)
	for _, classifier := range e.Classifiers {
		for _, re := range classifier.CompiledPatterns {
			if re.Match(data) {
				return classifier.Name
			}
		}
	}
	return "public"
}

// ScanText performs a comprehensive audit of contract text.
//
// It splits the content into lines and checks every line against every
// pattern in the engine, capturing line numbers and the matching text.
// Intended for the ingestion path where detailed feedback goes into the
// audit trail.
func (e *Engine) ScanText(content string) []ScanFinding {
	var findings []ScanFinding
	lines := strings.Split(content, "\n")
	for lineNum, line := range lines {
		for _, classifier := range e.Classifiers {
			for _, pattern := range classifier.Patterns {
				match := pattern.compiledPattern.FindString(line)
				if match != "" {
					findings = append(findings, ScanFinding{
						LineNumber:         lineNum + 1,
						MatchedContent:     strings.TrimSpace(match),
						ClassificationName: classifier.Name,
						PatternId:          pattern.Id,
						PatternDescription: pattern.Description,
						Confidence:         pattern.Confidence,
					})
				}
			}
		}
	}
	return findings
}
