// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package segmenter splits contract text into individual clauses using
// rule-based strategies. No model calls are made here: segmentation must be
// deterministic so the same contract always yields the same clause set.
package segmenter

import (
	"log/slog"
	"regexp"
	"strings"
)

const (
	// Clauses shorter than this are fragments, not analyzable content.
	minClauseLength = 20

	// Hard cap on extracted clauses for a single document.
	maxClauses = 200

	// Lines shorter than this are treated as continuations when merging
	// single-line splits.
	continuationLength = 60
)

var (
	numberedHeader = regexp.MustCompile(`(?m)^\d+(?:\.\d+)*\.?\s`)
	letteredHeader = regexp.MustCompile(`(?m)^[A-Z]\.?\s`)
	keywordHeader  = regexp.MustCompile(`(?mi)^(?:SECTION|ARTICLE|CLAUSE|PARAGRAPH)\s+\d+[:.]`)

	collapseBlank = regexp.MustCompile(`\n{3,}`)

	headerOnly = regexp.MustCompile(`(?i)^(?:SECTION|ARTICLE|CLAUSE|PARAGRAPH)\s+[IVXLCDM0-9]+\.?\s*$`)

	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^page\s+\d+\s*$`),
		regexp.MustCompile(`^-+\s*$`),
		regexp.MustCompile(`^_+\s*$`),
		regexp.MustCompile(`^\*+\s*$`),
		regexp.MustCompile(`^={3,}\s*$`),
	}
)

// Segment splits contract text into clauses.
//
// # Description
//
//	Runs a cascade of splitting strategies, taking the first one that
//	produces enough segments: numbered sections, lettered sections,
//	SECTION/ARTICLE style keyword headers, blank-line paragraphs, then
//	individual lines with short-line continuation merging. When nothing
//	splits, the whole text is returned as a single clause.
//
// # Inputs
//
//	text: Raw contract text. CRLF line endings and uneven blank lines are
//	      normalized before splitting.
//
// # Outputs
//
//	Ordered clause texts, filtered of fragments, bare headers, and page
//	boilerplate, capped at 200 entries.
//
// # Limitations
//
//	Purely lexical. Clauses spanning ambiguous formatting (e.g. numbered
//	lists inside a paragraph) follow the first strategy that fires.
func Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	cleaned := preprocess(text)
	return filter(split(cleaned))
}

// preprocess normalizes line breaks, collapses runs of blank lines to a
// single blank line, and strips per-line whitespace.
func preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = collapseBlank.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func split(text string) []string {
	if segs := splitOnHeaders(text, numberedHeader); len(segs) > 3 {
		return segs
	}
	if segs := splitOnHeaders(text, letteredHeader); len(segs) > 3 {
		return segs
	}
	if segs := splitOnHeaders(text, keywordHeader); len(segs) > 2 {
		return segs
	}

	paragraphs := nonEmpty(strings.Split(text, "\n\n"))
	if len(paragraphs) > 2 {
		return paragraphs
	}

	lines := nonEmpty(strings.Split(text, "\n"))
	if len(lines) > 1 {
		return mergeContinuations(lines)
	}

	if text != "" {
		return []string{text}
	}
	return nil
}

// splitOnHeaders slices text at each position where header matches a line
// start, yielding one segment per header through to the next header.
func splitOnHeaders(text string, header *regexp.Regexp) []string {
	locs := header.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	segs := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if seg := strings.TrimSpace(text[loc[0]:end]); seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// mergeContinuations folds short lines into the preceding clause. Short
// lines in a line-by-line split are almost always wrapped continuations.
func mergeContinuations(lines []string) []string {
	var merged []string
	var current string

	for _, line := range lines {
		if len(line) < continuationLength && current != "" {
			current += " " + line
			continue
		}
		if current != "" {
			merged = append(merged, current)
		}
		current = line
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}

func filter(clauses []string) []string {
	var kept []string
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if len(clause) < minClauseLength {
			continue
		}
		if isHeaderOnly(clause) || isBoilerplate(clause) {
			continue
		}
		kept = append(kept, clause)
		if len(kept) >= maxClauses {
			slog.Warn("clause cap reached, truncating extraction",
				"max_clauses", maxClauses)
			break
		}
	}
	return kept
}

// isHeaderOnly reports whether clause is a bare section header with no
// substantive content.
func isHeaderOnly(clause string) bool {
	if len(clause) < 30 && clause == strings.ToUpper(clause) {
		return true
	}
	return headerOnly.MatchString(clause)
}

func isBoilerplate(clause string) bool {
	clause = strings.ToLower(strings.TrimSpace(clause))
	for _, p := range noisePatterns {
		if p.MatchString(clause) {
			return true
		}
	}
	return false
}

func nonEmpty(parts []string) []string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
