// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package risk

// Summary aggregates per-clause levels into a document-wide score.
type Summary struct {
	OverallScore int       `json:"overall_score"`
	RiskLevel    string    `json:"risk_level"`
	Breakdown    Breakdown `json:"breakdown"`
}

// Breakdown counts the contributing findings per level. Low findings do
// not contribute to the score and are not counted.
type Breakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// Aggregate computes the document risk summary from per-clause levels.
//
// Each high finding contributes 10 points and each medium finding 5,
// capped at 100. Scores above 50 are Critical, above 20 Moderate,
// otherwise Low. Pure function: no I/O, no logging.
func Aggregate(levels map[string]Level) Summary {
	var b Breakdown
	for _, l := range levels {
		switch l {
		case LevelHigh:
			b.High++
		case LevelMedium:
			b.Medium++
		}
	}

	score := min(100, b.High*10+b.Medium*5)

	label := "Low"
	switch {
	case score > 50:
		label = "Critical"
	case score > 20:
		label = "Moderate"
	}

	return Summary{OverallScore: score, RiskLevel: label, Breakdown: b}
}
