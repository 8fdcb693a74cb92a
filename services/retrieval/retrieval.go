// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retrieval searches the statute and regulation corpus for text
// relevant to a contract clause.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate/entities/models"
)

// Reference is one retrieved statute or regulation excerpt.
type Reference struct {
	Source       string  `json:"source"`
	Section      string  `json:"section"`
	Text         string  `json:"text"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	Certainty    float64 `json:"certainty,omitempty"`
}

// Retriever finds corpus references relevant to a query. Implementations
// must be safe for concurrent use.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, filter map[string]string) ([]Reference, error)
}

// FormatReferences renders references as a prompt context block. Each entry
// carries its source and section so model citations stay traceable.
func FormatReferences(refs []Reference) string {
	if len(refs) == 0 {
		return "No reference material available."
	}
	var b strings.Builder
	for i, ref := range refs {
		fmt.Fprintf(&b, "[%d] %s", i+1, ref.Source)
		if ref.Section != "" {
			fmt.Fprintf(&b, " %s", ref.Section)
		}
		b.WriteString(":\n")
		b.WriteString(ref.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// parseGraphQLResponse converts Weaviate's dynamic response payload into a
// typed struct. T must carry json tags matching the response shape.
func parseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return &result, nil
}
