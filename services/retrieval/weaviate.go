// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("lexicon.retrieval")

// Weaviate class holding the statute corpus.
const statuteClass = "Statute"

const defaultTopK = 5

// statuteQueryResponse mirrors the GraphQL Get response for the Statute
// class.
type statuteQueryResponse struct {
	Get struct {
		Statute []struct {
			Source       string `json:"source"`
			Section      string `json:"section"`
			Text         string `json:"text"`
			Jurisdiction string `json:"jurisdiction"`
			Additional   struct {
				Certainty float64 `json:"certainty"`
			} `json:"_additional"`
		} `json:"Statute"`
	} `json:"Get"`
}

// WeaviateRetriever implements Retriever over a Weaviate statute corpus
// using semantic NearText search.
//
// # Thread Safety
//
// WeaviateRetriever is safe for concurrent use. The underlying Weaviate
// client handles connection pooling.
type WeaviateRetriever struct {
	client *weaviate.Client
}

// NewWeaviateRetriever creates a retriever from a connected client.
func NewWeaviateRetriever(client *weaviate.Client) *WeaviateRetriever {
	return &WeaviateRetriever{client: client}
}

// NewWeaviateRetrieverFromURL parses rawURL and connects a client to it.
func NewWeaviateRetrieverFromURL(rawURL string) (*WeaviateRetriever, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Weaviate URL: %s", rawURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	slog.Info("Weaviate retriever initialized", "url", rawURL)
	return NewWeaviateRetriever(client), nil
}

// Search implements the Retriever interface.
//
// # Description
//
//	Runs a NearText query against the statute class, optionally constrained
//	by exact-match filters (e.g. jurisdiction). Results come back in
//	certainty order from Weaviate.
//
// # Inputs
//
//   - query: Clause or topic text to match against the corpus.
//   - topK: Maximum references to return. Values < 1 use the default of 5.
//   - filter: Exact-match constraints on statute properties, may be nil.
//
// # Outputs
//
//   - []Reference: Matching excerpts, possibly empty.
//   - error: Non-nil on query or parse failure.
func (r *WeaviateRetriever) Search(ctx context.Context, query string, topK int, filter map[string]string) ([]Reference, error) {
	ctx, span := tracer.Start(ctx, "WeaviateRetriever.Search")
	defer span.End()

	if topK < 1 {
		topK = defaultTopK
	}
	span.SetAttributes(
		attribute.Int("retrieval.top_k", topK),
		attribute.Int("retrieval.query_length", len(query)),
	)

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "source"},
		{Name: "section"},
		{Name: "text"},
		{Name: "jurisdiction"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	builder := r.client.GraphQL().Get().
		WithClassName(statuteClass).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(topK)

	if where := buildWhere(filter); where != nil {
		builder = builder.WithWhere(where)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		slog.Error("Statute corpus search failed", "error", err)
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}

	parsed, err := parseGraphQLResponse[statuteQueryResponse](result)
	if err != nil {
		slog.Error("Failed to parse statute search results", "error", err)
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}

	refs := make([]Reference, 0, len(parsed.Get.Statute))
	for _, s := range parsed.Get.Statute {
		refs = append(refs, Reference{
			Source:       s.Source,
			Section:      s.Section,
			Text:         s.Text,
			Jurisdiction: s.Jurisdiction,
			Certainty:    s.Additional.Certainty,
		})
	}

	slog.Debug("Retrieved statute references", "count", len(refs))
	return refs, nil
}

// buildWhere combines exact-match property filters with AND. Returns nil
// when filter is empty.
func buildWhere(filter map[string]string) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	for prop, value := range filter {
		if value == "" {
			continue
		}
		operands = append(operands, filters.Where().
			WithPath([]string{prop}).
			WithOperator(filters.Equal).
			WithValueString(value))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().
			WithOperator(filters.And).
			WithOperands(operands)
	}
}
