// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides the provider adapters for text generation backends
// and the failover dispatcher that routes pipeline calls across them.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/LexiconLegalAI/LexiconCore/pkg/ratelimit"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Generator is the minimal text generation surface the pipeline stages
// program against. The failover dispatcher implements it too, so stages
// never know whether they talk to one backend or a provider chain.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Client is a single provider backend with local admission control.
type Client interface {
	Generator

	// Name identifies the backend in logs, audit entries, and metrics.
	Name() string

	// Limiter returns the backend's token bucket. The dispatcher consults
	// it before attempting a call so an exhausted quota fails over without
	// burning a network round trip.
	Limiter() *ratelimit.Limiter
}

// AttachmentClient is a Client that can accept document attachments
// alongside the prompt. Backends without native document support do not
// implement it and the dispatcher orders them last for attachment calls.
type AttachmentClient interface {
	Client

	GenerateWithAttachments(ctx context.Context, systemPrompt, userPrompt string, attachmentPaths []string, params GenerationParams) (string, error)
}

// GenerationError wraps a backend failure with its origin so callers can
// distinguish quota exhaustion from hard errors.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Substrings that mark a provider error as quota exhaustion rather than a
// hard failure. Matched case-insensitively against the full error text.
var rateLimitSignatures = []string{
	"429",
	"rate limit",
	"quota",
	"resource exhausted",
	"too many requests",
}

// IsRateLimit reports whether err looks like a provider rate limit or
// quota rejection. Providers do not share an error taxonomy, so this is a
// signature match on the message text.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range rateLimitSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// readSecret loads an API key from a container secret mount. Returns the
// empty string when no path yields a non-empty value.
func readSecret(paths ...string) string {
	for _, p := range paths {
		if content, err := os.ReadFile(p); err == nil {
			if s := strings.TrimSpace(string(content)); s != "" {
				return s
			}
		}
	}
	return ""
}
