// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// How long a single backend attempt may run before the dispatcher moves on.
const attemptTimeout = 45 * time.Second

// ExhaustedError reports that every backend in the chain was tried and none
// produced a result. Attempts holds one line per backend in try order.
type ExhaustedError struct {
	Attempts []string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all providers failed: [%s]", strings.Join(e.Attempts, "; "))
}

// FailoverClient routes a generation call across an ordered chain of
// backends. Each backend gets at most one attempt per call: a blocked
// limiter or a rate-limited response moves straight to the next backend,
// and the first success ends the call.
type FailoverClient struct {
	clients []Client

	// OnFailover, when set, is invoked each time a backend is skipped or
	// fails and the chain moves on. Used for metrics.
	OnFailover func(provider, reason string)
}

// NewFailoverClient builds a dispatcher over clients in priority order.
func NewFailoverClient(clients ...Client) (*FailoverClient, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("failover client requires at least one backend")
	}
	return &FailoverClient{clients: clients}, nil
}

// Providers returns the backend names in try order.
func (f *FailoverClient) Providers() []string {
	names := make([]string, len(f.clients))
	for i, c := range f.clients {
		names[i] = c.Name()
	}
	return names
}

// Generate implements the Generator interface
func (f *FailoverClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	var attempts []string

	for _, client := range f.clients {
		if !client.Limiter().TryAcquire() {
			slog.Warn("Provider rate limiter blocked, switching provider", "provider", client.Name())
			attempts = append(attempts, client.Name()+": rate limiter blocked")
			f.failover(client.Name(), "limiter")
			continue
		}

		slog.Info("Attempting generation", "provider", client.Name())
		out, err := f.attempt(ctx, client, prompt, params)
		if err == nil {
			return out, nil
		}

		if IsRateLimit(err) {
			slog.Warn("Provider hit API rate limit, switching provider", "provider", client.Name())
			attempts = append(attempts, client.Name()+": rate limit")
			f.failover(client.Name(), "rate_limit")
		} else {
			slog.Error("Provider failed with non-rate-limit error", "provider", client.Name(), "error", err)
			attempts = append(attempts, fmt.Sprintf("%s: %v", client.Name(), err))
			f.failover(client.Name(), "error")
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &ExhaustedError{Attempts: attempts}
}

// GenerateWithAttachments routes an attachment call, trying attachment
// capable backends first. Backends without attachment support receive the
// prompts concatenated as plain text, attachments dropped.
func (f *FailoverClient) GenerateWithAttachments(ctx context.Context, systemPrompt, userPrompt string, attachmentPaths []string, params GenerationParams) (string, error) {
	ordered := f.clients
	if len(attachmentPaths) > 0 {
		ordered = attachmentFirst(f.clients)
	}

	var attempts []string
	for _, client := range ordered {
		if !client.Limiter().TryAcquire() {
			attempts = append(attempts, client.Name()+": rate limiter blocked")
			f.failover(client.Name(), "limiter")
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		var out string
		var err error
		if ac, ok := client.(AttachmentClient); ok {
			out, err = ac.GenerateWithAttachments(attemptCtx, systemPrompt, userPrompt, attachmentPaths, params)
		} else {
			slog.Warn("Backend lacks attachment support, sending text only", "provider", client.Name())
			out, err = client.Generate(attemptCtx, systemPrompt+"\n\n"+userPrompt, params)
		}
		cancel()

		if err == nil {
			return out, nil
		}
		attempts = append(attempts, fmt.Sprintf("%s: %v", client.Name(), err))
		f.failover(client.Name(), "error")

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &ExhaustedError{Attempts: attempts}
}

func (f *FailoverClient) attempt(ctx context.Context, client Client, prompt string, params GenerationParams) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()
	return client.Generate(attemptCtx, prompt, params)
}

func (f *FailoverClient) failover(provider, reason string) {
	if f.OnFailover != nil {
		f.OnFailover(provider, reason)
	}
}

// attachmentFirst returns clients reordered so attachment-capable backends
// come first, preserving relative order within each group.
func attachmentFirst(clients []Client) []Client {
	ordered := make([]Client, 0, len(clients))
	for _, c := range clients {
		if _, ok := c.(AttachmentClient); ok {
			ordered = append(ordered, c)
		}
	}
	for _, c := range clients {
		if _, ok := c.(AttachmentClient); !ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
