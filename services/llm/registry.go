// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Registry holds the configured backends and builds failover chains with a
// caller-chosen primary. Backends whose credentials are absent at startup
// are simply not registered; the chain is built from whatever is available.
type Registry struct {
	clients []Client

	// OnFailover is installed on every dispatcher built by this registry.
	OnFailover func(provider, reason string)
}

// NewRegistryFromEnv constructs every backend whose credentials are
// present. At least one backend must come up.
func NewRegistryFromEnv() (*Registry, error) {
	r := &Registry{}

	if c, err := NewOpenAIClient(); err == nil {
		r.clients = append(r.clients, c)
	} else {
		slog.Warn("OpenAI backend not available", "error", err)
	}
	if c, err := NewGeminiClient(); err == nil {
		r.clients = append(r.clients, c)
	} else {
		slog.Warn("Gemini backend not available", "error", err)
	}
	if c, err := NewAnthropicClient(); err == nil {
		r.clients = append(r.clients, c)
	} else {
		slog.Warn("Anthropic backend not available", "error", err)
	}

	if len(r.clients) == 0 {
		return nil, fmt.Errorf("no generation backends available, set at least one provider API key")
	}

	slog.Info("Generation backends registered", "providers", r.Providers())
	return r, nil
}

// NewRegistry builds a registry over explicit clients. Used by tests and
// embedders that construct their own backends.
func NewRegistry(clients ...Client) (*Registry, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("registry requires at least one backend")
	}
	return &Registry{clients: clients}, nil
}

// Providers lists registered backend names in registration order.
func (r *Registry) Providers() []string {
	names := make([]string, len(r.clients))
	for i, c := range r.clients {
		names[i] = c.Name()
	}
	return names
}

// Dispatcher builds a failover chain. When primary names a registered
// backend it is tried first and the rest follow in registration order; an
// empty or unknown primary keeps registration order. The default primary
// can be set with the LLM_PRIMARY_PROVIDER environment variable.
func (r *Registry) Dispatcher(primary string) (*FailoverClient, error) {
	if primary == "" {
		primary = os.Getenv("LLM_PRIMARY_PROVIDER")
	}
	primary = strings.ToLower(strings.TrimSpace(primary))

	ordered := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.Name() == primary {
			ordered = append(ordered, c)
			break
		}
	}
	if primary != "" && len(ordered) == 0 {
		slog.Warn("Requested primary provider not registered, using default order", "primary", primary)
	}
	for _, c := range r.clients {
		if c.Name() != primary {
			ordered = append(ordered, c)
		}
	}

	fc, err := NewFailoverClient(ordered...)
	if err != nil {
		return nil, err
	}
	fc.OnFailover = r.OnFailover
	return fc, nil
}
