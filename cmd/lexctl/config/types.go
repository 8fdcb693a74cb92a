// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

type LexiconConfig struct {
	// Server: where the pipeline service is reachable
	Server ServerConfig `yaml:"server"`

	// Defaults: filled into drafting requests when flags are omitted
	Defaults DraftDefaults `yaml:"defaults"`

	// Providers: LLM backend preferences
	Providers ProviderConfig `yaml:"providers"`
}

type ServerConfig struct {
	Host string `yaml:"host"` // e.g. localhost
	Port int    `yaml:"port"` // e.g. 12300
}

type DraftDefaults struct {
	ContractType string `yaml:"contract_type,omitempty"`
	Jurisdiction string `yaml:"jurisdiction,omitempty"`
}

type ProviderConfig struct {
	// Primary can be "openai", "gemini", or "anthropic".
	Primary string `yaml:"primary,omitempty"`
}

func DefaultConfig() LexiconConfig {
	return LexiconConfig{
		Server: ServerConfig{
			Host: "localhost",
			Port: 12300,
		},
	}
}
