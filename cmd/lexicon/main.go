// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command lexicon starts the LexiconCore pipeline HTTP server.
//
// This is the main entry point for the containerized pipeline service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - LEXICON_PORT: HTTP server port (default: 12300)
//   - LLM_PRIMARY_PROVIDER: Preferred LLM backend - openai, gemini, anthropic
//   - OPENAI_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY: Provider credentials
//   - WEAVIATE_SERVICE_URL: Statute vector DB URL (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: lexicon-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o lexicon ./cmd/lexicon
//
//	# Run
//	./lexicon
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := orchestrator.Config{
		Port:            getEnvInt("LEXICON_PORT", 12300),
		PrimaryProvider: os.Getenv("LLM_PRIMARY_PROVIDER"),
		WeaviateURL:     os.Getenv("WEAVIATE_SERVICE_URL"),
		OTelEndpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "lexicon-otel-collector:4317"),
	}

	slog.Info("Starting pipeline service",
		"port", cfg.Port,
		"primary_provider", cfg.PrimaryProvider,
		"weaviate_url", cfg.WeaviateURL,
	)

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create pipeline service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Pipeline service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
