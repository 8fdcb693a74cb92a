// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package policy

import (
	"testing"
)

func TestEngine(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("Failed to initialize engine: %v", err)
	}

	tests := []struct {
		name            string
		input           string
		shouldFind      bool
		expectedClass   string
		expectedPattern string
	}{
		{
			name:          "Safe Clause",
			input:         "The Supplier shall deliver the goods within thirty days.",
			shouldFind:    false,
			expectedClass: "",
		},
		{
			name:            "AWS Access Key Pasted Into Contract",
			input:           "Integration credentials: AKIA1234567890123456 for the prod account.",
			shouldFind:      true,
			expectedClass:   "credentials",
			expectedPattern: "CRED-002",
		},
		{
			name:            "Social Security Number",
			input:           "Employee SSN 123-45-6789 shall be kept on file.",
			shouldFind:      true,
			expectedClass:   "personal_pii",
			expectedPattern: "PII-001",
		},
		{
			name:            "Privilege Legend",
			input:           "ATTORNEY-CLIENT PRIVILEGED AND CONFIDENTIAL",
			shouldFind:      true,
			expectedClass:   "privileged",
			expectedPattern: "PRIV-001",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			findings := engine.ScanText(tc.input)

			if tc.shouldFind {
				if len(findings) == 0 {
					t.Errorf("Expected to find '%s' but got 0 findings.", tc.expectedPattern)
					return
				}

				first := findings[0]
				if first.ClassificationName != tc.expectedClass {
					t.Errorf("Expected classification '%s', got '%s'", tc.expectedClass, first.ClassificationName)
				}
				if first.PatternId != tc.expectedPattern {
					t.Errorf("Expected pattern ID '%s', got '%s'", tc.expectedPattern, first.PatternId)
				}

				// ClassifyText must agree with ScanText
				fastClass := engine.ClassifyText(tc.input)
				if fastClass != tc.expectedClass {
					t.Errorf("ClassifyText mismatch. Expected '%s', got '%s'", tc.expectedClass, fastClass)
				}
			} else {
				if len(findings) > 0 {
					t.Errorf("Expected 0 findings, got %d. First match: %s", len(findings), findings[0].PatternId)
				}
				fastClass := engine.ClassifyText(tc.input)
				if fastClass != "public" {
					t.Errorf("Expected 'public' for safe clause, got '%s'", fastClass)
				}
			}
		})
	}
}

func TestEngineInitializationProperties(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("Failed to init: %v", err)
	}

	if len(engine.Classifiers) < 2 {
		t.Fatal("Not enough classifiers loaded to test sorting.")
	}

	first := engine.Classifiers[0]
	last := engine.Classifiers[len(engine.Classifiers)-1]

	if first.Priority < last.Priority {
		t.Errorf("Classifiers are not sorted by priority! First: %d, Last: %d", first.Priority, last.Priority)
	}

	if first.Name != "credentials" {
		t.Logf("Warning: 'credentials' is not the first classifier. The highest priority is currently: %s", first.Name)
	}
}

func TestEngineConcurrency(t *testing.T) {
	engine, _ := NewEngine()
	input := "Integration key is AKIA1234567890123456"

	t.Run("ParallelScanning", func(t *testing.T) {
		t.Parallel()
		for i := 0; i < 100; i++ {
			t.Run("Worker", func(t *testing.T) {
				t.Parallel()
				findings := engine.ScanText(input)
				if len(findings) == 0 {
					t.Error("Concurrent scan failed to find credential")
				}
			})
		}
	})
}

func BenchmarkScanSafeClause(b *testing.B) {
	engine, _ := NewEngine()
	input := "The parties agree that all notices shall be delivered in writing."
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.ScanText(input)
	}
}

func BenchmarkScanCredentialClause(b *testing.B) {
	engine, _ := NewEngine()
	input := "Integration key is AKIA1234567890123456 which should be detected."
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.ScanText(input)
	}
}
