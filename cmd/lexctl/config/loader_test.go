// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadInternal_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	t.Setenv("LEXICON_CONFIG", path)

	Global = LexiconConfig{}
	if err := loadInternal(); err != nil {
		t.Fatalf("loadInternal: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	if Global.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want localhost", Global.Server.Host)
	}
	if Global.Server.Port != 12300 {
		t.Errorf("Server.Port = %d, want 12300", Global.Server.Port)
	}
}

func TestLoadInternal_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := "server:\n  host: pipeline.internal\n  port: 9000\ndefaults:\n  jurisdiction: India\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEXICON_CONFIG", path)

	Global = LexiconConfig{}
	if err := loadInternal(); err != nil {
		t.Fatalf("loadInternal: %v", err)
	}

	if Global.Server.Host != "pipeline.internal" {
		t.Errorf("Server.Host = %q, want pipeline.internal", Global.Server.Host)
	}
	if Global.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", Global.Server.Port)
	}
	if Global.Defaults.Jurisdiction != "India" {
		t.Errorf("Defaults.Jurisdiction = %q, want India", Global.Defaults.Jurisdiction)
	}
}

func TestApplyDefaults_FillsMissingServerFields(t *testing.T) {
	cfg := LexiconConfig{}
	applyDefaults(&cfg)

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 12300 {
		t.Errorf("applyDefaults gave %+v", cfg.Server)
	}
}
