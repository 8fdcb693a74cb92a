// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/compliance"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/drafting"
)

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

type staticGenerator struct{}

func (staticGenerator) Generate(_ context.Context, _ string, _ llm.GenerationParams) (string, error) {
	return "static response", nil
}

func testRouter(enableMetrics bool) *gin.Engine {
	router := gin.New()
	gen := staticGenerator{}
	SetupRoutes(router,
		compliance.NewOrchestrator(gen, nil, nil),
		drafting.NewOrchestrator(gen),
		enableMetrics)
	return router
}

func TestSetupRoutes_CoreRoutesRegistered(t *testing.T) {
	router := testRouter(true)

	expected := []struct {
		method string
		path   string
	}{
		{"GET", "/healthz"},
		{"GET", "/metrics"},
		{"POST", "/v1/compliance/check"},
		{"POST", "/v1/drafting/draft"},
	}

	routes := router.Routes()
	for _, want := range expected {
		found := false
		for _, r := range routes {
			if r.Method == want.method && r.Path == want.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("route %s %s not registered", want.method, want.path)
		}
	}
}

func TestSetupRoutes_MetricsDisabled(t *testing.T) {
	router := testRouter(false)

	for _, r := range router.Routes() {
		if r.Path == "/metrics" {
			t.Fatal("metrics route registered despite being disabled")
		}
	}
}

func TestSetupRoutes_HealthEndpoint(t *testing.T) {
	router := testRouter(true)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", w.Code)
	}
}
