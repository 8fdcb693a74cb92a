// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/handlers"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/compliance"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/drafting"
)

// SetupRoutes registers all HTTP routes on the router.
func SetupRoutes(router *gin.Engine, complianceOrch *compliance.Orchestrator,
	draftingOrch *drafting.Orchestrator, enableMetrics bool) {

	router.GET("/healthz", handlers.HealthCheck)
	if enableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/compliance/check", handlers.HandleComplianceCheck(complianceOrch))
		v1.POST("/drafting/draft", handlers.HandleDraftContract(draftingOrch))
	}
}
