// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator provides the core pipeline service for LexiconCore.
//
// This package contains the main Service type that coordinates all
// components: HTTP routing, LLM provider failover, the policy engine,
// statute retrieval, and observability infrastructure.
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 12300}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/LexiconLegalAI/LexiconCore/services/llm"
	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/observability"
	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/routes"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/compliance"
	"github.com/LexiconLegalAI/LexiconCore/services/pipeline/drafting"
	"github.com/LexiconLegalAI/LexiconCore/services/policy"
	"github.com/LexiconLegalAI/LexiconCore/services/retrieval"
)

// Service is the running pipeline service.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// Config controls service construction. Zero values use defaults.
type Config struct {
	// Port is the HTTP server port. Default: 12300
	Port int

	// PrimaryProvider names the preferred LLM backend.
	// Valid values: "openai", "gemini", "anthropic".
	// Default: the LLM_PRIMARY_PROVIDER env var, then registration order.
	PrimaryProvider string

	// WeaviateURL is the statute vector database URL.
	// If empty, reference retrieval is disabled and the compliance
	// pipeline runs without citations.
	WeaviateURL string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "lexicon-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	GinMode string
}

// service implements Service for production use.
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config         Config
	router         *gin.Engine
	dispatcher     *llm.FailoverClient
	policyEngine   *policy.Engine
	retriever      retrieval.Retriever
	complianceOrch *compliance.Orchestrator
	draftingOrch   *drafting.Orchestrator
	tracerCleanup  func(context.Context)
}

// New creates a pipeline Service with the given configuration.
//
// # Description
//
// New initializes all service components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Builds the LLM provider registry from the environment
//  5. Creates the Weaviate retriever if a URL is provided
//  6. Initializes the policy engine
//  7. Wires both pipelines and sets up HTTP routes
//
// # Outputs
//
//   - Service: Ready-to-run pipeline service
//   - error: Non-nil if initialization fails
//
// # Assumptions
//
//   - Provider API keys are present in the environment or secret files
//   - Network is available for external service connections
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	var metrics *observability.PipelineMetrics
	if s.config.EnableMetrics {
		metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus pipeline metrics")
	}

	registry, err := llm.NewRegistryFromEnv()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM providers: %w", err)
	}
	if metrics != nil {
		registry.OnFailover = metrics.RecordFailover
	}
	s.dispatcher, err = registry.Dispatcher(s.config.PrimaryProvider)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to build LLM dispatcher: %w", err)
	}
	slog.Info("LLM dispatcher ready", "providers", s.dispatcher.Providers())

	if err := s.initRetriever(); err != nil {
		slog.Warn("Retriever initialization failed, running without statute citations",
			"error", err)
		// Not fatal. The retrieval stage degrades gracefully.
	}

	s.policyEngine, err = policy.NewEngine()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	s.complianceOrch = compliance.NewOrchestrator(s.dispatcher, s.policyEngine, s.retriever)
	s.draftingOrch = drafting.NewOrchestrator(s.dispatcher)
	if metrics != nil {
		s.complianceOrch.Hook = metrics.StageHook("compliance")
		s.draftingOrch.Hook = metrics.StageHook("drafting")
	}

	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting pipeline server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12300
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "lexicon-otel-collector:4317"
	}
	cfg.EnableMetrics = true
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("lexicon-pipeline")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// initRetriever connects to the statute vector database when configured.
func (s *service) initRetriever() error {
	if s.config.WeaviateURL == "" {
		slog.Info("WEAVIATE_SERVICE_URL not set. Running without statute retrieval.")
		return nil
	}
	r, err := retrieval.NewWeaviateRetrieverFromURL(s.config.WeaviateURL)
	if err != nil {
		return err
	}
	s.retriever = r
	slog.Info("Connected statute retriever", "url", s.config.WeaviateURL)
	return nil
}

// initRouter creates the Gin engine with all routes and middleware.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("lexicon-pipeline"))
	routes.SetupRoutes(s.router, s.complianceOrch, s.draftingOrch, s.config.EnableMetrics)
}

// cleanup releases resources on shutdown or failed construction.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
