// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lexicon.pipeline")

// Stage is one step of a pipeline run. A stage mutates the shared state and
// records its actions in the audit trail.
//
// Error contract: a returned error is pipeline-fatal and stops the run.
// Recoverable problems (a provider hiccup, an unparseable model reply) are
// handled inside the stage: it records them in the audit trail, leaves the
// state in a usable form, and returns nil so downstream stages still run.
type Stage interface {
	Name() string
	Process(ctx context.Context, state *ContractState) error
}

// FatalError marks a stage failure that invalidates the whole run.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// StageHook observes stage completion. Used by the service layer for
// metrics; nil hooks are skipped.
type StageHook func(stage string, duration time.Duration, err error)

// RunStages executes stages in order against state, tracing each one.
// Execution stops at the first pipeline-fatal error, which is returned
// wrapped with the stage name. The state remains valid either way.
func RunStages(ctx context.Context, state *ContractState, hook StageHook, stages ...Stage) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return &FatalError{Stage: stage.Name(), Err: err}
		}

		stageCtx, span := tracer.Start(ctx, "pipeline.stage."+stage.Name())
		start := time.Now()
		err := stage.Process(stageCtx, state)
		elapsed := time.Since(start)

		if hook != nil {
			hook(stage.Name(), elapsed, err)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			slog.Error("Pipeline stage failed", "stage", stage.Name(), "error", err)
			return &FatalError{Stage: stage.Name(), Err: err}
		}

		span.SetAttributes(attribute.Int64("stage.duration_ms", elapsed.Milliseconds()))
		span.End()
		slog.Debug("Pipeline stage completed", "stage", stage.Name(), "duration", elapsed)
	}
	return nil
}
