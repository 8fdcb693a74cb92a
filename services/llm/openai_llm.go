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
	"os"
	"strconv"

	"github.com/sashabaranov/go-openai"

	"github.com/LexiconLegalAI/LexiconCore/pkg/ratelimit"
)

const openAISystemPrompt = "You are a legal drafting and compliance assistant for contract review."

type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *ratelimit.Limiter
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = readSecret("/run/secrets/openai_api_key")
		if apiKey != "" {
			slog.Info("Read the OpenAI API Key from container secrets")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}

	rpm := 60
	if v := os.Getenv("OPENAI_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rpm = n
		}
	}
	limiter, err := ratelimit.New(rpm)
	if err != nil {
		return nil, fmt.Errorf("invalid OpenAI rate limit: %w", err)
	}

	slog.Info("Initializing OpenAI client", "model", model, "rpm", rpm)
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		model:   model,
		limiter: limiter,
	}, nil
}

func (o *OpenAIClient) Name() string { return "openai" }

func (o *OpenAIClient) Limiter() *ratelimit.Limiter { return o.limiter }

// Generate implements the Client interface
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	slog.Debug("Generating text via OpenAI", "model", o.model)

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return "", &GenerationError{Provider: o.Name(), Err: err}
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices or empty content")
		return "", &GenerationError{Provider: o.Name(), Err: fmt.Errorf("no choices returned")}
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
