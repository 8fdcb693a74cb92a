// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/LexiconLegalAI/LexiconCore/pkg/ratelimit"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inlineData,omitempty"`
}

type geminiBlobPart struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// GeminiClient calls the Gemini generateContent REST API. It is the only
// backend here with native document attachment support, so the dispatcher
// prefers it for attachment calls.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	limiter    *ratelimit.Limiter
}

func NewGeminiClient() (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		apiKey = readSecret("/run/secrets/gemini_api_key")
		if apiKey != "" {
			slog.Info("Read the Gemini API Key from container secrets")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
		slog.Warn("GEMINI_MODEL not set, defaulting to gemini-2.5-flash")
	}

	// Free tier allows 10 requests per minute.
	rpm := 10
	if v := os.Getenv("GEMINI_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rpm = n
		}
	}
	limiter, err := ratelimit.New(rpm)
	if err != nil {
		return nil, fmt.Errorf("invalid Gemini rate limit: %w", err)
	}

	slog.Info("Initializing Gemini client", "model", model, "rpm", rpm)
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		model:      model,
		limiter:    limiter,
	}, nil
}

func (g *GeminiClient) Name() string { return "gemini" }

func (g *GeminiClient) Limiter() *ratelimit.Limiter { return g.limiter }

// Generate implements the Client interface
func (g *GeminiClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: genConfig(params),
	}
	return g.call(ctx, req)
}

// GenerateWithAttachments implements the AttachmentClient interface.
// Attachment files are sent inline as base64 blobs.
func (g *GeminiClient) GenerateWithAttachments(ctx context.Context, systemPrompt, userPrompt string, attachmentPaths []string, params GenerationParams) (string, error) {
	parts := []geminiPart{{Text: userPrompt}}

	for _, path := range attachmentPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &GenerationError{Provider: g.Name(), Err: fmt.Errorf("read attachment %s: %w", path, err)}
		}
		parts = append(parts, geminiPart{InlineData: &geminiBlobPart{
			MimeType: attachmentMIME(path),
			Data:     base64.StdEncoding.EncodeToString(data),
		}})
		slog.Debug("Attached document for generation", "path", path, "bytes", len(data))
	}

	req := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: genConfig(params),
	}
	if systemPrompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	return g.call(ctx, req)
}

func (g *GeminiClient) call(ctx context.Context, payload geminiRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiBaseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	slog.Debug("Sending REST request to Gemini", "model", g.model)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &GenerationError{Provider: g.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{
			Provider: g.Name(),
			Err:      fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return "", &GenerationError{
			Provider: g.Name(),
			Err:      fmt.Errorf("gemini API error %s: %s", apiResp.Error.Status, apiResp.Error.Message),
		}
	}
	if len(apiResp.Candidates) == 0 {
		return "", &GenerationError{Provider: g.Name(), Err: fmt.Errorf("no candidates returned")}
	}

	var text strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", &GenerationError{Provider: g.Name(), Err: fmt.Errorf("candidate contained no text parts")}
	}
	return text.String(), nil
}

func genConfig(params GenerationParams) *geminiGenConfig {
	cfg := &geminiGenConfig{
		Temperature:     params.Temperature,
		TopP:            params.TopP,
		MaxOutputTokens: params.MaxTokens,
		StopSequences:   params.Stop,
	}
	return cfg
}

func attachmentMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".md":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
