// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the request and response shapes of the
// pipeline HTTP API.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/LexiconLegalAI/LexiconCore/services/pipeline"
)

const (
	// MaxContractBytes is the maximum size of a submitted contract.
	// Checks byte length to prevent memory exhaustion with large payloads.
	MaxContractBytes = 1024 * 1024 // 1MB

	// MaxRequirementsBytes is the maximum size of a drafting request.
	MaxRequirementsBytes = 32 * 1024 // 32KB
)

// requestValidate is the validator instance for pipeline request types.
// Initialized in init() with custom validators.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()

	_ = requestValidate.RegisterValidation("contractbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxContractBytes
	})
	_ = requestValidate.RegisterValidation("requirementbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxRequirementsBytes
	})
}

// ComplianceCheckRequest is the body of POST /v1/compliance/check.
type ComplianceCheckRequest struct {
	ContractText string         `json:"contract_text" binding:"required" validate:"required,contractbytes"`
	Metadata     map[string]any `json:"metadata"`
}

// Validate enforces the size limits that gin's binding tags do not cover.
func (r *ComplianceCheckRequest) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return fmt.Errorf("contract_text must be non-empty and at most %d bytes", MaxContractBytes)
	}
	return nil
}

// ComplianceCheckResponse wraps the populated pipeline state.
type ComplianceCheckResponse struct {
	Status string                  `json:"status"`
	State  *pipeline.ContractState `json:"state"`
}

// DraftContractRequest is the body of POST /v1/drafting/draft.
type DraftContractRequest struct {
	Requirements string   `json:"requirements" binding:"required" validate:"required,requirementbytes"`
	ContractType string   `json:"contract_type"`
	Jurisdiction string   `json:"jurisdiction"`
	Parties      []string `json:"parties"`
}

// Validate enforces the size limits that gin's binding tags do not cover.
func (r *DraftContractRequest) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return fmt.Errorf("requirements must be non-empty and at most %d bytes", MaxRequirementsBytes)
	}
	return nil
}

// DraftContractResponse returns the drafted contract with its clauses
// and the full audit trail.
type DraftContractResponse struct {
	Status   string                  `json:"status"`
	Contract string                  `json:"contract"`
	State    *pipeline.ContractState `json:"state"`
}
