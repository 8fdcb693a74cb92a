// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplianceCheckRequestValidate(t *testing.T) {
	valid := ComplianceCheckRequest{ContractText: "1. A clause of reasonable length goes here."}
	assert.NoError(t, valid.Validate())

	empty := ComplianceCheckRequest{}
	assert.Error(t, empty.Validate())

	oversize := ComplianceCheckRequest{ContractText: strings.Repeat("a", MaxContractBytes+1)}
	assert.Error(t, oversize.Validate())
}

func TestDraftContractRequestValidate(t *testing.T) {
	valid := DraftContractRequest{Requirements: "Draft a mutual NDA."}
	assert.NoError(t, valid.Validate())

	empty := DraftContractRequest{}
	assert.Error(t, empty.Validate())

	oversize := DraftContractRequest{Requirements: strings.Repeat("a", MaxRequirementsBytes+1)}
	assert.Error(t, oversize.Validate())
}

func TestContractAtLimitPasses(t *testing.T) {
	atLimit := ComplianceCheckRequest{ContractText: strings.Repeat("a", MaxContractBytes)}
	assert.NoError(t, atLimit.Validate())
}
