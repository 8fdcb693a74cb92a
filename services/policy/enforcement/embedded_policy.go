// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
This file serves as the bridge between the build system and the runtime logic. It utilizes the Go
embed package to bake the sensitive_content_patterns.yaml file directly into the compiled binary.
This ensures that the policy rules are immutable at runtime and travel with the executable.
*/

package enforcement

import (
	_ "embed"
)

// SensitiveContentPatterns holds the raw byte content of the
// 'sensitive_content_patterns.yaml' file.
//
// This variable is populated at compile-time using the Go 'embed' directive.
// Baking the YAML into the binary keeps the policy rules immutable: they
// cannot be tampered with on the host filesystem without recompiling.
//
// Usage:
//
//	// Pass these bytes directly to yaml.Unmarshal
//	err := yaml.Unmarshal(enforcement.SensitiveContentPatterns, &targetStruct)
//
//go:embed sensitive_content_patterns.yaml
var SensitiveContentPatterns []byte
