// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package jsonextract recovers JSON payloads from free-form model output.
//
// Generation backends are asked for JSON but routinely wrap it in markdown
// code fences, prose preambles, or trailing commentary. The helpers here
// strip the wrapping and locate the first balanced object or array so the
// callers can unmarshal without trusting the model to emit clean JSON.
package jsonextract

import (
	"encoding/json"
	"strings"
)

// StripFences removes a single leading/trailing markdown code fence from s.
// Both ```json and bare ``` fences are handled. Text outside a fence is
// returned trimmed but otherwise untouched.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (e.g. "json") up to the first newline.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || isFenceInfo(first) {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceInfo(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Object returns the first balanced {...} region of s. The second return is
// false when no balanced object exists. Braces inside JSON strings are
// ignored during the scan.
func Object(s string) (string, bool) {
	return balanced(StripFences(s), '{', '}')
}

// Array returns the first balanced [...] region of s, with the same
// contract as Object.
func Array(s string) (string, bool) {
	return balanced(StripFences(s), '[', ']')
}

func balanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// UnmarshalObject extracts the first balanced object from s and unmarshals
// it into v. It returns false when no object is found or the payload is not
// valid JSON for v.
func UnmarshalObject(s string, v any) bool {
	raw, ok := Object(s)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}

// StringOrList accepts either a JSON string or a JSON array of strings.
// Models answering "citations" frequently return a single string where a
// list was requested; both forms decode to a slice.
type StringOrList []string

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = nil
		} else {
			*s = []string{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
