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
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStage struct {
	name string
	err  error
	ran  bool
}

func (s *recordingStage) Name() string { return s.name }

func (s *recordingStage) Process(_ context.Context, state *ContractState) error {
	s.ran = true
	state.AddAudit(s.name, "Run", "ok")
	return s.err
}

func TestNewStateDefaults(t *testing.T) {
	state := NewState("text", nil)
	assert.Equal(t, "text", state.RawText)
	assert.NotNil(t, state.Metadata)
	assert.NotNil(t, state.Jurisdiction)
	assert.NotNil(t, state.ComplianceFindings)
	assert.Empty(t, state.AuditLog)
}

func TestAddAuditAppendsInOrder(t *testing.T) {
	state := NewState("", nil)
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	i := 0
	state.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Second)
	}

	state.AddAudit("A", "Start", "first")
	state.AddAudit("B", "Run", "second")

	require.Len(t, state.AuditLog, 2)
	assert.Equal(t, "A", state.AuditLog[0].Stage)
	assert.Equal(t, "B", state.AuditLog[1].Stage)
	assert.True(t, state.AuditLog[0].Timestamp.Before(state.AuditLog[1].Timestamp))
}

func TestRunStagesInOrder(t *testing.T) {
	a := &recordingStage{name: "A"}
	b := &recordingStage{name: "B"}
	state := NewState("", nil)

	err := RunStages(context.Background(), state, nil, a, b)
	require.NoError(t, err)
	assert.True(t, a.ran)
	assert.True(t, b.ran)
	require.Len(t, state.AuditLog, 2)
	assert.Equal(t, "A", state.AuditLog[0].Stage)
}

func TestRunStagesStopsOnFatal(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingStage{name: "A", err: boom}
	b := &recordingStage{name: "B"}
	state := NewState("", nil)

	err := RunStages(context.Background(), state, nil, a, b)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, boom)
	assert.False(t, b.ran, "stages after a fatal error must not run")

	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "A", fatal.Stage)
}

func TestRunStagesInvokesHook(t *testing.T) {
	a := &recordingStage{name: "A"}
	b := &recordingStage{name: "B", err: errors.New("bad")}

	var seen []string
	hook := func(stage string, _ time.Duration, err error) {
		tag := stage + "/ok"
		if err != nil {
			tag = stage + "/err"
		}
		seen = append(seen, tag)
	}

	_ = RunStages(context.Background(), NewState("", nil), hook, a, b)
	assert.Equal(t, []string{"A/ok", "B/err"}, seen)
}

func TestRunStagesHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &recordingStage{name: "A"}
	err := RunStages(ctx, NewState("", nil), nil, a)
	require.Error(t, err)
	assert.False(t, a.ran)
}

func TestMetadataString(t *testing.T) {
	state := NewState("", map[string]any{"contract_type": "nda", "count": 3, "empty": ""})
	assert.Equal(t, "nda", state.MetadataString("contract_type", "d"))
	assert.Equal(t, "d", state.MetadataString("count", "d"), "non-string falls back")
	assert.Equal(t, "d", state.MetadataString("empty", "d"))
	assert.Equal(t, "d", state.MetadataString("absent", "d"))
}

func TestMetadataStrings(t *testing.T) {
	state := NewState("", map[string]any{
		"a": []string{"x", "y"},
		"b": []any{"x", 2, "y"},
		"c": "not a list",
	})
	assert.Equal(t, []string{"x", "y"}, state.MetadataStrings("a"))
	assert.Equal(t, []string{"x", "y"}, state.MetadataStrings("b"), "non-strings skipped")
	assert.Nil(t, state.MetadataStrings("c"))
	assert.Nil(t, state.MetadataStrings("absent"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abc", Truncate("abcdef", 3))

	// A multi-byte rune straddling the limit is dropped whole, never
	// split into invalid UTF-8.
	s := "ab§cd" // § is 2 bytes, so the limit of 3 lands mid-rune
	got := Truncate(s, 3)
	assert.Equal(t, "ab", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ab§", Truncate(s, 4))
}
