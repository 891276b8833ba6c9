// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/MotionLens/services/assertions"
	"github.com/AleutianAI/MotionLens/services/perfetto"
	"github.com/AleutianAI/MotionLens/services/wm"
)

// writeChecks writes a checks document to a temp file.
func writeChecks(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write checks: %v", err)
	}
	return path
}

// snapshot builds one window state with the given visible windows,
// bottom-most first.
func snapshot(t *testing.T, elapsed int64, titles ...string) *wm.WindowManagerState {
	t.Helper()
	args := perfetto.NewArgs()
	args.SetRow("elapsed_realtime_nanos", perfetto.IntValue(elapsed))
	args.SetRow("window_manager_service.focused_display_id", perfetto.IntValue(0))
	const root = "window_manager_service.root_window_container.window_container"
	for i, title := range titles {
		prefix := fmt.Sprintf("%s.children[%d].window", root, i)
		args.SetRow(prefix+".identifier.title", perfetto.StringValue(title))
		args.SetRow(prefix+".is_visible", perfetto.BoolValue(true))
	}
	state, err := wm.BuildState(perfetto.Entry{ID: elapsed, TS: elapsed, Args: args})
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}
	return state
}

func TestLoadChecks(t *testing.T) {
	path := writeChecks(t, `
assertions:
  - window: NavigationBar
    check: isVisible
  - mode: sequence
    steps:
      - {window: Splash, check: isVisible}
      - {window: Main, check: isVisible}
`)
	doc, err := loadChecks(path)
	if err != nil {
		t.Fatalf("loadChecks: %v", err)
	}
	if len(doc.Assertions) != 2 {
		t.Fatalf("assertions = %d, want 2", len(doc.Assertions))
	}
	if doc.Assertions[0].Window != "NavigationBar" {
		t.Errorf("window = %q", doc.Assertions[0].Window)
	}
	if len(doc.Assertions[1].Steps) != 2 {
		t.Errorf("steps = %d, want 2", len(doc.Assertions[1].Steps))
	}
}

func TestLoadChecks_Empty(t *testing.T) {
	path := writeChecks(t, "assertions: []\n")
	if _, err := loadChecks(path); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestBuildPredicate(t *testing.T) {
	tests := []struct {
		spec     checkSpec
		wantName string
		wantErr  bool
	}{
		{checkSpec{Window: "A", Check: "isVisible"}, `isVisible("A")`, false},
		{checkSpec{Window: "A", Check: "isInvisible"}, `isInvisible("A")`, false},
		{checkSpec{Window: "A", Check: "onTop"}, `isOnTop("A")`, false},
		{checkSpec{Window: "A", Check: "exists"}, `exists("A")`, false},
		{checkSpec{Window: "A", Check: "isAbove", Below: "B"}, `isAbove("A", "B")`, false},
		{checkSpec{Window: "A", Check: "noOverlap", Other: "B"}, `noOverlap("A", "B")`, false},
		{checkSpec{Window: "A", Check: "isAbove"}, "", true},
		{checkSpec{Window: "A", Check: "noOverlap"}, "", true},
		{checkSpec{Window: "A", Check: "levitates"}, "", true},
		{checkSpec{Check: "isVisible"}, "", true},
	}
	for _, tc := range tests {
		p, err := buildPredicate(tc.spec)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%+v: expected error", tc.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("%+v: %v", tc.spec, err)
			continue
		}
		if p.Name != tc.wantName {
			t.Errorf("%+v: name = %q, want %q", tc.spec, p.Name, tc.wantName)
		}
	}
}

func TestEvaluate_Sequence(t *testing.T) {
	trace := &wm.Trace{Entries: []*wm.WindowManagerState{
		snapshot(t, 1, "Splash"),
		snapshot(t, 2, "Splash"),
		snapshot(t, 3, "Main"),
	}}
	subject := assertions.NewSubject(trace)

	spec := assertionSpec{
		Mode: "sequence",
		Steps: []checkSpec{
			{Window: "Splash", Check: "isVisible"},
			{Window: "Main", Check: "isVisible"},
		},
	}
	label, err := evaluate(subject, spec)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !strings.Contains(label, "then") {
		t.Errorf("label = %q, want chained label", label)
	}
}

func TestEvaluate_ForAllFailure(t *testing.T) {
	trace := &wm.Trace{Entries: []*wm.WindowManagerState{
		snapshot(t, 1, "Main"),
		snapshot(t, 2),
	}}
	subject := assertions.NewSubject(trace)

	spec := assertionSpec{checkSpec: checkSpec{Window: "Main", Check: "isVisible"}}
	label, err := evaluate(subject, spec)
	if err == nil {
		t.Fatal("expected assertion failure")
	}
	if label == "" {
		t.Error("failure should still carry a label")
	}
}

func TestEvaluate_UnknownMode(t *testing.T) {
	subject := assertions.NewSubject(&wm.Trace{Entries: []*wm.WindowManagerState{snapshot(t, 1)}})
	_, err := evaluate(subject, assertionSpec{Mode: "eventually"})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
