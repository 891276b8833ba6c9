// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wm

import (
	"errors"
	"testing"

	"github.com/AleutianAI/MotionLens/services/perfetto"
)

// kv is one flattened trace row used to assemble test entries.
type kv struct {
	key string
	val perfetto.Value
}

func testEntry(rows ...kv) perfetto.Entry {
	args := perfetto.NewArgs()
	for _, r := range rows {
		args.SetRow(r.key, r.val)
	}
	return perfetto.Entry{ID: 1, TS: 987, Args: args}
}

func requiredRows() []kv {
	return []kv{
		{"elapsed_realtime_nanos", perfetto.IntValue(5_000_000)},
		{"window_manager_service.focused_display_id", perfetto.IntValue(0)},
	}
}

func TestBuildState_RequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		rows      []kv
		wantField string
	}{
		{
			name:      "missing elapsed_realtime_nanos",
			rows:      []kv{{"window_manager_service.focused_app", perfetto.StringValue("x")}},
			wantField: "elapsed_realtime_nanos",
		},
		{
			name:      "missing window_manager_service",
			rows:      []kv{{"elapsed_realtime_nanos", perfetto.IntValue(1)}},
			wantField: "window_manager_service",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildState(testEntry(tc.rows...))
			var reqErr *perfetto.RequiredFieldError
			if !errors.As(err, &reqErr) {
				t.Fatalf("BuildState error = %v, want RequiredFieldError", err)
			}
			if reqErr.Field != tc.wantField {
				t.Errorf("missing field = %q, want %q", reqErr.Field, tc.wantField)
			}
			if reqErr.EntryID != 1 {
				t.Errorf("entry id = %d, want 1", reqErr.EntryID)
			}
		})
	}
}

func TestBuildState_DefaultsOnMissing(t *testing.T) {
	state, err := BuildState(testEntry(requiredRows()...))
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	if state.Timestamp.ElapsedNanos != 5_000_000 {
		t.Errorf("ElapsedNanos = %d, want 5000000", state.Timestamp.ElapsedNanos)
	}
	if state.Timestamp.SystemNanos != 987 {
		t.Errorf("SystemNanos = %d, want 987", state.Timestamp.SystemNanos)
	}
	if state.FocusedApp != "" || state.FocusedWindow != "" || state.Where != "" {
		t.Errorf("string fields should default empty, got app=%q window=%q where=%q",
			state.FocusedApp, state.FocusedWindow, state.Where)
	}
	if state.Policy != (Policy{}) {
		t.Errorf("Policy = %+v, want zero value", state.Policy)
	}
	if state.DisplayFrozen || state.Keyguard.Showing || state.Keyguard.AODShowing {
		t.Error("bool fields should default false")
	}
	if state.Root == nil {
		t.Fatal("Root should be built even when the container tree is absent")
	}
	if len(state.Root.Children) != 0 {
		t.Errorf("got %d root children, want 0", len(state.Root.Children))
	}
	if len(state.Windows()) != 0 {
		t.Errorf("got %d windows, want 0", len(state.Windows()))
	}
}

func TestBuildState_ServiceFields(t *testing.T) {
	rows := append(requiredRows(),
		kv{"where", perfetto.StringValue("trace.ENABLED")},
		kv{"window_manager_service.policy.rotation", perfetto.IntValue(1)},
		kv{"window_manager_service.policy.orientation", perfetto.IntValue(2)},
		kv{"window_manager_service.policy.screen_on_fully", perfetto.BoolValue(true)},
		kv{"window_manager_service.focused_app", perfetto.StringValue("com.example/.Main")},
		kv{"window_manager_service.focused_window.title", perfetto.StringValue("com.example/.Main")},
		kv{"window_manager_service.focused_display_id", perfetto.IntValue(2)},
		kv{"window_manager_service.input_method_window.title", perfetto.StringValue("InputMethod")},
		kv{"window_manager_service.display_frozen", perfetto.BoolValue(true)},
		kv{"window_manager_service.root_window_container.keyguard_controller.keyguard_showing", perfetto.BoolValue(true)},
		kv{"window_manager_service.root_window_container.keyguard_controller.keyguard_per_display[0].display_id", perfetto.IntValue(0)},
		kv{"window_manager_service.root_window_container.keyguard_controller.keyguard_per_display[0].keyguard_occluded", perfetto.BoolValue(true)},
		kv{"window_manager_service.root_window_container.keyguard_controller.keyguard_per_display[1].display_id", perfetto.IntValue(2)},
		kv{"window_manager_service.root_window_container.keyguard_controller.keyguard_per_display[1].keyguard_occluded", perfetto.BoolValue(false)},
	)

	state, err := BuildState(testEntry(rows...))
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	if state.Where != "trace.ENABLED" {
		t.Errorf("Where = %q", state.Where)
	}
	want := Policy{Rotation: 1, Orientation: 2, ScreenOnFully: true}
	if state.Policy != want {
		t.Errorf("Policy = %+v, want %+v", state.Policy, want)
	}
	if state.FocusedApp != "com.example/.Main" {
		t.Errorf("FocusedApp = %q", state.FocusedApp)
	}
	if state.FocusedWindow != "com.example/.Main" {
		t.Errorf("FocusedWindow = %q", state.FocusedWindow)
	}
	if state.FocusedDisplayID != 2 {
		t.Errorf("FocusedDisplayID = %d", state.FocusedDisplayID)
	}
	if state.InputMethodWindow != "InputMethod" {
		t.Errorf("InputMethodWindow = %q", state.InputMethodWindow)
	}
	if !state.DisplayFrozen {
		t.Error("DisplayFrozen = false, want true")
	}
	if !state.Keyguard.Showing {
		t.Error("Keyguard.Showing = false, want true")
	}
	if len(state.Keyguard.OccludedDisplays) != 1 || state.Keyguard.OccludedDisplays[0] != 0 {
		t.Errorf("OccludedDisplays = %v, want [0]", state.Keyguard.OccludedDisplays)
	}
}

func TestBuildState_ContainerTree(t *testing.T) {
	const root = "window_manager_service.root_window_container.window_container"
	rows := append(requiredRows(),
		// Display 0 holding a task holding an activity holding a window.
		kv{root + ".children[0].display_content.id", perfetto.IntValue(0)},
		kv{root + ".children[0].display_content.display_info.name", perfetto.StringValue("Built-in Screen")},
		kv{root + ".children[0].display_content.window_container.visible", perfetto.BoolValue(true)},

		kv{root + ".children[0].display_content.window_container.children[0].task.id", perfetto.IntValue(12)},
		kv{root + ".children[0].display_content.window_container.children[0].task.display_id", perfetto.IntValue(0)},
		kv{root + ".children[0].display_content.window_container.children[0].task.real_activity", perfetto.StringValue("com.example/.Main")},
		kv{root + ".children[0].display_content.window_container.children[0].task.bounds.right", perfetto.IntValue(1080)},
		kv{root + ".children[0].display_content.window_container.children[0].task.bounds.bottom", perfetto.IntValue(2400)},

		kv{root + ".children[0].display_content.window_container.children[0].task.task_fragment.window_container.children[0].activity.name", perfetto.StringValue("com.example/.Main")},
		kv{root + ".children[0].display_content.window_container.children[0].task.task_fragment.window_container.children[0].activity.state", perfetto.StringValue("RESUMED")},
		kv{root + ".children[0].display_content.window_container.children[0].task.task_fragment.window_container.children[0].activity.visible", perfetto.BoolValue(true)},

		kv{root + ".children[0].display_content.window_container.children[0].task.task_fragment.window_container.children[0].activity.window_token.window_container.children[0].window.identifier.title", perfetto.StringValue("com.example/.Main")},
		kv{root + ".children[0].display_content.window_container.children[0].task.task_fragment.window_container.children[0].activity.window_token.window_container.children[0].window.is_visible", perfetto.BoolValue(true)},
		kv{root + ".children[0].display_content.window_container.children[0].task.task_fragment.window_container.children[0].activity.window_token.window_container.children[0].window.frame.right", perfetto.IntValue(1080)},
		kv{root + ".children[0].display_content.window_container.children[0].task.task_fragment.window_container.children[0].activity.window_token.window_container.children[0].window.frame.bottom", perfetto.IntValue(2400)},

		// A bare window token with an anonymous hash.
		kv{root + ".children[1].window_token.hash_code", perfetto.IntValue(0x1abc)},
	)

	state, err := BuildState(testEntry(rows...))
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	if len(state.Root.Children) != 2 {
		t.Fatalf("got %d root children, want 2", len(state.Root.Children))
	}

	display := state.Root.Children[0]
	if display.Kind != KindDisplayContent {
		t.Fatalf("children[0].Kind = %v, want display_content", display.Kind)
	}
	if display.Title != "Built-in Screen" || !display.Visible {
		t.Errorf("display = %+v", display)
	}

	task := display.Children[0]
	if task.Kind != KindTask || task.TaskID != 12 {
		t.Fatalf("task = %+v", task)
	}
	if task.Bounds != (Rect{Right: 1080, Bottom: 2400}) {
		t.Errorf("task.Bounds = %v", task.Bounds)
	}

	activity := task.Children[0]
	if activity.Kind != KindActivity || activity.ActivityState != "RESUMED" || !activity.Visible {
		t.Fatalf("activity = %+v", activity)
	}

	window := activity.Children[0]
	if window.Kind != KindWindow || window.Title != "com.example/.Main" || !window.Visible {
		t.Fatalf("window = %+v", window)
	}
	if window.Frame != (Rect{Right: 1080, Bottom: 2400}) {
		t.Errorf("window.Frame = %v", window.Frame)
	}

	token := state.Root.Children[1]
	if token.Kind != KindWindowToken {
		t.Fatalf("children[1].Kind = %v, want window_token", token.Kind)
	}
	if token.Token != "1abc" || token.Title != "1abc" {
		t.Errorf("token = %q title = %q, want hex hash", token.Token, token.Title)
	}
}

func TestBuildState_ZOrderTopFirst(t *testing.T) {
	const root = "window_manager_service.root_window_container.window_container"
	// Dumps store bottom-most first, so NavBar (index 2) is top-most.
	rows := append(requiredRows(),
		kv{root + ".children[0].window.identifier.title", perfetto.StringValue("Wallpaper")},
		kv{root + ".children[0].window.is_visible", perfetto.BoolValue(true)},
		kv{root + ".children[1].window.identifier.title", perfetto.StringValue("com.example/.Main")},
		kv{root + ".children[1].window.is_visible", perfetto.BoolValue(false)},
		kv{root + ".children[2].window.identifier.title", perfetto.StringValue("NavBar")},
		kv{root + ".children[2].window.is_visible", perfetto.BoolValue(true)},
	)

	state, err := BuildState(testEntry(rows...))
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}

	windows := state.Windows()
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	wantOrder := []string{"NavBar", "com.example/.Main", "Wallpaper"}
	for i, title := range wantOrder {
		if windows[i].Title != title {
			t.Errorf("windows[%d] = %q, want %q", i, windows[i].Title, title)
		}
		if windows[i].ZOrder != i {
			t.Errorf("windows[%d].ZOrder = %d, want %d", i, windows[i].ZOrder, i)
		}
	}

	visible := state.VisibleWindows()
	if len(visible) != 2 || visible[0].Title != "NavBar" || visible[1].Title != "Wallpaper" {
		t.Errorf("VisibleWindows = %v", visible)
	}
	if top := state.TopVisibleWindow(); top == nil || top.Title != "NavBar" {
		t.Errorf("TopVisibleWindow = %v", top)
	}
	if !state.IsWindowVisible("Wallpaper") {
		t.Error("IsWindowVisible(Wallpaper) = false")
	}
	if state.IsWindowVisible("example") {
		t.Error("IsWindowVisible(example) = true, want false")
	}
	// Substring match against the qualified title.
	if w := state.Window("Main"); w == nil || w.Title != "com.example/.Main" {
		t.Errorf("Window(Main) = %v", w)
	}
	if w := state.Window("NoSuchWindow"); w != nil {
		t.Errorf("Window(NoSuchWindow) = %v, want nil", w)
	}
}

func TestRect(t *testing.T) {
	full := Rect{Right: 1080, Bottom: 2400}
	top := Rect{Right: 1080, Bottom: 100}
	bottom := Rect{Top: 2300, Right: 1080, Bottom: 2400}
	empty := Rect{Left: 50, Top: 50, Right: 50, Bottom: 50}

	if !full.Overlaps(top) || !top.Overlaps(full) {
		t.Error("full and top should overlap")
	}
	if top.Overlaps(bottom) {
		t.Error("top and bottom should not overlap")
	}
	if !empty.IsEmpty() {
		t.Error("degenerate rect should be empty")
	}
	if empty.Overlaps(full) || full.Overlaps(empty) {
		t.Error("empty rects never overlap")
	}
}
