// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wm

import (
	"fmt"

	"github.com/AleutianAI/MotionLens/services/perfetto"
)

// BuildState builds one immutable snapshot from a grouped trace entry.
//
// Only two fields are required: window_manager_service and
// elapsed_realtime_nanos. Everything else is optional and defaults
// type-specifically (0, false, "") when absent; a missing optional
// field never fails the parse. Entries where no optional field
// resolves build into an effectively empty state.
func BuildState(entry perfetto.Entry) (*WindowManagerState, error) {
	args := entry.Args
	if !args.HasChild("elapsed_realtime_nanos") {
		return nil, &perfetto.RequiredFieldError{Field: "elapsed_realtime_nanos", EntryID: entry.ID}
	}
	if !args.HasChild("window_manager_service") {
		return nil, &perfetto.RequiredFieldError{Field: "window_manager_service", EntryID: entry.ID}
	}

	svc := args.Child("window_manager_service")
	policy := svc.Child("policy")
	root := svc.Child("root_window_container")
	keyguard := root.Child("keyguard_controller")

	state := &WindowManagerState{
		Timestamp: Timestamp{
			ElapsedNanos: args.ChildInt("elapsed_realtime_nanos"),
			SystemNanos:  entry.TS,
		},
		Where: args.ChildStr("where"),
		Policy: Policy{
			Rotation:                  int32(policy.ChildInt("rotation")),
			Orientation:               int32(policy.ChildInt("orientation")),
			ScreenOnFully:             policy.ChildBool("screen_on_fully"),
			KeyguardDrawComplete:      policy.ChildBool("keyguard_draw_complete"),
			WindowManagerDrawComplete: policy.ChildBool("window_manager_draw_complete"),
		},
		FocusedApp:        svc.ChildStr("focused_app"),
		FocusedWindow:     svc.Child("focused_window").ChildStr("title"),
		FocusedDisplayID:  int32(svc.ChildInt("focused_display_id")),
		InputMethodWindow: svc.Child("input_method_window").ChildStr("title"),
		DisplayFrozen:     svc.ChildBool("display_frozen"),
		Keyguard:          buildKeyguard(keyguard),
		Root:              buildGeneric(root.Child("window_container")),
	}
	state.freeze()
	return state, nil
}

// buildKeyguard folds the keyguard controller subtree.
func buildKeyguard(args *perfetto.Args) KeyguardState {
	ks := KeyguardState{
		Showing:    args.ChildBool("keyguard_showing"),
		AODShowing: args.ChildBool("aod_showing"),
	}
	for _, pd := range args.Children("keyguard_per_display") {
		if pd.ChildBool("keyguard_occluded") {
			ks.OccludedDisplays = append(ks.OccludedDisplays, int32(pd.ChildInt("display_id")))
		}
	}
	return ks
}

// buildChild resolves one window-container child node into its
// concrete variant. Variants are probed in containerKinds order and
// the first present payload wins; a node only ever carries one
// variant, so the precedence order never has to break a tie.
func buildChild(node *perfetto.Args) *WindowContainer {
	for _, kind := range containerKinds {
		if node.HasChild(kind.String()) {
			return buildVariant(kind, node.Child(kind.String()))
		}
	}
	return nil
}

// buildVariant builds one container of a known kind.
func buildVariant(kind ContainerKind, node *perfetto.Args) *WindowContainer {
	switch kind {
	case KindDisplayContent:
		wc := newContainer(kind)
		wc.DisplayID = int32(node.ChildInt("id"))
		wc.Title = node.Child("display_info").ChildStr("name")
		fillBase(wc, node.Child("window_container"))
		return wc

	case KindDisplayArea:
		wc := newContainer(kind)
		wc.Title = node.ChildStr("name")
		fillBase(wc, node.Child("window_container"))
		return wc

	case KindTask:
		wc := newContainer(kind)
		wc.TaskID = int32(node.ChildInt("id"))
		wc.DisplayID = int32(node.ChildInt("display_id"))
		wc.Title = node.ChildStr("real_activity")
		wc.Bounds = rectFrom(node.Child("bounds"))
		fillBase(wc, node.Child("task_fragment").Child("window_container"))
		return wc

	case KindTaskFragment:
		wc := newContainer(kind)
		wc.DisplayID = int32(node.ChildInt("display_id"))
		fillBase(wc, node.Child("window_container"))
		return wc

	case KindActivity:
		wc := newContainer(kind)
		wc.Title = node.ChildStr("name")
		wc.ActivityState = node.ChildStr("state")
		fillBase(wc, node.Child("window_token").Child("window_container"))
		// The activity's own visibility flag is authoritative over the
		// nested container's.
		wc.Visible = node.ChildBool("visible")
		return wc

	case KindWindowToken:
		wc := newContainer(kind)
		wc.Token = hashToken(node.ChildInt("hash_code"))
		wc.Title = wc.Token
		fillBase(wc, node.Child("window_container"))
		return wc

	case KindWindow:
		wc := newContainer(kind)
		wc.DisplayID = int32(node.ChildInt("display_id"))
		wc.StackID = int32(node.ChildInt("stack_id"))
		wc.WindowType = int32(node.ChildInt("window_type"))
		wc.Frame = rectFrom(node.Child("frame"))
		fillBase(wc, node.Child("window_container"))
		if title := node.Child("identifier").ChildStr("title"); title != "" {
			wc.Title = title
		}
		// The window's own visibility flag is authoritative.
		wc.Visible = node.ChildBool("is_visible")
		return wc

	default:
		return buildGeneric(node)
	}
}

// buildGeneric builds a plain window_container node.
func buildGeneric(node *perfetto.Args) *WindowContainer {
	wc := newContainer(KindContainer)
	fillBase(wc, node)
	return wc
}

// newContainer returns an empty container of the given kind.
func newContainer(kind ContainerKind) *WindowContainer {
	return &WindowContainer{Kind: kind, ZOrder: -1}
}

// fillBase fills the shared window_container fields and recurses into
// children. node may be nil (variant without a container payload);
// all reads default.
func fillBase(wc *WindowContainer, node *perfetto.Args) {
	wc.Orientation = int32(node.ChildInt("orientation"))
	wc.Visible = node.ChildBool("visible")
	if id := node.Child("identifier"); id != nil {
		if wc.Title == "" {
			wc.Title = id.ChildStr("title")
		}
		if wc.Token == "" {
			wc.Token = hashToken(id.ChildInt("hash_code"))
		}
	}
	for _, child := range node.Children("children") {
		if c := buildChild(child); c != nil {
			wc.Children = append(wc.Children, c)
		}
	}
}

// rectFrom reads a rect subtree (zero Rect when absent).
func rectFrom(node *perfetto.Args) Rect {
	return Rect{
		Left:   int32(node.ChildInt("left")),
		Top:    int32(node.ChildInt("top")),
		Right:  int32(node.ChildInt("right")),
		Bottom: int32(node.ChildInt("bottom")),
	}
}

// hashToken renders a container hash code as the hex token string the
// platform uses in dumps ("" for a zero hash).
func hashToken(hash int64) string {
	if hash == 0 {
		return ""
	}
	return fmt.Sprintf("%x", hash)
}
