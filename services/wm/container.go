// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package wm models window-manager trace state: an immutable snapshot
// per trace entry holding the recursive window-container tree, focus
// and keyguard state.
package wm

import "fmt"

// ContainerKind identifies the concrete variant a window-container
// child deserialized into.
//
// IMPORTANT: declaration order is resolution precedence. A child node
// is resolved by probing each variant in this order and taking the
// first match; ties are impossible because a node only ever carries
// one variant payload.
type ContainerKind int

const (
	// KindDisplayContent is a display with its content tree.
	KindDisplayContent ContainerKind = iota

	// KindDisplayArea is a logical area of a display.
	KindDisplayArea

	// KindTask is a task (recents entry) container.
	KindTask

	// KindTaskFragment is a fragment of a task (split windows).
	KindTaskFragment

	// KindActivity is an activity record.
	KindActivity

	// KindWindowToken groups windows belonging to one token.
	KindWindowToken

	// KindWindow is a window state leaf.
	KindWindow

	// KindContainer is the generic fallback container.
	KindContainer
)

// String returns the variant name as it appears in trace keys.
func (k ContainerKind) String() string {
	switch k {
	case KindDisplayContent:
		return "display_content"
	case KindDisplayArea:
		return "display_area"
	case KindTask:
		return "task"
	case KindTaskFragment:
		return "task_fragment"
	case KindActivity:
		return "activity"
	case KindWindowToken:
		return "window_token"
	case KindWindow:
		return "window"
	case KindContainer:
		return "window_container"
	default:
		return "unknown"
	}
}

// containerKinds is every variant in precedence order.
var containerKinds = []ContainerKind{
	KindDisplayContent,
	KindDisplayArea,
	KindTask,
	KindTaskFragment,
	KindActivity,
	KindWindowToken,
	KindWindow,
	KindContainer,
}

// Rect is an integer pixel rectangle.
type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// IsEmpty reports whether the rect covers no area.
func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Overlaps reports whether two rects share any area. Empty rects
// never overlap anything.
func (r Rect) Overlaps(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Left < other.Right && other.Left < r.Right &&
		r.Top < other.Bottom && other.Top < r.Bottom
}

// String formats the rect like android.graphics.Rect.
func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d) - (%d, %d)", r.Left, r.Top, r.Right, r.Bottom)
}

// WindowContainer is one node of the container tree. The tree owns its
// children; the only derived back-channel is the z-order index
// computed on windows when a state is frozen.
//
// Field presence follows Kind: a KindTask node fills TaskID and
// Bounds, a KindWindow node fills Frame, DisplayID and StackID, and
// so on. Absent trace fields leave the type-specific zero value.
type WindowContainer struct {
	// Kind is the resolved container variant.
	Kind ContainerKind

	// Title is the human-readable name: window title, activity name,
	// display area name, or the token hash for anonymous containers.
	Title string

	// Token is the container's hash code rendered as hex ("" when the
	// trace carries none).
	Token string

	// Orientation is the requested orientation of the container.
	Orientation int32

	// Visible is the container's computed visibility.
	Visible bool

	// DisplayID is the owning display (KindDisplayContent, KindWindow,
	// KindTask, KindTaskFragment).
	DisplayID int32

	// TaskID is the task id (KindTask).
	TaskID int32

	// ActivityState is the lifecycle state string (KindActivity).
	ActivityState string

	// Frame is the window frame on screen (KindWindow).
	Frame Rect

	// Bounds is the task bounds (KindTask).
	Bounds Rect

	// WindowType is the window type constant (KindWindow).
	WindowType int32

	// StackID is the owning stack (KindWindow).
	StackID int32

	// ZOrder is the top-first z index, assigned to windows when the
	// snapshot is frozen (0 is top-most). -1 for non-window nodes.
	ZOrder int

	// Children are the owned child containers in trace order
	// (bottom-most first, matching the platform dump order).
	Children []*WindowContainer
}

// IsWindow reports whether the node is a window state leaf.
func (c *WindowContainer) IsWindow() bool {
	return c.Kind == KindWindow
}

// String names the container for failure messages.
func (c *WindowContainer) String() string {
	if c.Title != "" {
		return fmt.Sprintf("%s %q", c.Kind, c.Title)
	}
	return c.Kind.String()
}
