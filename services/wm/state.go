// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wm

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp identifies one trace entry on the device clocks.
type Timestamp struct {
	// ElapsedNanos is CLOCK_BOOTTIME at dump time. Always present;
	// it is one of the two required entry fields.
	ElapsedNanos int64

	// SystemNanos is the trace packet timestamp (0 when the packet
	// carried none).
	SystemNanos int64
}

// String renders the elapsed time the way failure messages expect it.
func (t Timestamp) String() string {
	return fmt.Sprintf("%s (%dns)", time.Duration(t.ElapsedNanos), t.ElapsedNanos)
}

// KeyguardState is the keyguard controller state of one snapshot.
type KeyguardState struct {
	// Showing reports whether the keyguard is visible on the default
	// display.
	Showing bool

	// AODShowing reports whether always-on-display is active.
	AODShowing bool

	// OccludedDisplays lists display ids whose keyguard is occluded
	// by an activity.
	OccludedDisplays []int32
}

// Policy is the window-manager policy slice of one snapshot.
type Policy struct {
	Rotation                  int32
	Orientation               int32
	ScreenOnFully             bool
	KeyguardDrawComplete      bool
	WindowManagerDrawComplete bool
}

// WindowManagerState is an immutable snapshot of window-manager state
// at one trace timestamp. States are built fresh per parse and never
// mutated afterwards.
type WindowManagerState struct {
	// Timestamp anchors the snapshot on the device clocks.
	Timestamp Timestamp

	// Where names the dump point that produced the entry.
	Where string

	// Policy is the policy slice.
	Policy Policy

	// FocusedApp is the focused application component name.
	FocusedApp string

	// FocusedWindow is the focused window title.
	FocusedWindow string

	// FocusedDisplayID is the focused display.
	FocusedDisplayID int32

	// InputMethodWindow is the IME window title ("" when gone).
	InputMethodWindow string

	// DisplayFrozen reports whether displays are frozen for rotation.
	DisplayFrozen bool

	// Keyguard is the keyguard controller state.
	Keyguard KeyguardState

	// Root is the root of the owned container tree.
	Root *WindowContainer

	// windows caches the top-first window list computed at freeze.
	windows []*WindowContainer
}

// freeze computes derived state after building: the flattened window
// list in z order (top-most first) and each window's ZOrder index.
func (s *WindowManagerState) freeze() {
	s.windows = s.windows[:0]
	collectWindowsTopFirst(s.Root, &s.windows)
	for i, w := range s.windows {
		w.ZOrder = i
	}
}

// collectWindowsTopFirst walks children in reverse trace order
// (platform dumps store bottom-most first) and collects window leaves.
func collectWindowsTopFirst(c *WindowContainer, out *[]*WindowContainer) {
	if c == nil {
		return
	}
	for i := len(c.Children) - 1; i >= 0; i-- {
		collectWindowsTopFirst(c.Children[i], out)
	}
	if c.IsWindow() {
		*out = append(*out, c)
	}
}

// Windows returns every window in z order, top-most first.
func (s *WindowManagerState) Windows() []*WindowContainer {
	return s.windows
}

// VisibleWindows returns the visible windows in z order.
func (s *WindowManagerState) VisibleWindows() []*WindowContainer {
	var out []*WindowContainer
	for _, w := range s.windows {
		if w.Visible {
			out = append(out, w)
		}
	}
	return out
}

// Window returns the top-most window whose title contains name, or
// nil. Matching is substring-based so callers can use bare component
// names against fully qualified window titles.
func (s *WindowManagerState) Window(name string) *WindowContainer {
	for _, w := range s.windows {
		if strings.Contains(w.Title, name) {
			return w
		}
	}
	return nil
}

// IsWindowVisible reports whether any window matching name is visible.
func (s *WindowManagerState) IsWindowVisible(name string) bool {
	for _, w := range s.windows {
		if strings.Contains(w.Title, name) && w.Visible {
			return true
		}
	}
	return false
}

// TopVisibleWindow returns the top-most visible window, or nil when
// nothing is visible.
func (s *WindowManagerState) TopVisibleWindow() *WindowContainer {
	for _, w := range s.windows {
		if w.Visible {
			return w
		}
	}
	return nil
}
