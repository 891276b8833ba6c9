// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assertions

import (
	"fmt"

	"github.com/AleutianAI/MotionLens/services/wm"
)

// Predicate is one per-snapshot check. Check returns nil when the
// snapshot satisfies the predicate, otherwise the facts describing
// what was found instead.
type Predicate struct {
	// Name identifies the predicate in failure messages and chain
	// descriptions, e.g. `isVisible("NavBar")`.
	Name string

	// Check evaluates the predicate against one snapshot.
	Check func(*wm.WindowManagerState) []Fact
}

// WindowIsVisible asserts that a window matching name is visible.
func WindowIsVisible(name string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("isVisible(%q)", name),
		Check: func(s *wm.WindowManagerState) []Fact {
			if s.IsWindowVisible(name) {
				return nil
			}
			if w := s.Window(name); w != nil {
				return []Fact{Factf("found", "%s, not visible", w)}
			}
			return []Fact{Factf("found", "no window matching %q", name)}
		},
	}
}

// WindowIsInvisible asserts that no window matching name is visible.
// A snapshot without any matching window satisfies the predicate.
func WindowIsInvisible(name string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("isInvisible(%q)", name),
		Check: func(s *wm.WindowManagerState) []Fact {
			if !s.IsWindowVisible(name) {
				return nil
			}
			return []Fact{Factf("found", "%s visible", s.Window(name))}
		},
	}
}

// WindowOnTop asserts that the top-most visible window matches name.
func WindowOnTop(name string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("isOnTop(%q)", name),
		Check: func(s *wm.WindowManagerState) []Fact {
			top := s.TopVisibleWindow()
			if top == nil {
				return []Fact{{Key: "found", Value: "no visible windows"}}
			}
			if w := s.Window(name); w != nil && w == top {
				return nil
			}
			return []Fact{Factf("found on top", "%s", top)}
		},
	}
}

// WindowIsAbove asserts that the top-most window matching above sits
// higher in z order than the top-most window matching below. Both
// windows must exist.
func WindowIsAbove(above, below string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("isAbove(%q, %q)", above, below),
		Check: func(s *wm.WindowManagerState) []Fact {
			wa, wb := s.Window(above), s.Window(below)
			if wa == nil {
				return []Fact{Factf("found", "no window matching %q", above)}
			}
			if wb == nil {
				return []Fact{Factf("found", "no window matching %q", below)}
			}
			// Lower ZOrder is closer to the top.
			if wa.ZOrder < wb.ZOrder {
				return nil
			}
			return []Fact{
				Factf(above, "z order %d", wa.ZOrder),
				Factf(below, "z order %d", wb.ZOrder),
			}
		},
	}
}

// NoOverlap asserts that the frames of visible windows matching the
// two names never share screen area. Snapshots where either window is
// absent or hidden satisfy the predicate.
func NoOverlap(a, b string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("noOverlap(%q, %q)", a, b),
		Check: func(s *wm.WindowManagerState) []Fact {
			wa, wb := s.Window(a), s.Window(b)
			if wa == nil || wb == nil || !wa.Visible || !wb.Visible {
				return nil
			}
			if !wa.Frame.Overlaps(wb.Frame) {
				return nil
			}
			return []Fact{
				Factf(a, "frame %s", wa.Frame),
				Factf(b, "frame %s", wb.Frame),
			}
		},
	}
}

// WindowExists asserts that a window matching name is present,
// visible or not.
func WindowExists(name string) Predicate {
	return Predicate{
		Name: fmt.Sprintf("exists(%q)", name),
		Check: func(s *wm.WindowManagerState) []Fact {
			if s.Window(name) != nil {
				return nil
			}
			return []Fact{Factf("found", "no window matching %q", name)}
		},
	}
}
