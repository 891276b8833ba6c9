// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package transitions models shell transitions: the window-manager
// animations that move windows between states. One transition is
// assembled from every trace entry that shares its id, since the WM
// and shell sides report their milestones in separate entries.
package transitions

import (
	"fmt"
	"time"
)

// TransitionType classifies what a transition does. Values follow the
// platform's WindowManager transit constants.
type TransitionType int32

const (
	TypeUndefined TransitionType = 0
	TypeOpen      TransitionType = 1
	TypeClose     TransitionType = 2
	TypeToFront   TransitionType = 3
	TypeToBack    TransitionType = 4
	TypeChange    TransitionType = 6
	TypeKeyguard  TransitionType = 7
)

// String returns the platform name of the transition type.
func (t TransitionType) String() string {
	switch t {
	case TypeUndefined:
		return "UNDEFINED"
	case TypeOpen:
		return "OPEN"
	case TypeClose:
		return "CLOSE"
	case TypeToFront:
		return "TO_FRONT"
	case TypeToBack:
		return "TO_BACK"
	case TypeChange:
		return "CHANGE"
	case TypeKeyguard:
		return "KEYGUARD"
	default:
		return fmt.Sprintf("TRANSIT(%d)", int32(t))
	}
}

// TargetMode is the per-target change mode inside a transition.
type TargetMode int32

const (
	ModeNone    TargetMode = 0
	ModeOpen    TargetMode = 1
	ModeClose   TargetMode = 2
	ModeToFront TargetMode = 3
	ModeToBack  TargetMode = 4
	ModeChange  TargetMode = 6
)

// String returns the platform name of the target mode.
func (m TargetMode) String() string {
	switch m {
	case ModeNone:
		return "NONE"
	case ModeOpen:
		return "OPEN"
	case ModeClose:
		return "CLOSE"
	case ModeToFront:
		return "TO_FRONT"
	case ModeToBack:
		return "TO_BACK"
	case ModeChange:
		return "CHANGE"
	default:
		return fmt.Sprintf("MODE(%d)", int32(m))
	}
}

// Target is one window or layer changed by a transition.
type Target struct {
	Mode     TargetMode
	LayerID  int32
	WindowID int32
	Flags    int32
}

// Transition is one fully assembled shell transition.
//
// Timestamp fields use the trace convention that 0 means the
// milestone never happened. A transition that was merged into another
// has MergeTime set and no FinishTime of its own; an aborted one has
// ShellAbortTime or WMAbortTime set.
type Transition struct {
	// ID is the platform transition id, unique per recording.
	ID int64

	Type  TransitionType
	Flags int32

	// Milestone timestamps, CLOCK_MONOTONIC nanos; 0 when the
	// milestone never happened.
	CreateTime               int64
	SendTime                 int64
	DispatchTime             int64
	MergeRequestTime         int64
	MergeTime                int64
	ShellAbortTime           int64
	WMAbortTime              int64
	FinishTime               int64
	StartingWindowRemoveTime int64

	StartTransactionID  uint64
	FinishTransactionID uint64

	// HandlerID is the shell handler that ran the transition; Handler
	// is its name resolved from the recording's handler mappings ("" when
	// the mapping packet is absent).
	HandlerID int32
	Handler   string

	Targets []Target
}

// Aborted reports whether either side aborted the transition.
func (t *Transition) Aborted() bool {
	return t.ShellAbortTime != 0 || t.WMAbortTime != 0
}

// Merged reports whether the transition was merged into another.
func (t *Transition) Merged() bool {
	return t.MergeTime != 0
}

// Played reports whether the transition ran to completion on its own.
func (t *Transition) Played() bool {
	return t.FinishTime != 0 && !t.Aborted()
}

// Duration returns send-to-finish time, or 0 when either end is
// missing.
func (t *Transition) Duration() time.Duration {
	if t.SendTime == 0 || t.FinishTime == 0 {
		return 0
	}
	return time.Duration(t.FinishTime - t.SendTime)
}

// String names the transition for failure messages.
func (t *Transition) String() string {
	return fmt.Sprintf("Transition #%d %s (%d targets)", t.ID, t.Type, len(t.Targets))
}
