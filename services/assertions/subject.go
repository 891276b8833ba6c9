// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package assertions

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/MotionLens/services/wm"
)

// ErrEmptyTrace is returned when a subject is checked against a trace
// with no entries.
var ErrEmptyTrace = errors.New("assertions: trace has no entries")

// FailureError reports one failed predicate check with the offending
// snapshot's position and timestamp.
type FailureError struct {
	// Predicate is the failing predicate's name.
	Predicate string

	// Index is the entry position in the trace.
	Index int

	// Timestamp is the offending snapshot's timestamp.
	Timestamp wm.Timestamp

	// Facts itemize what the snapshot held instead.
	Facts []Fact
}

// Error renders the failure with its facts.
func (e *FailureError) Error() string {
	return fmt.Sprintf("assertion %s failed at entry %d, %s%s",
		e.Predicate, e.Index, e.Timestamp, FormatFacts(e.Facts))
}

// TraceSubject runs predicate checks over a window-manager trace.
type TraceSubject struct {
	entries []*wm.WindowManagerState
}

// NewSubject returns a subject over the trace's entries.
func NewSubject(trace *wm.Trace) *TraceSubject {
	return &TraceSubject{entries: trace.Entries}
}

// ForAll checks that every entry satisfies p.
func (s *TraceSubject) ForAll(p Predicate) error {
	if len(s.entries) == 0 {
		return ErrEmptyTrace
	}
	for i, entry := range s.entries {
		if facts := p.Check(entry); facts != nil {
			return &FailureError{Predicate: p.Name, Index: i, Timestamp: entry.Timestamp, Facts: facts}
		}
	}
	return nil
}

// AtLeastOnce checks that some entry satisfies p.
func (s *TraceSubject) AtLeastOnce(p Predicate) error {
	if len(s.entries) == 0 {
		return ErrEmptyTrace
	}
	var last []Fact
	for _, entry := range s.entries {
		facts := p.Check(entry)
		if facts == nil {
			return nil
		}
		last = facts
	}
	lastEntry := s.entries[len(s.entries)-1]
	return &FailureError{
		Predicate: p.Name,
		Index:     len(s.entries) - 1,
		Timestamp: lastEntry.Timestamp,
		Facts:     append([]Fact{{Key: "matched", Value: "no entry"}}, last...),
	}
}

// First starts a temporal chain: the trace must open with a sub-range
// satisfying p, then each Then predicate must hold over the following
// sub-range, covering the whole trace.
func (s *TraceSubject) First(p Predicate) *Chain {
	return &Chain{subject: s, preds: []Predicate{p}}
}

// Chain is an in-order sequence of predicates over trace sub-ranges.
type Chain struct {
	subject *TraceSubject
	preds   []Predicate
}

// Then appends the predicate for the next sub-range.
func (c *Chain) Then(p Predicate) *Chain {
	c.preds = append(c.preds, p)
	return c
}

// chainState tracks progress through the predicate list.
type chainState int

const (
	// stateScanning: the current predicate has not matched an entry yet.
	stateScanning chainState = iota

	// stateMatchedRange: inside a sub-range the current predicate holds on.
	stateMatchedRange

	// stateExhausted: the last predicate's sub-range has been entered;
	// it must hold through the end of the trace.
	stateExhausted
)

// Check runs the chain. Every entry must satisfy the predicate whose
// sub-range it falls in; an entry that fails the current predicate
// but satisfies the next one advances the chain. The trace fails if
// any predicate never gets a sub-range.
func (c *Chain) Check() error {
	if len(c.subject.entries) == 0 {
		return ErrEmptyTrace
	}

	cur := 0
	state := stateScanning
	if len(c.preds) == 1 {
		state = stateExhausted
	}

	for i, entry := range c.subject.entries {
		facts := c.preds[cur].Check(entry)
		if facts == nil {
			if state == stateScanning {
				state = stateMatchedRange
			}
			continue
		}

		// The current predicate fails here. Inside a matched range the
		// next predicate may take over; while still scanning for the
		// first match, or once on the last predicate, this is a failure.
		if state == stateMatchedRange {
			next := c.preds[cur+1]
			if nextFacts := next.Check(entry); nextFacts == nil {
				cur++
				if cur == len(c.preds)-1 {
					state = stateExhausted
				}
				continue
			}
		}
		return &FailureError{
			Predicate: c.preds[cur].Name,
			Index:     i,
			Timestamp: entry.Timestamp,
			Facts:     facts,
		}
	}

	if cur != len(c.preds)-1 {
		unreached := c.preds[cur+1]
		lastEntry := c.subject.entries[len(c.subject.entries)-1]
		return &FailureError{
			Predicate: unreached.Name,
			Index:     len(c.subject.entries) - 1,
			Timestamp: lastEntry.Timestamp,
			Facts:     []Fact{{Key: "matched", Value: "trace ended before predicate's sub-range"}},
		}
	}
	return nil
}
