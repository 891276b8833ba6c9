// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wm

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/MotionLens/pkg/logging"
	"github.com/AleutianAI/MotionLens/services/perfetto"
)

// Trace is an ordered sequence of window-manager snapshots from one
// recording. Entries are sorted by elapsed time, oldest first.
type Trace struct {
	Entries []*WindowManagerState
}

// At returns the entry at index i.
func (t *Trace) At(i int) *WindowManagerState { return t.Entries[i] }

// Len returns the number of entries.
func (t *Trace) Len() int { return len(t.Entries) }

// First returns the oldest entry, or nil for an empty trace.
func (t *Trace) First() *WindowManagerState {
	if len(t.Entries) == 0 {
		return nil
	}
	return t.Entries[0]
}

// Last returns the newest entry, or nil for an empty trace.
func (t *Trace) Last() *WindowManagerState {
	if len(t.Entries) == 0 {
		return nil
	}
	return t.Entries[len(t.Entries)-1]
}

// String summarizes the trace for log lines.
func (t *Trace) String() string {
	if len(t.Entries) == 0 {
		return "WindowManagerTrace (empty)"
	}
	return fmt.Sprintf("WindowManagerTrace (%d entries, %s .. %s)",
		len(t.Entries), t.Entries[0].Timestamp, t.Entries[len(t.Entries)-1].Timestamp)
}

// Parser builds window-manager traces from a loaded query session.
type Parser struct {
	session *perfetto.Session
	logger  *logging.Logger
	tracer  trace.Tracer
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger sets the logger used by the parser.
func WithLogger(logger *logging.Logger) ParserOption {
	return func(p *Parser) { p.logger = logger }
}

// NewParser returns a parser reading from session. The session must
// already have a trace loaded before Parse is called.
func NewParser(session *perfetto.Session, opts ...ParserOption) *Parser {
	p := &Parser{
		session: session,
		tracer:  otel.Tracer("motionlens/wm"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}
	return p
}

// Parse queries every window-manager entry and builds the snapshot
// sequence. A single malformed entry fails the whole parse; partial
// traces are worse than loud failures when assertions run on them.
func (p *Parser) Parse(ctx context.Context) (*Trace, error) {
	ctx, span := p.tracer.Start(ctx, "wm.Parse")
	defer span.End()

	rows, err := p.session.Query(ctx, perfetto.WindowManagerQuery)
	if err != nil {
		return nil, fmt.Errorf("query window manager entries: %w", err)
	}

	entries := perfetto.CollectEntries(rows, "entry_id")
	states := make([]*WindowManagerState, 0, len(entries))
	for _, entry := range entries {
		state, err := BuildState(entry)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].Timestamp.ElapsedNanos < states[j].Timestamp.ElapsedNanos
	})

	p.logger.Debug("window manager trace parsed", "entries", len(states))
	span.SetAttributes(attribute.Int("wm.entries", len(states)))
	return &Trace{Entries: states}, nil
}
