// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package transitions

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

// Trace is the assembled transition sequence of one recording,
// ordered by create time. Transitions that never recorded a create
// time sort after all timed ones, in id order.
type Trace struct {
	Entries []*Transition
}

// Len returns the number of transitions.
func (t *Trace) Len() int { return len(t.Entries) }

// ByID returns the transition with the given id, or nil.
func (t *Trace) ByID(id int64) *Transition {
	for _, tr := range t.Entries {
		if tr.ID == id {
			return tr
		}
	}
	return nil
}

// Played returns the transitions that ran to completion.
func (t *Trace) Played() []*Transition {
	var out []*Transition
	for _, tr := range t.Entries {
		if tr.Played() {
			out = append(out, tr)
		}
	}
	return out
}

// Parser builds transition traces from a loaded query session.
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

// NewParser returns a parser reading from session.
func NewParser(session *perfetto.Session, opts ...ParserOption) *Parser {
	p := &Parser{
		session: session,
		tracer:  otel.Tracer("motionlens/transitions"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}
	return p
}

// Parse assembles every transition in the recording. Entries sharing
// a transition id are folded into one Transition: each milestone comes
// from whichever entry reported it, and a later entry never clears a
// milestone an earlier one set.
func (p *Parser) Parse(ctx context.Context) (*Trace, error) {
	ctx, span := p.tracer.Start(ctx, "transitions.Parse")
	defer span.End()

	handlers, err := p.handlerNames(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := p.session.Query(ctx, perfetto.ShellTransitionsQuery)
	if err != nil {
		return nil, fmt.Errorf("query shell transitions: %w", err)
	}

	byID := map[int64]*Transition{}
	var order []int64
	for _, entry := range perfetto.CollectEntries(rows, "transition_entry_id") {
		if !entry.Args.HasChild("id") {
			return nil, &perfetto.RequiredFieldError{Field: "id", EntryID: entry.ID}
		}
		id := entry.Args.ChildInt("id")
		tr, ok := byID[id]
		if !ok {
			tr = &Transition{ID: id}
			byID[id] = tr
			order = append(order, id)
		}
		mergeEntry(tr, entry.Args, handlers)
	}

	out := make([]*Transition, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		// Transitions without a create time sort after all timed ones.
		if (a.CreateTime == 0) != (b.CreateTime == 0) {
			return b.CreateTime == 0
		}
		if a.CreateTime != b.CreateTime {
			return a.CreateTime < b.CreateTime
		}
		return a.ID < b.ID
	})

	p.logger.Debug("transition trace parsed", "transitions", len(out))
	span.SetAttributes(attribute.Int("transitions.count", len(out)))
	return &Trace{Entries: out}, nil
}

// mergeEntry folds one trace entry into the assembled transition.
// Nonzero values win; zero never overwrites.
func mergeEntry(tr *Transition, args *perfetto.Args, handlers map[int32]string) {
	setInt64 := func(dst *int64, name string) {
		if v := args.ChildInt(name); v != 0 {
			*dst = v
		}
	}

	setInt64(&tr.CreateTime, "create_time_ns")
	setInt64(&tr.SendTime, "send_time_ns")
	setInt64(&tr.DispatchTime, "dispatch_time_ns")
	setInt64(&tr.MergeRequestTime, "merge_request_time_ns")
	setInt64(&tr.MergeTime, "merge_time_ns")
	setInt64(&tr.ShellAbortTime, "shell_abort_time_ns")
	setInt64(&tr.WMAbortTime, "wm_abort_time_ns")
	setInt64(&tr.FinishTime, "finish_time_ns")
	setInt64(&tr.StartingWindowRemoveTime, "starting_window_remove_time_ns")

	if v := args.ChildInt("start_transaction_id"); v != 0 {
		tr.StartTransactionID = uint64(v)
	}
	if v := args.ChildInt("finish_transaction_id"); v != 0 {
		tr.FinishTransactionID = uint64(v)
	}
	if v := args.ChildInt("type"); v != 0 {
		tr.Type = TransitionType(v)
	}
	if v := args.ChildInt("flags"); v != 0 {
		tr.Flags = int32(v)
	}
	if v := args.ChildInt("handler"); v != 0 {
		tr.HandlerID = int32(v)
		tr.Handler = handlers[tr.HandlerID]
	}

	for _, target := range args.Children("targets") {
		tr.Targets = append(tr.Targets, Target{
			Mode:     TargetMode(target.ChildInt("mode")),
			LayerID:  int32(target.ChildInt("layer_id")),
			WindowID: int32(target.ChildInt("window_id")),
			Flags:    int32(target.ChildInt("flags")),
		})
	}
}

// handlerNames loads the recording's handler id to name mappings.
func (p *Parser) handlerNames(ctx context.Context) (map[int32]string, error) {
	rows, err := p.session.Query(ctx, perfetto.TransitionHandlersQuery)
	if err != nil {
		return nil, fmt.Errorf("query transition handlers: %w", err)
	}
	names := make(map[int32]string, len(rows))
	for _, row := range rows {
		names[int32(row.Int("handler_id"))] = row.Str("handler_name")
	}
	return names, nil
}
