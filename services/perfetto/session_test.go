// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import (
	"context"
	"errors"
	"testing"
)

func newTestSession(t *testing.T, trace []byte) *Session {
	t.Helper()
	session, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	if err := session.LoadTrace(context.Background(), trace); err != nil {
		t.Fatalf("LoadTrace() failed: %v", err)
	}
	return session
}

func TestSession_WindowManagerRoundTrip(t *testing.T) {
	trace := wireMsg(
		wireWMPacket(1000, 500, "com.example/.Main",
			wireWindow("StatusBar", true, nil),
			wireWindow("com.example/.Main", true, wireRect(0, 0, 1080, 2400)),
		),
		wireWMPacket(2000, 1500, "com.example/.Main",
			wireWindow("StatusBar", false, nil),
		),
	)

	session := newTestSession(t, trace)
	rows, err := session.Query(context.Background(), WindowManagerQuery)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	entries := CollectEntries(rows, "entry_id")
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.TS != 1000 {
		t.Errorf("entry ts = %d, want 1000", first.TS)
	}
	if got := first.Args.ChildInt("elapsed_realtime_nanos"); got != 500 {
		t.Errorf("elapsed_realtime_nanos = %d, want 500", got)
	}
	svc := first.Args.Child("window_manager_service")
	if got := svc.ChildStr("focused_app"); got != "com.example/.Main" {
		t.Errorf("focused_app = %q", got)
	}

	children := svc.Child("root_window_container").Child("window_container").Children("children")
	if len(children) != 2 {
		t.Fatalf("got %d root children, want 2", len(children))
	}
	win := children[1].Child("window")
	if got := win.Child("identifier").ChildStr("title"); got != "com.example/.Main" {
		t.Errorf("window title = %q", got)
	}
	if got := win.Child("frame").ChildInt("right"); got != 1080 {
		t.Errorf("frame.right = %d, want 1080", got)
	}

	second := entries[1]
	win = second.Args.Child("window_manager_service").
		Child("root_window_container").Child("window_container").
		Child("children").Child("window")
	if win.ChildBool("is_visible") {
		t.Error("second entry StatusBar is_visible = true, want false")
	}
}

func TestSession_ShellTransitionsRoundTrip(t *testing.T) {
	trace := wireMsg(
		wireTransitionPacket(10,
			wireVarint(1, 7),  // id
			wireVarint(2, 42), // create_time_ns
			wireVarint(13, 1), // type
		),
		wireTransitionPacket(20,
			wireVarint(1, 7),
			wireVarint(9, 99), // finish_time_ns
		),
		wireHandlerPacket(map[uint64]string{1: "DefaultTransitionHandler"}, []uint64{1}),
	)

	session := newTestSession(t, trace)

	rows, err := session.Query(context.Background(), ShellTransitionsQuery)
	if err != nil {
		t.Fatalf("Query(transitions) failed: %v", err)
	}
	entries := CollectEntries(rows, "transition_entry_id")
	if len(entries) != 2 {
		t.Fatalf("got %d transition entries, want 2", len(entries))
	}
	if got := entries[0].Args.ChildInt("create_time_ns"); got != 42 {
		t.Errorf("create_time_ns = %d, want 42", got)
	}
	if got := entries[1].Args.ChildInt("finish_time_ns"); got != 99 {
		t.Errorf("finish_time_ns = %d, want 99", got)
	}

	handlers, err := session.Query(context.Background(), TransitionHandlersQuery)
	if err != nil {
		t.Fatalf("Query(handlers) failed: %v", err)
	}
	if len(handlers) != 1 {
		t.Fatalf("got %d handlers, want 1", len(handlers))
	}
	if got := handlers[0].Str("handler_name"); got != "DefaultTransitionHandler" {
		t.Errorf("handler_name = %q", got)
	}
	if got := handlers[0].Int("handler_id"); got != 1 {
		t.Errorf("handler_id = %d, want 1", got)
	}
}

func TestSession_Lifecycle(t *testing.T) {
	session, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	defer session.Close()

	t.Run("query before load", func(t *testing.T) {
		_, err := session.Query(context.Background(), WindowManagerQuery)
		if !errors.Is(err, ErrNoTraceLoaded) {
			t.Errorf("got %v, want ErrNoTraceLoaded", err)
		}
	})

	t.Run("double load", func(t *testing.T) {
		trace := wireWMPacket(1, 1, "a")
		if err := session.LoadTrace(context.Background(), trace); err != nil {
			t.Fatalf("first LoadTrace() failed: %v", err)
		}
		err := session.LoadTrace(context.Background(), trace)
		if !errors.Is(err, ErrTraceAlreadyLoaded) {
			t.Errorf("got %v, want ErrTraceAlreadyLoaded", err)
		}
	})

	t.Run("closed session", func(t *testing.T) {
		if err := session.Close(); err != nil {
			t.Fatalf("Close() failed: %v", err)
		}
		if _, err := session.Query(context.Background(), WindowManagerQuery); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("Query after close: got %v, want ErrSessionClosed", err)
		}
		if err := session.LoadTrace(context.Background(), nil); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("LoadTrace after close: got %v, want ErrSessionClosed", err)
		}
		// Closing twice is fine.
		if err := session.Close(); err != nil {
			t.Errorf("second Close() failed: %v", err)
		}
	})
}

func TestSession_MalformedTrace(t *testing.T) {
	session, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	defer session.Close()

	// A bare truncated varint tag is wire-level corruption.
	if err := session.LoadTrace(context.Background(), []byte{0xff}); err == nil {
		t.Error("expected error for malformed trace bytes")
	}
}

func TestSession_SkipsUnknownPackets(t *testing.T) {
	// A packet carrying only an unknown payload field is ignored.
	unknown := wireBytes(1, wireMsg(
		wireVarint(8, 5),
		wireBytes(57, []byte("opaque payload")),
	))
	trace := wireMsg(unknown, wireWMPacket(10, 10, "app"))

	session := newTestSession(t, trace)
	rows, err := session.Query(context.Background(), WindowManagerQuery)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	entries := CollectEntries(rows, "entry_id")
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (unknown packet skipped)", len(entries))
	}
}
