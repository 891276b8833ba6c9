// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package perfetto implements a host-side query session over binary
// Perfetto trace data.
//
// # Description
//
// A Session decodes the protobuf packet stream of a Perfetto trace
// (winscope window-manager entries and shell-transition packets) and
// materializes the decoded fields into an in-memory SQLite database
// exposing the trace-processor table surface:
//
//   - android_windowmanager(id, ts, arg_set_id)
//   - window_manager_shell_transitions(id, ts, transition_id, arg_set_id)
//   - window_manager_shell_transition_handlers(handler_id, handler_name)
//   - args(id, arg_set_id, flat_key, key, int_value, string_value,
//     real_value, value_type)
//
// Proto payloads are flattened into the args table exactly the way the
// trace processor does: one row per leaf field, keyed by the dotted
// field path with repeated fields indexed ("children[2].window.title").
//
// The packet decoder works directly on the protobuf wire format via
// google.golang.org/protobuf/encoding/protowire and a field-number
// schema table (see schema.go). Field numbers a schema table doesn't
// know are skipped, so traces produced by newer platform builds still
// load; absent fields surface downstream as defaulted values.
//
// # Lifecycle
//
// One Session per trace file. Sessions are not shared across parses
// and must be closed:
//
//	session, err := perfetto.NewSession()
//	if err != nil { ... }
//	defer session.Close()
//	if err := session.LoadTrace(ctx, data); err != nil { ... }
//	rows, err := session.Query(ctx, perfetto.WindowManagerQuery)
//
// # Thread Safety
//
// A Session is NOT safe for concurrent use. Parsing is a synchronous
// sequence of blocking queries against one session per trace file.
package perfetto
