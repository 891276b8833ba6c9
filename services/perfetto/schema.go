// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import "google.golang.org/protobuf/encoding/protowire"

// The decoder is schema-driven: a messageSpec names the fields a
// message is known to carry, keyed by protobuf field number. Field
// numbers follow the winscope/perfetto trace protos targeted by this
// release. Anything a spec doesn't list is consumed and dropped; the
// schema table is the single place to extend when the platform adds
// fields.

// fieldKind is the decode strategy for one proto field.
type fieldKind int

const (
	// kindVarint is a signed integer field (int32/int64).
	kindVarint fieldKind = iota

	// kindUvarint is an unsigned integer field (uint32/uint64).
	kindUvarint

	// kindBool is a boolean field.
	kindBool

	// kindDouble is a 64-bit floating point field.
	kindDouble

	// kindFloat is a 32-bit floating point field.
	kindFloat

	// kindString is a length-delimited string field.
	kindString

	// kindMessage is a nested message field.
	kindMessage
)

// fieldSpec describes one known field of a message.
type fieldSpec struct {
	// name is the proto field name used in args keys.
	name string

	// kind selects the decode strategy.
	kind fieldKind

	// msg is the nested message spec (kindMessage only).
	msg *messageSpec

	// repeated marks fields that always get an index suffix in args
	// keys ("children[0]"), matching trace-processor flattening.
	repeated bool
}

// messageSpec describes the known fields of one message type.
type messageSpec struct {
	name   string
	fields map[protowire.Number]fieldSpec
}

// TracePacket field numbers (perfetto trace_packet.proto).
const (
	fieldTracePacket          = 1  // Trace.packet
	fieldPacketTimestamp      = 8  // TracePacket.timestamp
	fieldWindowManager        = 92 // TracePacket.windowmanager
	fieldShellTransition      = 96 // TracePacket.shell_transition
	fieldShellHandlerMappings = 97 // TracePacket.shell_handler_mappings
)

// rectSpec flattens android.graphics.RectProto.
var rectSpec = &messageSpec{
	name: "rect",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "left", kind: kindVarint},
		2: {name: "top", kind: kindVarint},
		3: {name: "right", kind: kindVarint},
		4: {name: "bottom", kind: kindVarint},
	},
}

// identifierSpec flattens com.android.server.wm.IdentifierProto.
var identifierSpec = &messageSpec{
	name: "identifier",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "hash_code", kind: kindUvarint},
		2: {name: "user_id", kind: kindVarint},
		3: {name: "title", kind: kindString},
	},
}

// The window-container subtree is mutually recursive
// (container -> children -> container), so the specs are declared
// first and their message links are wired in init below.
var (
	containerSpec = &messageSpec{
		name: "window_container",
		fields: map[protowire.Number]fieldSpec{
			2: {name: "orientation", kind: kindVarint},
			3: {name: "visible", kind: kindBool},
			// 5 children: wired in init (recursive).
			6: {name: "identifier", kind: kindMessage, msg: identifierSpec},
		},
	}

	childSpec = &messageSpec{
		name: "children",
		// All fields wired in init (each references containerSpec
		// directly or transitively).
		fields: map[protowire.Number]fieldSpec{},
	}
)

var displayInfoSpec = &messageSpec{
	name: "display_info",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "logical_width", kind: kindVarint},
		2: {name: "logical_height", kind: kindVarint},
		3: {name: "name", kind: kindString},
	},
}

var displayContentSpec = &messageSpec{
	name: "display_content",
	fields: map[protowire.Number]fieldSpec{
		// 1 window_container: wired in init.
		2: {name: "id", kind: kindVarint},
		3: {name: "dpi", kind: kindVarint},
		4: {name: "display_info", kind: kindMessage, msg: displayInfoSpec},
		5: {name: "focused_root_task_id", kind: kindVarint},
		6: {name: "resumed_activity", kind: kindMessage, msg: identifierSpec},
		7: {name: "display_ready", kind: kindBool},
	},
}

var displayAreaSpec = &messageSpec{
	name: "display_area",
	fields: map[protowire.Number]fieldSpec{
		// 1 window_container: wired in init.
		2: {name: "name", kind: kindString},
		3: {name: "is_task_display_area", kind: kindBool},
	},
}

var taskFragmentSpec = &messageSpec{
	name: "task_fragment",
	fields: map[protowire.Number]fieldSpec{
		// 1 window_container: wired in init.
		2: {name: "display_id", kind: kindVarint},
		3: {name: "activity_type", kind: kindVarint},
		4: {name: "min_width", kind: kindVarint},
		5: {name: "min_height", kind: kindVarint},
	},
}

var taskSpec = &messageSpec{
	name: "task",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "task_fragment", kind: kindMessage, msg: taskFragmentSpec},
		2: {name: "id", kind: kindVarint},
		3: {name: "root_task_id", kind: kindVarint},
		4: {name: "display_id", kind: kindVarint},
		5: {name: "real_activity", kind: kindString},
		6: {name: "resize_mode", kind: kindVarint},
		7: {name: "fills_parent", kind: kindBool},
		8: {name: "bounds", kind: kindMessage, msg: rectSpec},
	},
}

var windowTokenSpec = &messageSpec{
	name: "window_token",
	fields: map[protowire.Number]fieldSpec{
		// 1 window_container: wired in init.
		2: {name: "hash_code", kind: kindUvarint},
		3: {name: "waiting_to_show", kind: kindBool},
		4: {name: "paused", kind: kindBool},
	},
}

var activitySpec = &messageSpec{
	name: "activity",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "name", kind: kindString},
		2: {name: "window_token", kind: kindMessage, msg: windowTokenSpec},
		3: {name: "state", kind: kindString},
		4: {name: "visible", kind: kindBool},
		5: {name: "front_of_task", kind: kindBool},
		6: {name: "proc_id", kind: kindVarint},
		7: {name: "translucent", kind: kindBool},
	},
}

var windowStateSpec = &messageSpec{
	name: "window",
	fields: map[protowire.Number]fieldSpec{
		// 1 window_container: wired in init.
		2: {name: "identifier", kind: kindMessage, msg: identifierSpec},
		3: {name: "display_id", kind: kindVarint},
		4: {name: "stack_id", kind: kindVarint},
		5: {name: "is_visible", kind: kindBool},
		6: {name: "frame", kind: kindMessage, msg: rectSpec},
		7: {name: "window_type", kind: kindVarint},
	},
}

var keyguardPerDisplaySpec = &messageSpec{
	name: "keyguard_per_display",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "display_id", kind: kindVarint},
		2: {name: "keyguard_showing", kind: kindBool},
		3: {name: "aod_showing", kind: kindBool},
		4: {name: "keyguard_occluded", kind: kindBool},
	},
}

var keyguardControllerSpec = &messageSpec{
	name: "keyguard_controller",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "keyguard_showing", kind: kindBool},
		2: {name: "aod_showing", kind: kindBool},
		3: {name: "keyguard_per_display", kind: kindMessage, msg: keyguardPerDisplaySpec, repeated: true},
	},
}

var rootContainerSpec = &messageSpec{
	name: "root_window_container",
	fields: map[protowire.Number]fieldSpec{
		// 1 window_container: wired in init.
		2: {name: "keyguard_controller", kind: kindMessage, msg: keyguardControllerSpec},
		3: {name: "is_home_recents_component", kind: kindBool},
	},
}

var policySpec = &messageSpec{
	name: "policy",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "last_system_ui_flags", kind: kindVarint},
		2: {name: "rotation", kind: kindVarint},
		3: {name: "orientation", kind: kindVarint},
		4: {name: "rotation_mode", kind: kindVarint},
		5: {name: "screen_on_fully", kind: kindBool},
		6: {name: "keyguard_draw_complete", kind: kindBool},
		7: {name: "window_manager_draw_complete", kind: kindBool},
	},
}

var wmServiceSpec = &messageSpec{
	name: "window_manager_service",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "policy", kind: kindMessage, msg: policySpec},
		2: {name: "root_window_container", kind: kindMessage, msg: rootContainerSpec},
		3: {name: "focused_window", kind: kindMessage, msg: identifierSpec},
		4: {name: "focused_app", kind: kindString},
		5: {name: "input_method_window", kind: kindMessage, msg: identifierSpec},
		6: {name: "display_frozen", kind: kindBool},
		7: {name: "rotation", kind: kindVarint},
		8: {name: "last_orientation", kind: kindVarint},
		9: {name: "focused_display_id", kind: kindVarint},
	},
}

// wmEntrySpec flattens the TracePacket.windowmanager payload.
var wmEntrySpec = &messageSpec{
	name: "windowmanager",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "elapsed_realtime_nanos", kind: kindVarint},
		2: {name: "where", kind: kindString},
		3: {name: "window_manager_service", kind: kindMessage, msg: wmServiceSpec},
	},
}

var transitionTargetSpec = &messageSpec{
	name: "targets",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "mode", kind: kindVarint},
		2: {name: "layer_id", kind: kindVarint},
		3: {name: "window_id", kind: kindVarint},
		4: {name: "flags", kind: kindVarint},
	},
}

// shellTransitionSpec flattens the TracePacket.shell_transition payload.
var shellTransitionSpec = &messageSpec{
	name: "shell_transition",
	fields: map[protowire.Number]fieldSpec{
		1:  {name: "id", kind: kindVarint},
		2:  {name: "create_time_ns", kind: kindVarint},
		3:  {name: "send_time_ns", kind: kindVarint},
		4:  {name: "dispatch_time_ns", kind: kindVarint},
		5:  {name: "merge_time_ns", kind: kindVarint},
		6:  {name: "merge_request_time_ns", kind: kindVarint},
		7:  {name: "shell_abort_time_ns", kind: kindVarint},
		8:  {name: "wm_abort_time_ns", kind: kindVarint},
		9:  {name: "finish_time_ns", kind: kindVarint},
		10: {name: "start_transaction_id", kind: kindUvarint},
		11: {name: "finish_transaction_id", kind: kindUvarint},
		12: {name: "handler", kind: kindVarint},
		13: {name: "type", kind: kindVarint},
		14: {name: "targets", kind: kindMessage, msg: transitionTargetSpec, repeated: true},
		15: {name: "flags", kind: kindVarint},
		16: {name: "starting_window_remove_time_ns", kind: kindVarint},
	},
}

// shellHandlerMappingSpec flattens one ShellHandlerMapping entry.
var shellHandlerMappingSpec = &messageSpec{
	name: "mapping",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "id", kind: kindVarint},
		2: {name: "name", kind: kindString},
	},
}

// shellHandlerMappingsSpec flattens TracePacket.shell_handler_mappings.
var shellHandlerMappingsSpec = &messageSpec{
	name: "shell_handler_mappings",
	fields: map[protowire.Number]fieldSpec{
		1: {name: "mapping", kind: kindMessage, msg: shellHandlerMappingSpec, repeated: true},
	},
}

func init() {
	// Wire the recursive container links. childSpec's field order here
	// mirrors WindowContainerChildProto; resolution precedence over
	// these variants lives in services/wm, not in the decoder.
	childSpec.fields[2] = fieldSpec{name: "window_container", kind: kindMessage, msg: containerSpec}
	childSpec.fields[3] = fieldSpec{name: "display_content", kind: kindMessage, msg: displayContentSpec}
	childSpec.fields[4] = fieldSpec{name: "display_area", kind: kindMessage, msg: displayAreaSpec}
	childSpec.fields[5] = fieldSpec{name: "task", kind: kindMessage, msg: taskSpec}
	childSpec.fields[6] = fieldSpec{name: "activity", kind: kindMessage, msg: activitySpec}
	childSpec.fields[7] = fieldSpec{name: "window_token", kind: kindMessage, msg: windowTokenSpec}
	childSpec.fields[8] = fieldSpec{name: "window", kind: kindMessage, msg: windowStateSpec}
	childSpec.fields[9] = fieldSpec{name: "task_fragment", kind: kindMessage, msg: taskFragmentSpec}

	containerSpec.fields[5] = fieldSpec{name: "children", kind: kindMessage, msg: childSpec, repeated: true}

	displayContentSpec.fields[1] = fieldSpec{name: "window_container", kind: kindMessage, msg: containerSpec}
	displayAreaSpec.fields[1] = fieldSpec{name: "window_container", kind: kindMessage, msg: containerSpec}
	taskFragmentSpec.fields[1] = fieldSpec{name: "window_container", kind: kindMessage, msg: containerSpec}
	windowTokenSpec.fields[1] = fieldSpec{name: "window_container", kind: kindMessage, msg: containerSpec}
	windowStateSpec.fields[1] = fieldSpec{name: "window_container", kind: kindMessage, msg: containerSpec}
	rootContainerSpec.fields[1] = fieldSpec{name: "window_container", kind: kindMessage, msg: containerSpec}
}
