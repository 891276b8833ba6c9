// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Wire-format builders for test fixtures. Tests construct trace bytes
// the same way the platform's tracing service would emit them.

func wireVarint(num protowire.Number, v uint64) []byte {
	b := protowire.AppendTag(nil, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func wireBool(num protowire.Number, v bool) []byte {
	var u uint64
	if v {
		u = 1
	}
	return wireVarint(num, u)
}

func wireString(num protowire.Number, s string) []byte {
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func wireBytes(num protowire.Number, body []byte) []byte {
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func wireMsg(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

// wireIdentifier builds an IdentifierProto payload.
func wireIdentifier(hashCode uint64, title string) []byte {
	return wireMsg(
		wireVarint(1, hashCode),
		wireString(3, title),
	)
}

// wireWindow builds a WindowStateProto child payload (field 8 of
// WindowContainerChildProto) with a container carrying visibility.
func wireWindow(title string, visible bool, frame []byte) []byte {
	container := wireMsg(
		wireBool(3, visible),
		wireBytes(6, wireIdentifier(0xabc, title)),
	)
	parts := [][]byte{
		wireBytes(1, container),
		wireBytes(2, wireIdentifier(0xabc, title)),
		wireBool(5, visible),
	}
	if frame != nil {
		parts = append(parts, wireBytes(6, frame))
	}
	return wireBytes(8, wireMsg(parts...))
}

// wireRect builds a RectProto payload.
func wireRect(left, top, right, bottom uint64) []byte {
	return wireMsg(
		wireVarint(1, left),
		wireVarint(2, top),
		wireVarint(3, right),
		wireVarint(4, bottom),
	)
}

// wireWMPacket builds a full TracePacket carrying a windowmanager
// entry whose root container holds the given children (each already a
// WindowContainerChildProto payload).
func wireWMPacket(ts, elapsed uint64, focusedApp string, children ...[]byte) []byte {
	containerParts := [][]byte{wireBool(3, true)}
	for _, child := range children {
		containerParts = append(containerParts, wireBytes(5, child))
	}
	root := wireBytes(1, wireMsg(containerParts...))

	service := wireMsg(
		wireBytes(2, root),
		wireString(4, focusedApp),
		wireVarint(9, 0),
	)
	entry := wireMsg(
		wireVarint(1, elapsed),
		wireString(2, "trace.test"),
		wireBytes(3, service),
	)
	packet := wireMsg(
		wireVarint(8, ts),
		wireBytes(92, entry),
	)
	return wireBytes(1, packet)
}

// wireTransitionPacket builds a TracePacket carrying a shell
// transition payload.
func wireTransitionPacket(ts uint64, fields ...[]byte) []byte {
	packet := wireMsg(
		wireVarint(8, ts),
		wireBytes(96, wireMsg(fields...)),
	)
	return wireBytes(1, packet)
}

// wireHandlerPacket builds a TracePacket carrying handler mappings.
func wireHandlerPacket(mappings map[uint64]string, order []uint64) []byte {
	var parts [][]byte
	for _, id := range order {
		parts = append(parts, wireBytes(1, wireMsg(
			wireVarint(1, id),
			wireString(2, mappings[id]),
		)))
	}
	packet := wireBytes(97, wireMsg(parts...))
	return wireBytes(1, packet)
}
