// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import (
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// argRow is one flattened leaf field decoded from a proto payload.
type argRow struct {
	// flatKey is the dotted field path without repeated-field indices
	// ("window_manager_service.root_window_container.children.window.title").
	flatKey string

	// key is the dotted field path with repeated-field indices
	// ("window_manager_service.root_window_container.children[2].window.title").
	key string

	// value is the decoded scalar.
	value Value
}

// packet is one decoded TracePacket of interest.
type packet struct {
	// timestamp is the raw packet timestamp (0 when absent).
	timestamp int64

	// windowManager holds the flattened windowmanager payload, nil
	// when this packet carries no windowmanager entry.
	windowManager []argRow

	// shellTransition holds the flattened shell_transition payload.
	shellTransition []argRow

	// handlerMappings holds decoded (id, name) handler pairs.
	handlerMappings []handlerMapping
}

// handlerMapping is one shell transition handler registration.
type handlerMapping struct {
	id   int64
	name string
}

// decodeTrace walks the top-level Trace message and decodes each
// TracePacket that carries a payload this module understands. Packets
// with other payloads are skipped without error.
func decodeTrace(data []byte) ([]packet, error) {
	var packets []packet
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("trace: malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		if num != fieldTracePacket || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("trace: malformed field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		body, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("trace: malformed packet: %w", protowire.ParseError(n))
		}
		data = data[n:]

		p, err := decodePacket(body)
		if err != nil {
			return nil, err
		}
		if p.windowManager != nil || p.shellTransition != nil || p.handlerMappings != nil {
			packets = append(packets, p)
		}
	}
	return packets, nil
}

// decodePacket decodes one TracePacket body.
func decodePacket(data []byte) (packet, error) {
	var p packet
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return p, fmt.Errorf("packet: malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldPacketTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return p, fmt.Errorf("packet: malformed timestamp: %w", protowire.ParseError(n))
			}
			p.timestamp = int64(v)
			data = data[n:]

		case num == fieldWindowManager && typ == protowire.BytesType:
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return p, fmt.Errorf("packet: malformed windowmanager payload: %w", protowire.ParseError(n))
			}
			data = data[n:]
			rows := make([]argRow, 0, 64)
			if err := flattenMessage(body, wmEntrySpec, "", "", &rows); err != nil {
				return p, err
			}
			p.windowManager = rows

		case num == fieldShellTransition && typ == protowire.BytesType:
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return p, fmt.Errorf("packet: malformed shell_transition payload: %w", protowire.ParseError(n))
			}
			data = data[n:]
			rows := make([]argRow, 0, 16)
			if err := flattenMessage(body, shellTransitionSpec, "", "", &rows); err != nil {
				return p, err
			}
			p.shellTransition = rows

		case num == fieldShellHandlerMappings && typ == protowire.BytesType:
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return p, fmt.Errorf("packet: malformed shell_handler_mappings payload: %w", protowire.ParseError(n))
			}
			data = data[n:]
			mappings, err := decodeHandlerMappings(body)
			if err != nil {
				return p, err
			}
			p.handlerMappings = mappings

		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return p, fmt.Errorf("packet: malformed field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return p, nil
}

// decodeHandlerMappings decodes a ShellHandlerMappings payload into
// (id, name) pairs via the generic flattener.
func decodeHandlerMappings(data []byte) ([]handlerMapping, error) {
	rows := make([]argRow, 0, 8)
	if err := flattenMessage(data, shellHandlerMappingsSpec, "", "", &rows); err != nil {
		return nil, err
	}

	// Rows arrive in field order: mapping[i].id then mapping[i].name,
	// with key shaped "mapping[i].id" / "mapping[i].name".
	byIndex := map[string]*handlerMapping{}
	var order []string
	for _, r := range rows {
		end := strings.IndexByte(r.key, ']')
		if end < 0 {
			continue
		}
		idx := r.key[:end+1]
		m, ok := byIndex[idx]
		if !ok {
			m = &handlerMapping{}
			byIndex[idx] = m
			order = append(order, idx)
		}
		switch r.flatKey {
		case "mapping.id":
			m.id = r.value.AsInt()
		case "mapping.name":
			m.name = r.value.AsString()
		}
	}

	mappings := make([]handlerMapping, 0, len(order))
	for _, idx := range order {
		mappings = append(mappings, *byIndex[idx])
	}
	return mappings, nil
}

// flattenMessage decodes one proto message body against its spec,
// appending a row per known leaf field. Unknown fields are skipped:
// the platform adds trace fields faster than host tooling follows,
// and an unknown field must never fail the parse.
func flattenMessage(data []byte, spec *messageSpec, flatPrefix, keyPrefix string, out *[]argRow) error {
	counts := map[protowire.Number]int{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%s: malformed tag: %w", spec.name, protowire.ParseError(n))
		}
		data = data[n:]

		field, known := spec.fields[num]
		if !known {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%s: malformed field %d: %w", spec.name, num, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		flatKey := joinKey(flatPrefix, field.name)
		key := joinKey(keyPrefix, field.name)
		if field.repeated {
			key = fmt.Sprintf("%s[%d]", key, counts[num])
		}
		counts[num]++

		switch field.kind {
		case kindMessage:
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("%s: malformed %s: %w", spec.name, field.name, protowire.ParseError(n))
			}
			data = data[n:]
			if err := flattenMessage(body, field.msg, flatKey, key, out); err != nil {
				return err
			}

		case kindString:
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("%s: malformed %s: %w", spec.name, field.name, protowire.ParseError(n))
			}
			data = data[n:]
			*out = append(*out, argRow{flatKey, key, StringValue(string(body))})

		case kindDouble:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return fmt.Errorf("%s: malformed %s: %w", spec.name, field.name, protowire.ParseError(n))
			}
			data = data[n:]
			*out = append(*out, argRow{flatKey, key, RealValue(math.Float64frombits(v))})

		case kindFloat:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return fmt.Errorf("%s: malformed %s: %w", spec.name, field.name, protowire.ParseError(n))
			}
			data = data[n:]
			*out = append(*out, argRow{flatKey, key, RealValue(float64(math.Float32frombits(v)))})

		case kindBool:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%s: malformed %s: %w", spec.name, field.name, protowire.ParseError(n))
			}
			data = data[n:]
			*out = append(*out, argRow{flatKey, key, BoolValue(v != 0)})

		case kindUvarint:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%s: malformed %s: %w", spec.name, field.name, protowire.ParseError(n))
			}
			data = data[n:]
			*out = append(*out, argRow{flatKey, key, UintValue(v)})

		case kindVarint:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%s: malformed %s: %w", spec.name, field.name, protowire.ParseError(n))
			}
			data = data[n:]
			*out = append(*out, argRow{flatKey, key, IntValue(int64(v))})
		}
	}
	return nil
}

// joinKey appends a segment to a dotted key prefix.
func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
