// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package motion records animation feature samples into time series
// for golden comparison: typed data points sampled per frame, a
// sampling policy over animation progress, and a recorder assembling
// the result of one test invocation.
package motion

import (
	"encoding/json"
	"fmt"
)

// pointKind tags the DataPoint variant.
type pointKind int

const (
	pointValue pointKind = iota
	pointNotFound
	pointNull
)

// DataPoint is one typed sample in a time series: a concrete value, a
// "capture target not found" marker, or an explicit null. NotFound
// and Null are distinct states and serialize differently; neither is
// a nullable wrapper around a value.
type DataPoint struct {
	kind   pointKind
	typ    *DataPointType
	val    any
	reason string
}

// ValuePoint wraps a concrete value of the given type. The value must
// be the type's native representation (see the built-in types).
func ValuePoint(t *DataPointType, v any) DataPoint {
	return DataPoint{kind: pointValue, typ: t, val: v}
}

// NotFoundPoint marks a sample whose capture target could not be
// resolved.
func NotFoundPoint() DataPoint {
	return DataPoint{kind: pointNotFound}
}

// NotFoundPointf is NotFoundPoint with a diagnostic reason. The
// reason is for failure messages only; it does not serialize and does
// not participate in equality.
func NotFoundPointf(format string, args ...any) DataPoint {
	return DataPoint{kind: pointNotFound, reason: fmt.Sprintf(format, args...)}
}

// NullPoint marks an explicit null sample.
func NullPoint() DataPoint {
	return DataPoint{kind: pointNull}
}

// IsValue reports whether the point carries a concrete value.
func (d DataPoint) IsValue() bool { return d.kind == pointValue }

// IsNotFound reports whether the capture target was unresolvable.
func (d DataPoint) IsNotFound() bool { return d.kind == pointNotFound }

// IsNull reports whether the point is an explicit null.
func (d DataPoint) IsNull() bool { return d.kind == pointNull }

// Type returns the point's data type (nil for sentinels).
func (d DataPoint) Type() *DataPointType { return d.typ }

// Value returns the wrapped value (nil for sentinels).
func (d DataPoint) Value() any { return d.val }

// Reason returns the diagnostic reason of a not-found point.
func (d DataPoint) Reason() string { return d.reason }

// Equal compares two points. Sentinels only equal the same sentinel;
// values must share a type and satisfy the type's equality, which for
// floats is exact unless the type defines otherwise.
func (d DataPoint) Equal(o DataPoint) bool {
	if d.kind != o.kind {
		return false
	}
	if d.kind != pointValue {
		return true
	}
	if d.typ == nil || o.typ == nil || d.typ.Name != o.typ.Name {
		return false
	}
	return d.typ.Equal(d.val, o.val)
}

// String renders the point for failure messages, with its type name.
func (d DataPoint) String() string {
	switch d.kind {
	case pointNotFound:
		if d.reason != "" {
			return fmt.Sprintf("not_found (%s)", d.reason)
		}
		return "not_found"
	case pointNull:
		return "null"
	default:
		return fmt.Sprintf("%v (%s)", d.val, d.typ.Name)
	}
}

// wire is the JSON envelope of value and not-found points. Explicit
// nulls serialize as a bare JSON null.
type wire struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler. The encoding must round-trip
// exactly through UnmarshalJSON for every registered type.
func (d DataPoint) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case pointNull:
		return []byte("null"), nil
	case pointNotFound:
		return json.Marshal(wire{Type: "not_found"})
	default:
		if d.typ == nil {
			return nil, fmt.Errorf("motion: data point has no type")
		}
		raw, err := d.typ.ToJSON(d.val)
		if err != nil {
			return nil, fmt.Errorf("motion: encode %s value: %w", d.typ.Name, err)
		}
		return json.Marshal(wire{Type: d.typ.Name, Value: raw})
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DataPoint) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = NullPoint()
		return nil
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("motion: decode data point: %w", err)
	}
	if w.Type == "not_found" {
		*d = NotFoundPoint()
		return nil
	}
	t, err := LookupType(w.Type)
	if err != nil {
		return err
	}
	v, err := t.FromJSON(w.Value)
	if err != nil {
		return fmt.Errorf("motion: decode %s value: %w", t.Name, err)
	}
	*d = ValuePoint(t, v)
	return nil
}
