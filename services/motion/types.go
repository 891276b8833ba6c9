// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package motion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// DataPointType defines one named sample type: how its values encode
// to JSON, decode back, and compare. ToJSON and FromJSON must be
// exact inverses for every representable value; Equal defaults to
// exact comparison (no float tolerance) unless a type installs its
// own.
type DataPointType struct {
	// Name keys the type in the registry and in serialized points.
	Name string

	// ToJSON encodes a native value.
	ToJSON func(v any) (json.RawMessage, error)

	// FromJSON decodes a native value.
	FromJSON func(raw json.RawMessage) (any, error)

	// Equal compares two native values.
	Equal func(a, b any) bool
}

// Point makes a value point of this type.
func (t *DataPointType) Point(v any) DataPoint { return ValuePoint(t, v) }

var (
	registryMu sync.RWMutex
	registry   = map[string]*DataPointType{}
)

// RegisterType adds a type to the registry. Registering a name twice
// or the reserved "not_found" name is an error.
func RegisterType(t *DataPointType) error {
	if t.Name == "" || t.Name == "not_found" {
		return fmt.Errorf("motion: invalid data point type name %q", t.Name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[t.Name]; ok {
		return fmt.Errorf("motion: data point type %q already registered", t.Name)
	}
	registry[t.Name] = t
	return nil
}

// LookupType returns the registered type with the given name.
func LookupType(name string) (*DataPointType, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("motion: unknown data point type %q", name)
	}
	return t, nil
}

// Point is an integer screen coordinate pair.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is an integer width/height pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is an integer pixel rectangle.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Built-in types. Native representations: int is int64, float and dp
// are float64, the structured types are the value structs above.
var (
	TypeInt    = mustType("int", intToJSON, intFromJSON, func(a, b any) bool { return a == b })
	TypeFloat  = mustType("float", floatToJSON, floatFromJSON, func(a, b any) bool { return a == b })
	TypeBool   = mustType("bool", marshalValue, structFromJSON[bool](), func(a, b any) bool { return a == b })
	TypeString = mustType("string", marshalValue, structFromJSON[string](), func(a, b any) bool { return a == b })
	TypePoint  = mustType("point", marshalValue, structFromJSON[Point](), func(a, b any) bool { return a == b })
	TypeSize   = mustType("size", marshalValue, structFromJSON[Size](), func(a, b any) bool { return a == b })
	TypeRect   = mustType("rect", marshalValue, structFromJSON[Rect](), func(a, b any) bool { return a == b })
	TypeDp     = mustType("dp", floatToJSON, floatFromJSON, func(a, b any) bool { return a == b })
)

// Typed constructors for the common cases.

func IntPoint(v int64) DataPoint     { return TypeInt.Point(v) }
func FloatPoint(v float64) DataPoint { return TypeFloat.Point(v) }
func BoolPoint(v bool) DataPoint     { return TypeBool.Point(v) }
func StringPoint(v string) DataPoint { return TypeString.Point(v) }
func PointPoint(v Point) DataPoint   { return TypePoint.Point(v) }
func SizePoint(v Size) DataPoint     { return TypeSize.Point(v) }
func RectPoint(v Rect) DataPoint     { return TypeRect.Point(v) }
func DpPoint(v float64) DataPoint    { return TypeDp.Point(v) }

func mustType(name string, to func(any) (json.RawMessage, error), from func(json.RawMessage) (any, error), eq func(a, b any) bool) *DataPointType {
	t := &DataPointType{Name: name, ToJSON: to, FromJSON: from, Equal: eq}
	if err := RegisterType(t); err != nil {
		panic(err)
	}
	return t
}

func marshalValue(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}

// structFromJSON decodes into T and returns it as the native value.
func structFromJSON[T any]() func(json.RawMessage) (any, error) {
	return func(raw json.RawMessage) (any, error) {
		var v T
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func intToJSON(v any) (json.RawMessage, error) {
	i, ok := v.(int64)
	if !ok {
		return nil, fmt.Errorf("want int64, got %T", v)
	}
	return json.Marshal(i)
}

func intFromJSON(raw json.RawMessage) (any, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return n.Int64()
}

func floatToJSON(v any) (json.RawMessage, error) {
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("want float64, got %T", v)
	}
	return json.Marshal(f)
}

func floatFromJSON(raw json.RawMessage) (any, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f, nil
}
