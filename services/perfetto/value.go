// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import (
	"fmt"
	"strconv"
)

// ValueType identifies the storage class of an args-table value.
//
// The names match the value_type column emitted by the Perfetto trace
// processor so that queries written against real trace-processor output
// behave identically here.
type ValueType string

const (
	// TypeInt is a signed 64-bit integer value.
	TypeInt ValueType = "int"

	// TypeUint is an unsigned integer value (stored as int64).
	TypeUint ValueType = "uint"

	// TypeReal is a floating point value.
	TypeReal ValueType = "real"

	// TypeBool is a boolean value (stored as 0/1 in int_value).
	TypeBool ValueType = "bool"

	// TypeString is a string value.
	TypeString ValueType = "string"

	// TypeNull marks an absent value.
	TypeNull ValueType = "null"
)

// Value is one typed scalar from a query row or args entry.
//
// The zero Value is a null value. Accessors are total: reading a Value
// as the wrong type returns that type's zero, never an error, so an
// absent or re-typed field cannot fail a whole parse.
type Value struct {
	// Type is the storage class of the value.
	Type ValueType

	// Int holds int, uint and bool (0/1) payloads.
	Int int64

	// Real holds floating point payloads.
	Real float64

	// Str holds string payloads.
	Str string
}

// IntValue returns a Value of type int.
func IntValue(v int64) Value { return Value{Type: TypeInt, Int: v} }

// UintValue returns a Value of type uint.
func UintValue(v uint64) Value { return Value{Type: TypeUint, Int: int64(v)} }

// RealValue returns a Value of type real.
func RealValue(v float64) Value { return Value{Type: TypeReal, Real: v} }

// BoolValue returns a Value of type bool.
func BoolValue(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{Type: TypeBool, Int: i}
}

// StringValue returns a Value of type string.
func StringValue(v string) Value { return Value{Type: TypeString, Str: v} }

// NullValue returns the null Value.
func NullValue() Value { return Value{Type: TypeNull} }

// IsNull reports whether the value is absent.
//
// The zero Value (empty Type) also counts as null so that map lookups
// of missing keys behave like explicit nulls.
func (v Value) IsNull() bool { return v.Type == TypeNull || v.Type == "" }

// AsInt returns the value as int64, or 0 when the value is not numeric.
func (v Value) AsInt() int64 {
	switch v.Type {
	case TypeInt, TypeUint, TypeBool:
		return v.Int
	case TypeReal:
		return int64(v.Real)
	default:
		return 0
	}
}

// AsBool returns the value as bool, or false when the value is not
// bool-convertible.
func (v Value) AsBool() bool {
	switch v.Type {
	case TypeBool, TypeInt, TypeUint:
		return v.Int != 0
	default:
		return false
	}
}

// AsReal returns the value as float64, or 0 when the value is not numeric.
func (v Value) AsReal() float64 {
	switch v.Type {
	case TypeReal:
		return v.Real
	case TypeInt, TypeUint, TypeBool:
		return float64(v.Int)
	default:
		return 0
	}
}

// AsString returns the value as a string. Non-string values are
// formatted; null values yield "".
func (v Value) AsString() string {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeInt, TypeUint:
		return strconv.FormatInt(v.Int, 10)
	case TypeBool:
		if v.Int != 0 {
			return "true"
		}
		return "false"
	case TypeReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	default:
		return ""
	}
}

// String implements fmt.Stringer for debugging output.
func (v Value) String() string {
	if v.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%s(%s)", v.Type, v.AsString())
}

// Row is one flat query result row: column name to typed value.
type Row map[string]Value

// Int returns column col as int64 (0 when absent).
func (r Row) Int(col string) int64 { return r[col].AsInt() }

// Real returns column col as float64 (0 when absent).
func (r Row) Real(col string) float64 { return r[col].AsReal() }

// Str returns column col as string ("" when absent).
func (r Row) Str(col string) string { return r[col].AsString() }
