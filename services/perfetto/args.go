// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import (
	"strconv"
	"strings"
)

// Args is one node of the decoded argument tree: a name, an optional
// typed scalar value, and an ordered list of named children.
//
// The tree is the intermediate representation between flat args-table
// rows and typed domain objects. It is built once per query result
// group and is read-only thereafter; traversal is strictly top-down,
// so nodes hold no parent references.
//
// All read accessors are nil-safe and total: reading a missing child
// or a missing value yields the type's zero value (0, false, ""),
// never an error. Builders rely on this to survive schema evolution.
type Args struct {
	name     string
	value    Value
	children []*Args
	byName   map[string][]*Args
}

// NewArgs returns an empty root node.
func NewArgs() *Args {
	return &Args{byName: map[string][]*Args{}}
}

// Name returns the node's field name ("" for the root).
func (a *Args) Name() string {
	if a == nil {
		return ""
	}
	return a.name
}

// Value returns the node's scalar value (null for non-leaf nodes).
func (a *Args) Value() Value {
	if a == nil {
		return NullValue()
	}
	return a.value
}

// SetRow inserts one flat row into the tree. The key is a dotted path
// with optional repeated-field indices, e.g.
// "window_manager_service.root_window_container.children[2].window.title".
//
// Intermediate nodes are created on demand. Rows must be inserted in
// query order so that repeated-field indices grow monotonically.
func (a *Args) SetRow(key string, v Value) {
	node := a
	rest := key
	for rest != "" {
		var seg string
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			seg, rest = rest[:i], rest[i+1:]
		} else {
			seg, rest = rest, ""
		}
		name, idx := parseSegment(seg)
		node = node.childAt(name, idx)
	}
	node.value = v
}

// Child returns the first child with the given name, or nil.
func (a *Args) Child(name string) *Args {
	if a == nil {
		return nil
	}
	nodes := a.byName[name]
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Children returns all children with the given name, in trace order.
func (a *Args) Children(name string) []*Args {
	if a == nil {
		return nil
	}
	return a.byName[name]
}

// AllChildren returns every child in trace order.
func (a *Args) AllChildren() []*Args {
	if a == nil {
		return nil
	}
	return a.children
}

// HasChild reports whether a child with the given name exists.
func (a *Args) HasChild(name string) bool {
	if a == nil {
		return false
	}
	return len(a.byName[name]) > 0
}

// Int returns the node's value as int64, defaulting to 0.
func (a *Args) Int() int64 { return a.Value().AsInt() }

// Bool returns the node's value as bool, defaulting to false.
func (a *Args) Bool() bool { return a.Value().AsBool() }

// Str returns the node's value as string, defaulting to "".
func (a *Args) Str() string { return a.Value().AsString() }

// Real returns the node's value as float64, defaulting to 0.
func (a *Args) Real() float64 { return a.Value().AsReal() }

// ChildInt returns the named child's value as int64 (0 when absent).
func (a *Args) ChildInt(name string) int64 { return a.Child(name).Int() }

// ChildBool returns the named child's value as bool (false when absent).
func (a *Args) ChildBool(name string) bool { return a.Child(name).Bool() }

// ChildStr returns the named child's value as string ("" when absent).
func (a *Args) ChildStr(name string) string { return a.Child(name).Str() }

// ChildReal returns the named child's value as float64 (0 when absent).
func (a *Args) ChildReal(name string) float64 { return a.Child(name).Real() }

// childAt returns the child with the given name and occurrence index,
// creating nodes as needed.
func (a *Args) childAt(name string, idx int) *Args {
	if a.byName == nil {
		a.byName = map[string][]*Args{}
	}
	for len(a.byName[name]) <= idx {
		node := &Args{name: name, byName: map[string][]*Args{}}
		a.byName[name] = append(a.byName[name], node)
		a.children = append(a.children, node)
	}
	return a.byName[name][idx]
}

// parseSegment splits a key segment into name and occurrence index.
// "children[2]" -> ("children", 2); "window" -> ("window", 0).
func parseSegment(seg string) (string, int) {
	open := strings.IndexByte(seg, '[')
	if open < 0 || !strings.HasSuffix(seg, "]") {
		return seg, 0
	}
	idx, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil || idx < 0 {
		return seg, 0
	}
	return seg[:open], idx
}

// Entry is one grouped query result: all args rows that share an
// entry id, assembled into a tree.
type Entry struct {
	// ID is the grouping id column value (entry_id or
	// transition_entry_id).
	ID int64

	// TS is the packet timestamp column value.
	TS int64

	// Args is the assembled argument tree.
	Args *Args
}

// CollectEntries groups flat query rows by the given id column and
// builds one Args tree per group. Rows must be ordered by the id
// column (the canonical queries are).
func CollectEntries(rows []Row, idColumn string) []Entry {
	var entries []Entry
	var current *Entry
	for _, row := range rows {
		id := row.Int(idColumn)
		if current == nil || current.ID != id {
			entries = append(entries, Entry{ID: id, TS: row.Int("ts"), Args: NewArgs()})
			current = &entries[len(entries)-1]
		}
		current.Args.SetRow(row.Str("key"), argValue(row))
	}
	return entries
}

// argValue re-types a raw args row through its value_type column.
func argValue(row Row) Value {
	switch ValueType(row.Str("value_type")) {
	case TypeInt:
		return IntValue(row.Int("int_value"))
	case TypeUint:
		return UintValue(uint64(row.Int("int_value")))
	case TypeBool:
		return BoolValue(row.Int("int_value") != 0)
	case TypeString:
		return StringValue(row.Str("string_value"))
	case TypeReal:
		return RealValue(row.Real("real_value"))
	default:
		return NullValue()
	}
}
