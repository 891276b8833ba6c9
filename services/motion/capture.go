// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package motion

import (
	"errors"
	"fmt"
)

var (
	// ErrNotExported is returned when a node exists but does not
	// export the requested value key.
	ErrNotExported = errors.New("motion: value key not exported")

	// ErrAmbiguousMatch is returned when a strict read matches more
	// than one node.
	ErrAmbiguousMatch = errors.New("motion: selector matched multiple nodes")

	// ErrNodeNotFound is returned when a strict read matches no node.
	ErrNodeNotFound = errors.New("motion: selector matched no node")
)

// Node is one capturable UI element: an id plus the typed values it
// exports for testing.
type Node struct {
	// ID names the node, e.g. a compose test tag or view id string.
	ID string

	// Values are the node's exported values by key.
	Values map[string]DataPoint
}

// Exported returns the node's value for key.
func (n *Node) Exported(key string) (DataPoint, bool) {
	v, ok := n.Values[key]
	return v, ok
}

// NodeSelector filters nodes for capture.
type NodeSelector func(*Node) bool

// SelectByID matches nodes by exact id.
func SelectByID(id string) NodeSelector {
	return func(n *Node) bool { return n.ID == id }
}

// NodeSource produces the current node set for one frame. It is
// re-evaluated at every sample because composition changes while the
// animation plays.
type NodeSource func() []*Node

// FeatureCapture samples one named feature per frame.
type FeatureCapture struct {
	// Name is the feature column name in the recorded series.
	Name string

	// Capture produces the frame's data point. It must not fail:
	// unresolvable targets yield NotFound points.
	Capture func() DataPoint
}

// CaptureByValueKey builds the lenient capture path: a selector over
// the frame's node set plus an exported value key. Zero or multiple
// matching nodes, or a node without the key, all record NotFound
// rather than failing the recording; nodes come and go while UI is
// composing and a transient miss must not abort the test.
func CaptureByValueKey(name string, source NodeSource, sel NodeSelector, key string) FeatureCapture {
	return FeatureCapture{
		Name: name,
		Capture: func() DataPoint {
			nodes := matching(source(), sel)
			switch len(nodes) {
			case 1:
				v, ok := nodes[0].Exported(key)
				if !ok {
					return NotFoundPointf("node %q does not export %q", nodes[0].ID, key)
				}
				return v
			case 0:
				return NotFoundPointf("no node matched")
			default:
				return NotFoundPointf("%d nodes matched", len(nodes))
			}
		},
	}
}

// ReadExportedValue is the strict single-node read: the node must
// exist, be unique, and export the key.
func ReadExportedValue(nodes []*Node, sel NodeSelector, key string) (DataPoint, error) {
	matches := matching(nodes, sel)
	switch len(matches) {
	case 0:
		return DataPoint{}, ErrNodeNotFound
	case 1:
		v, ok := matches[0].Exported(key)
		if !ok {
			return DataPoint{}, fmt.Errorf("%w: node %q, key %q", ErrNotExported, matches[0].ID, key)
		}
		return v, nil
	default:
		return DataPoint{}, fmt.Errorf("%w: %d nodes", ErrAmbiguousMatch, len(matches))
	}
}

func matching(nodes []*Node, sel NodeSelector) []*Node {
	var out []*Node
	for _, n := range nodes {
		if sel(n) {
			out = append(out, n)
		}
	}
	return out
}
