// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package assertions is a fluent subject layer over ordered trace
// snapshots: per-entry predicates plus a temporal chain where each
// Then advances to the next sub-range of the trace.
package assertions

import (
	"fmt"
	"strings"
)

// Fact is one itemized piece of a failure report. Failures are lists
// of facts rather than opaque strings so runners can render them.
type Fact struct {
	Key   string
	Value string
}

// Factf builds a fact with a formatted value.
func Factf(key, format string, args ...any) Fact {
	return Fact{Key: key, Value: fmt.Sprintf(format, args...)}
}

// String renders the fact as "key: value".
func (f Fact) String() string {
	return f.Key + ": " + f.Value
}

// FormatFacts renders facts one per line, indented for inclusion in
// failure messages.
func FormatFacts(facts []Fact) string {
	if len(facts) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range facts {
		sb.WriteString("\n  ")
		sb.WriteString(f.String())
	}
	return sb.String()
}
