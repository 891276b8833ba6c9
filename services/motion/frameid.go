// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package motion

import (
	"encoding/json"
	"fmt"
)

// FrameID identifies one sampled row of a time series: either a
// timestamp (milliseconds into the animation) or a named supplemental
// marker for boundary samples taken outside the animation proper.
type FrameID struct {
	millis int64
	label  string
}

// Supplemental frame labels.
const (
	LabelBefore = "before"
	LabelAfter  = "after"
)

// TimestampFrame identifies a sample at the given animation time.
func TimestampFrame(millis int64) FrameID {
	return FrameID{millis: millis}
}

// SupplementalFrame identifies a boundary sample by label.
func SupplementalFrame(label string) FrameID {
	return FrameID{label: label}
}

// IsSupplemental reports whether the frame is a named marker rather
// than a timestamp.
func (f FrameID) IsSupplemental() bool { return f.label != "" }

// Millis returns the timestamp of a timestamp frame (0 for markers).
func (f FrameID) Millis() int64 { return f.millis }

// Label returns the marker name ("" for timestamp frames).
func (f FrameID) Label() string { return f.label }

// String renders the frame id the way golden diffs print it.
func (f FrameID) String() string {
	if f.label != "" {
		return f.label
	}
	return fmt.Sprintf("%dms", f.millis)
}

// MarshalJSON encodes timestamp frames as numbers and supplemental
// frames as strings.
func (f FrameID) MarshalJSON() ([]byte, error) {
	if f.label != "" {
		return json.Marshal(f.label)
	}
	return json.Marshal(f.millis)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FrameID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		if label == "" {
			return fmt.Errorf("motion: empty supplemental frame label")
		}
		*f = SupplementalFrame(label)
		return nil
	}
	var millis int64
	if err := json.Unmarshal(data, &millis); err != nil {
		return fmt.Errorf("motion: decode frame id: %w", err)
	}
	*f = TimestampFrame(millis)
	return nil
}
