// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package motion

import (
	"fmt"
	"sort"
)

// Feature is one named column of samples aligned by index with the
// series' frame ids.
type Feature struct {
	Name       string
	DataPoints []DataPoint
}

// TimeSeries is the frozen result of a recording: ordered frame ids
// crossed with named feature columns. Every feature holds exactly one
// data point per frame; the constructor enforces the invariant so
// consumers can index freely.
type TimeSeries struct {
	frames   []FrameID
	features map[string]Feature
	names    []string
}

// NewTimeSeries builds a series, checking the per-feature length
// invariant and rejecting duplicate feature names.
func NewTimeSeries(frames []FrameID, features []Feature) (*TimeSeries, error) {
	ts := &TimeSeries{
		frames:   append([]FrameID(nil), frames...),
		features: make(map[string]Feature, len(features)),
	}
	for _, f := range features {
		if len(f.DataPoints) != len(frames) {
			return nil, fmt.Errorf("motion: feature %q has %d data points for %d frames",
				f.Name, len(f.DataPoints), len(frames))
		}
		if _, ok := ts.features[f.Name]; ok {
			return nil, fmt.Errorf("motion: duplicate feature %q", f.Name)
		}
		ts.features[f.Name] = Feature{
			Name:       f.Name,
			DataPoints: append([]DataPoint(nil), f.DataPoints...),
		}
		ts.names = append(ts.names, f.Name)
	}
	return ts, nil
}

// Frames returns the frame ids in recording order.
func (t *TimeSeries) Frames() []FrameID {
	return append([]FrameID(nil), t.frames...)
}

// FrameCount returns the number of sampled frames.
func (t *TimeSeries) FrameCount() int { return len(t.frames) }

// FeatureNames returns the feature names in recording order.
func (t *TimeSeries) FeatureNames() []string {
	return append([]string(nil), t.names...)
}

// Feature returns the named feature column.
func (t *TimeSeries) Feature(name string) (Feature, bool) {
	f, ok := t.features[name]
	return f, ok
}

// SortedFeatureNames returns the feature names sorted, for stable
// serialization and diffing.
func (t *TimeSeries) SortedFeatureNames() []string {
	names := t.FeatureNames()
	sort.Strings(names)
	return names
}
