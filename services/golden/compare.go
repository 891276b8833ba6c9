// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package golden

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/MotionLens/services/assertions"
	"github.com/AleutianAI/MotionLens/services/motion"
)

// Result is the outcome of one golden comparison. Failures are
// itemized facts, never one opaque diff string.
type Result struct {
	Passed bool
	Facts  []assertions.Fact
}

// String renders the result for CLI output and test failures.
func (r Result) String() string {
	if r.Passed {
		return "matches golden"
	}
	return "does not match golden" + assertions.FormatFacts(r.Facts)
}

// Compare diffs an actual time series against its golden. Three check
// classes run in fixed order and are mutually exclusive: frame ids,
// then the feature set, then per-point values. Once an earlier class
// mismatches the later ones are skipped, so one root cause never
// cascades into noise.
func Compare(goldenSeries, actual *motion.TimeSeries) Result {
	if facts := compareFrames(goldenSeries.Frames(), actual.Frames()); facts != nil {
		return Result{Facts: facts}
	}
	if facts := compareFeatureSets(goldenSeries.FeatureNames(), actual.FeatureNames()); facts != nil {
		return Result{Facts: facts}
	}
	if facts := compareValues(goldenSeries, actual); facts != nil {
		return Result{Facts: facts}
	}
	return Result{Passed: true}
}

// compareFrames checks the frame-id lists element-wise and reports
// the full lists plus the symmetric difference on mismatch.
func compareFrames(golden, actual []motion.FrameID) []assertions.Fact {
	if framesEqual(golden, actual) {
		return nil
	}
	facts := []assertions.Fact{
		assertions.Factf("expected frames", "%s", formatFrames(golden)),
		assertions.Factf("actual frames", "%s", formatFrames(actual)),
	}
	if missing := frameDifference(golden, actual); len(missing) > 0 {
		facts = append(facts, assertions.Factf("missing frames", "%s", formatFrames(missing)))
	}
	if unexpected := frameDifference(actual, golden); len(unexpected) > 0 {
		facts = append(facts, assertions.Factf("unexpected frames", "%s", formatFrames(unexpected)))
	}
	return facts
}

// compareFeatureSets reports feature names present on one side only.
func compareFeatureSets(golden, actual []string) []assertions.Fact {
	missing := nameDifference(golden, actual)
	unexpected := nameDifference(actual, golden)
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	var facts []assertions.Fact
	if len(missing) > 0 {
		facts = append(facts, assertions.Factf("missing features", "%s", strings.Join(missing, ", ")))
	}
	if len(unexpected) > 0 {
		facts = append(facts, assertions.Factf("unexpected features", "%s", strings.Join(unexpected, ", ")))
	}
	return facts
}

// compareValues reports every differing data point with its frame id
// and both typed values.
func compareValues(goldenSeries, actual *motion.TimeSeries) []assertions.Fact {
	frames := goldenSeries.Frames()
	var facts []assertions.Fact
	for _, name := range goldenSeries.SortedFeatureNames() {
		goldenFeature, _ := goldenSeries.Feature(name)
		actualFeature, _ := actual.Feature(name)
		for i := range goldenFeature.DataPoints {
			g, a := goldenFeature.DataPoints[i], actualFeature.DataPoints[i]
			if g.Equal(a) {
				continue
			}
			facts = append(facts,
				assertions.Factf("feature", "%s", name),
				assertions.Factf("frame", "%s", frames[i]),
				assertions.Factf("expected", "%s", g),
				assertions.Factf("actual", "%s", a),
			)
		}
	}
	return facts
}

func framesEqual(a, b []motion.FrameID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// frameDifference returns the frames of a that do not appear in b.
func frameDifference(a, b []motion.FrameID) []motion.FrameID {
	present := make(map[motion.FrameID]struct{}, len(b))
	for _, f := range b {
		present[f] = struct{}{}
	}
	var out []motion.FrameID
	for _, f := range a {
		if _, ok := present[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func nameDifference(a, b []string) []string {
	present := make(map[string]struct{}, len(b))
	for _, n := range b {
		present[n] = struct{}{}
	}
	var out []string
	for _, n := range sortedStrings(a) {
		if _, ok := present[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

func formatFrames(frames []motion.FrameID) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Subject verifies recorded motions against a store.
type Subject struct {
	store *Store
}

// NewSubject returns a subject over the store.
func NewSubject(store *Store) *Subject {
	return &Subject{store: store}
}

// Verify loads the recording's golden and compares. name
// distinguishes multiple goldens per test method ("" for the single
// default). A missing golden is an error, not a mismatch: the caller
// is told to record one.
func (s *Subject) Verify(ctx context.Context, recorded *motion.RecordedMotion, name string) (Result, error) {
	ctx, span := s.store.tracer.Start(ctx, "golden.Verify")
	defer span.End()

	goldenSeries, err := s.store.Load(ctx, recorded.TestClass, recorded.TestMethod, name)
	if err != nil {
		return Result{}, err
	}
	result := Compare(goldenSeries, recorded.TimeSeries)
	span.SetAttributes(attribute.Bool("golden.passed", result.Passed))
	if !result.Passed {
		s.store.logger.Warn("golden mismatch",
			"test", recorded.GoldenIdentity(),
			"facts", len(result.Facts),
		)
	}
	return result, nil
}

// Record saves the recording as the new golden.
func (s *Subject) Record(ctx context.Context, recorded *motion.RecordedMotion, name string) error {
	if recorded.TimeSeries == nil {
		return fmt.Errorf("golden: recording has no time series")
	}
	return s.store.Save(ctx, recorded.TestClass, recorded.TestMethod, name, recorded.TimeSeries)
}
