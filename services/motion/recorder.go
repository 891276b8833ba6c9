// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package motion

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AleutianAI/MotionLens/pkg/logging"
)

// Animation is a seekable animation under test. Implementations wrap
// whatever drives the UI (a recorded value interpolation in tests, a
// live transition in instrumentation).
type Animation interface {
	// Duration is the animation's total run time; sampled fractions
	// map onto it for timestamp frame ids.
	Duration() time.Duration

	// SeekTo moves the animation to the given progress in [0,1].
	SeekTo(ctx context.Context, progress float64) error
}

// RecordedMotion is the frozen output of one recording session,
// consumed immediately by golden comparison and not persisted beyond
// the test.
type RecordedMotion struct {
	// TestClass and TestMethod identify the recording's golden.
	TestClass  string
	TestMethod string

	// TimeSeries holds the sampled features.
	TimeSeries *TimeSeries

	// Screenshots are optional per-frame capture paths, aligned with
	// the series' frames when present.
	Screenshots []string
}

// GoldenIdentity renders the "class/method" golden key.
func (m *RecordedMotion) GoldenIdentity() string {
	return m.TestClass + "/" + m.TestMethod
}

// Recorder drives one animation through a sampling plan and captures
// every feature at every stop. One recorder per test invocation; the
// result is frozen into a RecordedMotion.
type Recorder struct {
	class    string
	method   string
	anim     Animation
	sampling AnimationSampling
	captures []FeatureCapture

	logger     *logging.Logger
	screenshot func(FrameID) (string, error)
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used by the recorder.
func WithLogger(logger *logging.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// WithScreenshots installs a per-frame screenshot hook; the returned
// path is collected into the RecordedMotion.
func WithScreenshots(capture func(FrameID) (string, error)) RecorderOption {
	return func(r *Recorder) { r.screenshot = capture }
}

// NewRecorder builds a recorder for one test invocation.
func NewRecorder(class, method string, anim Animation, sampling AnimationSampling, captures []FeatureCapture, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		class:    class,
		method:   method,
		anim:     anim,
		sampling: sampling,
		captures: captures,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	return r
}

// Record runs the sampling plan: the optional "before" frame is
// captured without seeking, each fraction maps to a timestamp frame,
// and the optional "after" frame is captured at the settled end
// state. Capture closures never fail; only seeking and screenshots
// can error.
func (r *Recorder) Record(ctx context.Context) (*RecordedMotion, error) {
	if len(r.captures) == 0 {
		return nil, fmt.Errorf("motion: recorder has no feature captures")
	}

	var (
		frames      []FrameID
		screenshots []string
		columns     = make([][]DataPoint, len(r.captures))
	)
	sample := func(id FrameID) error {
		frames = append(frames, id)
		for i, c := range r.captures {
			columns[i] = append(columns[i], c.Capture())
		}
		if r.screenshot == nil {
			return nil
		}
		path, err := r.screenshot(id)
		if err != nil {
			return fmt.Errorf("motion: screenshot at %s: %w", id, err)
		}
		screenshots = append(screenshots, path)
		return nil
	}

	if r.sampling.SampleBefore {
		if err := sample(SupplementalFrame(LabelBefore)); err != nil {
			return nil, err
		}
	}

	durMillis := r.anim.Duration().Milliseconds()
	for _, fraction := range r.sampling.Fractions {
		if err := r.anim.SeekTo(ctx, fraction); err != nil {
			return nil, fmt.Errorf("motion: seek to %v: %w", fraction, err)
		}
		millis := int64(math.Round(fraction * float64(durMillis)))
		if err := sample(TimestampFrame(millis)); err != nil {
			return nil, err
		}
	}

	if r.sampling.SampleAfter {
		if err := r.anim.SeekTo(ctx, 1); err != nil {
			return nil, fmt.Errorf("motion: seek to end: %w", err)
		}
		if err := sample(SupplementalFrame(LabelAfter)); err != nil {
			return nil, err
		}
	}

	features := make([]Feature, len(r.captures))
	for i, c := range r.captures {
		features[i] = Feature{Name: c.Name, DataPoints: columns[i]}
	}
	series, err := NewTimeSeries(frames, features)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("motion recorded",
		"test", r.class+"/"+r.method,
		"frames", len(frames),
		"features", len(features),
	)
	return &RecordedMotion{
		TestClass:   r.class,
		TestMethod:  r.method,
		TimeSeries:  series,
		Screenshots: screenshots,
	}, nil
}
