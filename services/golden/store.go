// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package golden stores recorded time series as JSON documents and
// compares new recordings against them with structured, itemized
// failure facts.
package golden

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/MotionLens/pkg/logging"
	"github.com/AleutianAI/MotionLens/services/motion"
)

// ErrGoldenNotFound is returned when no golden has been recorded for
// a test yet.
var ErrGoldenNotFound = errors.New("golden: no golden recorded")

// document is the on-disk golden shape. Feature keys marshal sorted,
// so saved documents are deterministic and diff cleanly.
type document struct {
	Frames   []motion.FrameID              `json:"frames"`
	Features map[string][]motion.DataPoint `json:"features"`
}

// Encode renders a time series as an indented golden document.
func Encode(ts *motion.TimeSeries) ([]byte, error) {
	doc := document{
		Frames:   ts.Frames(),
		Features: make(map[string][]motion.DataPoint, len(ts.FeatureNames())),
	}
	for _, name := range ts.FeatureNames() {
		f, _ := ts.Feature(name)
		doc.Features[name] = f.DataPoints
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("golden: encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a golden document back into a time series.
func Decode(data []byte) (*motion.TimeSeries, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("golden: decode document: %w", err)
	}
	names := make([]string, 0, len(doc.Features))
	for name := range doc.Features {
		names = append(names, name)
	}
	// Document order is not meaningful; load sorted for stability.
	features := make([]motion.Feature, 0, len(names))
	for _, name := range sortedStrings(names) {
		features = append(features, motion.Feature{Name: name, DataPoints: doc.Features[name]})
	}
	ts, err := motion.NewTimeSeries(doc.Frames, features)
	if err != nil {
		return nil, fmt.Errorf("golden: invalid document: %w", err)
	}
	return ts, nil
}

// Store reads and writes goldens under a root directory, one file per
// test: <root>/<class>/<method>.json, or <method>__<name>.json when a
// test records more than one golden. The qualifier separator is a
// double underscore because method names may contain single ones.
type Store struct {
	root   string
	logger *logging.Logger
	tracer trace.Tracer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *logging.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		root:   dir,
		tracer: otel.Tracer("motionlens/golden"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Path returns the golden file path for a test identity.
func (s *Store) Path(class, method, name string) string {
	file := method
	if name != "" {
		file += "__" + name
	}
	return filepath.Join(s.root, class, file+".json")
}

// Load reads the golden for a test identity.
func (s *Store) Load(ctx context.Context, class, method, name string) (*motion.TimeSeries, error) {
	_, span := s.tracer.Start(ctx, "golden.Load",
		trace.WithAttributes(attribute.String("golden.test", class+"/"+method)))
	defer span.End()

	path := s.Path(class, method, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrGoldenNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("golden: read %s: %w", path, err)
	}
	return Decode(data)
}

// Save writes the golden for a test identity, creating directories as
// needed. The write goes through a temp file so a crash never leaves
// a truncated golden behind.
func (s *Store) Save(ctx context.Context, class, method, name string, ts *motion.TimeSeries) error {
	_, span := s.tracer.Start(ctx, "golden.Save",
		trace.WithAttributes(attribute.String("golden.test", class+"/"+method)))
	defer span.End()

	data, err := Encode(ts)
	if err != nil {
		return err
	}
	path := s.Path(class, method, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("golden: create %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("golden: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("golden: replace %s: %w", path, err)
	}

	s.logger.Info("golden saved", "path", path, "frames", ts.FrameCount())
	return nil
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
