// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package updater

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/MotionLens/services/golden"
)

// Diff statuses.
const (
	StatusMatch         = "match"
	StatusMismatch      = "mismatch"
	StatusMissingGolden = "missing_golden"
)

// DiffFact is one comparison fact in API responses.
type DiffFact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DiffHunk is one parsed hunk of the unified document diff.
type DiffHunk struct {
	OrigStart int32  `json:"orig_start"`
	OrigLines int32  `json:"orig_lines"`
	NewStart  int32  `json:"new_start"`
	NewLines  int32  `json:"new_lines"`
	Body      string `json:"body"`
}

// Diff is the review payload for one pending update: the structured
// comparison facts plus a line diff of the golden documents.
type Diff struct {
	Status  string     `json:"status"`
	Facts   []DiffFact `json:"facts,omitempty"`
	Unified string     `json:"unified,omitempty"`
	Hunks   []DiffHunk `json:"hunks,omitempty"`
}

// computeDiff compares a pending update's exported actual against its
// golden.
func computeDiff(ctx context.Context, store *golden.Store, u PendingUpdate) (*Diff, error) {
	actualData, err := os.ReadFile(u.ActualPath)
	if err != nil {
		return nil, fmt.Errorf("updater: read actual %s: %w", u.ActualPath, err)
	}
	actual, err := golden.Decode(actualData)
	if err != nil {
		return nil, fmt.Errorf("updater: actual %s: %w", u.RelPath, err)
	}

	goldenSeries, err := store.Load(ctx, u.Class, u.Method, u.Name)
	if errors.Is(err, golden.ErrGoldenNotFound) {
		d := &Diff{Status: StatusMissingGolden}
		if err := fillLineDiff(d, nil, actualData); err != nil {
			return nil, err
		}
		return d, nil
	}
	if err != nil {
		return nil, err
	}

	result := golden.Compare(goldenSeries, actual)
	if result.Passed {
		return &Diff{Status: StatusMatch}, nil
	}

	d := &Diff{Status: StatusMismatch}
	for _, f := range result.Facts {
		d.Facts = append(d.Facts, DiffFact{Key: f.Key, Value: f.Value})
	}
	goldenData, err := golden.Encode(goldenSeries)
	if err != nil {
		return nil, err
	}
	if err := fillLineDiff(d, goldenData, actualData); err != nil {
		return nil, err
	}
	return d, nil
}

// fillLineDiff renders the unified diff of the two documents and
// parses it into structured hunks.
func fillLineDiff(d *Diff, goldenData, actualData []byte) error {
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(goldenData)),
		B:        difflib.SplitLines(string(actualData)),
		FromFile: "golden",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("updater: render diff: %w", err)
	}
	d.Unified = unified
	if unified == "" {
		return nil
	}

	fileDiff, err := godiff.ParseFileDiff([]byte(unified))
	if err != nil {
		return fmt.Errorf("updater: parse diff: %w", err)
	}
	for _, h := range fileDiff.Hunks {
		d.Hunks = append(d.Hunks, DiffHunk{
			OrigStart: h.OrigStartLine,
			OrigLines: h.OrigLines,
			NewStart:  h.NewStartLine,
			NewLines:  h.NewLines,
			Body:      string(h.Body),
		})
	}
	return nil
}
