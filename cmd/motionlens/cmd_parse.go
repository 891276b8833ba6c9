// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/MotionLens/services/perfetto"
	"github.com/AleutianAI/MotionLens/services/transitions"
	"github.com/AleutianAI/MotionLens/services/wm"
)

// traceSummary is the per-file result of the parse command.
type traceSummary struct {
	File           string `json:"file"`
	WMEntries      int    `json:"wm_entries"`
	VisibleWindows int    `json:"visible_windows"`
	TopWindow      string `json:"top_window,omitempty"`
	Transitions    int    `json:"transitions"`
	Played         int    `json:"played"`
	Duration       string `json:"parse_duration"`
}

// runParse parses each trace file in parallel and prints a summary.
func runParse(cmd *cobra.Command, args []string) {
	summaries := make([]traceSummary, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range args {
		g.Go(func() error {
			s, err := summarizeTrace(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		OutputError("parsing traces", err)
		exit(CLIExitError)
	}

	if jsonOutput {
		OutputJSON(summaries)
		return
	}
	if quietOutput {
		return
	}
	for _, s := range summaries {
		fmt.Printf("%s\n", s.File)
		fmt.Printf("  wm entries:      %d\n", s.WMEntries)
		if s.WMEntries > 0 {
			fmt.Printf("  visible windows: %d (top: %s)\n", s.VisibleWindows, s.TopWindow)
		}
		fmt.Printf("  transitions:     %d (%d played)\n", s.Transitions, s.Played)
		fmt.Printf("  parsed in:       %s\n", s.Duration)
	}
}

// summarizeTrace loads one binary trace and parses both subsystems.
func summarizeTrace(ctx context.Context, path string) (traceSummary, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return traceSummary{}, err
	}
	session, err := perfetto.NewSession(perfetto.WithLogger(logger))
	if err != nil {
		return traceSummary{}, err
	}
	defer session.Close()
	if err := session.LoadTrace(ctx, data); err != nil {
		return traceSummary{}, err
	}

	wmTrace, err := wm.NewParser(session, wm.WithLogger(logger)).Parse(ctx)
	if err != nil {
		return traceSummary{}, err
	}
	transTrace, err := transitions.NewParser(session, transitions.WithLogger(logger)).Parse(ctx)
	if err != nil {
		return traceSummary{}, err
	}

	s := traceSummary{
		File:        path,
		WMEntries:   wmTrace.Len(),
		Transitions: transTrace.Len(),
		Played:      len(transTrace.Played()),
		Duration:    time.Since(start).Round(time.Millisecond).String(),
	}
	if last := wmTrace.Last(); last != nil {
		s.VisibleWindows = len(last.VisibleWindows())
		if top := last.TopVisibleWindow(); top != nil {
			s.TopWindow = top.Title
		}
	}
	return s, nil
}
