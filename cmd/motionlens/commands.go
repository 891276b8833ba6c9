// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"time"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	logLevel    string
	jsonOutput  bool
	quietOutput bool

	checksPath string // assert: path to the checks YAML document

	goldenRoot  string // golden/serve: golden store directory
	goldenClass string
	goldenName  string

	watchRoot     string // serve: exports directory to watch
	listenAddr    string // serve: HTTP listen address
	debounceDelay time.Duration

	rootCmd = &cobra.Command{
		Use:   "motionlens",
		Short: "A cli to inspect Android window traces and motion goldens",
		Long: `MotionLens parses binary Perfetto window-manager and shell-transition
traces, checks window assertions against them, and compares recorded
motion time series against golden files.`,
	}

	// --- Traces ---
	parseCmd = &cobra.Command{
		Use:   "parse [trace files...]",
		Short: "Parse Perfetto traces and print a summary of each",
		Args:  cobra.MinimumNArgs(1),
		Run:   runParse, // Defined in cmd_parse.go
	}
	assertCmd = &cobra.Command{
		Use:   "assert [trace file]",
		Short: "Run a YAML document of window assertions against a trace",
		Args:  cobra.ExactArgs(1),
		Run:   runAssert, // Defined in cmd_assert.go
	}

	// --- Goldens ---
	goldenCmd = &cobra.Command{
		Use:   "golden",
		Short: "Compare and update motion golden files",
	}
	goldenCompareCmd = &cobra.Command{
		Use:   "compare [golden.json] [actual.json]",
		Short: "Compare a recorded motion export against a golden file",
		Args:  cobra.ExactArgs(2),
		Run:   runGoldenCompare, // Defined in cmd_golden.go
	}
	goldenUpdateCmd = &cobra.Command{
		Use:   "update [method] [actual.json]",
		Short: "Write an export into the golden store as the new golden",
		Args:  cobra.ExactArgs(2),
		Run:   runGoldenUpdate, // Defined in cmd_golden.go
	}

	// --- Updater ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Watch an exports directory and serve the golden review API",
		Run:   runServe, // Defined in cmd_serve.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to motionlens.yaml (default ~/.motionlens/motionlens.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Minimum log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quietOutput, "quiet", "q", false,
		"Suppress output, exit code only")

	rootCmd.AddCommand(parseCmd)

	rootCmd.AddCommand(assertCmd)
	assertCmd.Flags().StringVar(&checksPath, "checks", "",
		"Path to the assertions YAML document (required)")
	assertCmd.MarkFlagRequired("checks")

	rootCmd.AddCommand(goldenCmd)
	goldenCmd.AddCommand(goldenCompareCmd)
	goldenCmd.AddCommand(goldenUpdateCmd)
	goldenUpdateCmd.Flags().StringVar(&goldenRoot, "golden-root", "",
		"Golden store directory (required)")
	goldenUpdateCmd.Flags().StringVar(&goldenClass, "class", "",
		"Test class the golden belongs to (required)")
	goldenUpdateCmd.Flags().StringVar(&goldenName, "name", "",
		"Optional golden qualifier")
	goldenUpdateCmd.MarkFlagRequired("golden-root")
	goldenUpdateCmd.MarkFlagRequired("class")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&watchRoot, "watch", "",
		"Exports directory to watch for new actuals")
	serveCmd.Flags().StringVar(&goldenRoot, "golden-root", "",
		"Golden store directory")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "",
		"HTTP listen address (default :8750)")
	serveCmd.Flags().DurationVar(&debounceDelay, "debounce", 0,
		"Watcher debounce window (default 200ms)")
}
