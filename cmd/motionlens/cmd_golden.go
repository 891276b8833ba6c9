// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/MotionLens/services/golden"
	"github.com/AleutianAI/MotionLens/services/motion"
)

// runGoldenCompare diffs a recorded export against a golden document.
func runGoldenCompare(cmd *cobra.Command, args []string) {
	goldenSeries, err := loadSeries(args[0])
	if err != nil {
		OutputError("loading golden", err)
		exit(CLIExitError)
	}
	actualSeries, err := loadSeries(args[1])
	if err != nil {
		OutputError("loading actual", err)
		exit(CLIExitError)
	}

	result := golden.Compare(goldenSeries, actualSeries)
	if jsonOutput {
		OutputJSON(result)
	} else if !quietOutput {
		if result.Passed {
			fmt.Printf("%s  %s matches %s\n", passLabel(), args[1], args[0])
		} else {
			fmt.Printf("%s  %s does not match %s\n", failLabel(), args[1], args[0])
			for _, f := range result.Facts {
				fmt.Printf("    %s\n", f)
			}
		}
	}
	if !result.Passed {
		exit(CLIExitFindings)
	}
}

// runGoldenUpdate installs an export as the golden for class/method.
func runGoldenUpdate(cmd *cobra.Command, args []string) {
	method := args[0]
	series, err := loadSeries(args[1])
	if err != nil {
		OutputError("loading actual", err)
		exit(CLIExitError)
	}

	store := golden.NewStore(goldenRoot, golden.WithLogger(logger))
	if err := store.Save(cmd.Context(), goldenClass, method, goldenName, series); err != nil {
		OutputError("writing golden", err)
		exit(CLIExitError)
	}

	path := store.Path(goldenClass, method, goldenName)
	if jsonOutput {
		OutputJSON(map[string]string{"status": "updated", "path": path})
	} else if !quietOutput {
		fmt.Printf("updated %s\n", path)
	}
}

// loadSeries reads and decodes one golden document file.
func loadSeries(path string) (*motion.TimeSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return golden.Decode(data)
}
