// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFindings = 1 // Operation completed with failures/mismatches
	CLIExitError    = 2 // Operation failed
)

// ANSI colors, applied only when stdout is a terminal.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
)

// stdoutIsTTY reports whether color output is appropriate.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// passLabel renders PASS, green on a terminal.
func passLabel() string {
	if stdoutIsTTY() {
		return colorGreen + "PASS" + colorReset
	}
	return "PASS"
}

// failLabel renders FAIL, red on a terminal.
func failLabel() string {
	if stdoutIsTTY() {
		return colorRed + "FAIL" + colorReset
	}
	return "FAIL"
}

// OutputJSON writes structured data as JSON to stdout.
func OutputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// OutputError reports a command failure in the selected format.
func OutputError(msg string, err error) {
	if jsonOutput {
		OutputJSON(map[string]string{"error": fmt.Sprintf("%s: %v", msg, err)})
		return
	}
	if !quietOutput {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}
