// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/MotionLens/pkg/logging"
)

var (
	config Config
	logger *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
	if logger != nil {
		logger.Close()
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		config = cfg

		level := config.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(level),
			LogDir:  config.Log.Dir,
			Service: "cli",
			Quiet:   quietOutput,
		})
	}
}

// exit flushes the logger before terminating with the given code.
func exit(code int) {
	if logger != nil {
		logger.Close()
	}
	os.Exit(code)
}
