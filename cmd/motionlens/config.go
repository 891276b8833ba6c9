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
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the optional settings read from motionlens.yaml.
// Flags override anything set here.
type Config struct {
	// GoldenRoot is the default golden store directory.
	GoldenRoot string `yaml:"golden_root"`

	// WatchRoot is the default exports directory for the updater.
	WatchRoot string `yaml:"watch_root"`

	// Listen is the default updater listen address.
	Listen string `yaml:"listen"`

	Log struct {
		// Level is the minimum log level (debug/info/warn/error).
		Level string `yaml:"level"`
		// Dir enables file logging when set.
		Dir string `yaml:"dir"`
	} `yaml:"log"`
}

// LoadConfig reads the config file at path, or the default
// ~/.motionlens/motionlens.yaml when path is empty. A missing default
// file yields the zero config; an explicitly named file must exist.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".motionlens", "motionlens.yaml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
