// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LoadWithCLI loads configuration and applies command line overrides on top
// of file and environment values. Recognized flags:
//
//	--config <path>        configuration file to load
//	--set key=value        override a single key; values parse as JSON when
//	                       possible, otherwise as strings
func LoadWithCLI(args []string) (*Config, error) {
	path, overrides, err := parseCLIOverrides(args)
	if err != nil {
		return nil, err
	}
	return load(path, overrides)
}

func parseCLIOverrides(args []string) (string, map[string]any, error) {
	var path string
	overrides := make(map[string]any)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--config requires a path")
			}
			i++
			path = args[i]
		case "--set":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--set requires key=value")
			}
			i++
			key, raw, ok := strings.Cut(args[i], "=")
			if !ok || key == "" {
				return "", nil, fmt.Errorf("invalid --set value: %s", args[i])
			}
			overrides[key] = parseOverrideValue(raw)
		}
	}
	return path, overrides, nil
}

// parseOverrideValue lets --set carry booleans, numbers and JSON objects
// without a dedicated flag syntax for each.
func parseOverrideValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
