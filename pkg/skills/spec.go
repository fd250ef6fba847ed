// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// PromptSpec is a prompt-backed skill definition loaded from a SKILL.md
// file: YAML frontmatter plus a markdown body used as the prompt template.
type PromptSpec struct {
	Name        string
	Description string
	License     string
	Model       string
	Metadata    map[string]string
	Body        string
	Path        string
	Dir         string
}

const (
	maxNameLen        = 64
	maxDescriptionLen = 1024
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

// LoadSpecDir scans a directory for skill subdirectories containing SKILL.md.
func LoadSpecDir(root string) ([]PromptSpec, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []PromptSpec
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillPath := filepath.Join(root, entry.Name(), "SKILL.md")
		if _, err := os.Stat(skillPath); err != nil {
			continue
		}
		spec, err := LoadSpecFile(skillPath)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

// LoadSpecFile parses a single SKILL.md file.
func LoadSpecFile(path string) (PromptSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PromptSpec{}, err
	}
	fm, body, err := splitFrontmatter(string(data))
	if err != nil {
		return PromptSpec{}, err
	}
	var parsed frontmatter
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return PromptSpec{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	dir := filepath.Dir(path)
	spec := PromptSpec{
		Name:        parsed.Name,
		Description: parsed.Description,
		License:     parsed.License,
		Model:       parsed.Model,
		Metadata:    parsed.Metadata,
		Body:        strings.TrimSpace(body),
		Path:        path,
		Dir:         dir,
	}
	if err := validateSpec(spec); err != nil {
		return PromptSpec{}, err
	}
	return spec, nil
}

type frontmatter struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	License     string            `yaml:"license"`
	Model       string            `yaml:"model"`
	Metadata    map[string]string `yaml:"metadata"`
}

func splitFrontmatter(content string) (string, string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", errors.New("missing frontmatter")
	}
	parts := strings.SplitN(trimmed, "---", 3)
	if len(parts) < 3 {
		return "", "", errors.New("invalid frontmatter")
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

func validateSpec(spec PromptSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must match %s", namePattern.String())
	}
	dirName := filepath.Base(spec.Dir)
	if dirName != name {
		return fmt.Errorf("name must match directory name (%s)", dirName)
	}
	desc := strings.TrimSpace(spec.Description)
	if desc == "" {
		return errors.New("description is required")
	}
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	if spec.Body == "" {
		return errors.New("prompt body is required")
	}
	return nil
}
