package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a catalog file.
type document struct {
	Capabilities []Descriptor `yaml:"capabilities" json:"capabilities"`
}

// Load reads a catalog document from a YAML or JSON file. A missing or
// malformed file degrades to an empty catalog with the error logged; the
// process keeps running and unknown capabilities surface per step instead.
func Load(path string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(path) == "" {
		logger.Warn("no catalog path configured, starting with empty catalog")
		return Empty()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("catalog load failed, degrading to empty catalog", "path", path, "error", err)
		return Empty()
	}

	var descs []Descriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		descs, err = ParseJSON(data)
	case ".yaml", ".yml":
		descs, err = ParseYAML(data)
	default:
		descs, err = parseAuto(data)
	}
	if err != nil {
		logger.Error("catalog parse failed, degrading to empty catalog", "path", path, "error", err)
		return Empty()
	}
	return FromDescriptors(descs, logger)
}

// ParseYAML decodes a YAML catalog document.
func ParseYAML(data []byte) ([]Descriptor, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty YAML payload")
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml catalog: %w", err)
	}
	return doc.Capabilities, nil
}

// ParseJSON decodes a JSON catalog document.
func ParseJSON(data []byte) ([]Descriptor, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON payload")
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json catalog: %w", err)
	}
	return doc.Capabilities, nil
}

func parseAuto(data []byte) ([]Descriptor, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if descs, err := ParseJSON(data); err == nil {
			return descs, nil
		}
	}
	if descs, err := ParseYAML(data); err == nil {
		return descs, nil
	}
	if descs, err := ParseJSON(data); err == nil {
		return descs, nil
	}
	return nil, fmt.Errorf("unsupported catalog format")
}
