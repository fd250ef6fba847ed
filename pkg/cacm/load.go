package cacm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadInstance loads a workflow instance from a YAML or JSON file.
func LoadInstance(path string) (*Instance, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("instance path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return parseAuto(data)
	}
}

// ParseJSON decodes a workflow instance from JSON.
func ParseJSON(data []byte) (*Instance, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON payload")
	}
	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("parse json instance: %w", err)
	}
	return &inst, nil
}

// ParseYAML decodes a workflow instance from YAML.
func ParseYAML(data []byte) (*Instance, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty YAML payload")
	}
	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("parse yaml instance: %w", err)
	}
	return &inst, nil
}

func parseAuto(data []byte) (*Instance, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if inst, err := ParseJSON(data); err == nil {
			return inst, nil
		}
	}
	if inst, err := ParseYAML(data); err == nil {
		return inst, nil
	}
	if inst, err := ParseJSON(data); err == nil {
		return inst, nil
	}
	return nil, fmt.Errorf("unsupported instance format")
}
