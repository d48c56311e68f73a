package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadFile parses a YAML document into a Tree.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Tree: Parsed tree (empty if the file is empty)
//   - error: If the file cannot be read or parsed
func ReadFile(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tree{}, fmt.Errorf("reading config file: %w", err)
	}

	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Tree{}, fmt.Errorf("parsing config file: %w", err)
	}

	return NewTree(m), nil
}
