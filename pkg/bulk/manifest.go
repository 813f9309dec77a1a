package bulk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is an externally populated, ordered list of policies to delete.
// It is a dumb data holder: entries are executed in order, exactly as
// listed, with no validation or deduplication.
//
// Example:
//
//	delpolicy:
//	  - name: Test1
//	  - name: Test2
type Manifest struct {
	// DelPolicy lists the policies to delete, in order.
	DelPolicy []Entry `yaml:"delpolicy"`
}

// Entry names a single policy to delete.
type Entry struct {
	// Name is the policy name. Only the name is needed to locate the
	// entity for removal.
	Name string `yaml:"name"`
}

// ParseManifest parses a manifest from YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse deletion manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deletion manifest %q: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}
	return m, nil
}
