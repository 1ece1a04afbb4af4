package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML document shape for a catalog definition.
type catalogFile struct {
	Agents []Profile `yaml:"agents"`
}

// Load parses a YAML catalog definition from r and builds a Catalog.
//
// Expected shape:
//
//	agents:
//	  - id: reasoning
//	    name: Reasoning Agent
//	    category: analysis
//	    model: gpt-4o-mini
//	    system_prompt: |
//	      You are a careful analytical assistant.
//	    capabilities: [decomposition, critique]
//	    tier: advanced
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, fmt.Errorf("catalog defines no agents")
	}
	return New(file.Agents)
}

// LoadFile reads and parses a YAML catalog definition from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}
