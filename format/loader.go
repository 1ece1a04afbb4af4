package format

import (
	"fmt"
	"io"
	"os"

	"github.com/agenthub-io/agenthub/catalog"
	"gopkg.in/yaml.v3"
)

// registryFile is the YAML document shape for a format registry definition.
type registryFile struct {
	Formats []ResponseFormat `yaml:"formats"`
}

// Load parses a YAML registry definition from r and builds a Registry bound
// to cat.
//
// Expected shape:
//
//	formats:
//	  - category: analysis
//	    min_total_words: 100
//	    code_blocks: false
//	    tables: true
//	    sections:
//	      - id: summary
//	        title: Summary
//	        required: true
//	        min_words: 30
func Load(cat *catalog.Catalog, r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read formats: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse formats: %w", err)
	}
	if len(file.Formats) == 0 {
		return nil, fmt.Errorf("registry defines no response formats")
	}
	return NewRegistry(cat, file.Formats)
}

// LoadFile reads and parses a YAML registry definition from path.
func LoadFile(cat *catalog.Catalog, path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open formats: %w", err)
	}
	defer f.Close()
	return Load(cat, f)
}
