// Package testutil provides shared fixtures for orchestrator and façade
// tests: a small agent catalog with matching response formats, mirroring the
// two-category setup used throughout the test suite.
package testutil

import (
	"testing"

	"github.com/agenthub-io/agenthub/catalog"
	"github.com/agenthub-io/agenthub/format"
)

// Profiles returns the standard test agents: an analysis agent and a
// creative agent.
func Profiles() []catalog.Profile {
	return []catalog.Profile{
		{
			ID:           "reasoning",
			Name:         "Reasoning Agent",
			Category:     catalog.CategoryAnalysis,
			Model:        "test-model",
			SystemPrompt: "You analyze problems step by step.",
			Tier:         catalog.TierAdvanced,
		},
		{
			ID:           "writer",
			Name:         "Creative Writer",
			Category:     catalog.CategoryCreative,
			Model:        "test-model",
			SystemPrompt: "You write engaging prose.",
			Tier:         catalog.TierIntermediate,
		},
	}
}

// Formats returns response formats covering the test categories: analysis
// requires 100 words across two sections, creative requires 50 in one.
func Formats() []format.ResponseFormat {
	return []format.ResponseFormat{
		{
			Category:      catalog.CategoryAnalysis,
			MinTotalWords: 100,
			Sections: []format.Section{
				{ID: "summary", Title: "Summary", Required: true, MinWords: 30},
				{ID: "details", Title: "Details", Required: true, MinWords: 60},
			},
		},
		{
			Category:      catalog.CategoryCreative,
			MinTotalWords: 50,
			Sections: []format.Section{
				{ID: "body", Title: "Body", Required: true, MinWords: 40},
			},
		},
	}
}

// Catalog builds the standard test catalog, failing the test on error.
func Catalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(Profiles())
	if err != nil {
		t.Fatalf("build test catalog: %v", err)
	}
	return c
}

// Registry builds the standard test format registry over cat.
func Registry(t *testing.T, cat *catalog.Catalog) *format.Registry {
	t.Helper()
	r, err := format.NewRegistry(cat, Formats())
	if err != nil {
		t.Fatalf("build test registry: %v", err)
	}
	return r
}

// Words returns a deterministic string of exactly n whitespace-separated words.
func Words(n int) string {
	out := make([]byte, 0, n*5)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, "word"...)
	}
	return string(out)
}
