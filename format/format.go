// Package format defines the per-category output contracts agents must
// follow: which named sections a response contains, how long each must be,
// and which markup is allowed. The Registry maps categories to contracts and
// derives the prompt instructions that steer the completion provider toward
// the declared structure.
package format

import (
	"fmt"
	"strings"

	"github.com/agenthub-io/agenthub/catalog"
)

// DefaultMinWords is the aggregate word floor applied when an agent's
// category has no registered format. An explicit fallback, never a silent zero.
const DefaultMinWords = 50

// Section is one named subdivision of a structured response.
type Section struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Required bool   `yaml:"required" json:"required"`
	MinWords int    `yaml:"min_words" json:"min_words"`
}

// ResponseFormat is the output contract for one category.
type ResponseFormat struct {
	Category      catalog.Category `yaml:"category" json:"category"`
	Sections      []Section        `yaml:"sections" json:"sections"`
	MinTotalWords int              `yaml:"min_total_words" json:"min_total_words"`
	CodeBlocks    bool             `yaml:"code_blocks" json:"code_blocks"`
	Tables        bool             `yaml:"tables" json:"tables"`
}

// ErrNotFound is returned when a category has no registered response format.
var ErrNotFound = fmt.Errorf("response format not found")

// Registry maps agent categories to their response formats. Read-only after
// construction; safe for unsynchronized concurrent use.
type Registry struct {
	formats map[catalog.Category]ResponseFormat
	cat     *catalog.Catalog
}

// NewRegistry builds a Registry over the given catalog. The catalog is used
// to resolve agent ids to categories in MinWordsFor and to validate that no
// agent references an unmapped category.
func NewRegistry(cat *catalog.Catalog, formats []ResponseFormat) (*Registry, error) {
	r := &Registry{formats: make(map[catalog.Category]ResponseFormat, len(formats)), cat: cat}
	for _, f := range formats {
		if f.Category == "" {
			return nil, fmt.Errorf("response format with empty category")
		}
		if _, exists := r.formats[f.Category]; exists {
			return nil, fmt.Errorf("duplicate response format for category %q", f.Category)
		}
		r.formats[f.Category] = f
	}
	return r, nil
}

// Get returns the format registered for category or ErrNotFound.
func (r *Registry) Get(category catalog.Category) (ResponseFormat, error) {
	f, ok := r.formats[category]
	if !ok {
		return ResponseFormat{}, fmt.Errorf("%w: category %s", ErrNotFound, category)
	}
	return f, nil
}

// MinWordsFor resolves the aggregate minimum word count for an agent by
// looking up its category's format. Unknown agents and unmapped categories
// fall back to DefaultMinWords. A mapped format that declares no minimum
// means no floor at all, not the default.
func (r *Registry) MinWordsFor(agentID string) int {
	p, err := r.cat.Get(agentID)
	if err != nil {
		return DefaultMinWords
	}
	f, ok := r.formats[p.Category]
	if !ok {
		return DefaultMinWords
	}
	if f.MinTotalWords < 0 {
		return 0
	}
	return f.MinTotalWords
}

// Validate checks that every category referenced by the catalog has a
// registered format. Called at wiring time so an unmapped category is a
// startup configuration error, never a request-time surprise.
func (r *Registry) Validate() error {
	for _, c := range r.cat.Categories() {
		if _, ok := r.formats[c]; !ok {
			return fmt.Errorf("category %q referenced by catalog has no response format", c)
		}
	}
	return nil
}

// BuildPrompt deterministically appends the category's formatting contract to
// a base system prompt. Pure: equal inputs always yield equal output. When
// the category is unmapped the base prompt is returned unchanged.
func (r *Registry) BuildPrompt(category catalog.Category, basePrompt string) string {
	f, ok := r.formats[category]
	if !ok {
		return basePrompt
	}
	return BuildPrompt(f, basePrompt)
}

// BuildPrompt renders the formatting instructions for a single format
// appended to basePrompt. Exposed separately so contracts can be rendered
// without a registry.
func BuildPrompt(f ResponseFormat, basePrompt string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nStructure your response using exactly these sections, each introduced by its heading:\n")
	for _, s := range f.Sections {
		fmt.Fprintf(&b, "## %s", s.Title)
		if s.MinWords > 0 {
			fmt.Fprintf(&b, " (at least %d words)", s.MinWords)
		}
		if !s.Required {
			b.WriteString(" (optional)")
		}
		b.WriteString("\n")
	}
	if f.MinTotalWords > 0 {
		fmt.Fprintf(&b, "The complete response must contain at least %d words.\n", f.MinTotalWords)
	}
	switch {
	case f.CodeBlocks && f.Tables:
		b.WriteString("Fenced code blocks and markdown tables are allowed.\n")
	case f.CodeBlocks:
		b.WriteString("Fenced code blocks are allowed; do not use markdown tables.\n")
	case f.Tables:
		b.WriteString("Markdown tables are allowed; do not use fenced code blocks.\n")
	default:
		b.WriteString("Use plain markdown text without code blocks or tables.\n")
	}
	return b.String()
}

// CountWords returns the whitespace-delimited word count of s.
func CountWords(s string) int { return len(strings.Fields(s)) }
