package format

import (
	"strings"
	"testing"

	"github.com/agenthub-io/agenthub/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Profile{
		{ID: "reasoning", Name: "Reasoning Agent", Category: catalog.CategoryAnalysis, SystemPrompt: "You analyze."},
		{ID: "writer", Name: "Creative Writer", Category: catalog.CategoryCreative, SystemPrompt: "You write."},
	})
	require.NoError(t, err)
	return c
}

func testFormats() []ResponseFormat {
	return []ResponseFormat{
		{
			Category:      catalog.CategoryAnalysis,
			MinTotalWords: 100,
			Tables:        true,
			Sections: []Section{
				{ID: "summary", Title: "Summary", Required: true, MinWords: 30},
				{ID: "details", Title: "Detailed Analysis", Required: true, MinWords: 60},
				{ID: "caveats", Title: "Caveats", MinWords: 10},
			},
		},
		{
			Category:      catalog.CategoryCreative,
			MinTotalWords: 50,
			Sections: []Section{
				{ID: "body", Title: "Body", Required: true, MinWords: 40},
			},
		},
	}
}

func TestRegistry_Get(t *testing.T) {
	r, err := NewRegistry(testCatalog(t), testFormats())
	require.NoError(t, err)

	f, err := r.Get(catalog.CategoryAnalysis)
	require.NoError(t, err)
	assert.Equal(t, 100, f.MinTotalWords)
	assert.Len(t, f.Sections, 3)

	_, err = r.Get(catalog.CategoryCoding)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_DuplicateCategory(t *testing.T) {
	formats := testFormats()
	formats = append(formats, ResponseFormat{Category: catalog.CategoryAnalysis})
	_, err := NewRegistry(testCatalog(t), formats)
	assert.Error(t, err)
}

func TestMinWordsFor(t *testing.T) {
	r, err := NewRegistry(testCatalog(t), testFormats())
	require.NoError(t, err)

	assert.Equal(t, 100, r.MinWordsFor("reasoning"))
	assert.Equal(t, 50, r.MinWordsFor("writer"))
	// Unknown agent falls back to the default floor, not zero.
	assert.Equal(t, DefaultMinWords, r.MinWordsFor("ghost"))
}

func TestMinWordsFor_UnmappedCategory(t *testing.T) {
	cat, err := catalog.New([]catalog.Profile{
		{ID: "odd", Name: "Odd Agent", Category: catalog.Category("uncharted")},
	})
	require.NoError(t, err)
	r, err := NewRegistry(cat, testFormats())
	require.NoError(t, err)

	assert.Equal(t, DefaultMinWords, r.MinWordsFor("odd"))
}

func TestValidate(t *testing.T) {
	r, err := NewRegistry(testCatalog(t), testFormats())
	require.NoError(t, err)
	assert.NoError(t, r.Validate())

	cat, err := catalog.New([]catalog.Profile{
		{ID: "coder", Name: "Code Assistant", Category: catalog.CategoryCoding},
	})
	require.NoError(t, err)
	r, err = NewRegistry(cat, testFormats())
	require.NoError(t, err)
	err = r.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "coding")
}

func TestBuildPrompt_Pure(t *testing.T) {
	r, err := NewRegistry(testCatalog(t), testFormats())
	require.NoError(t, err)

	base := "You are a careful analyst."
	first := r.BuildPrompt(catalog.CategoryAnalysis, base)
	second := r.BuildPrompt(catalog.CategoryAnalysis, base)
	assert.Equal(t, first, second)

	assert.True(t, strings.HasPrefix(first, base))
	assert.Contains(t, first, "## Summary (at least 30 words)")
	assert.Contains(t, first, "## Caveats (at least 10 words) (optional)")
	assert.Contains(t, first, "at least 100 words")
	assert.Contains(t, first, "tables are allowed")
}

func TestBuildPrompt_UnmappedCategory(t *testing.T) {
	r, err := NewRegistry(testCatalog(t), testFormats())
	require.NoError(t, err)

	base := "You are a generalist."
	assert.Equal(t, base, r.BuildPrompt(catalog.Category("uncharted"), base))
}

func TestParseSections(t *testing.T) {
	f := testFormats()[0]
	text := "## Summary\nShort recap of the problem.\n\n## Detailed Analysis\nLonger discussion here.\nMore lines.\n\n## Caveats\nData is incomplete."

	sections := ParseSections(f, text)
	require.Len(t, sections, 3)
	assert.Equal(t, "Short recap of the problem.", sections["summary"])
	assert.Equal(t, "Longer discussion here.\nMore lines.", sections["details"])
	assert.Equal(t, "Data is incomplete.", sections["caveats"])
}

func TestParseSections_DecoratedHeadings(t *testing.T) {
	f := testFormats()[0]
	text := "**Summary:**\nRecap.\n\n### detailed analysis\nBody."

	sections := ParseSections(f, text)
	assert.Equal(t, "Recap.", sections["summary"])
	assert.Equal(t, "Body.", sections["details"])
}

func TestParseSections_Preamble(t *testing.T) {
	f := testFormats()[0]
	text := "Sure, here is my take.\n\n## Summary\nRecap."

	sections := ParseSections(f, text)
	assert.Equal(t, "Sure, here is my take.", sections[RawSectionID])
	assert.Equal(t, "Recap.", sections["summary"])
}

func TestParseSections_NoMarkersFallsBackToRaw(t *testing.T) {
	f := testFormats()[0]
	text := "Free-form answer without any of the expected headings."

	sections := ParseSections(f, text)
	require.Len(t, sections, 1)
	assert.Equal(t, text, sections[RawSectionID])
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords("   \n\t"))
	assert.Equal(t, 4, CountWords("one two\nthree\tfour"))
}

func TestLoad(t *testing.T) {
	doc := `
formats:
  - category: analysis
    min_total_words: 100
    tables: true
    sections:
      - id: summary
        title: Summary
        required: true
        min_words: 30
  - category: creative
    min_total_words: 50
    sections:
      - id: body
        title: Body
        required: true
`
	r, err := Load(testCatalog(t), strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	f, err := r.Get(catalog.CategoryAnalysis)
	require.NoError(t, err)
	assert.True(t, f.Tables)
	assert.Equal(t, "summary", f.Sections[0].ID)
}

func TestMinWordsFor_DeclaredNoMinimum(t *testing.T) {
	cat, err := catalog.New([]catalog.Profile{
		{ID: "translator", Name: "Translator", Category: catalog.CategoryTranslation, SystemPrompt: "You translate."},
	})
	require.NoError(t, err)

	// A mapped format without a declared minimum imposes no floor; the
	// default applies only when the category has no format at all.
	r, err := NewRegistry(cat, []ResponseFormat{
		{Category: catalog.CategoryTranslation, Sections: []Section{{ID: "body", Title: "Body", Required: true}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, r.MinWordsFor("translator"))
}
