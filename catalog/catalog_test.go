package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfiles() []Profile {
	return []Profile{
		{ID: "reasoning", Name: "Reasoning Agent", Category: CategoryAnalysis, Model: "gpt-4o-mini", SystemPrompt: "You analyze problems step by step.", Tier: TierAdvanced},
		{ID: "writer", Name: "Creative Writer", Category: CategoryCreative, Model: "gpt-4o-mini", SystemPrompt: "You write engaging prose."},
		{ID: "coder", Name: "Code Assistant", Category: CategoryCoding, Model: "gpt-4o", SystemPrompt: "You write idiomatic code.", Tier: TierExpert},
	}
}

func TestNew(t *testing.T) {
	c, err := New(testProfiles())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	p, err := c.Get("reasoning")
	require.NoError(t, err)
	assert.Equal(t, "Reasoning Agent", p.Name)
	assert.Equal(t, CategoryAnalysis, p.Category)
	assert.Equal(t, TierAdvanced, p.Tier)

	// Missing tier defaults to basic.
	p, err = c.Get("writer")
	require.NoError(t, err)
	assert.Equal(t, TierBasic, p.Tier)
}

func TestNew_DuplicateID(t *testing.T) {
	profiles := testProfiles()
	profiles = append(profiles, Profile{ID: "writer", Name: "Other Writer", Category: CategoryCreative})
	_, err := New(profiles)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate agent id")
}

func TestNew_EmptyID(t *testing.T) {
	_, err := New([]Profile{{Name: "Anonymous"}})
	assert.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	c, err := New(testProfiles())
	require.NoError(t, err)

	_, err = c.Get("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, c.Has("ghost"))
	assert.True(t, c.Has("coder"))
}

func TestList_RegistrationOrder(t *testing.T) {
	c, err := New(testProfiles())
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "reasoning", list[0].ID)
	assert.Equal(t, "writer", list[1].ID)
	assert.Equal(t, "coder", list[2].ID)
}

func TestCategories(t *testing.T) {
	profiles := testProfiles()
	profiles = append(profiles, Profile{ID: "reviewer", Name: "Reviewer", Category: CategoryAnalysis})
	c, err := New(profiles)
	require.NoError(t, err)

	assert.Equal(t, []Category{CategoryAnalysis, CategoryCreative, CategoryCoding}, c.Categories())
}

func TestLoad(t *testing.T) {
	doc := `
agents:
  - id: reasoning
    name: Reasoning Agent
    category: analysis
    model: gpt-4o-mini
    system_prompt: You analyze problems step by step.
    capabilities: [decomposition, critique]
    tier: advanced
  - id: writer
    name: Creative Writer
    category: creative
    model: gpt-4o-mini
    system_prompt: You write engaging prose.
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	p, err := c.Get("reasoning")
	require.NoError(t, err)
	assert.Equal(t, []string{"decomposition", "critique"}, p.Capabilities)
	assert.Equal(t, TierAdvanced, p.Tier)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(strings.NewReader("agents: [")) // malformed YAML
	assert.Error(t, err)

	_, err = Load(strings.NewReader("agents: []"))
	assert.Error(t, err)
}
