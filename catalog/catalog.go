// Package catalog holds the static registry of agent profiles. A Catalog is
// assembled once at startup from a declarative data source (a slice of
// profiles or a YAML document) and is immutable afterwards, so it can be
// shared across concurrent orchestrations without locking.
package catalog

import (
	"fmt"
)

// Category groups agents that share a response-format contract.
type Category string

// Built-in categories. The set is open: loading a profile with a category
// outside this list is allowed as long as the format registry maps it.
const (
	CategoryAnalysis    Category = "analysis"
	CategoryCreative    Category = "creative"
	CategoryCoding      Category = "coding"
	CategoryResearch    Category = "research"
	CategoryTranslation Category = "translation"
	CategoryGeneral     Category = "general"
)

// Tier indicates the complexity class of tasks an agent is tuned for.
type Tier string

// Complexity tiers in ascending order.
const (
	TierBasic        Tier = "basic"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierExpert       Tier = "expert"
)

// Profile is the immutable configuration of a single agent: identity,
// category, default model and the system prompt driving its behavior.
// An agent is configuration, not a process.
type Profile struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Category     Category `yaml:"category" json:"category"`
	Description  string   `yaml:"description" json:"description"`
	Model        string   `yaml:"model" json:"model"`
	SystemPrompt string   `yaml:"system_prompt" json:"system_prompt"`
	Capabilities []string `yaml:"capabilities" json:"capabilities"`
	Tier         Tier     `yaml:"tier" json:"tier"`
}

// ErrNotFound is returned when a requested agent id is absent from the catalog.
var ErrNotFound = fmt.Errorf("agent not found")

// Catalog is a read-only agent registry. List order equals registration order.
type Catalog struct {
	profiles map[string]Profile
	order    []string
}

// New builds a Catalog from the given profiles. Profiles are validated for a
// non-empty id and uniqueness; the first error aborts construction.
func New(profiles []Profile) (*Catalog, error) {
	c := &Catalog{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("agent profile %q has empty id", p.Name)
		}
		if _, exists := c.profiles[p.ID]; exists {
			return nil, fmt.Errorf("duplicate agent id %q", p.ID)
		}
		if p.Tier == "" {
			p.Tier = TierBasic
		}
		c.profiles[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// Get returns the profile registered under id or ErrNotFound.
func (c *Catalog) Get(id string) (Profile, error) {
	p, ok := c.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Has reports whether an agent id is registered.
func (c *Catalog) Has(id string) bool {
	_, ok := c.profiles[id]
	return ok
}

// List returns all profiles in registration order. The returned slice is a
// copy; callers may not mutate catalog state through it.
func (c *Catalog) List() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id])
	}
	return out
}

// Len returns the number of registered agents.
func (c *Catalog) Len() int { return len(c.order) }

// Categories returns the distinct categories referenced by the catalog, in
// first-seen order. Used by the format registry to validate coverage.
func (c *Catalog) Categories() []Category {
	seen := make(map[Category]struct{})
	var out []Category
	for _, id := range c.order {
		cat := c.profiles[id].Category
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	return out
}
