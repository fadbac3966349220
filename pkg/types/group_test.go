package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOptions_PriorityValue(t *testing.T) {
	assert.Equal(t, 0, SaveOptions{}.PriorityValue())
	assert.Equal(t, 20, SaveOptions{Priority: Priority(20)}.PriorityValue())
	assert.Equal(t, -3, SaveOptions{Priority: Priority(-3)}.PriorityValue())
}

func TestGroupConfiguration_Clone(t *testing.T) {
	// Arrange
	g := GroupConfiguration{
		ID:       "c0a1d1b8-3c55-4c7a-9d3e-5b2a7f9f1e01",
		Title:    "GitHub",
		Color:    ColorBlue,
		Options:  SaveOptions{Priority: Priority(5)},
		Matchers: []Matcher{{Pattern: "github.com"}},
	}

	// Act
	clone := g.Clone()
	*clone.Options.Priority = 9
	clone.Matchers[0].Pattern = "gitlab.com"

	// Assert
	assert.Equal(t, 5, g.Options.PriorityValue())
	assert.Equal(t, "github.com", g.Matchers[0].Pattern)
	assert.Equal(t, 9, clone.Options.PriorityValue())
}

func TestCloneGroups(t *testing.T) {
	assert.Nil(t, CloneGroups(nil))

	groups := []GroupConfiguration{{ID: "a", Matchers: []Matcher{{Pattern: "x.com"}}}}
	clone := CloneGroups(groups)
	require.Len(t, clone, 1)
	assert.Equal(t, groups, clone)

	clone[0].Matchers[0].Pattern = "y.com"
	assert.Equal(t, "x.com", groups[0].Matchers[0].Pattern)
}

func TestGroupConfiguration_Patterns(t *testing.T) {
	g := GroupConfiguration{Matchers: []Matcher{{Pattern: "a.com"}, {Pattern: "/b/i", IsRegex: true}}}
	assert.Equal(t, []string{"a.com", "/b/i"}, g.Patterns())
}

func TestColor(t *testing.T) {
	for _, c := range Colors {
		assert.True(t, c.Valid(), c)
		parsed, err := ParseColor(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseColor("magenta")
	assert.Error(t, err)
	assert.False(t, Color("").Valid())
}
