package group

import (
	"testing"

	"github.com/praetorian-inc/autogroup/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idA = "0f8fad5b-d9cb-469f-a165-70867728950e"
	idB = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	idC = "3b241101-e2bb-4255-8caf-4136c566a962"
)

func validGroup(id, title string, patterns ...string) types.GroupConfiguration {
	g := types.GroupConfiguration{ID: id, Title: title, Color: types.ColorBlue, Matchers: []types.Matcher{}}
	for _, p := range patterns {
		g.Matchers = append(g.Matchers, types.Matcher{Pattern: p})
	}
	return g
}

func TestValidate_Valid(t *testing.T) {
	groups := []types.GroupConfiguration{
		validGroup(idA, "GitHub", "github.com", "*.githubusercontent.com"),
		validGroup(idB, "Empty"),
	}
	groups[1].Matchers = append(groups[1].Matchers, types.Matcher{Pattern: "/^https:\\/\\/mail\\./i", IsRegex: true})

	errs := Validate(groups)

	assert.Empty(t, errs)
	assert.NoError(t, errs.Err())
}

func TestValidate_DuplicateIDsFlagLaterGroups(t *testing.T) {
	// Arrange
	groups := []types.GroupConfiguration{
		validGroup(idA, "First", "a.com"),
		validGroup(idB, "Other", "b.com"),
		validGroup(idA, "Second", "c.com"),
		validGroup(idA, "Third", "d.com"),
	}

	// Act
	errs := Validate(groups)

	// Assert
	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].Index)
	assert.Equal(t, 3, errs[1].Index)
	assert.Equal(t, "id", errs[0].Path)
	assert.Equal(t, map[int]bool{2: true, 3: true}, errs.InvalidGroups())
	assert.Empty(t, errs.ForGroup(0))
}

func TestValidateGroup_Problems(t *testing.T) {
	tests := []struct {
		name  string
		group types.GroupConfiguration
		path  string
	}{
		{
			name:  "missing id",
			group: validGroup("", "x", "a.com"),
			path:  "id",
		},
		{
			name:  "id not a uuid",
			group: validGroup("github", "x", "a.com"),
			path:  "id",
		},
		{
			name:  "unknown color",
			group: types.GroupConfiguration{ID: idA, Color: "magenta"},
			path:  "color",
		},
		{
			name:  "duplicate pattern",
			group: validGroup(idA, "x", "a.com", "b.com", "a.com"),
			path:  "matchers/2/pattern",
		},
		{
			name:  "bad glob",
			group: validGroup(idA, "x", "a.com", "example.com:*"),
			path:  "matchers/1/pattern",
		},
		{
			name:  "empty pattern",
			group: validGroup(idA, "x", ""),
			path:  "matchers/0/pattern",
		},
		{
			name: "bad regex",
			group: types.GroupConfiguration{ID: idA, Color: types.ColorRed, Matchers: []types.Matcher{
				{Pattern: "/(/", IsRegex: true},
			}},
			path: "matchers/0/pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateGroup(4, &tt.group)
			require.Len(t, errs, 1)
			assert.Equal(t, 4, errs[0].Index)
			assert.Equal(t, tt.path, errs[0].Path)
			assert.NotEmpty(t, errs[0].Message)
			assert.Contains(t, errs.Error(), "group 4: "+tt.path)
		})
	}
}

func TestValidationErrors_Err(t *testing.T) {
	var none ValidationErrors
	assert.NoError(t, none.Err())

	some := ValidationErrors{{Index: 1, Message: "boom"}}
	require.Error(t, some.Err())
	assert.Equal(t, "group 1: boom", some.Err().Error())
}
