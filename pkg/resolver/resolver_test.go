package resolver

import (
	"sync"
	"testing"

	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(id string, priority int, patterns ...string) types.GroupConfiguration {
	g := types.GroupConfiguration{
		ID:      id,
		Title:   id,
		Color:   types.ColorBlue,
		Options: types.SaveOptions{Priority: types.Priority(priority)},
	}
	for _, p := range patterns {
		g.Matchers = append(g.Matchers, types.Matcher{Pattern: p})
	}
	return g
}

func TestResolve_PriorityAndSpecificityAgree(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("A", 0, "github.com"),
		group("B", 20, "github.com/name/*"),
	}

	got := Resolve("https://github.com/name/repo", groups)

	require.NotNil(t, got)
	assert.Equal(t, "B", got.ID)
}

func TestResolve_PriorityOverridesSpecificity(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("A", 50, "github.com"),
		group("B", 0, "github.com/name/specific-project/*"),
	}

	got := Resolve("https://github.com/name/specific-project/pulls", groups)

	require.NotNil(t, got)
	assert.Equal(t, "A", got.ID)
}

func TestResolve_SpecificityWinsAtEqualPriority(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("General", 5, "github.com"),
		group("Specific", 5, "github.com/user/repo/*"),
	}

	got := Resolve("https://github.com/user/repo/issues", groups)

	require.NotNil(t, got)
	assert.Equal(t, "Specific", got.ID)
}

func TestResolve_Hierarchy(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("GitHub", 0, "github.com"),
		group("User", 10, "github.com/name/*"),
		group("Project", 20, "github.com/name/auto-group-tabs/*"),
	}

	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/name/auto-group-tabs/issues", "Project"},
		{"https://github.com/name/other", "User"},
		{"https://github.com/microsoft/vscode", "GitHub"},
		{"https://gist.github.com/name", "GitHub"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Resolve(tt.url, groups)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestResolve_TieKeepsFirstEncountered(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("First", 0, "github.com"),
		group("Second", 0, "github.com"),
	}

	for i := 0; i < 10; i++ {
		got := Resolve("https://github.com/x", groups)
		require.NotNil(t, got)
		assert.Equal(t, "First", got.ID)
	}

	reversed := []types.GroupConfiguration{groups[1], groups[0]}
	got := Resolve("https://github.com/x", reversed)
	require.NotNil(t, got)
	assert.Equal(t, "Second", got.ID)
}

func TestResolve_TieWithinGroupKeepsFirstMatcher(t *testing.T) {
	groups := []types.GroupConfiguration{group("Only", 0, "gitlab.com", "github.com")}

	candidates := Candidates("https://github.com/", pattern.CompileGroups(groups, nil))
	require.Len(t, candidates, 1)
	assert.Equal(t, 1, candidates[0].MatcherIndex)

	tied := []types.Candidate{
		{Group: &groups[0], MatcherIndex: 0, Pattern: "a.com"},
		{Group: &groups[0], MatcherIndex: 1, Pattern: "b.com"},
	}
	best := Best(tied)
	require.NotNil(t, best)
	assert.Equal(t, 0, best.MatcherIndex)
}

func TestResolve_NoMatch(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("GitHub", 0, "github.com"),
		group("Repo", 5, "github.com/name/*"),
	}

	assert.Nil(t, Resolve("https://example.com", groups))
	assert.Nil(t, Resolve("https://example.com", nil))
}

func TestResolve_SingleCandidateWinsOutright(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("Low", -100, "github.com"),
		group("Other", 100, "gitlab.com"),
	}

	got := Resolve("https://github.com", groups)
	require.NotNil(t, got)
	assert.Equal(t, "Low", got.ID)
}

func TestResolve_SkipsInvalidMatchers(t *testing.T) {
	groups := []types.GroupConfiguration{
		{ID: "Broken", Matchers: []types.Matcher{{Pattern: "example.com:*"}, {Pattern: "/(/", IsRegex: true}}},
		{ID: "Works", Matchers: []types.Matcher{{Pattern: "example.com:invalid"}, {Pattern: "example.com"}}},
	}

	got := Resolve("https://example.com/", groups)

	require.NotNil(t, got)
	assert.Equal(t, "Works", got.ID)
}

func TestResolve_RegexMatchers(t *testing.T) {
	groups := []types.GroupConfiguration{
		group("Google", 0, "google.com"),
		{ID: "Mail", Matchers: []types.Matcher{{Pattern: `/^https:\/\/mail\.google\.com/`, IsRegex: true}}, Options: types.SaveOptions{Priority: types.Priority(2)}},
	}

	got := Resolve("https://mail.google.com/mail/u/0", groups)
	require.NotNil(t, got)
	assert.Equal(t, "Mail", got.ID)

	got = Resolve("https://docs.google.com/", groups)
	require.NotNil(t, got)
	assert.Equal(t, "Google", got.ID)
}

func TestMatchScore(t *testing.T) {
	high := MatchScore("github.com", 10)
	low := MatchScore("github.com", 0)
	assert.Equal(t, 100, high-low)

	assert.Greater(t, MatchScore("github.com", 20), MatchScore("github.com/user/repo/issues/*", 0))
}

func TestBest_Empty(t *testing.T) {
	assert.Nil(t, Best(nil))
}

func TestResolver_Concurrent(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	groups := []types.GroupConfiguration{
		group("GitHub", 0, "github.com"),
		group("User", 10, "github.com/name/*"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.Resolve("https://github.com/name/x", groups)
			if assert.NotNil(t, got) {
				assert.Equal(t, "User", got.ID)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.Candidates("https://github.com/name/x", groups), 2)
}
