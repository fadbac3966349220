package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/autogroup/pkg/serve"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

func TestResolve_Text(t *testing.T) {
	// Arrange
	useStore(t)
	addGroup(t, "GitHub", types.ColorBlue, "github.com")
	addGroup(t, "Docs", types.ColorRed, "*/docs/*")
	resolveCandidates = true

	// Act
	cmd, out := newTestCmd("")
	err := runResolve(cmd, []string{"https://github.com/golang/go", "https://nothing.test"})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "https://github.com/golang/go")
	assert.Contains(t, out.String(), "GitHub")
	assert.Contains(t, out.String(), "* GitHub")
	assert.Contains(t, out.String(), "https://nothing.test\t(no group)")
}

func TestResolve_JSON(t *testing.T) {
	useStore(t)
	addGroup(t, "GitHub", types.ColorBlue, "github.com")
	addGroup(t, "Docs", types.ColorRed, "*/docs/*")
	resolveFormat = "json"

	cmd, out := newTestCmd("")
	require.NoError(t, runResolve(cmd, []string{"https://example.com/docs/a", "https://nothing.test"}))

	var results []serve.ResolveResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	require.NotNil(t, results[0].Group)
	assert.Equal(t, "Docs", results[0].Group.Title)
	assert.Equal(t, "*/docs/*", results[0].Pattern)
	assert.Positive(t, results[0].Score)
	assert.Nil(t, results[1].Group)
}

func TestResolve_UnknownFormat(t *testing.T) {
	useStore(t)
	resolveFormat = "xml"

	cmd, _ := newTestCmd("")
	assert.Error(t, runResolve(cmd, []string{"https://github.com"}))
}
