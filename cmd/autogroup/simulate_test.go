package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/autogroup/pkg/types"
)

func TestSimulate(t *testing.T) {
	// Arrange
	useStore(t)
	addGroup(t, "GitHub", types.ColorBlue, "github.com")
	addGroup(t, "Docs", types.ColorRed, "*/docs/*")
	simulatePinned = []string{"https://github.com/pinned"}

	// Act
	cmd, out := newTestCmd("")
	err := runSimulate(cmd, []string{
		"https://github.com/golang/go",
		"https://example.com/docs/intro",
		"https://github.com/golang/tools",
		"https://nothing.test/",
	})

	// Assert
	require.NoError(t, err)
	output := out.String()
	assert.Contains(t, output, "GitHub\n    https://github.com/golang/go\n    https://github.com/golang/tools\n")
	assert.Contains(t, output, "Docs\n    https://example.com/docs/intro\n")
	assert.Contains(t, output, "Ungrouped\n")
	assert.Contains(t, output, "    https://nothing.test/\n")
	assert.Contains(t, output, "    https://github.com/pinned (pinned)\n")
}

func TestSimulate_NoGroups(t *testing.T) {
	useStore(t)

	cmd, out := newTestCmd("")
	require.NoError(t, runSimulate(cmd, []string{"https://github.com"}))

	assert.Equal(t, "Ungrouped\n    https://github.com\n", out.String())
}
