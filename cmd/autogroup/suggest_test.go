package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/autogroup/pkg/suggest"
)

func TestSuggest(t *testing.T) {
	useStore(t)

	cmd, out := newTestCmd("")
	require.NoError(t, runSuggest(cmd, []string{"https://github.com/golang/go"}))

	assert.Contains(t, out.String(), "This exact URL")
	assert.Contains(t, out.String(), "github.com/golang/*")
}

func TestSuggest_JSONWithCatalog(t *testing.T) {
	useStore(t)
	catalog := filepath.Join(t.TempDir(), "de.yml")
	require.NoError(t, os.WriteFile(catalog, []byte("messages:\n  generic.exactURL: Genau diese URL\n"), 0o644))
	suggestFormat, suggestCatalog = "json", catalog

	cmd, out := newTestCmd("")
	require.NoError(t, runSuggest(cmd, []string{"https://example.com"}))

	var options []suggest.Option
	require.NoError(t, json.Unmarshal(out.Bytes(), &options))
	require.NotEmpty(t, options)
	assert.Equal(t, "Genau diese URL", options[0].Description)
}

func TestSuggest_Errors(t *testing.T) {
	useStore(t)
	cmd, _ := newTestCmd("")

	assert.Error(t, runSuggest(cmd, []string{"not a url"}))

	suggestCatalog = filepath.Join(t.TempDir(), "missing.yml")
	assert.Error(t, runSuggest(cmd, []string{"https://example.com"}))
}
