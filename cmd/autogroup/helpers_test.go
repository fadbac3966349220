package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/autogroup/pkg/store"
)

// useStore points the commands at a fresh SQLite store and restores the
// shared flag variables afterwards.
func useStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autogroup.db")

	prevStore, prevArea := storePath, areaName
	storePath, areaName = path, string(store.AreaSync)
	t.Cleanup(func() {
		storePath, areaName = prevStore, prevArea
		groupsFormat, groupsInclude, groupsExclude = "table", "", ""
		importReplace, importPresets, exportOutput = false, false, ""
		addTitle, addColor, addPatterns, addRegex, addPriority = "", "grey", nil, false, 0
		addStrict, addMerge = false, false
		resolveFormat, resolveCandidates = "text", false
		suggestFormat, suggestCatalog = "text", ""
		decodeReport, decodeValid, encodeRaw = false, false, false
		simulatePinned = nil
	})
	return path
}

// newTestCmd returns a bare command with captured output and the given
// stdin.
func newTestCmd(stdin string) (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd, out
}
