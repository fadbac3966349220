package group

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/praetorian-inc/autogroup/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading group configurations from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for built-in presets
}

// NewLoader creates a loader with built-in presets from embedded filesystem.
func NewLoader() *Loader {
	return &Loader{
		fs: builtinPresetsFS,
	}
}

// NewLoaderWithFS creates a loader with a custom filesystem.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// Load parses a YAML groups document. Groups without an id get a fresh
// UUID and groups without a color are grey. The result is not validated.
func (l *Loader) Load(data []byte) ([]types.GroupConfiguration, error) {
	var yamlFile yamlGroupsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Groups) == 0 {
		return nil, fmt.Errorf("no groups found in YAML")
	}

	groups := make([]types.GroupConfiguration, len(yamlFile.Groups))
	for i, yg := range yamlFile.Groups {
		groups[i] = convertYAMLGroup(yg)
	}
	return groups, nil
}

// LoadFile loads groups from a YAML file path.
func (l *Loader) LoadFile(path string) ([]types.GroupConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.Load(data)
}

// LoadPresets loads every built-in preset group.
func (l *Loader) LoadPresets() ([]types.GroupConfiguration, error) {
	var groups []types.GroupConfiguration

	err := fs.WalkDir(l.fs, "presets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		loaded, err := l.Load(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		groups = append(groups, loaded...)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return groups, nil
}

// convertYAMLGroup converts yamlGroup to types.GroupConfiguration.
func convertYAMLGroup(yg yamlGroup) types.GroupConfiguration {
	g := types.GroupConfiguration{
		ID:    yg.ID,
		Title: yg.Title,
		Color: types.Color(yg.Color),
		Options: types.SaveOptions{
			Strict:   yg.Strict,
			Merge:    yg.Merge,
			Priority: yg.Priority,
		},
		Matchers: make([]types.Matcher, len(yg.Matchers)),
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Color == "" {
		g.Color = types.ColorGrey
	}
	for i, m := range yg.Matchers {
		g.Matchers[i] = types.Matcher{Pattern: m.Pattern, IsRegex: m.IsRegex}
	}
	return g
}
