package group

import (
	"fmt"

	"github.com/praetorian-inc/autogroup/pkg/types"
	"gopkg.in/yaml.v3"
)

// yamlGroupsFile is the on-disk YAML document:
//
//	groups:
//	  - title: GitHub
//	    color: blue
//	    priority: 10
//	    matchers:
//	      - github.com
//	      - pattern: /^https:\/\/gist\./
//	        isRegex: true
type yamlGroupsFile struct {
	Groups []yamlGroup `yaml:"groups"`
}

type yamlGroup struct {
	ID       string        `yaml:"id,omitempty"`
	Title    string        `yaml:"title"`
	Color    string        `yaml:"color,omitempty"`
	Strict   bool          `yaml:"strict,omitempty"`
	Merge    bool          `yaml:"merge,omitempty"`
	Priority *int          `yaml:"priority,omitempty"`
	Matchers []yamlMatcher `yaml:"matchers"`
}

// yamlMatcher accepts either a bare pattern string or a mapping.
type yamlMatcher struct {
	Pattern string `yaml:"pattern"`
	IsRegex bool   `yaml:"isRegex,omitempty"`
}

func (m *yamlMatcher) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		m.Pattern = node.Value
		return nil
	case yaml.MappingNode:
		type plain yamlMatcher
		return node.Decode((*plain)(m))
	default:
		return fmt.Errorf("line %d: matcher must be a string or a mapping", node.Line)
	}
}

// MarshalYAML writes regex-free matchers as bare strings.
func (m yamlMatcher) MarshalYAML() (any, error) {
	if !m.IsRegex {
		return m.Pattern, nil
	}
	type plain yamlMatcher
	return plain(m), nil
}

func toYAMLGroup(g types.GroupConfiguration) yamlGroup {
	yg := yamlGroup{
		ID:       g.ID,
		Title:    g.Title,
		Color:    string(g.Color),
		Strict:   g.Options.Strict,
		Merge:    g.Options.Merge,
		Priority: g.Options.Priority,
		Matchers: make([]yamlMatcher, len(g.Matchers)),
	}
	for i, m := range g.Matchers {
		yg.Matchers[i] = yamlMatcher{Pattern: m.Pattern, IsRegex: m.IsRegex}
	}
	return yg
}

// Marshal renders groups as a YAML groups document.
func Marshal(groups []types.GroupConfiguration) ([]byte, error) {
	doc := yamlGroupsFile{Groups: make([]yamlGroup, len(groups))}
	for i, g := range groups {
		doc.Groups[i] = toYAMLGroup(g)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render YAML: %w", err)
	}
	return data, nil
}
