package group

import (
	"fmt"
	"strings"

	regexp "github.com/coregx/coregex"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// FilterConfig specifies include and exclude patterns for group filtering.
type FilterConfig struct {
	Include []string // Regex patterns - only groups with a matching title included
	Exclude []string // Regex patterns - groups with a matching title excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude title patterns to groups.
// Include is applied first, then exclude. Empty include means "include all".
func Filter(groups []types.GroupConfiguration, config FilterConfig) ([]types.GroupConfiguration, error) {
	if len(groups) == 0 {
		return groups, nil
	}

	include, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]types.GroupConfiguration, 0, len(groups))
	for _, g := range groups {
		if len(include) > 0 && !matchesAny(g.Title, include) {
			continue
		}
		if matchesAny(g.Title, exclude) {
			continue
		}
		result = append(result, g)
	}
	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", p, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func matchesAny(title string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
