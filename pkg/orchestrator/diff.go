package orchestrator

import (
	"slices"
	"strconv"

	"github.com/praetorian-inc/autogroup/pkg/types"
)

// rename is a configuration whose title or color changed.
type rename struct {
	from types.GroupConfiguration
	to   types.GroupConfiguration
}

// changes classifies the difference between two configuration sets by
// group ID.
type changes struct {
	added   []types.GroupConfiguration
	deleted []types.GroupConfiguration
	renamed []rename
	// rematched groups moved position or changed matchers, so tabs may
	// now resolve differently.
	rematched []types.GroupConfiguration
}

func (c changes) empty() bool {
	return len(c.added) == 0 && len(c.deleted) == 0 && len(c.renamed) == 0 && len(c.rematched) == 0
}

// needsRegrouping reports whether tabs must be reassigned.
func (c changes) needsRegrouping() bool {
	return len(c.added) > 0 || len(c.rematched) > 0
}

func diffGroups(prev, next []types.GroupConfiguration) changes {
	var c changes

	prevIndex := make(map[string]int, len(prev))
	for i, g := range prev {
		if _, dup := prevIndex[g.ID]; !dup {
			prevIndex[g.ID] = i
		}
	}
	nextIDs := make(map[string]struct{}, len(next))

	for i, g := range next {
		nextIDs[g.ID] = struct{}{}
		pi, ok := prevIndex[g.ID]
		if !ok {
			c.added = append(c.added, g)
			continue
		}
		old := prev[pi]
		if old.Title != g.Title || old.Color != g.Color {
			c.renamed = append(c.renamed, rename{from: old, to: g})
		}
		if pi != i || !sameMatchers(old, g) || old.Options.PriorityValue() != g.Options.PriorityValue() {
			c.rematched = append(c.rematched, g)
		}
	}

	for _, g := range prev {
		if _, ok := nextIDs[g.ID]; !ok {
			c.deleted = append(c.deleted, g)
		}
	}
	return c
}

func sameMatchers(a, b types.GroupConfiguration) bool {
	return slices.Equal(matcherKeys(a), matcherKeys(b))
}

func matcherKeys(g types.GroupConfiguration) []string {
	keys := make([]string, len(g.Matchers))
	for i, m := range g.Matchers {
		keys[i] = strconv.FormatBool(m.IsRegex) + ":" + m.Pattern
	}
	slices.Sort(keys)
	return keys
}
