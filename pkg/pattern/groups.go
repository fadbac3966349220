package pattern

import "github.com/praetorian-inc/autogroup/pkg/types"

// CompiledMatcher is a matcher paired with its predicate.
type CompiledMatcher struct {
	Index     int // position within the group's matchers
	Matcher   types.Matcher
	Predicate Predicate
}

// CompiledGroup is a group whose valid matchers have been compiled.
type CompiledGroup struct {
	Index    int
	Group    *types.GroupConfiguration
	Matchers []CompiledMatcher
	Errors   []error // one per skipped matcher
}

// CompileGroups compiles every matcher of every group. A matcher that fails
// to compile is skipped and recorded on its group; its siblings and the
// remaining groups are unaffected. Groups point into the given slice.
func CompileGroups(groups []types.GroupConfiguration, compile CompileFunc) []CompiledGroup {
	if compile == nil {
		compile = Compile
	}

	out := make([]CompiledGroup, len(groups))
	for gi := range groups {
		g := &groups[gi]
		cg := CompiledGroup{Index: gi, Group: g}
		for mi, m := range g.Matchers {
			predicate, err := compile(m.Pattern, m.IsRegex)
			if err != nil {
				cg.Errors = append(cg.Errors, err)
				continue
			}
			cg.Matchers = append(cg.Matchers, CompiledMatcher{Index: mi, Matcher: m, Predicate: predicate})
		}
		out[gi] = cg
	}
	return out
}
