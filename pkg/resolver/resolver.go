// Package resolver picks the single group a URL belongs to.
//
// Every (group, matcher) pair whose predicate matches the URL is a
// candidate. A lone candidate wins outright; otherwise each candidate scores
//
//	specificity(pattern) + PriorityWeight × priority
//
// and the strictly greatest score wins. Equal scores keep the candidate met
// first, enumerating groups in order and matchers in order within a group.
package resolver

import (
	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/specificity"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// PriorityWeight scales a group's priority against pattern specificity.
// It lets a small priority outweigh any realistic difference in pattern
// depth, but a very deep pattern at priority 0 can still beat a shallow one
// at priority 1; it is a tuning knob, not a guarantee.
const PriorityWeight = 10

// MatchScore is the score of a candidate matched through pattern in a group
// with the given priority.
func MatchScore(raw string, priority int) int {
	return specificity.Score(raw) + PriorityWeight*priority
}

// Candidates lists the matchers of compiled groups that claim url, in
// enumeration order.
func Candidates(url string, groups []pattern.CompiledGroup) []types.Candidate {
	var candidates []types.Candidate
	for _, g := range groups {
		for _, m := range g.Matchers {
			if !m.Predicate.Match(url) {
				continue
			}
			candidates = append(candidates, types.Candidate{
				Group:        g.Group,
				GroupIndex:   g.Index,
				MatcherIndex: m.Index,
				Pattern:      m.Matcher.Pattern,
			})
		}
	}
	return candidates
}

// Best returns the winning candidate, or nil when there are none.
func Best(candidates []types.Candidate) *types.Candidate {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return &candidates[0]
	}

	best := 0
	bestScore := score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := score(candidates[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return &candidates[best]
}

func score(c types.Candidate) int {
	return MatchScore(c.Pattern, c.Group.Options.PriorityValue())
}

// ResolveCompiled resolves url against precompiled groups.
func ResolveCompiled(url string, groups []pattern.CompiledGroup) *types.GroupConfiguration {
	if best := Best(Candidates(url, groups)); best != nil {
		return best.Group
	}
	return nil
}

// Resolve returns the group url belongs to, or nil. Matchers that fail to
// compile are ignored. The returned pointer refers into groups.
func Resolve(url string, groups []types.GroupConfiguration) *types.GroupConfiguration {
	return ResolveCompiled(url, pattern.CompileGroups(groups, pattern.Compile))
}

// Resolver resolves URLs through a shared memoizing compiler.
type Resolver struct {
	compiler *pattern.Compiler
}

// New creates a Resolver. A nil compiler gets a default-sized one.
func New(compiler *pattern.Compiler) (*Resolver, error) {
	if compiler == nil {
		var err error
		if compiler, err = pattern.NewCompiler(0); err != nil {
			return nil, err
		}
	}
	return &Resolver{compiler: compiler}, nil
}

// Compile compiles groups with the resolver's compiler.
func (r *Resolver) Compile(groups []types.GroupConfiguration) []pattern.CompiledGroup {
	return pattern.CompileGroups(groups, r.compiler.Compile)
}

// Resolve behaves like the package-level Resolve.
func (r *Resolver) Resolve(url string, groups []types.GroupConfiguration) *types.GroupConfiguration {
	return ResolveCompiled(url, r.Compile(groups))
}

// Candidates lists every matching candidate for url.
func (r *Resolver) Candidates(url string, groups []types.GroupConfiguration) []types.Candidate {
	return Candidates(url, r.Compile(groups))
}
