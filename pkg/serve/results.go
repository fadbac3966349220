package serve

import (
	"github.com/praetorian-inc/autogroup/pkg/normalize"
	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/resolver"
)

// Resolve picks the winning group for url among compiled.
func Resolve(url string, compiled []pattern.CompiledGroup) ResolveResult {
	out := ResolveResult{URL: url}
	best := resolver.Best(resolver.Candidates(url, compiled))
	if best == nil {
		return out
	}
	g := best.Group.Clone()
	out.Group = &g
	out.Pattern = best.Pattern
	out.Score = resolver.MatchScore(best.Pattern, g.Options.PriorityValue())
	return out
}

// Validate decodes a stored configuration and summarizes what was found.
func Validate(raw any) ValidateResult {
	groups, report := normalize.DecodeWithReport(raw)
	out := ValidateResult{
		Format:   report.Format,
		Valid:    report.Err() == nil,
		Groups:   groups,
		Upgrades: report.Upgrades,
	}
	if report.Malformed != nil {
		out.Malformed = report.Malformed.Error()
	}
	for _, e := range report.Errors {
		out.Issues = append(out.Issues, ValidationIssue{Index: e.Index, GroupID: e.GroupID, Path: e.Path, Message: e.Message})
	}
	return out
}
