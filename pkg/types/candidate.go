package types

// Candidate is a (group, matcher) pair whose pattern matched a URL.
type Candidate struct {
	Group        *GroupConfiguration
	GroupIndex   int    // position of Group in the configuration set
	MatcherIndex int    // position of the matcher within Group.Matchers
	Pattern      string // raw matcher pattern
}
