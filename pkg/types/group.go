package types

// GroupConfiguration is a user-defined rule bucket: every tab whose URL is
// claimed by one of its matchers is placed into a tab group with this title
// and color.
type GroupConfiguration struct {
	ID       string      `json:"id" yaml:"id"`
	Title    string      `json:"title" yaml:"title"`
	Color    Color       `json:"color" yaml:"color"`
	Options  SaveOptions `json:"options" yaml:"options"`
	Matchers []Matcher   `json:"matchers" yaml:"matchers"`
}

// SaveOptions controls how tabs are assigned to the group.
type SaveOptions struct {
	Strict   bool `json:"strict" yaml:"strict"`
	Merge    bool `json:"merge" yaml:"merge"`
	Priority *int `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// PriorityValue returns the configured priority, 0 when unset.
func (o SaveOptions) PriorityValue() int {
	if o.Priority == nil {
		return 0
	}
	return *o.Priority
}

// Matcher is one URL pattern rule. When IsRegex is set, Pattern is a
// /source/flags regular expression literal; otherwise it is a match pattern.
type Matcher struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	IsRegex bool   `json:"isRegex" yaml:"isRegex"`
}

// Priority returns a pointer to p, for building SaveOptions literals.
func Priority(p int) *int {
	return &p
}

// Clone returns a deep copy of the group.
func (g GroupConfiguration) Clone() GroupConfiguration {
	out := g
	if g.Options.Priority != nil {
		out.Options.Priority = Priority(*g.Options.Priority)
	}
	if g.Matchers != nil {
		out.Matchers = make([]Matcher, len(g.Matchers))
		copy(out.Matchers, g.Matchers)
	}
	return out
}

// CloneGroups deep-copies a configuration set.
func CloneGroups(groups []GroupConfiguration) []GroupConfiguration {
	if groups == nil {
		return nil
	}
	out := make([]GroupConfiguration, len(groups))
	for i := range groups {
		out[i] = groups[i].Clone()
	}
	return out
}

// Patterns returns the pattern strings of the group's matchers in order.
func (g GroupConfiguration) Patterns() []string {
	patterns := make([]string, len(g.Matchers))
	for i, m := range g.Matchers {
		patterns[i] = m.Pattern
	}
	return patterns
}
