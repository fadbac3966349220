package group

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// ValidationError is one problem found in a configuration set.
type ValidationError struct {
	Index   int    // group position in the set
	GroupID string // may be empty when the group has no usable id
	Path    string // slash-separated location inside the group, "" for the group itself
	Message string
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("group %d: %s", e.Index, e.Message)
	}
	return fmt.Sprintf("group %d: %s: %s", e.Index, e.Path, e.Message)
}

// ValidationErrors collects every problem found in a configuration set.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns ve as an error, or nil when it is empty.
func (ve ValidationErrors) Err() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

// ForGroup returns the errors reported against the group at index.
func (ve ValidationErrors) ForGroup(index int) ValidationErrors {
	var out ValidationErrors
	for _, e := range ve {
		if e.Index == index {
			out = append(out, e)
		}
	}
	return out
}

// InvalidGroups returns the set of group indexes with at least one error.
func (ve ValidationErrors) InvalidGroups() map[int]bool {
	out := make(map[int]bool, len(ve))
	for _, e := range ve {
		out[e.Index] = true
	}
	return out
}

// Validate checks every group and the set as a whole. A problem is always
// attributed to a single group: when ids collide, the groups after the
// first holder are the invalid ones.
func Validate(groups []types.GroupConfiguration) ValidationErrors {
	var errs ValidationErrors
	firstHolder := make(map[string]int, len(groups))

	for i := range groups {
		g := &groups[i]
		errs = append(errs, ValidateGroup(i, g)...)

		if first, ok := firstHolder[g.ID]; ok {
			errs = append(errs, ValidationError{
				Index:   i,
				GroupID: g.ID,
				Path:    "id",
				Message: fmt.Sprintf("duplicate group configuration id, already used by group %d", first),
			})
			continue
		}
		firstHolder[g.ID] = i
	}
	return errs
}

// ValidateGroup checks a single group. index is reported on every error.
func ValidateGroup(index int, g *types.GroupConfiguration) ValidationErrors {
	var errs ValidationErrors
	add := func(path, msg string) {
		errs = append(errs, ValidationError{Index: index, GroupID: g.ID, Path: path, Message: msg})
	}

	if g.ID == "" {
		add("id", "id is required")
	} else if err := uuid.Validate(g.ID); err != nil {
		add("id", "id must be a UUID")
	}
	if !g.Color.Valid() {
		add("color", fmt.Sprintf("unknown color %q", g.Color))
	}

	seen := make(map[string]bool, len(g.Matchers))
	for j, m := range g.Matchers {
		path := fmt.Sprintf("matchers/%d/pattern", j)
		if m.Pattern == "" {
			add(path, "pattern is required")
			continue
		}
		if seen[m.Pattern] {
			add(path, "duplicate URL patterns are not allowed")
			continue
		}
		seen[m.Pattern] = true

		if err := pattern.Validate(m.Pattern, m.IsRegex); err != nil {
			add(path, patternMessage(err))
		}
	}
	return errs
}

func patternMessage(err error) string {
	var ipe *pattern.InvalidPatternError
	if !errors.As(err, &ipe) {
		return err.Error()
	}
	if ipe.Err != nil {
		return fmt.Sprintf("%s: %v", ipe.Reason, ipe.Err)
	}
	return ipe.Reason
}
