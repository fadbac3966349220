package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/praetorian-inc/autogroup/pkg/types"
)

// swatches render a tab group color in the closest terminal color.
var swatches = map[types.Color]*color.Color{
	types.ColorGrey:   color.New(color.FgHiBlack),
	types.ColorBlue:   color.New(color.FgBlue),
	types.ColorRed:    color.New(color.FgRed),
	types.ColorYellow: color.New(color.FgYellow),
	types.ColorGreen:  color.New(color.FgGreen),
	types.ColorPink:   color.New(color.FgHiMagenta),
	types.ColorPurple: color.New(color.FgMagenta),
	types.ColorCyan:   color.New(color.FgCyan),
	types.ColorOrange: color.New(color.FgHiYellow),
}

// swatch returns title prefixed with a dot in the group's color.
func swatch(c types.Color, title string) string {
	s, ok := swatches[c]
	if !ok {
		return "  " + title
	}
	return s.Sprint("●") + " " + title
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeGroupsTable(w io.Writer, groups []types.GroupConfiguration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Title\tColor\tPriority\tPatterns\tID\n")
	fmt.Fprintf(tw, "-----\t-----\t--------\t--------\t--\n")
	for _, g := range groups {
		patterns := make([]string, len(g.Matchers))
		for i, m := range g.Matchers {
			patterns[i] = m.Pattern
			if m.IsRegex {
				patterns[i] += " (regex)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			swatch(g.Color, g.Title), g.Color, g.Options.PriorityValue(), strings.Join(patterns, ", "), g.ID)
	}
	return tw.Flush()
}
