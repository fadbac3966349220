package types

import "fmt"

// Color is a tab group color from the browser's fixed palette.
type Color string

const (
	ColorGrey   Color = "grey"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
	ColorCyan   Color = "cyan"
	ColorOrange Color = "orange"
)

// Colors lists the palette in display order.
var Colors = []Color{
	ColorGrey,
	ColorBlue,
	ColorRed,
	ColorYellow,
	ColorGreen,
	ColorPink,
	ColorPurple,
	ColorCyan,
	ColorOrange,
}

// Valid reports whether c is part of the palette.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// ParseColor converts a color name into a Color.
func ParseColor(s string) (Color, error) {
	c := Color(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}
