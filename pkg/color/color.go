// Package color classifies raw optical sensor readings into a small set of
// floor colors the rover reacts to.
package color

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is a discrete color label produced by Classify.
type Color uint8

const (
	Black Color = iota
	Blue
	Red
	Magenta
	Green
	Cyan
	Yellow
	White
	Orange
	Unknown
)

var names = [...]string{
	Black:   "black",
	Blue:    "blue",
	Red:     "red",
	Magenta: "magenta",
	Green:   "green",
	Cyan:    "cyan",
	Yellow:  "yellow",
	White:   "white",
	Orange:  "orange",
	Unknown: "unknown",
}

// All returns every color label in declaration order.
func All() []Color {
	return []Color{Black, Blue, Red, Magenta, Green, Cyan, Yellow, White, Orange, Unknown}
}

func (c Color) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// Parse returns the color with the given name (case-insensitive).
func Parse(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return Color(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown color name %q", s)
}

// RGB returns the status indicator rendering of the color.
// Black and Unknown turn the indicator off.
func (c Color) RGB() color.RGBA {
	switch c {
	case Blue:
		return color.RGBA{R: 0, G: 0, B: 128, A: 255}
	case Red:
		return color.RGBA{R: 128, G: 0, B: 0, A: 255}
	case Magenta:
		return color.RGBA{R: 128, G: 0, B: 128, A: 255}
	case Green:
		return color.RGBA{R: 0, G: 128, B: 0, A: 255}
	case Cyan:
		return color.RGBA{R: 0, G: 128, B: 128, A: 255}
	case Yellow:
		return color.RGBA{R: 128, G: 128, B: 0, A: 255}
	case White:
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	case Orange:
		return color.RGBA{R: 128, G: 82, B: 0, A: 255}
	default:
		return color.RGBA{A: 255}
	}
}
