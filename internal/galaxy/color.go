package galaxy

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor decodes a "#rrggbb" or "#rgb" hex string.
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B}, nil
}

// MustParseColor is ParseColor for literals known to be valid.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) Hex() string {
	return c.colorful().Clamped().Hex()
}

// Valid reports whether every channel lies in [0,1].
func (c Color) Valid() bool {
	return c.colorful().IsValid()
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// Blend interpolates linearly from a to b. t must already be in [0,1];
// the endpoints are returned exactly.
func Blend(a, b Color, t float64) Color {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	mixed := a.colorful().BlendRgb(b.colorful(), t)
	return Color{R: mixed.R, G: mixed.G, B: mixed.B}
}
