// Package paint provides the stroke and fill descriptors used by canvases:
// colors, pens and brushes with gradient stops.
package paint

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is a straight-alpha 8-bit RGBA color. A = 0 is fully transparent.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	Transparent = Color{}
	Black       = Color{A: 255}
	White       = Color{R: 255, G: 255, B: 255, A: 255}
)

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGBA returns a color with explicit alpha.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// FromColor converts any image/color value, un-premultiplying alpha.
func FromColor(c color.Color) Color {
	if pc, ok := c.(Color); ok {
		return pc
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// RGBA implements image/color.Color with alpha-premultiplied 16-bit values.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// NRGBA returns the color as a straight-alpha standard library value.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Floats returns the components scaled to 0..1, not premultiplied.
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

// IsTransparent reports whether the color draws nothing.
func (c Color) IsTransparent() bool {
	return c.A == 0
}

// WithAlpha returns a copy with the given alpha.
func (c Color) WithAlpha(a uint8) Color {
	c.A = a
	return c
}

// WithOpacity returns a copy with alpha multiplied by opacity (clamped to 0..1).
func (c Color) WithOpacity(opacity float64) Color {
	c.A = clampByte(float64(c.A) * clamp01(opacity))
	return c
}

// Lerp interpolates every channel towards o. t = 0 returns c, t = 1 returns o.
func (c Color) Lerp(o Color, t float64) Color {
	t = clamp01(t)
	mix := func(a, b uint8) uint8 {
		return clampByte(float64(a) + (float64(b)-float64(a))*t)
	}
	return Color{R: mix(c.R, o.R), G: mix(c.G, o.G), B: mix(c.B, o.B), A: mix(c.A, o.A)}
}

// Hex formats the color as #RRGGBB, or #RRGGBBAA when not opaque.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// NamedColors maps CSS color names to colors.
var NamedColors = map[string]Color{
	"black":       Black,
	"white":       White,
	"red":         RGB(255, 0, 0),
	"green":       RGB(0, 128, 0),
	"blue":        RGB(0, 0, 255),
	"yellow":      RGB(255, 255, 0),
	"cyan":        RGB(0, 255, 255),
	"magenta":     RGB(255, 0, 255),
	"gray":        RGB(128, 128, 128),
	"grey":        RGB(128, 128, 128),
	"silver":      RGB(192, 192, 192),
	"maroon":      RGB(128, 0, 0),
	"olive":       RGB(128, 128, 0),
	"lime":        RGB(0, 255, 0),
	"teal":        RGB(0, 128, 128),
	"navy":        RGB(0, 0, 128),
	"purple":      RGB(128, 0, 128),
	"orange":      RGB(255, 165, 0),
	"pink":        RGB(255, 192, 203),
	"brown":       RGB(165, 42, 42),
	"coral":       RGB(255, 127, 80),
	"gold":        RGB(255, 215, 0),
	"indigo":      RGB(75, 0, 130),
	"violet":      RGB(238, 130, 238),
	"crimson":     RGB(220, 20, 60),
	"darkgray":    RGB(169, 169, 169),
	"darkgrey":    RGB(169, 169, 169),
	"lightgray":   RGB(211, 211, 211),
	"lightgrey":   RGB(211, 211, 211),
	"skyblue":     RGB(135, 206, 235),
	"steelblue":   RGB(70, 130, 180),
	"transparent": Transparent,
}

// ParseColor parses a color string.
// Supported formats:
//   - Named colors: "red", "steelblue", "transparent"
//   - Hex: "#RGB", "#RGBA", "#RRGGBB", "#RRGGBBAA" (the # is optional)
//   - Functions: "rgb(255, 0, 0)", "rgba(255, 0, 0, 0.5)" or "rgba(255, 0, 0, 128)"
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("empty color string")
	}
	lower := strings.ToLower(s)
	if c, ok := NamedColors[lower]; ok {
		return c, nil
	}
	switch {
	case strings.HasPrefix(s, "#") || isHexString(s):
		return parseHexColor(strings.TrimPrefix(s, "#"))
	case strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(s, ")"):
		return parseColorFunc(s[5:len(s)-1], 4)
	case strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(s, ")"):
		return parseColorFunc(s[4:len(s)-1], 3)
	}
	return Color{}, fmt.Errorf("unrecognized color format: %q", s)
}

// MustParseColor is ParseColor for known-good literals. It panics on error.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func isHexString(s string) bool {
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

func parseHexColor(s string) (Color, error) {
	switch len(s) {
	case 3, 4:
		// Shorthand: each digit is doubled.
		long := make([]byte, 0, 8)
		for i := 0; i < len(s); i++ {
			long = append(long, s[i], s[i])
		}
		s = string(long)
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("invalid hex color length: %d", len(s))
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseColorFunc(content string, want int) (Color, error) {
	parts := strings.Split(content, ",")
	if len(parts) != want {
		return Color{}, fmt.Errorf("color function requires exactly %d values, got %d", want, len(parts))
	}
	var ch [3]uint8
	names := [3]string{"red", "green", "blue"}
	for i := range ch {
		v, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid %s value: %w", names[i], err)
		}
		ch[i] = uint8(v)
	}
	c := RGB(ch[0], ch[1], ch[2])
	if want == 4 {
		a, err := parseAlpha(strings.TrimSpace(parts[3]))
		if err != nil {
			return Color{}, fmt.Errorf("invalid alpha value: %w", err)
		}
		c.A = a
	}
	return c, nil
}

// parseAlpha accepts both 0-255 integers and 0.0-1.0 floats.
func parseAlpha(s string) (uint8, error) {
	if strings.Contains(s, ".") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return clampByte(clamp01(v) * 255), nil
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
