package canvas

import (
	"fmt"
	"strings"

	"github.com/opd-ai/ncontrol/internal/geom"
)

// FontStyle represents font style variations.
type FontStyle int

const (
	// FontStyleRegular is the regular/normal font style.
	FontStyleRegular FontStyle = iota
	// FontStyleBold is the bold font style.
	FontStyleBold
	// FontStyleItalic is the italic font style.
	FontStyleItalic
	// FontStyleBoldItalic is the bold and italic font style.
	FontStyleBoldItalic
)

// String returns the string representation of a FontStyle.
func (fs FontStyle) String() string {
	switch fs {
	case FontStyleRegular:
		return "regular"
	case FontStyleBold:
		return "bold"
	case FontStyleItalic:
		return "italic"
	case FontStyleBoldItalic:
		return "bold-italic"
	default:
		return "unknown"
	}
}

// ParseFontStyle parses a string into a FontStyle.
func ParseFontStyle(s string) (FontStyle, error) {
	switch strings.ToLower(s) {
	case "regular", "normal", "":
		return FontStyleRegular, nil
	case "bold":
		return FontStyleBold, nil
	case "italic":
		return FontStyleItalic, nil
	case "bold-italic", "bolditalic", "bold_italic":
		return FontStyleBoldItalic, nil
	default:
		return FontStyleRegular, fmt.Errorf("unknown font style: %s", s)
	}
}

// Font selects a face. An empty Family means the backend default.
type Font struct {
	Family string
	Size   float64
	Style  FontStyle
}

// DefaultFontSize is used when a Font has no positive size.
const DefaultFontSize = 14

// DefaultFont is the backend default family at DefaultFontSize.
var DefaultFont = Font{Size: DefaultFontSize}

// Normalized returns f with a positive size.
func (f Font) Normalized() Font {
	if f.Size <= 0 {
		f.Size = DefaultFontSize
	}
	return f
}

func (f Font) String() string {
	family := f.Family
	if family == "" {
		family = "default"
	}
	return fmt.Sprintf("%s %s %gpt", family, f.Style, f.Size)
}

// Alignment is the horizontal placement of text within its frame.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// ParseAlignment parses "left", "center" or "right".
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left", "start":
		return AlignLeft, nil
	case "center", "centre", "middle":
		return AlignCenter, nil
	case "right", "end":
		return AlignRight, nil
	}
	return AlignLeft, fmt.Errorf("unknown alignment: %s", s)
}

// AlignText returns the top-left corner of a text box of the measured size
// placed in frame: horizontally by align, vertically centered.
func AlignText(frame geom.Rect, measured geom.Size, align Alignment) geom.Point {
	x := frame.X
	switch align {
	case AlignCenter:
		x += (frame.Width - measured.Width) / 2
	case AlignRight:
		x += frame.Width - measured.Width
	}
	return geom.Pt(x, frame.Y+(frame.Height-measured.Height)/2)
}
