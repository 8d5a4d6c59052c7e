package paint

import (
	"fmt"
	"strings"
)

// LineCap is the shape drawn at the open ends of a stroke.
type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// String returns the cap name.
func (c LineCap) String() string {
	switch c {
	case CapRound:
		return "round"
	case CapSquare:
		return "square"
	default:
		return "butt"
	}
}

// LineJoin is the shape drawn where two stroke segments meet.
type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// String returns the join name.
func (j LineJoin) String() string {
	switch j {
	case JoinRound:
		return "round"
	case JoinBevel:
		return "bevel"
	default:
		return "miter"
	}
}

// ParseLineCap parses "butt", "round" or "square".
func ParseLineCap(s string) (LineCap, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "butt":
		return CapButt, nil
	case "round":
		return CapRound, nil
	case "square":
		return CapSquare, nil
	}
	return CapButt, fmt.Errorf("unknown line cap %q", s)
}

// ParseLineJoin parses "miter", "round" or "bevel".
func ParseLineJoin(s string) (LineJoin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "miter":
		return JoinMiter, nil
	case "round":
		return JoinRound, nil
	case "bevel":
		return JoinBevel, nil
	}
	return JoinMiter, fmt.Errorf("unknown line join %q", s)
}

// Pen describes a stroke. Width is in user-space units and scales with the
// canvas transform.
type Pen struct {
	Color Color
	Width float64
	// Dash alternates on and off lengths. Nil draws a solid line.
	Dash []float64
	Cap  LineCap
	Join LineJoin
}

// NewPen returns a solid pen with butt caps and miter joins.
func NewPen(c Color, width float64) *Pen {
	return &Pen{Color: c, Width: width}
}

// Visible reports whether stroking with p can change any pixel.
func (p *Pen) Visible() bool {
	return p != nil && p.Width > 0 && p.Color.A > 0
}

// Dashed reports whether p has a usable dash pattern.
func (p *Pen) Dashed() bool {
	if p == nil || len(p.Dash) == 0 {
		return false
	}
	var sum float64
	for _, v := range p.Dash {
		if v < 0 {
			return false
		}
		sum += v
	}
	return sum > 0
}
