package geom

import (
	"fmt"
	"math"
)

// Transform is a 2D affine matrix in row-major 2x3 form. A point maps as
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
//
// The zero value is not the identity; use Identity.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Transform {
	return Transform{A: 1, D: 1, E: tx, F: ty}
}

// Scale returns a scale by (sx, sy) about the origin.
func Scale(sx, sy float64) Transform {
	return Transform{A: sx, D: sy}
}

// Rotate returns a rotation by angle radians about the origin. Positive
// angles turn clockwise on a y-down surface.
func Rotate(angle float64) Transform {
	s, c := math.Sincos(angle)
	return Transform{A: c, B: s, C: -s, D: c}
}

// Apply maps p through t.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.E,
		Y: t.B*p.X + t.D*p.Y + t.F,
	}
}

// ApplyVector maps the vector v through t, ignoring translation.
func (t Transform) ApplyVector(v Point) Point {
	return Point{
		X: t.A*v.X + t.C*v.Y,
		Y: t.B*v.X + t.D*v.Y,
	}
}

// Multiply composes t with o. The result applies o first, then t:
//
//	t.Multiply(o).Apply(p) == t.Apply(o.Apply(p))
func (t Transform) Multiply(o Transform) Transform {
	return Transform{
		A: t.A*o.A + t.C*o.B,
		B: t.B*o.A + t.D*o.B,
		C: t.A*o.C + t.C*o.D,
		D: t.B*o.C + t.D*o.D,
		E: t.A*o.E + t.C*o.F + t.E,
		F: t.B*o.E + t.D*o.F + t.F,
	}
}

// Then returns the transform that applies t first, then o.
func (t Transform) Then(o Transform) Transform {
	return o.Multiply(t)
}

// Determinant returns A*D - B*C.
func (t Transform) Determinant() float64 {
	return t.A*t.D - t.B*t.C
}

// Invertible reports whether t has a usable inverse.
func (t Transform) Invertible() bool {
	det := t.Determinant()
	return !(math.Abs(det) < Epsilon || math.IsNaN(det) || math.IsInf(det, 0))
}

// Inverse returns the inverse of t. The second result is false when t is
// degenerate, in which case the identity is returned.
func (t Transform) Inverse() (Transform, bool) {
	if !t.Invertible() {
		return Identity(), false
	}
	det := t.Determinant()
	return Transform{
		A: t.D / det,
		B: -t.B / det,
		C: -t.C / det,
		D: t.A / det,
		E: (t.C*t.F - t.D*t.E) / det,
		F: (t.B*t.E - t.A*t.F) / det,
	}, true
}

// IsIdentity reports whether t is the identity within tolerance.
func (t Transform) IsIdentity() bool {
	return t.ApproxEqual(Identity())
}

// ScaleFactor returns the geometric mean of the axis scales. It is used to
// map lengths such as radii and stroke widths into device space.
func (t Transform) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(t.Determinant()))
}

// ApproxEqual reports whether every coefficient matches within tolerance.
func (t Transform) ApproxEqual(o Transform) bool {
	return approxEqual(t.A, o.A) && approxEqual(t.B, o.B) && approxEqual(t.C, o.C) &&
		approxEqual(t.D, o.D) && approxEqual(t.E, o.E) && approxEqual(t.F, o.F)
}

// String implements fmt.Stringer.
func (t Transform) String() string {
	return fmt.Sprintf("[%g %g %g %g %g %g]", t.A, t.B, t.C, t.D, t.E, t.F)
}
