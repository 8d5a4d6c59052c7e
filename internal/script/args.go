package script

import (
	"fmt"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/paint"
)

// args gives positional access to the arguments of a Go function called
// from Lua. Errors name the function and the argument.
type args struct {
	fn   string
	vals []rt.Value
}

func argsOf(fn string, c *rt.GoCont) args {
	return args{fn: fn, vals: append(c.Args(), c.Etc()...)}
}

func (a args) has(i int) bool {
	return i < len(a.vals) && !a.vals[i].IsNil()
}

func (a args) errorf(i int, format string, v ...any) error {
	return fmt.Errorf("%s: argument %d: %s", a.fn, i+1, fmt.Sprintf(format, v...))
}

func (a args) float(i int) (float64, error) {
	if i >= len(a.vals) {
		return 0, a.errorf(i, "missing number")
	}
	return toFloat(a.vals[i], func() error { return a.errorf(i, "not a number") })
}

func (a args) floatOr(i int, def float64) (float64, error) {
	if !a.has(i) {
		return def, nil
	}
	return a.float(i)
}

func (a args) floats(from, n int) ([]float64, error) {
	out := make([]float64, n)
	for k := range out {
		f, err := a.float(from + k)
		if err != nil {
			return nil, err
		}
		out[k] = f
	}
	return out, nil
}

func (a args) rect(from int) (geom.Rect, error) {
	f, err := a.floats(from, 4)
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.R(f[0], f[1], f[2], f[3]), nil
}

func (a args) str(i int) (string, error) {
	if i >= len(a.vals) {
		return "", a.errorf(i, "missing string")
	}
	if s, ok := a.vals[i].TryString(); ok {
		return s, nil
	}
	return "", a.errorf(i, "not a string")
}

func (a args) strOr(i int, def string) (string, error) {
	if !a.has(i) {
		return def, nil
	}
	return a.str(i)
}

func (a args) boolOr(i int, def bool) bool {
	if !a.has(i) {
		return def
	}
	return truthy(a.vals[i])
}

func (a args) table(i int) (*rt.Table, error) {
	if i < len(a.vals) {
		if t, ok := a.vals[i].TryTable(); ok {
			return t, nil
		}
	}
	return nil, a.errorf(i, "not a table")
}

func (a args) color(i int) (paint.Color, error) {
	if i >= len(a.vals) {
		return paint.Color{}, a.errorf(i, "missing color")
	}
	c, err := toColor(a.vals[i])
	if err != nil {
		return paint.Color{}, a.errorf(i, "%v", err)
	}
	return c, nil
}

func toFloat(v rt.Value, fail func() error) (float64, error) {
	if f, ok := v.TryFloat(); ok {
		return f, nil
	}
	if n, ok := v.TryInt(); ok {
		return float64(n), nil
	}
	return 0, fail()
}

// toColor accepts a color string ("#rrggbb", "rgba(...)", a name) or an
// array {r, g, b[, a]} of 0-255 components.
func toColor(v rt.Value) (paint.Color, error) {
	if s, ok := v.TryString(); ok {
		return paint.ParseColor(s)
	}
	t, ok := v.TryTable()
	if !ok {
		return paint.Color{}, fmt.Errorf("color must be a string or {r, g, b, a}")
	}
	comp := [4]float64{0, 0, 0, 255}
	for k := range comp {
		e := t.Get(rt.IntValue(int64(k + 1)))
		if e.IsNil() {
			if k < 3 {
				return paint.Color{}, fmt.Errorf("color table needs at least r, g, b")
			}
			break
		}
		f, err := toFloat(e, func() error { return fmt.Errorf("color component %d is not a number", k+1) })
		if err != nil {
			return paint.Color{}, err
		}
		comp[k] = f
	}
	return paint.RGBA(clampByte(comp[0]), clampByte(comp[1]), clampByte(comp[2]), clampByte(comp[3])), nil
}

// toStops reads {{offset, color}, ...}.
func toStops(t *rt.Table) ([]paint.GradientStop, error) {
	var stops []paint.GradientStop
	for i := int64(1); ; i++ {
		e := t.Get(rt.IntValue(i))
		if e.IsNil() {
			return stops, nil
		}
		st, ok := e.TryTable()
		if !ok {
			return nil, fmt.Errorf("stop %d is not a table", i)
		}
		off, err := toFloat(st.Get(rt.IntValue(1)), func() error { return fmt.Errorf("stop %d: offset is not a number", i) })
		if err != nil {
			return nil, err
		}
		col, err := toColor(st.Get(rt.IntValue(2)))
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", i, err)
		}
		stops = append(stops, paint.GradientStop{Offset: off, Color: col})
	}
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

func pointsTable(pts []geom.Point) *rt.Table {
	t := rt.NewTable()
	for i, p := range pts {
		e := rt.NewTable()
		e.Set(rt.StringValue("x"), rt.FloatValue(p.X))
		e.Set(rt.StringValue("y"), rt.FloatValue(p.Y))
		t.Set(rt.IntValue(int64(i+1)), rt.TableValue(e))
	}
	return t
}
