package render

import (
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/touch"
)

// mousePointerID identifies the mouse among touch IDs.
const mousePointerID = -1

// inputState is one tick's raw input.
type inputState struct {
	pressed  []touch.Pointer // touches that started this tick
	active   []touch.Pointer // every touch currently down
	released []int           // touch IDs lifted this tick

	mouse        geom.Point
	mouseDown    bool
	mousePress   bool
	mouseRelease bool
}

// inputSource polls raw input once per tick.
type inputSource interface {
	poll() inputState
}

// InputCollector turns ebiten touch and mouse state into touch batches.
// Touches are reported with every active pointer; the mouse left button is
// a single pointer and is ignored while a touch is down.
//
// A gesture ends when its last touch lifts. Lifting one finger of several
// only drops that pointer from later Moved batches.
//
// Without multi-touch only the primary touch, the first one down, is
// followed. Other fingers are ignored and lifting the primary ends the
// gesture.
type InputCollector struct {
	src        inputSource
	multiTouch bool
	last       map[int]geom.Point

	primary    int
	hasPrimary bool

	mouseActive bool
	mouseLast   geom.Point
}

// NewInputCollector returns a collector reading ebiten's input state.
func NewInputCollector(multiTouch bool) *InputCollector {
	return newInputCollector(&ebitenSource{}, multiTouch)
}

func newInputCollector(src inputSource, multiTouch bool) *InputCollector {
	return &InputCollector{src: src, multiTouch: multiTouch, last: make(map[int]geom.Point)}
}

// Collect returns the batches for this tick, in phase order.
func (c *InputCollector) Collect() []touch.Batch {
	return c.batches(c.src.poll())
}

func (c *InputCollector) batches(s inputState) []touch.Batch {
	if len(s.pressed) == 0 && len(s.released) == 0 && len(c.last) == 0 {
		return c.mouseBatches(s)
	}
	if !c.multiTouch {
		s = c.primaryOnly(s)
	}
	return c.touchBatches(s)
}

// primaryOnly drops every touch but the primary one from s.
func (c *InputCollector) primaryOnly(s inputState) inputState {
	if !c.hasPrimary && len(s.pressed) > 0 {
		c.primary, c.hasPrimary = s.pressed[0].ID, true
		s.pressed = s.pressed[:1]
	} else {
		s.pressed = nil
	}
	if !c.hasPrimary {
		s.active, s.released = nil, nil
		return s
	}
	s.active = slices.DeleteFunc(s.active, func(p touch.Pointer) bool { return p.ID != c.primary })
	s.released = slices.DeleteFunc(s.released, func(id int) bool { return id != c.primary })
	if len(s.released) > 0 {
		c.hasPrimary = false
	}
	return s
}

func (c *InputCollector) touchBatches(s inputState) []touch.Batch {
	var out []touch.Batch
	if len(s.pressed) > 0 {
		for _, p := range s.pressed {
			c.last[p.ID] = p.Position
		}
		out = append(out, touch.Batch{Phase: touch.Began, Pointers: s.pressed})
	}

	moved := false
	for _, p := range s.active {
		if prev, ok := c.last[p.ID]; ok && prev != p.Position {
			moved = true
		}
		c.last[p.ID] = p.Position
	}
	if moved {
		out = append(out, touch.Batch{Phase: touch.Moved, Pointers: s.active})
	}

	if len(s.released) > 0 {
		ended := make([]touch.Pointer, 0, len(s.released))
		for _, id := range s.released {
			if pos, ok := c.last[id]; ok {
				ended = append(ended, touch.Pointer{ID: id, Position: pos})
				delete(c.last, id)
			}
		}
		if len(c.last) == 0 && len(ended) > 0 {
			out = append(out, touch.Batch{Phase: touch.Ended, Pointers: ended})
		}
	}
	return out
}

func (c *InputCollector) mouseBatches(s inputState) []touch.Batch {
	ptr := []touch.Pointer{{ID: mousePointerID, Position: s.mouse}}
	var out []touch.Batch
	switch {
	case s.mousePress:
		c.mouseActive = true
		out = append(out, touch.Batch{Phase: touch.Began, Pointers: ptr})
	case c.mouseActive && s.mouseDown && s.mouse != c.mouseLast:
		out = append(out, touch.Batch{Phase: touch.Moved, Pointers: ptr})
	}
	if c.mouseActive && s.mouseRelease {
		c.mouseActive = false
		out = append(out, touch.Batch{Phase: touch.Ended, Pointers: ptr})
	}
	c.mouseLast = s.mouse
	return out
}

// ebitenSource reads input from ebiten. It must be polled from Update.
type ebitenSource struct {
	ids []ebiten.TouchID
}

func (e *ebitenSource) poll() inputState {
	var s inputState

	e.ids = inpututil.AppendJustPressedTouchIDs(e.ids[:0])
	for _, id := range e.ids {
		s.pressed = append(s.pressed, touchPointer(id))
	}
	e.ids = ebiten.AppendTouchIDs(e.ids[:0])
	slices.Sort(e.ids)
	for _, id := range e.ids {
		s.active = append(s.active, touchPointer(id))
	}
	e.ids = inpututil.AppendJustReleasedTouchIDs(e.ids[:0])
	for _, id := range e.ids {
		s.released = append(s.released, int(id))
	}

	x, y := ebiten.CursorPosition()
	s.mouse = geom.Pt(float64(x), float64(y))
	s.mouseDown = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	s.mousePress = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	s.mouseRelease = inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft)
	return s
}

func touchPointer(id ebiten.TouchID) touch.Pointer {
	x, y := ebiten.TouchPosition(id)
	return touch.Pointer{ID: int(id), Position: geom.Pt(float64(x), float64(y))}
}
