package render

import (
	"testing"

	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/touch"
)

type scriptedSource struct {
	states []inputState
}

func (s *scriptedSource) poll() inputState {
	if len(s.states) == 0 {
		return inputState{}
	}
	st := s.states[0]
	s.states = s.states[1:]
	return st
}

func ptr(id int, x, y float64) touch.Pointer {
	return touch.Pointer{ID: id, Position: geom.Pt(x, y)}
}

func phases(bs []touch.Batch) []touch.Phase {
	out := make([]touch.Phase, len(bs))
	for i, b := range bs {
		out[i] = b.Phase
	}
	return out
}

func TestMouseGesture(t *testing.T) {
	src := &scriptedSource{states: []inputState{
		{mouse: geom.Pt(5, 5), mouseDown: true, mousePress: true},
		{mouse: geom.Pt(5, 5), mouseDown: true},
		{mouse: geom.Pt(8, 9), mouseDown: true},
		{mouse: geom.Pt(8, 9), mouseRelease: true},
		{mouse: geom.Pt(20, 20)},
	}}
	c := newInputCollector(src, true)
	want := [][]touch.Phase{{touch.Began}, nil, {touch.Moved}, {touch.Ended}, nil}
	for i, w := range want {
		got := c.Collect()
		if len(got) != len(w) {
			t.Fatalf("tick %d: phases = %v, want %v", i, phases(got), w)
		}
		for j := range w {
			if got[j].Phase != w[j] {
				t.Errorf("tick %d: phase %d = %v, want %v", i, j, got[j].Phase, w[j])
			}
			if got[j].Pointers[0].ID != mousePointerID {
				t.Errorf("tick %d: pointer ID = %d, want %d", i, got[j].Pointers[0].ID, mousePointerID)
			}
		}
	}
}

func TestMouseReleaseWithoutPressIgnored(t *testing.T) {
	c := newInputCollector(&scriptedSource{states: []inputState{{mouseRelease: true}}}, true)
	if got := c.Collect(); len(got) != 0 {
		t.Errorf("phases = %v, want none", phases(got))
	}
}

func TestMultiTouchGesture(t *testing.T) {
	src := &scriptedSource{states: []inputState{
		{pressed: []touch.Pointer{ptr(1, 10, 10)}, active: []touch.Pointer{ptr(1, 10, 10)}},
		{pressed: []touch.Pointer{ptr(2, 50, 50)}, active: []touch.Pointer{ptr(1, 12, 10), ptr(2, 50, 50)}},
		{active: []touch.Pointer{ptr(2, 55, 50)}, released: []int{1}},
		{released: []int{2}},
	}}
	c := newInputCollector(src, true)

	b := c.Collect()
	if len(b) != 1 || b[0].Phase != touch.Began {
		t.Fatalf("tick 0 = %v, want [began]", phases(b))
	}

	b = c.Collect()
	if len(b) != 2 || b[0].Phase != touch.Began || b[1].Phase != touch.Moved {
		t.Fatalf("tick 1 = %v, want [began moved]", phases(b))
	}
	if len(b[1].Pointers) != 2 {
		t.Errorf("moved pointers = %d, want 2", len(b[1].Pointers))
	}

	// One finger lifts: no Ended while another is down.
	b = c.Collect()
	if len(b) != 1 || b[0].Phase != touch.Moved {
		t.Fatalf("tick 2 = %v, want [moved]", phases(b))
	}

	b = c.Collect()
	if len(b) != 1 || b[0].Phase != touch.Ended {
		t.Fatalf("tick 3 = %v, want [ended]", phases(b))
	}
	if got := b[0].Pointers[0].Position; got != geom.Pt(55, 50) {
		t.Errorf("ended position = %v, want last known (55,50)", got)
	}
}

func TestTouchSuppressesMouse(t *testing.T) {
	src := &scriptedSource{states: []inputState{
		{
			pressed:    []touch.Pointer{ptr(1, 10, 10)},
			active:     []touch.Pointer{ptr(1, 10, 10)},
			mouse:      geom.Pt(10, 10),
			mouseDown:  true,
			mousePress: true,
		},
	}}
	b := newInputCollector(src, true).Collect()
	if len(b) != 1 || b[0].Pointers[0].ID != 1 {
		t.Errorf("batches = %+v, want the touch only", b)
	}
}

func TestSingleTouchFollowsPrimary(t *testing.T) {
	src := &scriptedSource{states: []inputState{
		{pressed: []touch.Pointer{ptr(1, 10, 10)}, active: []touch.Pointer{ptr(1, 10, 10)}},
		{pressed: []touch.Pointer{ptr(2, 50, 50)}, active: []touch.Pointer{ptr(1, 10, 10), ptr(2, 50, 50)}},
		{active: []touch.Pointer{ptr(1, 12, 10), ptr(2, 60, 50)}},
		{active: []touch.Pointer{ptr(2, 70, 50)}, released: []int{1}},
		{active: []touch.Pointer{ptr(2, 80, 50)}},
		{released: []int{2}},
	}}
	c := newInputCollector(src, false)

	want := [][]touch.Phase{{touch.Began}, nil, {touch.Moved}, {touch.Ended}, nil, nil}
	for i, w := range want {
		got := c.Collect()
		if len(got) != len(w) {
			t.Fatalf("tick %d: phases = %v, want %v", i, phases(got), w)
		}
		for j := range w {
			if got[j].Phase != w[j] {
				t.Errorf("tick %d: phase %d = %v, want %v", i, j, got[j].Phase, w[j])
			}
			if len(got[j].Pointers) != 1 || got[j].Pointers[0].ID != 1 {
				t.Errorf("tick %d: pointers = %+v, want the primary only", i, got[j].Pointers)
			}
		}
	}
}
