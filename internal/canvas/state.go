package canvas

import "github.com/opd-ai/ncontrol/internal/geom"

// State is one snapshot of the canvas state. Clip is in device space and
// only meaningful when Clipped is set.
type State struct {
	Transform geom.Transform
	Clip      geom.Rect
	Clipped   bool
}

// StateStack tracks the current State and the saved snapshots. Backends
// embed it to implement the state half of Canvas. The zero value starts at
// the identity transform with no clip.
type StateStack struct {
	cur   State
	saved []State
	ready bool
}

func (s *StateStack) current() *State {
	if !s.ready {
		s.cur = State{Transform: geom.Identity()}
		s.ready = true
	}
	return &s.cur
}

// SaveState pushes the current state.
func (s *StateStack) SaveState() {
	s.saved = append(s.saved, *s.current())
}

// RestoreState pops the last saved state.
func (s *StateStack) RestoreState() error {
	if len(s.saved) == 0 {
		return ErrStateUnderflow
	}
	s.cur = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
	return nil
}

// Transform composes t onto the current transform.
func (s *StateStack) Transform(t geom.Transform) {
	cur := s.current()
	cur.Transform = cur.Transform.Multiply(t)
}

// SetTransform replaces the current transform.
func (s *StateStack) SetTransform(t geom.Transform) {
	s.current().Transform = t
}

// CurrentTransform returns the user to device transform.
func (s *StateStack) CurrentTransform() geom.Transform {
	return s.current().Transform
}

// StateDepth returns the number of saved states.
func (s *StateStack) StateDepth() int {
	return len(s.saved)
}

// ClipRect intersects the clip with the device bounds of r.
func (s *StateStack) ClipRect(r geom.Rect) {
	cur := s.current()
	dev := r.TransformBounds(cur.Transform)
	if cur.Clipped {
		dev = cur.Clip.Intersect(dev)
	}
	cur.Clip = dev
	cur.Clipped = true
}

// State returns a copy of the current state.
func (s *StateStack) State() State {
	return *s.current()
}

// Reset drops all saved states and returns to the identity transform.
func (s *StateStack) Reset() {
	s.saved = s.saved[:0]
	s.cur = State{Transform: geom.Identity()}
	s.ready = true
}
