package canvas

import (
	"errors"
	"fmt"
)

// WithState runs fn between SaveState and RestoreState. The state is
// restored even when fn returns an error or panics; a panic is re-raised
// after the restore. A restore failure is joined with fn's error.
func WithState(c Canvas, fn func() error) (err error) {
	c.SaveState()
	depth := c.StateDepth()
	defer func() {
		p := recover()
		var rerr error
		// fn may have left extra saves behind; unwind to our own level.
		for c.StateDepth() > depth {
			if rerr = c.RestoreState(); rerr != nil {
				break
			}
		}
		if rerr == nil {
			if c.StateDepth() < depth {
				rerr = fmt.Errorf("state stack shrank inside scope: %w", ErrStateUnderflow)
			} else {
				rerr = c.RestoreState()
			}
		}
		if p != nil {
			panic(p)
		}
		err = errors.Join(err, rerr)
	}()
	return fn()
}
