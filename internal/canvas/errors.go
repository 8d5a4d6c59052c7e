package canvas

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned when a backend cannot render a request,
	// for example a radial gradient on a backend without one.
	ErrUnsupported = errors.New("unsupported by backend")

	// ErrStateUnderflow is returned by RestoreState without a matching SaveState.
	ErrStateUnderflow = errors.New("restore state: stack is empty")

	// ErrStateUnbalanced is returned when a draw pass ends with saved
	// states that were never restored.
	ErrStateUnbalanced = errors.New("state stack unbalanced: saved states not restored")

	// ErrNoImage is returned when an image argument is nil or has no pixels.
	ErrNoImage = errors.New("no image")

	// ErrNotReadable is returned by GetImage on a canvas that cannot be read back.
	ErrNotReadable = errors.New("canvas pixels are not readable")
)

// UnsupportedError names the operation a backend refused.
// It matches ErrUnsupported with errors.Is.
type UnsupportedError struct {
	Op      string
	Backend string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s %v", e.Backend, e.Op, ErrUnsupported)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Unsupported returns an *UnsupportedError for op on backend.
func Unsupported(backend, op string) error {
	return &UnsupportedError{Op: op, Backend: backend}
}
