package script

import "errors"

var (
	// ErrNilRuntime is returned when a nil runtime is passed to a function that requires one.
	ErrNilRuntime = errors.New("runtime cannot be nil")

	// ErrLua wraps errors raised while running Lua code.
	ErrLua = errors.New("lua error")

	// ErrLimitExceeded is returned when a script runs past its CPU or
	// memory budget.
	ErrLimitExceeded = errors.New("lua resource limit exceeded")

	// ErrNotFunction is returned when a value that should be callable is not.
	ErrNotFunction = errors.New("value is not a function")

	// ErrNoCanvas is raised by drawing functions called outside a draw
	// callback.
	ErrNoCanvas = errors.New("no canvas bound: drawing is only allowed inside draw")

	// ErrUnknownImage is raised when nc_draw_image names an image that was
	// not loaded.
	ErrUnknownImage = errors.New("unknown image")

	// ErrBadView is returned for malformed ncontrol.view tables.
	ErrBadView = errors.New("invalid view definition")
)
