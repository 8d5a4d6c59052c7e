package render

// CompositorStatus is the result of probing for a compositing manager.
type CompositorStatus int

const (
	CompositorUnknown CompositorStatus = iota
	CompositorActive
	CompositorInactive
)

func (cs CompositorStatus) String() string {
	switch cs {
	case CompositorActive:
		return "active"
	case CompositorInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// probeCompositor is replaced in tests.
var probeCompositor = DetectCompositor

// CheckTransparencySupport returns a warning when a transparent window is
// requested but will likely render opaque, or "" when it should work.
func CheckTransparencySupport(transparent bool) string {
	if !transparent {
		return ""
	}
	switch probeCompositor() {
	case CompositorActive:
		return ""
	case CompositorInactive:
		return "transparent window requested but no compositor is running; the window will likely be opaque"
	default:
		return "transparent window requested but the compositor state is unknown"
	}
}
