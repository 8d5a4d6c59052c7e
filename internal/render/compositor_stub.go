//go:build !linux

package render

// DetectCompositor returns CompositorActive: Windows (DWM) and macOS always
// composite.
func DetectCompositor() CompositorStatus {
	return CompositorActive
}
