//go:build linux

package render

import (
	"os"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// DetectCompositor reports whether windows can be transparent. Wayland
// sessions always composite; on X11 the _NET_WM_CM_S<screen> selection has
// an owner exactly when an EWMH compositor runs.
func DetectCompositor() CompositorStatus {
	if os.Getenv("WAYLAND_DISPLAY") != "" || os.Getenv("XDG_SESSION_TYPE") == "wayland" {
		return CompositorActive
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return CompositorUnknown
	}
	defer conn.Close()

	const name = "_NET_WM_CM_S0"
	atom, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil || atom == nil {
		return CompositorUnknown
	}
	owner, err := xproto.GetSelectionOwner(conn, atom.Atom).Reply()
	if err != nil {
		return CompositorUnknown
	}
	if owner.Owner == xproto.WindowNone {
		return CompositorInactive
	}
	return CompositorActive
}
