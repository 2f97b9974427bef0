// Package platform inspects the desktop session the tool runs in.
package platform

import (
	"os"
	"strings"
)

// SessionIsWayland reports whether the current desktop session runs on a
// Wayland compositor. Compositors set WAYLAND_DISPLAY; login managers that
// don't still set XDG_SESSION_TYPE. Declared as a var so tests can
// substitute.
var SessionIsWayland = func() bool {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return true
	}
	return strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland")
}
