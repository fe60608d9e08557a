package proto

import (
	"image"

	"inkview/pkg/bitmap"
)

// Orientation modes in public numbering. The panel rotates natively in these
// four steps only.
const (
	OrientationPortrait          = 0
	OrientationLandscape         = 1
	OrientationPortraitInverted  = 2
	OrientationLandscapeInverted = 3
)

// Screen is the control surface of an opened e-ink display.
//
// Buffer returns the packed 4bpp buffer callers draw into; Refresh pushes the
// given rectangle of it to the panel. An empty rectangle refreshes the whole
// screen.
type Screen interface {
	Size() (width int, height int)
	Buffer() *bitmap.Gray4

	Refresh(rect image.Rectangle, partial bool) error

	SetOrientation(mode int) error
	Orientation() (int, error)

	Close() error
}

// ValidOrientation reports whether mode is one of the four public modes.
func ValidOrientation(mode int) bool {
	return mode >= OrientationPortrait && mode <= OrientationLandscapeInverted
}
