package remote

import (
	"image"
)

type EmptyRequest struct {
}

type EmptyResponse struct {
}

type SizeResponse struct {
	Width  int
	Height int
}

// RefreshRequest carries the packed bytes covering Rect. Rows[i] holds row
// Rect.Min.Y+i starting at byte Rect.Min.X/2.
type RefreshRequest struct {
	Rect    image.Rectangle
	Partial bool
	Rows    [][]byte
}

type OrientationResponse struct {
	Mode int
}

// rowSpan returns the byte range of a row covered by columns [x0, x1).
func rowSpan(x0, x1 int) (int, int) {
	return x0 / 2, (x1 + 1) / 2
}
