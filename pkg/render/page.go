// Package render copies rasterized document pages into packed 4bpp buffers.
package render

import (
	"image"
)

// Page is a decoded page able to rasterize any region of itself at full 8
// bits depth.
//
// Size returns the page size once zoom and rotation are applied. Render fills
// dst, whose Rect is a region in that transformed space, with samples where
// 0xFF is white. Rotation and gamma are applied by the page, never by the
// caller.
type Page interface {
	Size(p Params) (width, height int)
	Render(dst *image.Gray, p Params) error
}

// Document is a source of pages numbered from 1.
type Document interface {
	Pages() int
	OpenPage(n int) (Page, error)
	Close() error
}

// Closer is implemented by pages holding backend resources.
type Closer interface {
	Close() error
}
