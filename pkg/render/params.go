package render

import (
	"fmt"

	"inkview/pkg/proto"
)

// Rotation is a quarter turn, clockwise, in degrees.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// ParseRotation accepts any multiple of 90, negative values included.
func ParseRotation(deg int) (Rotation, error) {
	if deg%90 != 0 {
		return 0, proto.RangeError("rotation", "%d is not a quarter turn", deg)
	}
	return Rotation(((deg % 360) + 360) % 360), nil
}

func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// Swapped reports whether the rotation exchanges width and height.
func (r Rotation) Swapped() bool {
	return r == Rotate90 || r == Rotate270
}

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

const (
	DefaultZoom = 1.0
	// NoGamma disables gamma correction. Any negative gamma does.
	NoGamma = -1.0
)

// Params is the per call bundle of rotation, zoom, gamma and offset.
//
// Offsets follow the reader's convention: a negative offset scrolls the page
// so that content further right/down becomes visible at the destination
// origin, a positive offset leaves the destination's top-left edge untouched
// and starts drawing the page k pixels in.
type Params struct {
	rotation Rotation
	zoom     float64
	gamma    float64
	offsetX  int
	offsetY  int
}

func NewParams() Params {
	return Params{zoom: DefaultZoom, gamma: NoGamma}
}

func (p Params) Rotation() Rotation { return p.rotation }
func (p Params) Zoom() float64      { return p.zoom }
func (p Params) Gamma() float64     { return p.gamma }
func (p Params) OffsetX() int       { return p.offsetX }
func (p Params) OffsetY() int       { return p.offsetY }

// GammaEnabled reports whether the sample source must apply gamma.
func (p Params) GammaEnabled() bool { return p.gamma >= 0 }

func (p *Params) SetRotation(r Rotation) error {
	if !r.Valid() {
		return proto.RangeError("rotation", "%d is not a quarter turn", int(r))
	}
	p.rotation = r
	return nil
}

func (p *Params) SetZoom(zoom float64) error {
	if !(zoom > 0) {
		return proto.RangeError("zoom", "zoom must be positive, got %v", zoom)
	}
	p.zoom = zoom
	return nil
}

func (p *Params) SetGamma(gamma float64) {
	p.gamma = gamma
}

func (p *Params) SetOffset(x, y int) {
	p.offsetX = x
	p.offsetY = y
}

// Scaled returns the size of a native w x h page after zoom and rotation.
func (p Params) Scaled(w, h int) (int, int) {
	sw := int(float64(w) * p.zoom)
	sh := int(float64(h) * p.zoom)
	if p.rotation.Swapped() {
		return sh, sw
	}
	return sw, sh
}
