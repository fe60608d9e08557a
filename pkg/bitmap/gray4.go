package bitmap

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// maxBufferBytes bounds a single buffer so size arithmetic never overflows.
const maxBufferBytes = 1 << 30

// Allocator hands out and takes back owning buffer storage. A nil Allocator
// means plain make.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(p []byte)
}

// MinPitch is the smallest row length in bytes that holds width 4bpp pixels.
func MinPitch(width int) int {
	return (width + 1) / 2
}

// Gray4 is a packed 4 bits per pixel buffer. It implements draw.Image.
//
// Each byte holds two pixels of one row: the high nibble is the even column,
// the low nibble the odd column. Pitch may exceed MinPitch(Width) for
// hardware alignment.
//
// An owning Gray4 (Allocate) owns Pix and gives it back on Release. A
// non-owning one (Wrap) aliases memory whose lifetime belongs to someone else,
// typically a memory-mapped framebuffer, and never frees it.
type Gray4 struct {
	Pix    []byte
	Pitch  int
	Width  int
	Height int

	owned bool
	alloc Allocator
}

// Allocate returns a zeroed owning buffer. A zero pitch selects
// MinPitch(width).
func Allocate(width, height, pitch int) (*Gray4, error) {
	return AllocateFrom(nil, width, height, pitch)
}

// AllocateFrom is Allocate with storage taken from alloc.
func AllocateFrom(alloc Allocator, width, height, pitch int) (*Gray4, error) {
	pitch, err := checkGeometry(width, height, pitch)
	if err != nil {
		return nil, err
	}

	n := pitch * height
	var pix []byte
	if alloc != nil {
		if pix, err = alloc.Alloc(n); err != nil {
			return nil, errors.Wrapf(err, "bitmap: allocate %dx%d", width, height)
		}
		clear(pix)
	} else {
		pix = make([]byte, n)
	}

	return &Gray4{
		Pix:    pix,
		Pitch:  pitch,
		Width:  width,
		Height: height,
		owned:  true,
		alloc:  alloc,
	}, nil
}

// Wrap describes existing memory as a non-owning buffer.
func Wrap(mem []byte, width, height, pitch int) (*Gray4, error) {
	pitch, err := checkGeometry(width, height, pitch)
	if err != nil {
		return nil, err
	}
	if len(mem) < pitch*height {
		return nil, errors.Errorf("bitmap: %d bytes cannot hold %d rows of pitch %d", len(mem), height, pitch)
	}

	return &Gray4{
		Pix:    mem[:pitch*height],
		Pitch:  pitch,
		Width:  width,
		Height: height,
	}, nil
}

func checkGeometry(width, height, pitch int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, errors.Errorf("bitmap: invalid size %dx%d", width, height)
	}
	if pitch == 0 {
		pitch = MinPitch(width)
	}
	if pitch < MinPitch(width) {
		return 0, errors.Errorf("bitmap: pitch %d too small for width %d", pitch, width)
	}
	if height > maxBufferBytes/pitch {
		return 0, errors.Errorf("bitmap: %dx%d buffer too large", width, height)
	}
	return pitch, nil
}

// Owned reports whether the buffer owns its storage.
func (b *Gray4) Owned() bool {
	return b.owned
}

// Released reports whether Release has been called.
func (b *Gray4) Released() bool {
	return b.Pix == nil
}

// Release drops the storage. Owning buffers hand it back to their allocator;
// non-owning buffers only forget the alias. Calling Release twice is a no-op.
func (b *Gray4) Release() {
	if b.Pix == nil {
		return
	}
	if b.owned && b.alloc != nil {
		b.alloc.Free(b.Pix)
	}
	b.Pix = nil
}

// Bounds implements the image.Image (and draw.Image) interface.
func (b *Gray4) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// ColorModel implements the image.Image (and draw.Image) interface.
func (b *Gray4) ColorModel() color.Model {
	return Ink4Model
}

// At implements the image.Image (and draw.Image) interface.
func (b *Gray4) At(x, y int) color.Color {
	return b.InkAt(x, y)
}

// Set implements the draw.Image interface.
func (b *Gray4) Set(x, y int, c color.Color) {
	b.SetInk(x, y, Ink4Model.Convert(c).(Ink4))
}

// InkAt returns the nibble at (x, y); out of range reads are paper white.
func (b *Gray4) InkAt(x, y int) Ink4 {
	if !b.in(x, y) {
		return 0
	}
	i, shift := b.PixOffset(x, y)
	return Ink4(b.Pix[i]>>shift) & 0xF
}

// SetInk stores the low 4 bits of c at (x, y). Out of range writes are
// dropped.
func (b *Gray4) SetInk(x, y int, c Ink4) {
	if !b.in(x, y) {
		return
	}
	i, shift := b.PixOffset(x, y)
	b.Pix[i] = b.Pix[i]&^(0xF<<shift) | byte(c&0xF)<<shift
}

// PixOffset returns the byte index and nibble shift of pixel (x, y).
func (b *Gray4) PixOffset(x, y int) (int, uint) {
	return y*b.Pitch + x/2, uint(4 * (1 - x&1))
}

// Row returns the packed bytes of row y, MinPitch(Width) long.
func (b *Gray4) Row(y int) []byte {
	off := y * b.Pitch
	return b.Pix[off : off+MinPitch(b.Width)]
}

// Fill sets every pixel, padding bytes included, to c.
func (b *Gray4) Fill(c Ink4) {
	v := PackPair(uint8(c), uint8(c))
	for i := range b.Pix {
		b.Pix[i] = v
	}
}

func (b *Gray4) in(x, y int) bool {
	return b.Pix != nil && x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Ink4 is a 4 bits ink level: 0 is paper white, 15 is full black. This is
// the polarity the panel consumes.
type Ink4 uint8

// RGBA implements the color.Color interface.
func (c Ink4) RGBA() (r, g, b, a uint32) {
	y := uint32(0xF-c&0xF) * 0x1111
	return y, y, y, 0xFFFF
}

// Ink4Model converts colors to Ink4 using luma, dropping to 4 bits and
// inverting.
var Ink4Model = color.ModelFunc(toInk4)

func toInk4(c color.Color) color.Color {
	if v, ok := c.(Ink4); ok {
		return v & 0xF
	}
	r, g, b, _ := c.RGBA()
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Ink4(0xF - uint8(y>>12))
}
