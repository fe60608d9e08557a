// Package glyph rasterizes characters into packed 4bpp bitmaps for drawing
// text on the panel.
package glyph

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"inkview/pkg/bitmap"
	"inkview/pkg/proto"
)

// Glyph is a rendered character. Bitmap is nil for characters without ink,
// such as a space.
//
// Left and Top place the bitmap relative to the pen position on the
// baseline: Top is the distance from the baseline up to the first row.
type Glyph struct {
	Bitmap   *bitmap.Gray4
	Left     int
	Top      int
	Advance  int
	AdvanceX int
	AdvanceY int
}

// Release hands the bitmap back. Glyphs are owned by the caller.
func (g *Glyph) Release() {
	if g.Bitmap != nil {
		g.Bitmap.Release()
	}
}

type Face struct {
	face    font.Face
	kerning bool
}

// kernProbes are pairs any font with kerning adjusts. Neither the kern table
// nor GPOS lookups can be listed through font.Face, so HasKerning is decided
// by trying them.
var kernProbes = []string{
	"AV", "AW", "AY", "Av", "Aw", "Ay", "AT",
	"FA", "Fa", "Fo", "LT", "LV", "LW", "LY",
	"PA", "Pa", "Po", "TA", "Ta", "Te", "To", "Tr", "Ty",
	"VA", "Va", "Ve", "Vo", "WA", "Wa", "We", "Wo",
	"YA", "Ya", "Ye", "Yo", "ov", "oy", "r.", "y.",
}

func newFace(face font.Face) *Face {
	f := &Face{face: face}
	for _, pair := range kernProbes {
		rs := []rune(pair)
		if face.Kern(rs[0], rs[1]) != 0 {
			f.kerning = true
			break
		}
	}
	return f
}

// NewFace parses a TrueType or OpenType font and sizes it in pixels.
func NewFace(data []byte, size float64) (*Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, proto.BackendError("font", errors.Wrap(err, "parse"))
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, proto.BackendError("font", errors.Wrap(err, "new face"))
	}

	return newFace(face), nil
}

// NewFaceFrom wraps an existing face, such as one of basicfont's.
func NewFaceFrom(face font.Face) *Face {
	return newFace(face)
}

// Render rasterizes r. The coverage samples are packed as is: full coverage
// becomes ink level 15.
func (f *Face) Render(r rune) (*Glyph, error) {
	dr, mask, maskp, advance, ok := f.face.Glyph(fixed.Point26_6{}, r)
	if !ok {
		return nil, proto.RangeError("glyph", "no glyph for %q", r)
	}

	g := &Glyph{
		Left:     dr.Min.X,
		Top:      -dr.Min.Y,
		Advance:  advance.Round(),
		AdvanceX: advance.Round(),
	}
	if dr.Empty() {
		return g, nil
	}

	w, h := dr.Dx(), dr.Dy()
	samples := coverage(mask, maskp, w, h)
	bmp, err := bitmap.FromSamples(samples, w, w, h)
	if err != nil {
		return nil, proto.ResourceError("glyph", err)
	}

	g.Bitmap = bmp
	return g, nil
}

func coverage(mask image.Image, mp image.Point, w, h int) []byte {
	samples := make([]byte, w*h)
	if a, ok := mask.(*image.Alpha); ok {
		for y := 0; y < h; y++ {
			copy(samples[y*w:(y+1)*w], a.Pix[a.PixOffset(mp.X, mp.Y+y):])
		}
		return samples
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			samples[y*w+x] = color.AlphaModel.Convert(mask.At(mp.X+x, mp.Y+y)).(color.Alpha).A
		}
	}
	return samples
}

// HasKerning reports whether the font kerns common letter pairs at this
// size.
func (f *Face) HasKerning() bool {
	return f.kerning
}

// Kerning is the adjustment in pixels between left and right.
func (f *Face) Kerning(left, right rune) int {
	return f.face.Kern(left, right).Round()
}

// HeightAndAscender returns the line height and the ascent in pixels.
func (f *Face) HeightAndAscender() (int, int) {
	m := f.face.Metrics()
	return m.Height.Round(), m.Ascent.Round()
}

func (f *Face) Close() error {
	return f.face.Close()
}
