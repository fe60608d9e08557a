package imagedoc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"inkview/pkg/proto"
	"inkview/pkg/render"
)

// Page is one decoded image. It keeps the last transformed copy so that
// scrolling at a fixed zoom does not resample.
type Page struct {
	native *image.NRGBA
	logger *zap.Logger

	key      prepareKey
	prepared *image.NRGBA
}

type prepareKey struct {
	zoom     float64
	rotation render.Rotation
	gamma    float64
}

// newPage flattens img onto white paper and drops it to grayscale.
func newPage(img image.Image, logger *zap.Logger) *Page {
	b := img.Bounds()
	paper := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(paper, img, image.Pt(0, 0), 1.0)
	return &Page{native: imaging.Grayscale(flat), logger: logger}
}

// NativeSize is the page size at zoom 1 without rotation.
func (p *Page) NativeSize() (int, int) {
	b := p.native.Bounds()
	return b.Dx(), b.Dy()
}

func (p *Page) Size(params render.Params) (int, int) {
	return params.Scaled(p.NativeSize())
}

// Render fills dst from the page transformed by params. Samples outside the
// page are left as they are.
func (p *Page) Render(dst *image.Gray, params render.Params) error {
	if p.native == nil {
		return proto.RangeError("render", "page is closed")
	}

	src := p.prepare(params)
	r := dst.Rect.Intersect(src.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		in := src.Pix[src.PixOffset(r.Min.X, y):]
		out := dst.Pix[dst.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			out[x] = in[4*x]
		}
	}
	return nil
}

func (p *Page) prepare(params render.Params) *image.NRGBA {
	key := prepareKey{zoom: params.Zoom(), rotation: params.Rotation(), gamma: params.Gamma()}
	if p.prepared != nil && p.key == key {
		return p.prepared
	}

	img := p.native
	if key.zoom != 1 {
		w, h := p.NativeSize()
		img = imaging.Resize(img, int(float64(w)*key.zoom), int(float64(h)*key.zoom), imaging.Lanczos)
	}

	// imaging rotates counter-clockwise
	switch key.rotation {
	case render.Rotate90:
		img = imaging.Rotate270(img)
	case render.Rotate180:
		img = imaging.Rotate180(img)
	case render.Rotate270:
		img = imaging.Rotate90(img)
	}

	// gamma 0 would divide by zero inside imaging
	if params.GammaEnabled() && key.gamma > 0 {
		img = imaging.AdjustGamma(img, key.gamma)
	}

	p.logger.With(
		zap.Float64("zoom", key.zoom),
		zap.Int("rotation", int(key.rotation)),
		zap.Float64("gamma", key.gamma),
		zap.Stringer("bounds", img.Bounds()),
	).Debug("prepare-page")

	p.key = key
	p.prepared = img
	return img
}

// UsedBBox returns the bounds of everything darker than what packs to paper
// white, in native page coordinates. A blank page has an empty box.
func (p *Page) UsedBBox() image.Rectangle {
	if p.native == nil {
		return image.Rectangle{}
	}

	var box image.Rectangle
	b := p.native.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := p.native.Pix[p.native.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[4*x]>>4 == 0xF {
				continue
			}
			box = box.Union(image.Rect(b.Min.X+x, y, b.Min.X+x+1, y+1))
		}
	}
	return box
}

// Close drops the decoded and transformed images. It is safe to call twice.
func (p *Page) Close() error {
	p.native = nil
	p.prepared = nil
	return nil
}
