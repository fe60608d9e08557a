package render

import (
	"image"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"inkview/pkg/bitmap"
	"inkview/pkg/proto"
)

// Blitter draws pages into packed buffers through an 8 bits scratch area.
type Blitter struct {
	alloc  bitmap.Allocator
	logger *zap.Logger
}

// NewBlitter takes scratch memory from alloc, or the heap when alloc is nil.
func NewBlitter(alloc bitmap.Allocator, logger *zap.Logger) *Blitter {
	return &Blitter{alloc: alloc, logger: logger}
}

// Visible returns the part of the transformed page that lands in a
// dstW x dstH destination, in page coordinates. An empty rectangle means
// nothing is drawn.
func Visible(pageW, pageH, dstW, dstH int, p Params) image.Rectangle {
	x := lo.Max([]int{-p.offsetX, 0})
	y := lo.Max([]int{-p.offsetY, 0})
	w := lo.Min([]int{pageW - x, dstW})
	h := lo.Min([]int{pageH - y, dstH})
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(x, y, x+w, y+h)
}

// Blit renders the visible part of page into dst, inverting polarity while
// dropping to 4 bits. Destination pixels left of (or above) a positive
// offset are not touched; those right of or below the page become paper.
// Nothing is drawn when no part of the page is visible.
func (b *Blitter) Blit(page Page, p Params, dst *bitmap.Gray4) error {
	return b.blit("blit", page, p, dst, false)
}

// Paint is Blit for a whole screen: everything outside the page, including
// the margins a positive offset leaves, becomes paper. dst is only written
// once the page has rendered, so a failing page leaves it as it was.
func (b *Blitter) Paint(page Page, p Params, dst *bitmap.Gray4) error {
	return b.blit("paint", page, p, dst, true)
}

func (b *Blitter) blit(op string, page Page, p Params, dst *bitmap.Gray4, whole bool) error {
	if dst == nil || dst.Released() {
		return proto.RangeError(op, "destination buffer released")
	}

	fullW, fullH := page.Size(p)
	visible := Visible(fullW, fullH, dst.Width, dst.Height, p)
	log := b.logger.With(
		zap.String("op", op),
		zap.Int("page-w", fullW),
		zap.Int("page-h", fullH),
		zap.Int("offset-x", p.offsetX),
		zap.Int("offset-y", p.offsetY),
	)
	if visible.Empty() {
		if whole {
			dst.Fill(0)
		}
		log.Debug("blit-nothing-visible")
		return nil
	}

	scratch, err := b.scratch(visible)
	if err != nil {
		return err
	}
	defer b.release(scratch)

	if err := page.Render(scratch, p); err != nil {
		return proto.BackendError(op, err)
	}

	xo, yo := lo.Max([]int{p.offsetX, 0}), lo.Max([]int{p.offsetY, 0})
	pack(dst, scratch, xo, yo)

	drawn := image.Rect(xo, yo, xo+visible.Dx(), yo+visible.Dy()).Intersect(dst.Bounds())
	area := image.Rectangle{Min: image.Pt(xo, yo), Max: image.Pt(dst.Width, dst.Height)}
	if whole {
		area = dst.Bounds()
	}
	paper(dst, area, drawn)

	log.With(zap.Stringer("visible", visible)).Debug("blit")
	return nil
}

// paper sets every pixel of area outside keep to ink 0.
func paper(dst *bitmap.Gray4, area, keep image.Rectangle) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if !image.Pt(x, y).In(keep) {
				dst.SetInk(x, y, 0)
			}
		}
	}
}

// scratch returns a white 8 bits image covering r with a stride of r.Dx().
func (b *Blitter) scratch(r image.Rectangle) (*image.Gray, error) {
	n := r.Dx() * r.Dy()

	var pix []byte
	if b.alloc != nil {
		var err error
		if pix, err = b.alloc.Alloc(n); err != nil {
			if proto.KindOf(err) == 0 {
				err = proto.ResourceError("blit", err)
			}
			return nil, err
		}
	} else {
		pix = make([]byte, n)
	}
	for i := range pix {
		pix[i] = 0xFF
	}

	return &image.Gray{Pix: pix, Stride: r.Dx(), Rect: r}, nil
}

func (b *Blitter) release(img *image.Gray) {
	if b.alloc != nil {
		b.alloc.Free(img.Pix)
	}
	img.Pix = nil
}

// pack writes src's samples into dst starting at destination (xo, yo).
// Sample column c-xo feeds destination column c; the result is the
// inverted top nibble of the sample.
func pack(dst *bitmap.Gray4, src *image.Gray, xo, yo int) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	last := dst.Width - 1

	for y := yo; y < dst.Height && y-yo < h; y++ {
		row := src.Pix[(y-yo)*src.Stride:]
		out := dst.Pix[y*dst.Pitch:]

		for x := xo / 2; 2*x <= last; x++ {
			even, odd := 2*x-xo, 2*x+1-xo
			if even >= w {
				break
			}

			switch {
			case even < 0:
				// odd xo: the high nibble belongs to the untouched margin
				if 2*x < last {
					out[x] = out[x]&0xF0 | ^row[odd]>>4
				}
			case 2*x == last:
				out[x] = ^row[even] & 0xF0
			case odd < w:
				out[x] = bitmap.PackInverted(row[even], row[odd])
			default:
				out[x] = out[x]&0x0F | ^row[even]&0xF0
			}
		}
	}
}
