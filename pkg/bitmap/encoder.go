package bitmap

import (
	"image"
	"image/draw"
)

// Encode converts any image into a new owning Gray4 whose origin is the
// source's Min point.
func Encode(src image.Image) (*Gray4, error) {
	b := src.Bounds()
	d, err := Allocate(b.Dx(), b.Dy(), 0)
	if err != nil {
		return nil, err
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			d.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}

	return d, nil
}

// DrawInto copies src (starting at sp) into the r area of dst, clipped to
// dst. It returns the rectangle actually written.
func DrawInto(dst *Gray4, r image.Rectangle, src image.Image, sp image.Point) image.Rectangle {
	clipped := r.Intersect(dst.Bounds())
	if clipped.Empty() {
		return image.Rectangle{}
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))

	if g, ok := src.(*Gray4); ok {
		for y := 0; y < clipped.Dy(); y++ {
			for x := 0; x < clipped.Dx(); x++ {
				dst.SetInk(clipped.Min.X+x, clipped.Min.Y+y, g.InkAt(sp.X+x, sp.Y+y))
			}
		}
		return clipped
	}

	draw.Draw(dst, clipped, src, sp, draw.Src)
	return clipped
}

// DrawOver composites src onto dst with its origin at pt, keeping the darker
// ink of each pair. It returns the rectangle of dst covered.
func DrawOver(dst *Gray4, pt image.Point, src *Gray4) image.Rectangle {
	r := src.Bounds().Add(pt).Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c := src.InkAt(x-pt.X, y-pt.Y); c > dst.InkAt(x, y) {
				dst.SetInk(x, y, c)
			}
		}
	}
	return r
}
