package viewer

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/display"

	"inkview/pkg/proto"
)

// Splash shrinks img to fit the drawer, centers it on white paper and draws
// it over the whole display.
func Splash(d display.Drawer, img image.Image) error {
	b := d.Bounds()
	if b.Empty() {
		return proto.ResourceError("splash", errors.Errorf("%s has no area", d))
	}

	fitted := imaging.Fit(img, b.Dx(), b.Dy(), imaging.Lanczos)
	canvas := imaging.PasteCenter(imaging.New(b.Dx(), b.Dy(), color.White), fitted)
	return d.Draw(b, canvas, image.Point{})
}
