// Package viewer puts document pages and text on a screen.
package viewer

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"inkview/pkg/bitmap"
	"inkview/pkg/glyph"
	"inkview/pkg/memstat"
	"inkview/pkg/proto"
	"inkview/pkg/render"
)

// Refresher pushes a rectangle of the screen buffer to the panel.
type Refresher interface {
	Refresh(rect image.Rectangle, partial bool) error
}

type Viewer struct {
	screen  proto.Screen
	refresh Refresher
	doc     render.Document
	blitter *render.Blitter
	stats   *memstat.Collector
	logger  *zap.Logger

	params  render.Params
	current int
	history *History
}

// New builds a viewer. stats may be nil; when set, a memory report is
// logged after every page.
func New(screen proto.Screen, doc render.Document, blitter *render.Blitter, stats *memstat.Collector, logger *zap.Logger) *Viewer {
	return &Viewer{
		screen:  screen,
		refresh: screen,
		doc:     doc,
		blitter: blitter,
		stats:   stats,
		logger:  logger,
		params:  render.NewParams(),
		history: NewHistory(historySize),
	}
}

// SetRefresher routes page refreshes through r, e.g. a mixer.Drawer.
// Text refreshes always go straight to the screen.
func (v *Viewer) SetRefresher(r Refresher) {
	if r == nil {
		r = v.screen
	}
	v.refresh = r
}

func (v *Viewer) Params() render.Params {
	return v.params
}

func (v *Viewer) SetParams(p render.Params) {
	v.params = p
}

// Current is the page on screen, 0 before the first Show.
func (v *Viewer) Current() int {
	return v.current
}

// Show draws page n over the whole screen and refreshes the panel. When the
// page fails to open or render the screen buffer is left as it was.
func (v *Viewer) Show(n int) error {
	if err := v.draw(n); err != nil {
		return err
	}
	if err := v.refresh.Refresh(image.Rectangle{}, false); err != nil {
		return err
	}

	v.current = n
	v.history.Push(Visit{Page: n, Params: v.params})
	if v.stats != nil {
		v.stats.Report()
	}
	return nil
}

func (v *Viewer) draw(n int) error {
	buf := v.screen.Buffer()
	if buf == nil {
		return proto.ResourceError("show", errors.New("screen closed"))
	}

	page, err := v.doc.OpenPage(n)
	if err != nil {
		return err
	}
	if c, ok := page.(render.Closer); ok {
		defer c.Close()
	}

	if err := v.blitter.Paint(page, v.params, buf); err != nil {
		return err
	}

	v.logger.With(zap.Int("page", n), zap.Int("pages", v.doc.Pages())).Debug("show")
	return nil
}

func (v *Viewer) Next() error {
	return v.Show(v.current + 1)
}

func (v *Viewer) Prev() error {
	return v.Show(v.current - 1)
}

// Back shows the previously shown page again with the parameters it had.
func (v *Viewer) Back() error {
	prev, ok := v.history.Pop()
	if !ok {
		return proto.RangeError("back", "no previous page")
	}
	params := v.params
	v.params = prev.Params
	if err := v.Show(prev.Page); err != nil {
		v.params = params
		v.history.Push(prev)
		return err
	}
	return nil
}

func (v *Viewer) History() *History {
	return v.history
}

// FitWidth sets the zoom so that page n spans the screen width.
func (v *Viewer) FitWidth(n int) error {
	page, err := v.doc.OpenPage(n)
	if err != nil {
		return err
	}
	if c, ok := page.(render.Closer); ok {
		defer c.Close()
	}

	p := render.NewParams()
	if err := p.SetRotation(v.params.Rotation()); err != nil {
		return err
	}
	pw, _ := page.Size(p)
	sw, _ := v.screen.Size()
	if pw <= 0 {
		return proto.RangeError("fit-width", "page %d has no width", n)
	}

	zoom := float64(sw) / float64(pw)
	if err := v.params.SetZoom(zoom); err != nil {
		return err
	}
	v.logger.With(zap.Int("page", n), zap.Float64("zoom", zoom)).Debug("fit-width")
	return nil
}

// Bounder is a page that knows where its content is, in native page
// coordinates.
type Bounder interface {
	UsedBBox() image.Rectangle
}

// FitContent zooms page n so that its content spans the screen width and
// scrolls the content's top-left corner to the screen origin. Pages that
// cannot report their content, or are blank, fall back to FitWidth.
func (v *Viewer) FitContent(n int) error {
	page, err := v.doc.OpenPage(n)
	if err != nil {
		return err
	}
	if c, ok := page.(render.Closer); ok {
		defer c.Close()
	}

	b, ok := page.(Bounder)
	if !ok {
		return v.FitWidth(n)
	}
	native := render.NewParams()
	w, h := page.Size(native)
	box := rotateBox(b.UsedBBox(), w, h, v.params.Rotation())
	if box.Empty() {
		return v.FitWidth(n)
	}

	sw, _ := v.screen.Size()
	zoom := float64(sw) / float64(box.Dx())
	if err := v.params.SetZoom(zoom); err != nil {
		return err
	}
	v.params.SetOffset(-int(math.Round(float64(box.Min.X)*zoom)), -int(math.Round(float64(box.Min.Y)*zoom)))

	v.logger.With(
		zap.Int("page", n),
		zap.Stringer("content", box),
		zap.Float64("zoom", zoom),
	).Debug("fit-content")
	return nil
}

// rotateBox maps r on a w x h page into the page turned clockwise by rot.
func rotateBox(r image.Rectangle, w, h int, rot render.Rotation) image.Rectangle {
	switch rot {
	case render.Rotate90:
		return image.Rect(h-r.Max.Y, r.Min.X, h-r.Min.Y, r.Max.X)
	case render.Rotate180:
		return image.Rect(w-r.Max.X, h-r.Max.Y, w-r.Min.X, h-r.Min.Y)
	case render.Rotate270:
		return image.Rect(r.Min.Y, w-r.Max.X, r.Max.Y, w-r.Min.X)
	}
	return r
}

// DrawText draws text with its baseline starting at (x, y) and refreshes
// the touched area. It returns the pen position after the last character.
func (v *Viewer) DrawText(face *glyph.Face, text string, x, y int) (int, error) {
	buf := v.screen.Buffer()
	if buf == nil {
		return x, proto.ResourceError("draw-text", errors.New("screen closed"))
	}

	var (
		dirty image.Rectangle
		prev  rune = -1
	)
	kerning := face.HasKerning()
	for _, r := range text {
		if kerning && prev >= 0 {
			x += face.Kerning(prev, r)
		}
		prev = r

		g, err := face.Render(r)
		if err != nil {
			return x, err
		}
		if g.Bitmap != nil {
			drawn := bitmap.DrawOver(buf, image.Pt(x+g.Left, y-g.Top), g.Bitmap)
			dirty = dirty.Union(drawn)
			g.Release()
		}
		x += g.Advance
	}

	if dirty.Empty() {
		return x, nil
	}
	return x, v.screen.Refresh(dirty, true)
}
