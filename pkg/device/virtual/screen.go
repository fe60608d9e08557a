// Package virtual emulates an e-ink panel in memory. Every refresh is
// written out as a PNG snapshot, which makes it the backend for desktop
// development and batch rendering.
package virtual

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/display"

	"inkview/pkg/bitmap"
	"inkview/pkg/proto"
)

var (
	_ proto.Screen   = (*Screen)(nil)
	_ display.Drawer = (*Screen)(nil)
)

type Options struct {
	// Width and Height are the portrait resolution.
	Width  int
	Height int
	// Dir receives the snapshots. Empty disables them.
	Dir string
}

type Screen struct {
	fs     afero.Fs
	opts   Options
	logger *zap.Logger

	mode      int
	buf       *bitmap.Gray4
	snapshots []string
}

func New(fs afero.Fs, opts Options, logger *zap.Logger) (*Screen, error) {
	s := &Screen{fs: fs, opts: opts, logger: logger}
	if opts.Dir != "" {
		if err := fs.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, proto.ResourceError("open", errors.Wrap(err, opts.Dir))
		}
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// open allocates a zeroed buffer sized for the current orientation.
func (s *Screen) open() error {
	w, h := s.opts.Width, s.opts.Height
	if s.mode == proto.OrientationLandscape || s.mode == proto.OrientationLandscapeInverted {
		w, h = h, w
	}
	if w <= 0 || h <= 0 {
		return proto.ConfigurationError("open", "invalid resolution %dx%d", w, h)
	}

	buf, err := bitmap.Allocate(w, h, 0)
	if err != nil {
		return proto.ResourceError("open", err)
	}
	s.buf = buf

	s.logger.With(zap.Int("width", w), zap.Int("height", h), zap.Int("mode", s.mode)).Info("open-virtual")
	return nil
}

// Reopen closes the screen and opens it again, picking up the orientation
// set since the last open.
func (s *Screen) Reopen() error {
	if err := s.Close(); err != nil {
		return err
	}
	return s.open()
}

func (s *Screen) closed() bool {
	return s.buf == nil || s.buf.Released()
}

func (s *Screen) Size() (int, int) {
	if s.closed() {
		return 0, 0
	}
	return s.buf.Width, s.buf.Height
}

func (s *Screen) Buffer() *bitmap.Gray4 {
	if s.closed() {
		return nil
	}
	return s.buf
}

// Refresh snapshots rect. A full refresh is logged as a flash first, the way
// a panel blanks before redrawing.
func (s *Screen) Refresh(rect image.Rectangle, partial bool) error {
	if s.closed() {
		return proto.ResourceError("refresh", errors.New("screen closed"))
	}

	r := s.buf.Bounds()
	if !rect.Empty() {
		if r = rect.Intersect(r); r.Empty() {
			return proto.RangeError("refresh", "rect %v outside screen %v", rect, s.buf.Bounds())
		}
	}

	log := s.logger.With(zap.Stringer("rect", r), zap.Bool("partial", partial))
	if !partial {
		log.Debug("flash")
	}

	if s.opts.Dir == "" {
		log.Debug("refresh")
		return nil
	}

	name := filepath.Join(s.opts.Dir, xid.New().String()+".png")
	if err := s.snapshot(name, r); err != nil {
		return proto.ResourceError("refresh", err)
	}
	s.snapshots = append(s.snapshots, name)

	log.With(zap.String("snapshot", name)).Debug("refresh")
	return nil
}

func (s *Screen) snapshot(name string, r image.Rectangle) error {
	f, err := s.fs.Create(name)
	if err != nil {
		return errors.Wrap(err, name)
	}
	defer f.Close()

	if err := imaging.Encode(f, s.Image(r), imaging.PNG); err != nil {
		return errors.Wrap(err, name)
	}
	return f.Close()
}

// Image renders r of the buffer as 8 bits gray with ink 0 as white. The
// result's origin is r.Min.
func (s *Screen) Image(r image.Rectangle) *image.Gray {
	img := image.NewGray(r)
	if s.closed() {
		return img
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255 - uint8(s.buf.InkAt(x, y))<<4})
		}
	}
	return img
}

// Snapshots lists the files written so far, oldest first.
func (s *Screen) Snapshots() []string {
	return s.snapshots
}

// SetOrientation records mode; like real panels the geometry only changes
// on Reopen.
func (s *Screen) SetOrientation(mode int) error {
	if !proto.ValidOrientation(mode) {
		return proto.RangeError("set-orientation", "wrong rotation mode %d", mode)
	}
	s.logger.With(zap.Int("mode", mode)).Debug("set-orientation")
	s.mode = mode
	return nil
}

func (s *Screen) Orientation() (int, error) {
	return s.mode, nil
}

func (s *Screen) Close() error {
	if s.closed() {
		return nil
	}
	s.buf.Release()
	s.logger.Info("close-virtual")
	return nil
}

func (s *Screen) String() string {
	w, h := s.Size()
	return fmt.Sprintf("virtual.Screen{%dx%d}", w, h)
}

func (s *Screen) Halt() error {
	return nil
}

func (s *Screen) ColorModel() color.Model {
	return bitmap.Ink4Model
}

func (s *Screen) Bounds() image.Rectangle {
	w, h := s.Size()
	return image.Rect(0, 0, w, h)
}

func (s *Screen) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if s.closed() {
		return proto.ResourceError("draw", errors.New("screen closed"))
	}
	drawn := bitmap.DrawInto(s.buf, r, src, sp)
	if drawn.Empty() {
		return nil
	}
	return s.Refresh(drawn, true)
}
