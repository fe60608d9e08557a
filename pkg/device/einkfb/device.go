// Package einkfb drives e-ink panels exposed as Linux framebuffer devices.
//
// Opening a device classifies the panel once from its driver identifier and
// binds the matching refresh routine. Callers draw into Buffer and then call
// Refresh for the changed rectangle. Changing the orientation invalidates
// the mapping: close and reopen the device afterwards.
//
// Only mxc panels take the mxcfb update structure. 8bpp eink_fb panels are
// converted like mxc ones but refreshed through the legacy update area
// call, the only one their driver accepts.
package einkfb

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/display"

	"inkview/pkg/bitmap"
	"inkview/pkg/convert"
	"inkview/pkg/proto"
)

var (
	_ proto.Screen   = (*Device)(nil)
	_ display.Drawer = (*Device)(nil)
)

type Device struct {
	fb     Framebuffer
	name   string
	logger *zap.Logger

	fix  FixScreenInfo
	info VarScreenInfo

	variant Variant
	update  func(r image.Rectangle, partial bool) error
	convert convert.Func

	mapped      []byte
	mappedPitch int
	buf         *bitmap.Gray4
	marker      uint32
}

// Open opens the framebuffer device node at path.
func Open(path string, logger *zap.Logger) (*Device, error) {
	fb, err := openFramebuffer(path)
	if err != nil {
		return nil, proto.ResourceError("open", err)
	}
	return OpenWith(fb, path, logger)
}

// OpenWith sets up a device over an already opened framebuffer. fb is
// closed when setup fails.
func OpenWith(fb Framebuffer, name string, logger *zap.Logger) (*Device, error) {
	d, err := setup(fb, name, logger)
	if err != nil {
		_ = fb.Close()
		return nil, err
	}
	return d, nil
}

func setup(fb Framebuffer, name string, logger *zap.Logger) (*Device, error) {
	fix, err := fb.FixScreenInfo()
	if err != nil {
		return nil, proto.ConfigurationError("open", "cannot get screen info: %v", err)
	}
	if fix.Type != typePackedPixels {
		return nil, proto.ConfigurationError("open", "video type %x not supported", fix.Type)
	}

	info, err := fb.VarScreenInfo()
	if err != nil {
		return nil, proto.ConfigurationError("open", "cannot get variable screen info: %v", err)
	}

	drv, err := lookup(fix.Name(), info.BitsPerPixel)
	if err != nil {
		return nil, err
	}
	if info.Grayscale == 0 {
		return nil, proto.ConfigurationError("open", "only grayscale is supported but %s says it isn't", fix.Name())
	}
	if int32(info.XRes) <= 0 || int32(info.YRes) <= 0 {
		return nil, proto.ConfigurationError("open", "invalid resolution %dx%d", int32(info.XRes), int32(info.YRes))
	}

	width, height := int(info.XRes), int(info.YRes)
	pitch := int(fix.LineLength)
	if pitch*height > int(fix.SMemLen) {
		return nil, proto.ConfigurationError("open", "%d bytes of video memory cannot hold %d lines of %d bytes", fix.SMemLen, height, pitch)
	}

	mapped, err := fb.Map(int(fix.SMemLen))
	if err != nil {
		return nil, proto.ResourceError("open", err)
	}

	var buf *bitmap.Gray4
	if drv.variant.Scaled() {
		// one byte per pixel in video memory, a nibble per pixel in the shadow
		buf, err = bitmap.Allocate(width, height, pitch/2)
	} else {
		buf, err = bitmap.Wrap(mapped, width, height, pitch)
		if err == nil {
			clear(buf.Pix)
		}
	}
	if err != nil {
		_ = fb.Unmap(mapped)
		return nil, proto.ConfigurationError("open", "%v", err)
	}

	d := &Device{
		fb:          fb,
		name:        name,
		fix:         fix,
		info:        info,
		variant:     drv.variant,
		convert:     drv.variant.converter(),
		mapped:      mapped,
		mappedPitch: pitch,
		buf:         buf,
	}
	switch drv.wire {
	case wireMxcfb:
		d.update = d.sendUpdate
	default:
		d.update = d.updateArea
	}

	d.logger = logger.With(zap.String("device", name), zap.String("id", fix.Name()))
	d.logger.With(
		zap.Stringer("variant", d.variant),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint32("bpp", info.BitsPerPixel),
		zap.Int("line-length", pitch),
		zap.Uint32("smem-len", fix.SMemLen),
	).Info("open-framebuffer")

	return d, nil
}

func (d *Device) Variant() Variant {
	return d.variant
}

// Size returns the resolution found at open time.
func (d *Device) Size() (int, int) {
	return int(d.info.XRes), int(d.info.YRes)
}

// Buffer is the 4bpp drawing surface: the shadow buffer on scaled panels,
// the mapped memory itself on direct ones. It is nil once closed.
func (d *Device) Buffer() *bitmap.Gray4 {
	if d.closed() {
		return nil
	}
	return d.buf
}

func (d *Device) closed() bool {
	return d.buf == nil || d.buf.Released()
}

// Refresh pushes rect to the panel. An empty rect refreshes the whole
// screen; any other rect is clipped to it.
func (d *Device) Refresh(rect image.Rectangle, partial bool) error {
	if d.closed() {
		return proto.ResourceError("refresh", errors.New("device closed"))
	}

	r, err := d.clip(rect)
	if err != nil {
		return err
	}

	if d.convert != nil {
		d.convert(d.mapped, d.mappedPitch, d.buf)
	}

	d.logger.With(zap.Stringer("rect", r), zap.Bool("partial", partial)).Debug("refresh")
	return d.update(r, partial)
}

func (d *Device) clip(rect image.Rectangle) (image.Rectangle, error) {
	bounds := d.buf.Bounds()
	if rect.Empty() {
		return bounds, nil
	}
	r := rect.Intersect(bounds)
	if r.Empty() {
		return r, proto.RangeError("refresh", "rect %v outside screen %v", rect, bounds)
	}
	return r, nil
}

func (d *Device) updateArea(r image.Rectangle, partial bool) error {
	area := &UpdateArea{
		X1:      int32(r.Min.X),
		Y1:      int32(r.Min.Y),
		X2:      int32(r.Max.X),
		Y2:      int32(r.Max.Y),
		WhichFX: fxUpdateFull,
	}
	if partial {
		area.WhichFX = fxUpdatePartial
	}
	return errors.Wrap(d.fb.UpdateArea(area), "refresh")
}

func (d *Device) sendUpdate(r image.Rectangle, partial bool) error {
	d.marker++
	data := &MxcfbUpdateData{
		UpdateRegion: MxcfbRect{
			Top:    uint32(r.Min.Y),
			Left:   uint32(r.Min.X),
			Width:  uint32(r.Dx()),
			Height: uint32(r.Dy()),
		},
		WaveformMode: mxcfbWaveformMode,
		UpdateMode:   mxcfbUpdateFull,
		UpdateMarker: d.marker,
		Temp:         mxcfbTemp,
	}
	if partial {
		data.UpdateMode = mxcfbUpdatePartial
	}
	return errors.Wrap(d.fb.SendUpdate(data), "refresh")
}

// SetOrientation rotates the panel. The buffer keeps its old geometry until
// the device is closed and opened again.
func (d *Device) SetOrientation(mode int) error {
	if !proto.ValidOrientation(mode) {
		return proto.RangeError("set-orientation", "wrong rotation mode %d", mode)
	}
	if d.closed() {
		return proto.ResourceError("set-orientation", errors.New("device closed"))
	}

	d.logger.With(zap.Int("mode", mode), zap.Int("driver-mode", toDriver(mode))).Debug("set-orientation")
	return errors.Wrap(d.fb.SetOrientation(uint32(toDriver(mode))), "set-orientation")
}

func (d *Device) Orientation() (int, error) {
	if d.closed() {
		return 0, proto.ResourceError("orientation", errors.New("device closed"))
	}

	mode, err := d.fb.Orientation()
	if err != nil {
		return 0, errors.Wrap(err, "orientation")
	}
	return fromDriver(int(mode)), nil
}

// Close unmaps video memory, drops the shadow buffer and closes the
// descriptor. Calling it again is a no-op.
func (d *Device) Close() error {
	if d.closed() {
		return nil
	}

	d.buf.Release()
	err := multierr.Combine(d.fb.Unmap(d.mapped), d.fb.Close())
	d.mapped = nil

	d.logger.Info("close-framebuffer")
	return err
}

func (d *Device) String() string {
	return fmt.Sprintf("einkfb.Device{%s, %s, %dx%d}", d.name, d.variant, d.info.XRes, d.info.YRes)
}

// Halt does nothing: the panel keeps its image without power.
func (d *Device) Halt() error {
	return nil
}

func (d *Device) ColorModel() color.Model {
	return bitmap.Ink4Model
}

func (d *Device) Bounds() image.Rectangle {
	w, h := d.Size()
	return image.Rect(0, 0, w, h)
}

// Draw converts src into the buffer and refreshes the drawn area with a
// partial update.
func (d *Device) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.closed() {
		return proto.ResourceError("draw", errors.New("device closed"))
	}
	drawn := bitmap.DrawInto(d.buf, r, src, sp)
	if drawn.Empty() {
		return nil
	}
	return d.Refresh(drawn, true)
}
