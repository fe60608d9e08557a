package einkfb

import (
	"bytes"
	"unsafe"
)

// Framebuffer ioctl requests.
const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602

	fbioEinkUpdateDisplayArea     = 0x46dd
	fbioEinkSetDisplayOrientation = 0x46f0
	fbioEinkGetDisplayOrientation = 0x46f1
)

// mxcfbSendUpdate is _IOW('F', 0x2E, struct mxcfb_update_data).
var mxcfbSendUpdate = iow('F', 0x2E, unsafe.Sizeof(MxcfbUpdateData{}))

func iow(typ, nr, size uintptr) uintptr {
	const write = 1
	return write<<30 | size<<16 | typ<<8 | nr
}

// FB_TYPE_PACKED_PIXELS
const typePackedPixels = 0

// FixScreenInfo mirrors struct fb_fix_screeninfo.
type FixScreenInfo struct {
	ID           [16]byte
	SMemStart    uintptr
	SMemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MMIOStart    uintptr
	MMIOLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

// Name returns the driver identifier without its NUL padding.
func (f *FixScreenInfo) Name() string {
	if i := bytes.IndexByte(f.ID[:], 0); i >= 0 {
		return string(f.ID[:i])
	}
	return string(f.ID[:])
}

type Bitfield struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

// VarScreenInfo mirrors struct fb_var_screeninfo.
type VarScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          Bitfield
	Green        Bitfield
	Blue         Bitfield
	Transp       Bitfield
	NonStd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	PixClock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HSyncLen     uint32
	VSyncLen     uint32
	Sync         uint32
	VMode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// Legacy einkfb effects.
const (
	fxUpdatePartial = 0
	fxUpdateFull    = 1
)

// UpdateArea mirrors the legacy update_area_t: a rectangle given by its
// corners plus an effect.
type UpdateArea struct {
	X1, Y1  int32
	X2, Y2  int32
	WhichFX int32
	Buffer  uintptr
}

// mxcfb constants held fixed for every update.
const (
	mxcfbWaveformMode = 257
	mxcfbTemp         = 0x1001

	mxcfbUpdatePartial = 0
	mxcfbUpdateFull    = 1
)

type MxcfbRect struct {
	Top    uint32
	Left   uint32
	Width  uint32
	Height uint32
}

type MxcfbAltBufferData struct {
	PhysAddr        uint32
	Width           uint32
	Height          uint32
	AltUpdateRegion MxcfbRect
}

// MxcfbUpdateData mirrors struct mxcfb_update_data.
type MxcfbUpdateData struct {
	UpdateRegion         MxcfbRect
	WaveformMode         uint32
	UpdateMode           uint32
	UpdateMarker         uint32
	HistBWWaveformMode   int32
	HistGrayWaveformMode int32
	Temp                 int32
	Flags                uint32
	AltBufferData        MxcfbAltBufferData
}
