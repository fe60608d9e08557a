package einkfb

import (
	"github.com/pkg/errors"
)

// fakeFB is an in-memory framebuffer recording every request it receives.
type fakeFB struct {
	fix  FixScreenInfo
	info VarScreenInfo
	mem  []byte

	fixErr  error
	infoErr error
	mapErr  error

	areas       []UpdateArea
	updates     []MxcfbUpdateData
	setModes    []uint32
	orientation uint32

	maps, unmaps, closes int
}

func newFakeFB(id string, width, height, bpp, lineLength uint32) *fakeFB {
	fb := &fakeFB{
		info: VarScreenInfo{
			XRes:         width,
			YRes:         height,
			XResVirtual:  width,
			YResVirtual:  height,
			BitsPerPixel: bpp,
			Grayscale:    1,
		},
	}
	copy(fb.fix.ID[:], id)
	fb.fix.LineLength = lineLength
	fb.fix.SMemLen = lineLength * height
	fb.fix.Type = typePackedPixels
	return fb
}

func (f *fakeFB) FixScreenInfo() (FixScreenInfo, error) { return f.fix, f.fixErr }
func (f *fakeFB) VarScreenInfo() (VarScreenInfo, error) { return f.info, f.infoErr }

func (f *fakeFB) Map(length int) ([]byte, error) {
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	f.maps++
	if f.mem == nil {
		f.mem = make([]byte, length)
	}
	return f.mem, nil
}

func (f *fakeFB) Unmap([]byte) error {
	f.unmaps++
	return nil
}

func (f *fakeFB) UpdateArea(area *UpdateArea) error {
	f.areas = append(f.areas, *area)
	return nil
}

func (f *fakeFB) SendUpdate(data *MxcfbUpdateData) error {
	f.updates = append(f.updates, *data)
	return nil
}

func (f *fakeFB) SetOrientation(mode uint32) error {
	if mode > 3 {
		return errors.New("EINVAL")
	}
	f.setModes = append(f.setModes, mode)
	f.orientation = mode
	return nil
}

func (f *fakeFB) Orientation() (uint32, error) { return f.orientation, nil }

func (f *fakeFB) Close() error {
	f.closes++
	return nil
}
