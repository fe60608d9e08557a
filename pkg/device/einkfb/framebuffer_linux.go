//go:build linux

package einkfb

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type fbFile struct {
	path string
	fd   int
}

func openFramebuffer(path string) (Framebuffer, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &fbFile{path: path, fd: fd}, nil
}

func (f *fbFile) ioctl(req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(f.fd), req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

func (f *fbFile) FixScreenInfo() (FixScreenInfo, error) {
	var info FixScreenInfo
	err := f.ioctl(fbioGetFScreenInfo, unsafe.Pointer(&info))
	return info, errors.Wrap(err, "FBIOGET_FSCREENINFO")
}

func (f *fbFile) VarScreenInfo() (VarScreenInfo, error) {
	var info VarScreenInfo
	err := f.ioctl(fbioGetVScreenInfo, unsafe.Pointer(&info))
	return info, errors.Wrap(err, "FBIOGET_VSCREENINFO")
}

func (f *fbFile) Map(length int) ([]byte, error) {
	mem, err := unix.Mmap(f.fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	return mem, errors.Wrapf(err, "mmap %d bytes", length)
}

func (f *fbFile) Unmap(mem []byte) error {
	return errors.Wrap(unix.Munmap(mem), "munmap")
}

func (f *fbFile) UpdateArea(area *UpdateArea) error {
	return errors.Wrap(f.ioctl(fbioEinkUpdateDisplayArea, unsafe.Pointer(area)), "FBIO_EINK_UPDATE_DISPLAY_AREA")
}

func (f *fbFile) SendUpdate(data *MxcfbUpdateData) error {
	return errors.Wrap(f.ioctl(mxcfbSendUpdate, unsafe.Pointer(data)), "MXCFB_SEND_UPDATE")
}

// SetOrientation passes the mode by value, not by pointer.
func (f *fbFile) SetOrientation(mode uint32) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(f.fd), fbioEinkSetDisplayOrientation, uintptr(mode))
	if errno != 0 {
		return errors.Wrap(errno, "FBIO_EINK_SET_DISPLAY_ORIENTATION")
	}
	return nil
}

func (f *fbFile) Orientation() (uint32, error) {
	var mode int32
	err := f.ioctl(fbioEinkGetDisplayOrientation, unsafe.Pointer(&mode))
	return uint32(mode), errors.Wrap(err, "FBIO_EINK_GET_DISPLAY_ORIENTATION")
}

func (f *fbFile) Close() error {
	return errors.Wrapf(unix.Close(f.fd), "close %s", f.path)
}
