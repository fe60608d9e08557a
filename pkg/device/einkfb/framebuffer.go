package einkfb

// Framebuffer is the kernel interface of a framebuffer device node. The
// Linux implementation issues ioctls against an open descriptor.
type Framebuffer interface {
	FixScreenInfo() (FixScreenInfo, error)
	VarScreenInfo() (VarScreenInfo, error)

	Map(length int) ([]byte, error)
	Unmap(mem []byte) error

	UpdateArea(area *UpdateArea) error
	SendUpdate(data *MxcfbUpdateData) error

	// SetOrientation and Orientation use the driver's numbering.
	SetOrientation(mode uint32) error
	Orientation() (uint32, error)

	Close() error
}
