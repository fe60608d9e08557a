package einkfb

import (
	"strings"

	"github.com/samber/lo"

	"inkview/pkg/convert"
	"inkview/pkg/proto"
)

// Variant is the hardware family behind a framebuffer.
type Variant int

const (
	// Direct4Bpp panels scan the packed 4bpp buffer out as is.
	Direct4Bpp Variant = iota + 1
	// Scaled8BppNonInverted panels take one byte per pixel, 0 being white.
	Scaled8BppNonInverted
	// Scaled8BppInverted panels take one byte per pixel, 0xFF being white.
	Scaled8BppInverted
)

func (v Variant) String() string {
	switch v {
	case Direct4Bpp:
		return "direct-4bpp"
	case Scaled8BppNonInverted:
		return "scaled-8bpp-noninverted"
	case Scaled8BppInverted:
		return "scaled-8bpp-inverted"
	}
	return "unknown"
}

// Scaled reports whether the variant needs a 4bpp shadow buffer.
func (v Variant) Scaled() bool {
	return v == Scaled8BppNonInverted || v == Scaled8BppInverted
}

type wireFormat int

const (
	wireLegacy wireFormat = iota
	wireMxcfb
)

type driver struct {
	prefix  string
	bpp     uint32 // 0 matches any depth
	variant Variant
	wire    wireFormat
}

// drivers is matched in order, first hit wins.
var drivers = []driver{
	{prefix: "mxc_epdc_fb", variant: Scaled8BppInverted, wire: wireMxcfb},
	{prefix: "eink_fb", bpp: 8, variant: Scaled8BppNonInverted, wire: wireLegacy},
	{prefix: "eink_fb", variant: Direct4Bpp, wire: wireLegacy},
}

func lookup(id string, bpp uint32) (driver, error) {
	d, ok := lo.Find(drivers, func(d driver) bool {
		return strings.HasPrefix(id, d.prefix) && (d.bpp == 0 || d.bpp == bpp)
	})
	if !ok {
		return driver{}, proto.ConfigurationError("open", "e-ink model %q not supported", id)
	}
	return d, nil
}

// Classify maps a driver identifier and pixel depth to a Variant.
func Classify(id string, bpp uint32) (Variant, error) {
	d, err := lookup(id, bpp)
	return d.variant, err
}

// converter returns the shadow to mapped memory rewrite, nil for direct
// panels.
func (v Variant) converter() convert.Func {
	switch v {
	case Scaled8BppNonInverted:
		return convert.Scaled
	case Scaled8BppInverted:
		return convert.ScaledInverted
	}
	return nil
}

// toDriver converts a public orientation to the driver's numbering, which
// swaps 1 and 2. The mapping is its own inverse.
func toDriver(mode int) int {
	switch mode {
	case 1:
		return 2
	case 2:
		return 1
	}
	return mode
}

func fromDriver(mode int) int {
	return toDriver(mode)
}
