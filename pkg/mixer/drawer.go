// Package mixer turns full screen refreshes into a series of partial ones.
package mixer

import (
	"image"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"inkview/pkg/proto"
)

func NewDrawer(dst proto.Screen, opts ...Option) *Drawer {
	d := &Drawer{
		dev:    dst,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type Drawer struct {
	dev    proto.Screen
	effs   []Effect
	logger *zap.Logger
}

// Refresh runs a random effect over rect, or refreshes it directly when no
// effect is configured. Partial requests skip the effects.
func (d *Drawer) Refresh(rect image.Rectangle, partial bool) error {
	eff := lo.Sample(d.effs)
	if eff == nil || partial {
		return d.dev.Refresh(rect, partial)
	}

	if rect.Empty() {
		w, h := d.dev.Size()
		rect = image.Rect(0, 0, w, h)
	}

	tiles, err := eff.Process(rect)
	if err != nil {
		return err
	}

	var (
		failed error
		n      int
	)
	for t := range tiles {
		if failed != nil {
			continue
		}
		failed = d.dev.Refresh(t, true)
		n++
	}
	d.logger.With(
		zap.String("effect", eff.Name()),
		zap.Stringer("rect", rect),
		zap.Int("tiles", n),
	).Debug("reveal")
	return failed
}
