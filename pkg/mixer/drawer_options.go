package mixer

import "go.uber.org/zap"

type Option func(d *Drawer)

// WithEffect sets the effects a refresh picks from at random.
func WithEffect(e ...Effect) Option {
	return func(d *Drawer) {
		d.effs = e
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Drawer) {
		d.logger = logger
	}
}
