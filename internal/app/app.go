// Package app holds the providers shared by the command line tools.
package app

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"inkview/internal/config"
	"inkview/pkg/device/einkfb"
	"inkview/pkg/device/remote"
	"inkview/pkg/device/virtual"
	"inkview/pkg/memstat"
	"inkview/pkg/proto"
	"inkview/pkg/render"
)

// Module provides the logger, the screen and the blitter. Callers supply
// afero.Fs and *config.Config.
var Module = fx.Options(
	fx.Provide(
		NewLogger,
		OpenScreen,
		NewCollector,
		NewBlitter,
	),
	fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger.Named("fx")}
	}),
)

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OpenScreen opens the screen the configuration selects: a remote one, the
// emulator, or the framebuffer device. It is closed when the app stops.
func OpenScreen(cfg *config.Config, fs afero.Fs, logger *zap.Logger, lifecycle fx.Lifecycle) (proto.Screen, error) {
	var (
		screen proto.Screen
		err    error
	)
	switch {
	case cfg.Remote != "":
		screen, err = remote.Dial(cfg.Remote, logger)
	case cfg.Emulate != nil:
		screen, err = virtual.New(fs, virtual.Options{
			Width:  cfg.Emulate.Width,
			Height: cfg.Emulate.Height,
			Dir:    cfg.Emulate.SnapshotDir,
		}, logger)
	default:
		screen, err = einkfb.Open(cfg.Device, logger)
	}
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return screen.Close()
		},
	})
	return screen, nil
}

func NewCollector(cfg *config.Config, logger *zap.Logger) (*memstat.Collector, error) {
	budget, err := cfg.Budget()
	if err != nil {
		return nil, err
	}
	return memstat.New(logger.Named("memstat"), budget), nil
}

func NewBlitter(stats *memstat.Collector, logger *zap.Logger) *render.Blitter {
	return render.NewBlitter(stats, logger.Named("blit"))
}
