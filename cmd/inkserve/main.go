package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/display"

	"inkview/internal/app"
	"inkview/internal/config"
	"inkview/pkg/device/remote"
	"inkview/pkg/proto"
	"inkview/pkg/viewer"
)

var configPath = flag.String("config", "inkview.yaml", "config file")
var device = flag.String("device", "", "framebuffer device")
var listen = flag.String("listen", "", "listen addr")
var emulate = flag.Bool("emulate", false, "serve a virtual screen")
var snapshots = flag.String("snapshots", "", "virtual screen snapshot dir")
var debug = flag.Bool("debug", false, "set debug")
var splash = flag.String("splash", "", "image shown until a client draws")

func loadConfig(fs afero.Fs) (*config.Config, error) {
	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		return nil, err
	}

	// never proxy to another proxy
	cfg.Remote = ""

	changed := flag.CommandLine.Changed
	if changed("device") {
		cfg.Device = *device
	}
	if changed("listen") {
		cfg.Listen = *listen
	}
	if *emulate && cfg.Emulate == nil {
		cfg.Emulate = &config.EmulateConfig{}
	}
	if changed("snapshots") && cfg.Emulate != nil {
		cfg.Emulate.SnapshotDir = *snapshots
	}
	if changed("debug") {
		cfg.Debug = *debug
	}
	cfg.Normalize()
	return cfg, nil
}

func showSplash(screen proto.Screen, fs afero.Fs, logger *zap.Logger, lifecycle fx.Lifecycle) {
	if *splash == "" {
		return
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d, ok := screen.(display.Drawer)
			if !ok {
				logger.With(zap.String("screen", fmt.Sprintf("%T", screen))).Warn("splash-unsupported")
				return nil
			}

			f, err := fs.Open(*splash)
			if err != nil {
				return err
			}
			defer f.Close()

			img, err := imaging.Decode(f, imaging.AutoOrientation(true))
			if err != nil {
				return err
			}
			return viewer.Splash(d, img)
		},
	})
}

func main() {
	flag.Parse()

	fx.New(
		fx.Provide(
			func() afero.Fs { return afero.NewOsFs() },
			loadConfig,
			func(cfg *config.Config) *http.Server {
				return &http.Server{Addr: cfg.Listen}
			},
		),
		app.Module,
		fx.Invoke(
			showSplash,
			remote.Proxy,
		),
	).Run()
}
