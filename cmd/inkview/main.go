package main

import (
	"context"
	"os"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"inkview/internal/app"
	"inkview/internal/config"
	"inkview/pkg/document/imagedoc"
	"inkview/pkg/glyph"
	"inkview/pkg/mixer"
	"inkview/pkg/proto"
	"inkview/pkg/render"
	"inkview/pkg/viewer"
)

var configPath = flag.String("config", "inkview.yaml", "config file")
var device = flag.String("device", "", "framebuffer device")
var remoteAddr = flag.String("remote", "", "draw on an inkserve screen at this addr")
var emulate = flag.Bool("emulate", false, "use the virtual screen")
var snapshots = flag.String("snapshots", "", "virtual screen snapshot dir")
var debug = flag.Bool("debug", false, "set debug")
var page = flag.Int("page", 1, "page to show")
var zoom = flag.Float64("zoom", 1, "zoom factor")
var gamma = flag.Float64("gamma", -1, "gamma, negative disables")
var rotate = flag.Int("rotate", 0, "rotation in degrees, clockwise")
var fitWidth = flag.Bool("fit-width", false, "zoom the page to the screen width")
var fitContent = flag.Bool("fit-content", false, "zoom the page content to the screen width, skipping blank margins")
var reveal = flag.Int("reveal", 0, "reveal pages in tiles of this size, 0 disables, negative picks random sizes")
var text = flag.String("text", "", "text drawn after the page")
var fontPath = flag.String("font", "", "TrueType/OpenType font for --text")

func loadConfig(fs afero.Fs) (*config.Config, error) {
	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		return nil, err
	}

	changed := flag.CommandLine.Changed
	if changed("device") {
		cfg.Device = *device
	}
	if changed("remote") {
		cfg.Remote = *remoteAddr
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
	if changed("zoom") {
		cfg.Zoom = *zoom
	}
	if changed("gamma") {
		cfg.Gamma = *gamma
	}
	if changed("rotate") {
		cfg.Rotation = *rotate
	}
	if changed("font") {
		cfg.Font = *fontPath
	}
	cfg.Normalize()
	return cfg, nil
}

func openDocument(fs afero.Fs, logger *zap.Logger, lifecycle fx.Lifecycle) (render.Document, error) {
	doc, err := imagedoc.Open(fs, flag.Arg(0), logger.Named("doc"))
	if err != nil {
		return nil, err
	}
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return doc.Close()
		},
	})
	return doc, nil
}

func openFace(cfg *config.Config, fs afero.Fs) (*glyph.Face, error) {
	if cfg.Font == "" {
		return nil, nil
	}
	data, err := afero.ReadFile(fs, cfg.Font)
	if err != nil {
		return nil, err
	}
	return glyph.NewFace(data, cfg.FontSize)
}

func run(v *viewer.Viewer, screen proto.Screen, cfg *config.Config, fs afero.Fs, logger *zap.Logger, lifecycle fx.Lifecycle) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	v.SetParams(params)

	switch {
	case *reveal > 0:
		v.SetRefresher(mixer.NewDrawer(screen, mixer.WithEffect(mixer.EffectBlockSize(*reveal)), mixer.WithLogger(logger.Named("reveal"))))
	case *reveal < 0:
		v.SetRefresher(mixer.NewDrawer(screen, mixer.WithEffect(mixer.EffectBlock()), mixer.WithLogger(logger.Named("reveal"))))
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			switch {
			case *fitContent:
				if err := v.FitContent(*page); err != nil {
					return err
				}
			case *fitWidth:
				if err := v.FitWidth(*page); err != nil {
					return err
				}
			}
			if err := v.Show(*page); err != nil {
				return err
			}
			if *text == "" {
				return nil
			}

			face, err := openFace(cfg, fs)
			if err != nil {
				return err
			}
			if face == nil {
				logger.Info("no font configured, skipping text")
				return nil
			}
			defer face.Close()

			_, ascent := face.HeightAndAscender()
			_, err = v.DrawText(face, *text, 8, 8+ascent)
			return err
		},
	})
	return nil
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		os.Stderr.WriteString("usage: inkview [flags] <image or directory>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	fx.New(
		fx.Provide(
			func() afero.Fs { return afero.NewOsFs() },
			loadConfig,
			openDocument,
			viewer.New,
		),
		app.Module,
		fx.Invoke(run),
	).Run()
}
