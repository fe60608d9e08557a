package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"inkview/pkg/device/virtual"
	"inkview/pkg/document/imagedoc"
	"inkview/pkg/memstat"
	"inkview/pkg/render"
	"inkview/pkg/viewer"
)

var out = flag.String("out", "pages", "output dir")
var width = flag.Int("width", 600, "screen width")
var height = flag.Int("height", 800, "screen height")
var zoom = flag.Float64("zoom", 1, "zoom factor")
var gamma = flag.Float64("gamma", -1, "gamma, negative disables")
var rotate = flag.Int("rotate", 0, "rotation in degrees, clockwise")
var fitWidth = flag.Bool("fit-width", false, "zoom each page to the screen width")
var debug = flag.Bool("debug", false, "set debug")

func params() (render.Params, error) {
	p := render.NewParams()
	rot, err := render.ParseRotation(*rotate)
	if err != nil {
		return p, err
	}
	if err := p.SetRotation(rot); err != nil {
		return p, err
	}
	if err := p.SetZoom(*zoom); err != nil {
		return p, err
	}
	p.SetGamma(*gamma)
	return p, nil
}

// dump renders every page of src into dir as page-NNNN.png.
func dump(fs afero.Fs, src, dir string, logger *zap.Logger) error {
	doc, err := imagedoc.Open(fs, src, logger.Named("doc"))
	if err != nil {
		return err
	}
	defer doc.Close()

	screen, err := virtual.New(fs, virtual.Options{Width: *width, Height: *height, Dir: dir}, logger.Named("screen"))
	if err != nil {
		return err
	}
	defer screen.Close()

	p, err := params()
	if err != nil {
		return err
	}

	stats := memstat.New(logger.Named("memstat"), 0)
	v := viewer.New(screen, doc, render.NewBlitter(stats, logger.Named("blit")), stats, logger)
	v.SetParams(p)

	bar := progressbar.Default(int64(doc.Pages()), "rendering")
	for n := 1; n <= doc.Pages(); n++ {
		if *fitWidth {
			if err := v.FitWidth(n); err != nil {
				return err
			}
		}
		if err := v.Show(n); err != nil {
			return err
		}

		shots := screen.Snapshots()
		name := filepath.Join(dir, fmt.Sprintf("page-%04d.png", n))
		if err := fs.Rename(shots[len(shots)-1], name); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	logger.With(zap.Int("pages", doc.Pages()), zap.Stringer("peak", stats.Stats().Peak)).Info("dump")
	return nil
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		os.Stderr.WriteString("usage: inkdump [flags] <image or directory>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	var logger *zap.Logger
	if *debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(*out, 0o755); err != nil {
		logger.Fatal("mkdir", zap.Error(err))
	}
	if err := dump(fs, flag.Arg(0), *out, logger); err != nil {
		logger.Fatal("dump", zap.Error(err))
	}
}
