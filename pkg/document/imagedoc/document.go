// Package imagedoc serves raster images as document pages: a directory of
// images is a document, each file one page in name order.
package imagedoc

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"inkview/pkg/proto"
	"inkview/pkg/render"
)

var extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// Supported reports whether path names a file this package can open as a page.
func Supported(path string) bool {
	return lo.Contains(extensions, strings.ToLower(filepath.Ext(path)))
}

type Document struct {
	fs     afero.Fs
	path   string
	pages  []string
	logger *zap.Logger
	closed bool
}

// Open opens a single image or a directory of images.
func Open(fs afero.Fs, path string, logger *zap.Logger) (*Document, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, proto.BackendError("open", errors.Wrap(err, path))
	}

	var pages []string
	if info.IsDir() {
		entries, err := afero.ReadDir(fs, path)
		if err != nil {
			return nil, proto.BackendError("open", errors.Wrap(err, path))
		}
		pages = lo.FilterMap(entries, func(e os.FileInfo, _ int) (string, bool) {
			return filepath.Join(path, e.Name()), !e.IsDir() && Supported(e.Name())
		})
	} else if Supported(path) {
		pages = []string{path}
	}

	if len(pages) == 0 {
		return nil, proto.BackendError("open", errors.Errorf("%s: no supported images", path))
	}

	logger.With(zap.String("path", path), zap.Int("pages", len(pages))).Debug("open-document")
	return &Document{fs: fs, path: path, pages: pages, logger: logger}, nil
}

func (d *Document) Pages() int {
	return len(d.pages)
}

// OpenPage decodes page n, counted from 1.
func (d *Document) OpenPage(n int) (render.Page, error) {
	return d.Page(n)
}

// Page is OpenPage returning the concrete type.
func (d *Document) Page(n int) (*Page, error) {
	if d.closed {
		return nil, proto.RangeError("open-page", "document %s is closed", d.path)
	}
	if n < 1 || n > len(d.pages) {
		return nil, proto.RangeError("open-page", "page %d outside 1..%d", n, len(d.pages))
	}

	name := d.pages[n-1]
	f, err := d.fs.Open(name)
	if err != nil {
		return nil, proto.BackendError("open-page", errors.Wrap(err, name))
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, proto.BackendError("open-page", errors.Wrap(err, name))
	}

	d.logger.With(
		zap.Int("page", n),
		zap.String("file", name),
		zap.Stringer("bounds", img.Bounds()),
	).Debug("open-page")
	return newPage(img, d.logger.With(zap.Int("page", n))), nil
}

// Close is safe to call more than once.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.pages = nil
	return nil
}
