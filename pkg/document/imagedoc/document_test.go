package imagedoc

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"inkview/pkg/bitmap"
	"inkview/pkg/proto"
	"inkview/pkg/render"
)

// writeImage stores a w x h white PNG with the given pixels overridden.
func writeImage(t *testing.T, fs afero.Fs, name string, w, h int, set map[image.Point]color.Color) {
	t.Helper()
	img := imaging.New(w, h, color.White)
	for pt, c := range set {
		img.Set(pt.X, pt.Y, c)
	}
	f, err := fs.Create(name)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, imaging.Encode(f, img, imaging.PNG))
}

func openPage(t *testing.T, fs afero.Fs, path string, n int) *Page {
	t.Helper()
	doc, err := Open(fs, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	p, err := doc.Page(n)
	require.NoError(t, err)
	return p
}

func render8(t *testing.T, p *Page, params render.Params) *image.Gray {
	t.Helper()
	w, h := p.Size(params)
	dst := image.NewGray(image.Rect(0, 0, w, h))
	require.NoError(t, p.Render(dst, params))
	return dst
}

func TestOpenDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/book/b.png", 2, 2, nil)
	writeImage(t, fs, "/book/a.png", 3, 1, nil)
	require.NoError(t, afero.WriteFile(fs, "/book/notes.txt", []byte("hi"), 0o644))
	require.NoError(t, fs.MkdirAll("/book/sub.png", 0o755))

	doc, err := Open(fs, "/book", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages())

	p, err := doc.Page(1)
	require.NoError(t, err)
	w, h := p.NativeSize()
	assert.Equal(t, []int{3, 1}, []int{w, h})
}

func TestOpenSingleFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/scan.PNG", 2, 2, nil)

	doc, err := Open(fs, "/scan.PNG", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages())
}

func TestOpenErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/empty/readme.txt", []byte("x"), 0o644))

	_, err := Open(fs, "/missing", zaptest.NewLogger(t))
	assert.True(t, proto.IsBackend(err))

	_, err = Open(fs, "/empty", zaptest.NewLogger(t))
	assert.True(t, proto.IsBackend(err))
}

func TestOpenPageRange(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/d/1.png", 1, 1, nil)
	require.NoError(t, afero.WriteFile(fs, "/d/2.png", []byte("not a png"), 0o644))

	doc, err := Open(fs, "/d", zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, n := range []int{0, -1, 3} {
		_, err := doc.OpenPage(n)
		assert.True(t, proto.IsRange(err), "page %d", n)
	}

	_, err = doc.OpenPage(2)
	assert.True(t, proto.IsBackend(err))

	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())
	_, err = doc.OpenPage(1)
	assert.True(t, proto.IsRange(err))
}

func TestRenderSamples(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/p.png", 4, 2, map[image.Point]color.Color{
		{0, 0}: color.Black, {1, 0}: color.Black,
		{0, 1}: color.Black, {1, 1}: color.Black,
	})
	p := openPage(t, fs, "/p.png", 1)

	dst := render8(t, p, render.NewParams())
	assert.Equal(t, []byte{0, 0, 0xFF, 0xFF, 0, 0, 0xFF, 0xFF}, dst.Pix)
}

func TestRenderRegionOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/p.png", 4, 4, map[image.Point]color.Color{{2, 3}: color.Black})
	p := openPage(t, fs, "/p.png", 1)

	dst := image.NewGray(image.Rect(2, 2, 4, 4))
	require.NoError(t, p.Render(dst, render.NewParams()))
	assert.Equal(t, []byte{0xFF, 0xFF, 0x00, 0xFF}, dst.Pix)
}

func TestRenderRotatesClockwise(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/p.png", 4, 2, map[image.Point]color.Color{{0, 0}: color.Black, {0, 1}: color.Black})
	p := openPage(t, fs, "/p.png", 1)

	params := render.NewParams()
	require.NoError(t, params.SetRotation(render.Rotate90))

	w, h := p.Size(params)
	assert.Equal(t, []int{2, 4}, []int{w, h})

	dst := render8(t, p, params)
	assert.Equal(t, []byte{0, 0}, dst.Pix[:2], "left column becomes the top row")
	for _, v := range dst.Pix[2:] {
		assert.Equal(t, byte(0xFF), v)
	}
}

func TestRenderZoomAndGamma(t *testing.T) {
	fs := afero.NewMemMapFs()
	gray := color.Gray{Y: 0x80}
	writeImage(t, fs, "/p.png", 2, 2, map[image.Point]color.Color{
		{0, 0}: gray, {1, 0}: gray, {0, 1}: gray, {1, 1}: gray,
	})
	p := openPage(t, fs, "/p.png", 1)

	params := render.NewParams()
	require.NoError(t, params.SetZoom(2))
	dst := render8(t, p, params)
	assert.Equal(t, image.Rect(0, 0, 4, 4), dst.Rect)
	assert.InDelta(t, 0x80, int(dst.Pix[5]), 2)

	params.SetGamma(2)
	dst = render8(t, p, params)
	assert.Greater(t, dst.Pix[5], byte(0x90), "gamma above 1 lightens")
}

func TestTransparentPixelsArePaper(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/p.png", 2, 1, map[image.Point]color.Color{{1, 0}: color.Transparent})
	p := openPage(t, fs, "/p.png", 1)

	dst := render8(t, p, render.NewParams())
	assert.Equal(t, []byte{0xFF, 0xFF}, dst.Pix)
}

func TestUsedBBox(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/ink.png", 6, 4, map[image.Point]color.Color{{1, 1}: color.Black, {3, 2}: color.Gray{Y: 0x40}})
	writeImage(t, fs, "/blank.png", 6, 4, map[image.Point]color.Color{{2, 2}: color.Gray{Y: 0xF8}})

	assert.Equal(t, image.Rect(1, 1, 4, 3), openPage(t, fs, "/ink.png", 1).UsedBBox())
	assert.True(t, openPage(t, fs, "/blank.png", 1).UsedBBox().Empty())
}

func TestBlitPage(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/p.png", 4, 2, map[image.Point]color.Color{{1, 0}: color.Black, {2, 1}: color.Black})
	p := openPage(t, fs, "/p.png", 1)

	dst, err := bitmap.Allocate(4, 2, 0)
	require.NoError(t, err)
	require.NoError(t, render.NewBlitter(nil, zaptest.NewLogger(t)).Blit(p, render.NewParams(), dst))
	assert.Equal(t, []byte{0x0F, 0x00, 0x00, 0xF0}, dst.Pix)
}

func TestPageClose(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/p.png", 2, 2, nil)
	p := openPage(t, fs, "/p.png", 1)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	err := p.Render(image.NewGray(image.Rect(0, 0, 1, 1)), render.NewParams())
	assert.True(t, proto.IsRange(err))
	assert.True(t, p.UsedBBox().Empty())
}
