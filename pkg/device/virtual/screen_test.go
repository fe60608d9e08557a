package virtual

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
)

func newScreen(t *testing.T, fs afero.Fs, dir string) *Screen {
	t.Helper()
	s, err := New(fs, Options{Width: 6, Height: 4, Dir: dir}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestRefreshWritesSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newScreen(t, fs, "/shots")

	s.Buffer().SetInk(1, 1, 0xF)
	s.Buffer().SetInk(2, 1, 0x8)
	require.NoError(t, s.Refresh(image.Rect(1, 1, 3, 2), true))
	require.NoError(t, s.Refresh(image.Rectangle{}, false))

	shots := s.Snapshots()
	require.Len(t, shots, 2)

	f, err := fs.Open(shots[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := imaging.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	assert.Equal(t, color.Gray{Y: 15}, color.GrayModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.Gray{Y: 127}, color.GrayModel.Convert(img.At(1, 0)))

	full, err := afero.ReadFile(fs, shots[1])
	require.NoError(t, err)
	assert.NotEmpty(t, full)
}

func TestRefreshWithoutSnapshots(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newScreen(t, fs, "")

	require.NoError(t, s.Refresh(image.Rectangle{}, false))
	assert.Empty(t, s.Snapshots())
	assert.True(t, proto.IsRange(s.Refresh(image.Rect(10, 10, 12, 12), true)))
}

func TestImagePolarity(t *testing.T) {
	s := newScreen(t, afero.NewMemMapFs(), "")
	s.Buffer().SetInk(0, 0, 0xF)

	img := s.Image(s.Bounds())
	assert.Equal(t, uint8(15), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(1, 0).Y)
}

func TestOrientationNeedsReopen(t *testing.T) {
	s := newScreen(t, afero.NewMemMapFs(), "")

	require.NoError(t, s.SetOrientation(proto.OrientationLandscape))
	w, h := s.Size()
	assert.Equal(t, []int{6, 4}, []int{w, h}, "geometry is stale until reopen")

	mode, err := s.Orientation()
	require.NoError(t, err)
	assert.Equal(t, proto.OrientationLandscape, mode)

	old := s.Buffer()
	require.NoError(t, s.Reopen())
	assert.True(t, old.Released())
	w, h = s.Size()
	assert.Equal(t, []int{4, 6}, []int{w, h})

	require.NoError(t, s.SetOrientation(proto.OrientationPortraitInverted))
	require.NoError(t, s.Reopen())
	w, h = s.Size()
	assert.Equal(t, []int{6, 4}, []int{w, h})

	assert.True(t, proto.IsRange(s.SetOrientation(7)))
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newScreen(t, afero.NewMemMapFs(), "")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Nil(t, s.Buffer())
	assert.True(t, proto.IsResource(s.Refresh(image.Rectangle{}, false)))
	assert.True(t, proto.IsResource(s.Draw(image.Rect(0, 0, 1, 1), image.Black, image.Point{})))
}

func TestInvalidResolution(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), Options{Width: 0, Height: 4}, zaptest.NewLogger(t))
	assert.True(t, proto.IsConfiguration(err))
}

func TestDraw(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newScreen(t, fs, "/shots")

	require.NoError(t, s.Draw(image.Rect(2, 0, 4, 2), image.Black, image.Point{}))
	assert.Equal(t, bitmap.Ink4(15), s.Buffer().InkAt(3, 1))
	assert.Equal(t, bitmap.Ink4(0), s.Buffer().InkAt(4, 1))
	assert.Len(t, s.Snapshots(), 1)
	assert.Contains(t, s.String(), "6x4")
}
