package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"inkview/pkg/bitmap"
	"inkview/pkg/proto"
)

type fakePage struct {
	w, h    int
	sample  func(x, y int) byte
	err     error
	renders []image.Rectangle
}

func (p *fakePage) Size(params Params) (int, int) {
	return params.Scaled(p.w, p.h)
}

func (p *fakePage) Render(dst *image.Gray, _ Params) error {
	p.renders = append(p.renders, dst.Rect)
	if p.err != nil {
		return p.err
	}
	for y := dst.Rect.Min.Y; y < dst.Rect.Max.Y; y++ {
		for x := dst.Rect.Min.X; x < dst.Rect.Max.X; x++ {
			dst.SetGray(x, y, color.Gray{Y: p.sample(x, y)})
		}
	}
	return nil
}

func white(int, int) byte { return 0xFF }

func checker(x, y int) byte {
	if (x+y)%2 == 0 {
		return 0xFF
	}
	return 0x00
}

// ramp produces samples whose inverted top nibble is (x+y) & 0xF.
func ramp(x, y int) byte {
	return 0xFF - byte((x+y)&0xF)<<4
}

func newDst(t *testing.T, w, h int, fill bitmap.Ink4) *bitmap.Gray4 {
	t.Helper()
	d, err := bitmap.Allocate(w, h, 0)
	require.NoError(t, err)
	d.Fill(fill)
	return d
}

func offset(x, y int) Params {
	p := NewParams()
	p.SetOffset(x, y)
	return p
}

func TestBlitAllWhite(t *testing.T) {
	page := &fakePage{w: 4, h: 4, sample: white}
	dst := newDst(t, 4, 4, 0x7)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, NewParams(), dst))
	assert.Equal(t, make([]byte, 8), dst.Pix)
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 4, 4)}, page.renders)
}

func TestBlitCheckerboard(t *testing.T) {
	page := &fakePage{w: 4, h: 2, sample: checker}
	dst := newDst(t, 4, 2, 0)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, NewParams(), dst))
	assert.Equal(t, []byte{0x0F, 0x0F, 0xF0, 0xF0}, dst.Pix)
}

func TestBlitNegativeOffsetScrollsSource(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		page := &fakePage{w: 8, h: 6, sample: ramp}
		dst := newDst(t, 4, 3, 0)

		require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, offset(-k, -k), dst))
		assert.Equal(t, image.Rect(k, k, k+4, k+3), page.renders[0])
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				require.Equal(t, bitmap.Ink4((x+k+y+k)&0xF), dst.InkAt(x, y), "k=%d (%d,%d)", k, x, y)
			}
		}
	}
}

func TestBlitPositiveOffsetKeepsLeadingEdge(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		page := &fakePage{w: 4, h: 2, sample: ramp}
		dst := newDst(t, 9, 4, 0xC)

		require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, offset(k, k), dst))
		for y := 0; y < 4; y++ {
			for x := 0; x < 9; x++ {
				var want bitmap.Ink4
				switch {
				case x < k || y < k:
					want = 0xC
				case x < k+4 && y < k+2:
					want = bitmap.Ink4((x - k + y - k) & 0xF)
				}
				require.Equal(t, want, dst.InkAt(x, y), "k=%d (%d,%d)", k, x, y)
			}
		}
	}
}

func TestBlitPaintsPaperPastPage(t *testing.T) {
	page := &fakePage{w: 4, h: 2, sample: white}
	dst := newDst(t, 8, 4, 0xC)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, NewParams(), dst))
	assert.Equal(t, make([]byte, 16), dst.Pix)
}

func TestBlitOddPageWidthClearsNextColumn(t *testing.T) {
	page := &fakePage{w: 3, h: 1, sample: ramp}
	dst := newDst(t, 6, 2, 0xF)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, NewParams(), dst))
	assert.Equal(t, []byte{0x01, 0x20, 0x00, 0x00, 0x00, 0x00}, dst.Pix)
}

func TestPaintClearsMargins(t *testing.T) {
	page := &fakePage{w: 2, h: 1, sample: ramp}
	dst := newDst(t, 4, 3, 0x9)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Paint(page, offset(1, 1), dst))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x10, 0x00, 0x00}, dst.Pix)
}

func TestPaintOffPageBlanks(t *testing.T) {
	page := &fakePage{w: 100, h: 10, sample: white}
	dst := newDst(t, 4, 2, 0x5)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Paint(page, offset(-1000, 0), dst))
	assert.Equal(t, make([]byte, 4), dst.Pix)
	assert.Empty(t, page.renders)
}

func TestPaintBackendErrorLeavesDestination(t *testing.T) {
	page := &fakePage{w: 4, h: 2, sample: white, err: errors.New("bad page")}
	dst := newDst(t, 4, 2, 0x6)
	before := append([]byte(nil), dst.Pix...)

	err := NewBlitter(nil, zaptest.NewLogger(t)).Paint(page, NewParams(), dst)
	assert.True(t, proto.IsBackend(err))
	assert.Equal(t, before, dst.Pix)
}

func TestBlitOddWidthPadsLowNibble(t *testing.T) {
	page := &fakePage{w: 3, h: 1, sample: ramp}
	dst := newDst(t, 3, 1, 0xF)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, NewParams(), dst))
	assert.Equal(t, []byte{0x01, 0x20}, dst.Pix)
}

func TestBlitOffPageIsNoop(t *testing.T) {
	page := &fakePage{w: 100, h: 10, sample: white}
	dst := newDst(t, 8, 4, 0x3)
	before := append([]byte(nil), dst.Pix...)

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, offset(-1000, 0), dst))
	assert.Equal(t, before, dst.Pix)
	assert.Empty(t, page.renders)
}

func TestBlitZoomRequestsScaledRegion(t *testing.T) {
	page := &fakePage{w: 2, h: 3, sample: white}
	dst := newDst(t, 10, 10, 0)

	p := NewParams()
	require.NoError(t, p.SetZoom(2))
	require.NoError(t, p.SetRotation(Rotate90))

	require.NoError(t, NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, p, dst))
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 6, 4)}, page.renders)
}

func TestBlitBackendError(t *testing.T) {
	cause := errors.New("corrupt page stream")
	page := &fakePage{w: 4, h: 4, err: cause}
	dst := newDst(t, 4, 4, 0x5)

	err := NewBlitter(nil, zaptest.NewLogger(t)).Blit(page, NewParams(), dst)
	require.Error(t, err)
	assert.True(t, proto.IsBackend(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Cause(err))
	assert.Equal(t, byte(0x55), dst.Pix[0])
}

type budgetAlloc struct {
	limit int
	live  int
}

func (a *budgetAlloc) Alloc(n int) ([]byte, error) {
	if a.live+n > a.limit {
		return nil, errors.New("out of memory")
	}
	a.live += n
	return make([]byte, n), nil
}

func (a *budgetAlloc) Free(p []byte) { a.live -= len(p) }

func TestBlitScratchAllocation(t *testing.T) {
	alloc := &budgetAlloc{limit: 16}
	b := NewBlitter(alloc, zaptest.NewLogger(t))

	small := &fakePage{w: 4, h: 4, sample: white}
	require.NoError(t, b.Blit(small, NewParams(), newDst(t, 4, 4, 0)))
	assert.Zero(t, alloc.live, "scratch must be returned")

	big := &fakePage{w: 8, h: 8, sample: white}
	dst := newDst(t, 8, 8, 0x1)
	err := b.Blit(big, NewParams(), dst)
	require.Error(t, err)
	assert.True(t, proto.IsResource(err))
	assert.Empty(t, big.renders)
	assert.Equal(t, byte(0x11), dst.Pix[0])
}

func TestBlitReleasedDestination(t *testing.T) {
	dst := newDst(t, 4, 4, 0)
	dst.Release()

	err := NewBlitter(nil, zaptest.NewLogger(t)).Blit(&fakePage{w: 4, h: 4, sample: white}, NewParams(), dst)
	assert.True(t, proto.IsRange(err))
}

func TestVisible(t *testing.T) {
	tests := []struct {
		name         string
		pageW, pageH int
		ox, oy       int
		want         image.Rectangle
	}{
		{"origin", 10, 10, 0, 0, image.Rect(0, 0, 4, 4)},
		{"small page", 2, 3, 0, 0, image.Rect(0, 0, 2, 3)},
		{"scrolled", 10, 10, -3, -8, image.Rect(3, 8, 7, 10)},
		{"cropped", 10, 10, 5, 5, image.Rect(0, 0, 4, 4)},
		{"past right edge", 100, 10, -1000, 0, image.Rectangle{}},
		{"past bottom edge", 10, 10, 0, -10, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(tt.pageW, tt.pageH, 4, 4, offset(tt.ox, tt.oy)))
		})
	}
}
