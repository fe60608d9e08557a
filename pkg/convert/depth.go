// Package convert rewrites a 4bpp shadow buffer into the 8bpp layout that
// scaled e-ink controllers scan out.
package convert

import (
	"github.com/samber/lo"

	"inkview/pkg/bitmap"
)

// Func rewrites dst, mapped memory with rows of dstPitch bytes, from src.
type Func func(dst []byte, dstPitch int, src *bitmap.Gray4)

// expanded maps one shadow byte (two nibbles) to the two mapped bytes it
// occupies. Each nibble is replicated into both halves of its byte.
var expanded = lo.Times(256, func(i int) [2]byte {
	s := byte(i)
	return [2]byte{
		s&0xF0 | s>>4,
		s<<4&0xF0 | s&0x0F,
	}
})

// Scaled expands every shadow nibble into a full byte.
func Scaled(dst []byte, dstPitch int, src *bitmap.Gray4) {
	expand(dst, dstPitch, src, 0x00)
}

// ScaledInverted is Scaled with every output byte complemented.
func ScaledInverted(dst []byte, dstPitch int, src *bitmap.Gray4) {
	expand(dst, dstPitch, src, 0xFF)
}

// expand walks rows bottom to top and columns right to left, the order the
// controller reads the buffer in. The output only depends on src.
func expand(dst []byte, dstPitch int, src *bitmap.Gray4, mask byte) {
	if src == nil || src.Released() || dstPitch <= 0 {
		return
	}

	rows := lo.Min([]int{src.Height, len(dst) / dstPitch})
	cols := lo.Min([]int{src.Pitch, dstPitch / 2})

	for y := rows - 1; y >= 0; y-- {
		in := src.Pix[y*src.Pitch:]
		out := dst[y*dstPitch:]
		for j := cols - 1; j >= 0; j-- {
			e := expanded[in[j]]
			out[2*j] = e[0] ^ mask
			out[2*j+1] = e[1] ^ mask
		}
	}
}
