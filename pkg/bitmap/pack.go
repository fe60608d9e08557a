package bitmap

import (
	"github.com/pkg/errors"
)

// PackPair packs two 4 bits samples, hi for the even column.
func PackPair(hi, lo uint8) byte {
	return (hi&0xF)<<4 | lo&0xF
}

// UnpackPair is the inverse of PackPair.
func UnpackPair(b byte) (hi, lo uint8) {
	return b >> 4, b & 0xF
}

// Pack keeps the top 4 bits of two 8 bits samples.
func Pack(even, odd byte) byte {
	return even&0xF0 | odd>>4
}

// PackInverted is Pack followed by a polarity flip: a 0xFF (white) sample
// becomes ink level 0.
func PackInverted(even, odd byte) byte {
	return 255 - (odd>>4 | even&0xF0)
}

// PackRow packs width 8 bits samples from src into dst. A trailing odd
// sample lands in the high nibble with a zero low nibble.
func PackRow(dst, src []byte, width int, invert bool) {
	x := 0
	for ; x < width/2; x++ {
		if invert {
			dst[x] = PackInverted(src[2*x], src[2*x+1])
		} else {
			dst[x] = Pack(src[2*x], src[2*x+1])
		}
	}
	if width&1 != 0 {
		s := src[2*x]
		if invert {
			s = ^s
		}
		dst[x] = s & 0xF0
	}
}

// FromSamples repacks an 8 bits sample grid into a new owning buffer without
// inversion. stride is the distance between rows of samples.
func FromSamples(samples []byte, stride, width, height int) (*Gray4, error) {
	if stride < width {
		return nil, errors.Errorf("bitmap: stride %d shorter than width %d", stride, width)
	}
	if height > 0 && len(samples) < (height-1)*stride+width {
		return nil, errors.Errorf("bitmap: %d samples cannot hold %dx%d", len(samples), width, height)
	}

	dst, err := Allocate(width, height, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		PackRow(dst.Row(y), samples[y*stride:], width, false)
	}
	return dst, nil
}
