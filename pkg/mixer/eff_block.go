package mixer

import (
	"image"
	"math/rand"

	"github.com/samber/lo"

	"inkview/pkg/proto"
)

// EffectBlock reveals the area in square tiles of a random side between 8
// and 40 pixels, in random order.
func EffectBlock() Effect {
	return &block{
		size: 32,
		rand: true,
	}
}

// EffectBlockSize reveals the area in size×size tiles, row by row.
func EffectBlockSize(size int) Effect {
	return &block{size: size}
}

type block struct {
	size int
	rand bool
}

func (e *block) Name() string {
	return "block"
}

func (e *block) Process(rect image.Rectangle) (<-chan image.Rectangle, error) {
	if e.size <= 0 {
		return nil, proto.RangeError("block", "tile size %d", e.size)
	}

	size := e.size
	if e.rand {
		size = rand.Intn(32) + 8
	}

	var tiles []image.Rectangle
	for y := rect.Min.Y; y < rect.Max.Y; y += size {
		for x := rect.Min.X; x < rect.Max.X; x += size {
			tiles = append(tiles, image.Rect(x, y, x+size, y+size).Intersect(rect))
		}
	}
	if e.rand {
		tiles = lo.Shuffle(tiles)
	}

	rc := make(chan image.Rectangle)
	go func() {
		defer close(rc)
		for _, t := range tiles {
			rc <- t
		}
	}()
	return rc, nil
}
