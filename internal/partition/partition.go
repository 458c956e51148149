// Package partition tiles an image grid into fixed-size blocks.
package partition

import (
	"image"
	"iter"
)

// DefaultSize is the nominal block edge length.
const DefaultSize = 8

// Block is a rectangular tile addressed by its top-left pixel.
type Block struct {
	X, Y          int
	Width, Height int
}

func (b Block) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

func (b Block) Area() int {
	return b.Width * b.Height
}

// Blocks yields the tiling of a w×h grid row-major: increasing y, then
// increasing x. Trailing blocks are clipped to the remaining width/height.
// Nothing is yielded for non-positive dimensions or size.
func Blocks(w, h, size int) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		if w <= 0 || h <= 0 || size <= 0 {
			return
		}
		for y := 0; y < h; y += size {
			bh := min(size, h-y)
			for x := 0; x < w; x += size {
				if !yield(Block{X: x, Y: y, Width: min(size, w-x), Height: bh}) {
					return
				}
			}
		}
	}
}

// Count returns the number of blocks Blocks yields.
func Count(w, h, size int) int {
	if w <= 0 || h <= 0 || size <= 0 {
		return 0
	}
	return ((w + size - 1) / size) * ((h + size - 1) / size)
}
