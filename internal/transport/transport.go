// Package transport rearranges the colors of a source image so that, block by
// block, they follow the luminance ranking of a target image.
//
// Within each block the k-th darkest source pixel is moved to the position of
// the k-th darkest target pixel. This is the discrete 1-D optimal transport
// plan between the two luminance distributions, solved independently per
// block. Colors are only permuted, never blended.
package transport

import (
	"context"
	"slices"

	"github.com/pkg/errors"

	"github.com/ivlev/pixelsculptor/internal/config"
	"github.com/ivlev/pixelsculptor/internal/luma"
	"github.com/ivlev/pixelsculptor/internal/partition"
	"github.com/ivlev/pixelsculptor/internal/raster"
	"github.com/ivlev/pixelsculptor/internal/system"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidBlockSize matches config.ErrInvalidConfiguration.
var ErrInvalidBlockSize = errors.WithMessage(config.ErrInvalidConfiguration, "block size must be positive")

// Engine runs the transport, optionally spreading blocks over goroutines.
// The output does not depend on Workers.
type Engine struct {
	// Workers bounds concurrent blocks. Values below 2 run sequentially.
	Workers int
}

// Transport runs a sequential Engine.
func Transport(src, tgt *raster.Image, blockSize int) (*raster.Image, error) {
	return (&Engine{Workers: 1}).Transport(context.Background(), src, tgt, blockSize)
}

// Transport validates the inputs and returns a new image with tgt's shape
// whose every block holds a permutation of the co-located src block.
func (e *Engine) Transport(ctx context.Context, src, tgt *raster.Image, blockSize int) (*raster.Image, error) {
	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if err := raster.CheckShapes(src, tgt); err != nil {
		return nil, err
	}
	if src.Empty() {
		return nil, raster.ErrEmptyImage
	}

	out := raster.New(tgt.Width, tgt.Height)
	blocks := partition.Blocks(tgt.Width, tgt.Height, blockSize)

	if e.Workers < 2 {
		s := system.GetScratch(min(blockSize, tgt.Width) * min(blockSize, tgt.Height))
		defer system.PutScratch(s)
		for b := range blocks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			transportBlock(src, tgt, out, b, s)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for b := range blocks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s := system.GetScratch(b.Area())
			defer system.PutScratch(s)
			transportBlock(src, tgt, out, b, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// transportBlock writes the block b of out. Each block region is written once.
func transportBlock(src, tgt, out *raster.Image, b partition.Block, s *system.Scratch) {
	n := b.Area()
	s.Reset(n)

	gather(src, b, s.Pix)
	s.SrcLuma = luma.Project(s.Pix, s.SrcLuma)
	rankInto(s.SrcRank, s.SrcLuma)

	// s.Pix now holds the target block only long enough to rank it.
	gather(tgt, b, s.Pix)
	s.TgtLuma = luma.Project(s.Pix, s.TgtLuma)
	rankInto(s.TgtRank, s.TgtLuma)

	gather(src, b, s.Pix)
	for k := 0; k < n; k++ {
		from, to := s.SrcRank[k], s.TgtRank[k]
		x, y := b.X+to%b.Width, b.Y+to/b.Width
		o := out.Offset(x, y)
		copy(out.Pix[o:o+raster.Channels], s.Pix[3*from:3*from+3])
	}
}

// gather copies block b of img into dst in row-major order.
func gather(img *raster.Image, b partition.Block, dst []uint8) {
	rowBytes := b.Width * raster.Channels
	for dy := 0; dy < b.Height; dy++ {
		o := img.Offset(b.X, b.Y+dy)
		copy(dst[dy*rowBytes:(dy+1)*rowBytes], img.Pix[o:o+rowBytes])
	}
}

// rankInto fills idx with the indices of lum in ascending order. Equal values
// keep their original order.
func rankInto(idx []int, lum []float64) {
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case lum[a] < lum[b]:
			return -1
		case lum[a] > lum[b]:
			return 1
		}
		return 0
	})
}
