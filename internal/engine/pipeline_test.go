package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/pixelsculptor/internal/config"
	"github.com/ivlev/pixelsculptor/internal/logging"
	"github.com/ivlev/pixelsculptor/internal/raster"
	"github.com/ivlev/pixelsculptor/internal/transport"
)

func init() { logging.Discard() }

func gradient(w, h int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x*13) + seed,
				G: uint8(y*7) ^ seed,
				B: uint8((x + y) * 5),
				A: 255,
			})
		}
	}
	return img
}

func TestRun_SameShape(t *testing.T) {
	src, tgt := gradient(20, 12, 3), gradient(20, 12, 90)

	res, err := NewPipeline(nil).Run(context.Background(), src, tgt)
	require.NoError(t, err)

	want, err := transport.Transport(raster.FromImage(src), raster.FromImage(tgt), config.DefaultBlockSize)
	require.NoError(t, err)
	assert.True(t, want.Equal(res.Image))
	assert.False(t, res.Resized)
	assert.Equal(t, res.Score >= config.DefaultAcceptThreshold, res.Passed)
	assert.Equal(t, 20, res.TargetSize.Width)
}

func TestRun_ResizesToTarget(t *testing.T) {
	res, err := NewPipeline(nil).Run(context.Background(), gradient(40, 30, 1), gradient(17, 9, 2))
	require.NoError(t, err)

	assert.True(t, res.Resized)
	assert.Equal(t, raster.Shape{Width: 17, Height: 9, Channels: 3}, res.Image.Shape())
	assert.Equal(t, 40, res.SourceSize.Width)
	assert.Equal(t, 9, res.TargetSize.Height)
}

func TestRun_SelfIsPerfect(t *testing.T) {
	img := gradient(16, 16, 7)
	res, err := Run(context.Background(), img, img, 8, 1.0)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Score)
	assert.True(t, res.Passed)
	assert.True(t, raster.FromImage(img).Equal(res.Image))
}

func TestRun_InvalidConfig(t *testing.T) {
	img := gradient(4, 4, 0)
	for _, tt := range []struct {
		name      string
		block     int
		threshold float64
	}{
		{"zero block", 0, 0.7},
		{"negative block", -8, 0.7},
		{"threshold above one", 8, 1.5},
		{"negative threshold", 8, -0.1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), img, img, tt.block, tt.threshold)
			require.Error(t, err)
			assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
		})
	}
}

func TestRun_UnknownResample(t *testing.T) {
	cfg := config.Default()
	cfg.Resample = "lanczos9"
	_, err := NewPipeline(cfg).Run(context.Background(), gradient(2, 2, 0), gradient(2, 2, 0))
	assert.ErrorContains(t, err, "lanczos9")
}

func TestRun_EmptyImage(t *testing.T) {
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	_, err := NewPipeline(nil).Run(context.Background(), gradient(3, 3, 0), empty)
	assert.True(t, errors.Is(err, raster.ErrEmptyImage))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPipeline(nil).Run(ctx, gradient(8, 8, 0), gradient(8, 8, 1))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_WorkersDoNotChangeOutput(t *testing.T) {
	src, tgt := gradient(33, 21, 11), gradient(33, 21, 200)

	seq, err := NewPipeline(nil).Run(context.Background(), src, tgt)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Workers = 4
	par, err := NewPipeline(cfg).Run(context.Background(), src, tgt)
	require.NoError(t, err)

	assert.True(t, seq.Image.Equal(par.Image))
	assert.Equal(t, seq.Score, par.Score)
}

type memSource struct {
	images []image.Image
}

func (m *memSource) Count() int        { return len(m.images) }
func (m *memSource) Name(i int) string { return fmt.Sprintf("img%d", i) }
func (m *memSource) Close() error      { return nil }
func (m *memSource) Load(i int) (image.Image, error) {
	if m.images[i] == nil {
		return nil, errors.New("unreadable")
	}
	return m.images[i], nil
}

func TestRunBatch(t *testing.T) {
	target := gradient(12, 12, 50)
	src := &memSource{images: []image.Image{gradient(12, 12, 1), nil, gradient(24, 6, 2), target}}

	cfg := config.Default()
	cfg.Workers = 3

	var items []BatchItem
	err := NewPipeline(cfg).RunBatch(context.Background(), src, target, func(it BatchItem) {
		items = append(items, it)
	})
	require.NoError(t, err)
	require.Len(t, items, 4)

	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })
	assert.NoError(t, items[0].Err)
	assert.ErrorContains(t, items[1].Err, "img1")
	assert.True(t, items[2].Result.Resized)
	assert.Equal(t, 1.0, items[3].Result.Score)
}

func TestRunBatch_AllFail(t *testing.T) {
	src := &memSource{images: []image.Image{nil, nil}}
	err := NewPipeline(nil).RunBatch(context.Background(), src, gradient(4, 4, 0), nil)
	assert.Error(t, err)

	err = NewPipeline(nil).RunBatch(context.Background(), &memSource{}, gradient(4, 4, 0), nil)
	assert.ErrorContains(t, err, "no images")
}
