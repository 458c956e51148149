// Package engine sequences resize, transport and validation over a pair
// of images, singly or for every entry of a multi-image source.
package engine

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"

	"github.com/ivlev/pixelsculptor/internal/config"
	"github.com/ivlev/pixelsculptor/internal/logging"
	"github.com/ivlev/pixelsculptor/internal/raster"
	"github.com/ivlev/pixelsculptor/internal/report"
	"github.com/ivlev/pixelsculptor/internal/resize"
	"github.com/ivlev/pixelsculptor/internal/similarity"
	"github.com/ivlev/pixelsculptor/internal/transport"
)

// Result is the outcome of one run. A low score is still a Result.
type Result struct {
	Image      *raster.Image
	Score      float64
	Passed     bool
	Resized    bool
	SourceSize report.Size
	TargetSize report.Size
	Timings    report.Timings
}

type Pipeline struct {
	cfg       config.Config
	resizer   resize.Resizer
	resizeErr error
}

type Option func(*Pipeline)

// WithResizer overrides the resampler picked from the configuration.
func WithResizer(r resize.Resizer) Option {
	return func(p *Pipeline) { p.resizer = r }
}

func NewPipeline(cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{cfg: *cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.resizer == nil {
		p.resizer, p.resizeErr = resize.ByName(p.cfg.Resample)
	}
	return p
}

// Run transforms source toward target with the configured block size and
// threshold.
func Run(ctx context.Context, source, target image.Image, blockSize int, threshold float64) (*Result, error) {
	cfg := config.Default()
	cfg.BlockSize = blockSize
	cfg.AcceptThreshold = threshold
	return NewPipeline(cfg).Run(ctx, source, target)
}

func (p *Pipeline) Run(ctx context.Context, source, target image.Image) (*Result, error) {
	if err := p.prepare(); err != nil {
		return nil, err
	}
	return p.run(ctx, raster.FromImage(source), raster.FromImage(target), p.cfg.Workers)
}

func (p *Pipeline) prepare() error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	return p.resizeErr
}

func (p *Pipeline) run(ctx context.Context, src, tgt *raster.Image, workers int) (*Result, error) {
	if tgt.Empty() {
		return nil, errors.Wrap(raster.ErrEmptyImage, "target")
	}
	if src.Empty() {
		return nil, errors.Wrap(raster.ErrEmptyImage, "source")
	}

	res := &Result{
		SourceSize: report.Size{Width: src.Width, Height: src.Height},
		TargetSize: report.Size{Width: tgt.Width, Height: tgt.Height},
	}

	if src.Width != tgt.Width || src.Height != tgt.Height {
		start := time.Now()
		resized, err := p.resizer.Resize(src, tgt.Width, tgt.Height)
		if err != nil {
			return nil, errors.Wrap(err, "resizing source")
		}
		res.Timings.Resize = time.Since(start)
		res.Resized = true
		logging.Debugf("[*] resized source %dx%d -> %dx%d in %s",
			src.Width, src.Height, tgt.Width, tgt.Height, res.Timings.Resize)
		src = resized
	}

	start := time.Now()
	eng := &transport.Engine{Workers: workers}
	out, err := eng.Transport(ctx, src, tgt, p.cfg.BlockSize)
	if err != nil {
		return nil, errors.Wrap(err, "transport")
	}
	res.Timings.Transport = time.Since(start)

	start = time.Now()
	verdict, err := similarity.NewValidator(p.cfg.AcceptThreshold).Validate(out, tgt)
	if err != nil {
		return nil, errors.Wrap(err, "validating")
	}
	res.Timings.Validate = time.Since(start)

	res.Image = out
	res.Score = verdict.Score
	res.Passed = verdict.Passed
	logging.Debugf("[*] block=%d score=%.4f passed=%v", p.cfg.BlockSize, res.Score, res.Passed)
	return res, nil
}
