// Package resize conforms an image to new pixel dimensions.
package resize

import (
	"image"
	"sort"

	"github.com/pkg/errors"

	"github.com/ivlev/pixelsculptor/internal/raster"
	"golang.org/x/image/draw"
)

// Resizer resamples an image to w×h.
type Resizer interface {
	Resize(img *raster.Image, w, h int) (*raster.Image, error)
}

// Scaler resizes with an x/image/draw interpolator.
type Scaler struct {
	Name   string
	Scaler draw.Scaler
}

var scalers = map[string]draw.Scaler{
	"nearest":         draw.NearestNeighbor,
	"approx-bilinear": draw.ApproxBiLinear,
	"bilinear":        draw.BiLinear,
	"catmull-rom":     draw.CatmullRom,
}

// Bilinear is the resampling policy used to conform sources to targets.
func Bilinear() *Scaler {
	return &Scaler{Name: "bilinear", Scaler: draw.BiLinear}
}

// ByName returns the Scaler registered under name.
func ByName(name string) (*Scaler, error) {
	s, ok := scalers[name]
	if !ok {
		return nil, errors.Errorf("unknown resample method %q, want one of %v", name, Names())
	}
	return &Scaler{Name: name, Scaler: s}, nil
}

// Names lists the registered interpolators.
func Names() []string {
	names := make([]string, 0, len(scalers))
	for n := range scalers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Scaler) Resize(img *raster.Image, w, h int) (*raster.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("cannot resize to %dx%d", w, h)
	}
	if img.Empty() {
		return nil, raster.ErrEmptyImage
	}
	if img.Width == w && img.Height == h {
		return img.Clone(), nil
	}
	src := img.ToNRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	s.Scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return raster.FromImage(dst), nil
}
