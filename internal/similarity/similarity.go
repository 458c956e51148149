// Package similarity scores how structurally similar two images are.
package similarity

import (
	"github.com/ivlev/pixelsculptor/internal/raster"
)

const (
	// DefaultWindow is the side of the square averaging window.
	DefaultWindow = 7

	k1        = 0.01
	k2        = 0.03
	dataRange = 255.0
)

var (
	c1 = (k1 * dataRange) * (k1 * dataRange)
	c2 = (k2 * dataRange) * (k2 * dataRange)
)

// Gray converts img to 8-bit luma with the fixed-point RGB→gray weights used
// by OpenCV: Y = (4899·R + 9617·G + 1868·B + 2^13) >> 14.
func Gray(img *raster.Image) []uint8 {
	out := make([]uint8, img.Width*img.Height)
	for i := range out {
		r, g, b := uint32(img.Pix[3*i]), uint32(img.Pix[3*i+1]), uint32(img.Pix[3*i+2])
		out[i] = uint8((r*4899 + g*9617 + b*1868 + 1<<13) >> 14)
	}
	return out
}

// Score returns the mean structural similarity of a and b computed on their
// grayscale versions. a and b must have the same shape.
func Score(a, b *raster.Image) (float64, error) {
	if err := raster.CheckShapes(a, b); err != nil {
		return 0, err
	}
	if a.Empty() {
		return 0, raster.ErrEmptyImage
	}
	return ssim(Gray(a), Gray(b), a.Width, a.Height, windowFor(a.Width, a.Height)), nil
}

// windowFor shrinks DefaultWindow to the largest odd size that fits.
func windowFor(w, h int) int {
	win := min(DefaultWindow, w, h)
	if win%2 == 0 {
		win--
	}
	return win
}

// ssim averages the SSIM map over every win×win window lying inside the
// image. Local statistics use a uniform window and the sample covariance.
func ssim(x, y []uint8, w, h, win int) float64 {
	np := float64(win * win)
	covNorm := 1.0
	if win > 1 {
		covNorm = np / (np - 1)
	}

	// Column sums over the current band of win rows.
	sx := make([]int64, w)
	sy := make([]int64, w)
	sxx := make([]int64, w)
	syy := make([]int64, w)
	sxy := make([]int64, w)

	addRow := func(row int, sign int64) {
		base := row * w
		for i := 0; i < w; i++ {
			a, b := int64(x[base+i]), int64(y[base+i])
			sx[i] += sign * a
			sy[i] += sign * b
			sxx[i] += sign * a * a
			syy[i] += sign * b * b
			sxy[i] += sign * a * b
		}
	}

	for r := 0; r < win; r++ {
		addRow(r, 1)
	}

	var total float64
	var count int
	for top := 0; top+win <= h; top++ {
		if top > 0 {
			addRow(top-1, -1)
			addRow(top+win-1, 1)
		}

		var wx, wy, wxx, wyy, wxy int64
		for i := 0; i < win; i++ {
			wx += sx[i]
			wy += sy[i]
			wxx += sxx[i]
			wyy += syy[i]
			wxy += sxy[i]
		}
		for left := 0; left+win <= w; left++ {
			if left > 0 {
				in, out := left+win-1, left-1
				wx += sx[in] - sx[out]
				wy += sy[in] - sy[out]
				wxx += sxx[in] - sxx[out]
				wyy += syy[in] - syy[out]
				wxy += sxy[in] - sxy[out]
			}
			total += local(wx, wy, wxx, wyy, wxy, np, covNorm)
			count++
		}
	}
	return total / float64(count)
}

func local(sx, sy, sxx, syy, sxy int64, np, covNorm float64) float64 {
	ux, uy := float64(sx)/np, float64(sy)/np
	vx := covNorm * (float64(sxx)/np - ux*ux)
	vy := covNorm * (float64(syy)/np - uy*uy)
	vxy := covNorm * (float64(sxy)/np - ux*uy)

	num := (2*ux*uy + c1) * (2*vxy + c2)
	den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
	return num / den
}
