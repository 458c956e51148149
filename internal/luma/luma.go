// Package luma projects RGB pixels onto a scalar perceptual luminance using
// the ITU-R BT.709 coefficients.
package luma

const (
	WeightR = 0.2126
	WeightG = 0.7152
	WeightB = 0.0722
)

// Of returns the luminance of one pixel. Channel order is R, G, B.
// The explicit conversions keep the compiler from fusing multiply-adds, so
// rankings are identical on every architecture.
func Of(r, g, b uint8) float64 {
	return float64(WeightR*float64(r)) + float64(WeightG*float64(g)) + float64(WeightB*float64(b))
}

// Project computes the luminance of every RGB triple in pix. dst is reused
// when it has enough capacity.
func Project(pix []uint8, dst []float64) []float64 {
	n := len(pix) / 3
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = Of(pix[3*i], pix[3*i+1], pix[3*i+2])
	}
	return dst
}
