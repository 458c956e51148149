package system

import "sync"

// Scratch holds the per-block working slices of the transport engine.
type Scratch struct {
	SrcLuma []float64
	TgtLuma []float64
	SrcRank []int
	TgtRank []int
	Pix     []uint8
}

// Reset sizes every slice for a block of n pixels, reusing capacity.
func (s *Scratch) Reset(n int) {
	s.SrcLuma = grow(s.SrcLuma, n)
	s.TgtLuma = grow(s.TgtLuma, n)
	s.SrcRank = grow(s.SrcRank, n)
	s.TgtRank = grow(s.TgtRank, n)
	s.Pix = grow(s.Pix, 3*n)
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

var scratchPool = sync.Pool{
	New: func() interface{} {
		return &Scratch{}
	},
}

// GetScratch returns a Scratch sized for n pixels.
func GetScratch(n int) *Scratch {
	s := scratchPool.Get().(*Scratch)
	s.Reset(n)
	return s
}

// PutScratch returns s to the pool.
func PutScratch(s *Scratch) {
	if s == nil {
		return
	}
	scratchPool.Put(s)
}
