package similarity

import (
	"github.com/ivlev/pixelsculptor/internal/raster"
)

// Verdict is a score and its classification.
type Verdict struct {
	Score  float64
	Passed bool
}

// Validator classifies scores against an acceptance threshold.
type Validator struct {
	Threshold float64
}

func NewValidator(threshold float64) *Validator {
	return &Validator{Threshold: threshold}
}

// Classify reports whether score reaches the threshold. The boundary passes.
func (v *Validator) Classify(score float64) bool {
	return score >= v.Threshold
}

// Validate scores a against b and classifies the result. A low score is not an
// error.
func (v *Validator) Validate(a, b *raster.Image) (Verdict, error) {
	score, err := Score(a, b)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Score: score, Passed: v.Classify(score)}, nil
}
