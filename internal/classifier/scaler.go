package classifier

import (
	"errors"
	"fmt"
	"math"
)

// ErrWidthMismatch is returned when a vector does not match the width a
// scaler was fitted on.
var ErrWidthMismatch = errors.New("feature width mismatch")

// Scaler standardizes features with a fitted per-column mean and scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Width returns the number of features the scaler was fitted on, or 0 when
// the scaler is nil or inconsistent.
func (s *Scaler) Width() int {
	if s == nil || len(s.Mean) != len(s.Scale) {
		return 0
	}
	return len(s.Mean)
}

// Transform returns (x - mean) / scale. A zero scale leaves the centered
// value unchanged. Non-finite results are an error.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	w := s.Width()
	if w == 0 {
		return nil, fmt.Errorf("%w: scaler has no usable width", ErrWidthMismatch)
	}
	if len(x) != w {
		return nil, fmt.Errorf("%w: got %d features, scaler expects %d", ErrWidthMismatch, len(x), w)
	}

	out := make([]float64, w)
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, fmt.Errorf("scaled feature %d is not finite", i)
		}
	}
	return out, nil
}

// Identity returns a scaler of the given width that leaves values unchanged.
func Identity(width int) *Scaler {
	s := &Scaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	for i := range s.Scale {
		s.Scale[i] = 1
	}
	return s
}
