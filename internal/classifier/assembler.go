package classifier

import (
	"github.com/ayusman/gestpipe/internal/gesture"
)

// DefaultDeltaWeight is the displacement multiplier applied before scaling.
const DefaultDeltaWeight = 10.0

// FingerWidth is the number of finger features leading every vector.
const FingerWidth = 10

// MotionLayout identifies the motion block a scaler was fitted on.
type MotionLayout int

const (
	LayoutUnknown MotionLayout = iota
	// LayoutFourElement scales axis and weighted deltas only; direction
	// indicators follow unscaled.
	LayoutFourElement
	// LayoutEightElement scales axis, weighted deltas and weighted indicators.
	LayoutEightElement
)

func (l MotionLayout) String() string {
	switch l {
	case LayoutFourElement:
		return "four-element"
	case LayoutEightElement:
		return "eight-element"
	}
	return "unknown"
}

// LayoutForWidth maps a scaler width to its motion layout.
func LayoutForWidth(width int) MotionLayout {
	switch width {
	case 4:
		return LayoutFourElement
	case 8:
		return LayoutEightElement
	}
	return LayoutUnknown
}

// Assembler builds classifier input vectors: ten unscaled finger states
// followed by the motion block the scaler expects.
type Assembler struct {
	Scaler      *Scaler
	DeltaWeight float64
}

// NewAssembler creates an assembler with the default delta weight.
func NewAssembler(s *Scaler) *Assembler {
	return &Assembler{Scaler: s, DeltaWeight: DefaultDeltaWeight}
}

// Layout reports the motion layout of the configured scaler.
func (a *Assembler) Layout() MotionLayout {
	return LayoutForWidth(a.Scaler.Width())
}

// ExpectedWidth is the full vector width for the configured scaler, also the
// width of the zero fallback vector.
func (a *Assembler) ExpectedWidth() int {
	return FingerWidth + max(a.Scaler.Width(), 8)
}

// Assemble builds the feature vector. It never fails: width problems are
// logged and degrade to an unscaled motion block or, as a last resort, to a
// zero vector of ExpectedWidth.
func (a *Assembler) Assemble(left, right gesture.FingerState, m gesture.MotionFeatures) []float64 {
	vec := make([]float64, 0, a.ExpectedWidth())
	vec = append(vec, left.Floats()...)
	vec = append(vec, right.Floats()...)

	w := a.DeltaWeight
	ind := indicators(m)
	base := []float64{float64(m.MainAxisX), float64(m.MainAxisY), m.DeltaX * w, m.DeltaY * w}

	switch layout := a.Layout(); layout {
	case LayoutEightElement:
		block := append(base, ind[0]*w, ind[1]*w, ind[2]*w, ind[3]*w)
		scaled, err := a.Scaler.Transform(block)
		if err != nil {
			Logf("feature assembly failed (%s): %v", layout, err)
			return a.zero()
		}
		return append(vec, scaled...)

	case LayoutFourElement:
		scaled, err := a.Scaler.Transform(base)
		if err != nil {
			Logf("feature assembly failed (%s): %v", layout, err)
			return a.zero()
		}
		vec = append(vec, scaled...)
		return append(vec, ind[:]...)

	default:
		Logf("unexpected scaler width %d, using basic motion block", a.Scaler.Width())
		scaled, err := a.Scaler.Transform(base)
		if err != nil {
			Logf("scaling basic motion block failed, using unscaled values: %v", err)
			scaled = base
		}
		vec = append(vec, scaled...)
		if len(vec) != a.ExpectedWidth() {
			Logf("feature width mismatch: expected %d, got %d", a.ExpectedWidth(), len(vec))
		}
		return vec
	}
}

func (a *Assembler) zero() []float64 {
	return make([]float64, a.ExpectedWidth())
}

// indicators derives left, right, up, down from the axis-collapsed deltas,
// matching how training vectors are built.
func indicators(m gesture.MotionFeatures) [4]float64 {
	var ind [4]float64
	if m.DeltaX < 0 {
		ind[0] = 1
	}
	if m.DeltaX > 0 {
		ind[1] = 1
	}
	if m.DeltaY < 0 {
		ind[2] = 1
	}
	if m.DeltaY > 0 {
		ind[3] = 1
	}
	return ind
}

// StaticDynamicFeatures builds the sub-classifier input: ten finger states
// and the raw displacement magnitude.
func StaticDynamicFeatures(left, right gesture.FingerState, magnitude float64) []float64 {
	vec := make([]float64, 0, FingerWidth+1)
	vec = append(vec, left.Floats()...)
	vec = append(vec, right.Floats()...)
	return append(vec, magnitude)
}
