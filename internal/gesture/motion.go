package gesture

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Motion defaults.
const (
	// DefaultSmoothingWindow is the centered moving-average width.
	DefaultSmoothingWindow = 3
	// DefaultMinDeltaMagnitude is the smallest displacement accepted as a
	// dynamic gesture when computation is not forced.
	DefaultMinDeltaMagnitude = 0.0005
)

var (
	// ErrTooFewPoints is returned when fewer than two samples are available.
	ErrTooFewPoints = errors.New("need at least two motion samples")
	// ErrInsufficientMotion is returned when the displacement is below the
	// minimum magnitude and computation was not forced.
	ErrInsufficientMotion = errors.New("insufficient motion")
)

// MotionFeatures describes the displacement of the tracked wrist between the
// first and last smoothed sample.
type MotionFeatures struct {
	MainAxisX      int     `json:"main_axis_x"`
	MainAxisY      int     `json:"main_axis_y"`
	DeltaX         float64 `json:"delta_x"`
	DeltaY         float64 `json:"delta_y"`
	MotionLeft     float64 `json:"motion_left"`
	MotionRight    float64 `json:"motion_right"`
	MotionUp       float64 `json:"motion_up"`
	MotionDown     float64 `json:"motion_down"`
	DeltaMagnitude float64 `json:"delta_magnitude"`
	RawDX          float64 `json:"raw_dx"`
	RawDY          float64 `json:"raw_dy"`
}

// Horizontal reports whether X is the dominant axis.
func (m MotionFeatures) Horizontal() bool {
	return m.MainAxisX == 1
}

// Smooth applies a centered moving average. The window is clipped at the
// buffer edges, so end points average fewer samples.
func Smooth(points []Point2D, window int) []Point2D {
	if len(points) == 0 {
		return nil
	}
	half := window / 2
	if half < 0 {
		half = 0
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	smoothed := make([]Point2D, len(points))
	for i := range points {
		start := max(0, i-half)
		end := min(len(points), i+half+1)
		smoothed[i] = Point2D{
			X: stat.Mean(xs[start:end], nil),
			Y: stat.Mean(ys[start:end], nil),
		}
	}
	return smoothed
}

// ComputeMotion derives motion features from already smoothed points.
//
// The dominant axis is X when |dx| >= |dy|; the other delta is zeroed.
// DeltaMagnitude and the direction indicators use the raw dx, dy.
// Unless force is set, a magnitude below minMagnitude yields ErrInsufficientMotion.
func ComputeMotion(points []Point2D, minMagnitude float64, force bool) (MotionFeatures, error) {
	if len(points) < 2 {
		return MotionFeatures{}, ErrTooFewPoints
	}

	first, last := points[0], points[len(points)-1]
	dx := last.X - first.X
	dy := last.Y - first.Y
	magnitude := math.Hypot(dx, dy)

	if !force && magnitude < minMagnitude {
		return MotionFeatures{}, ErrInsufficientMotion
	}

	m := MotionFeatures{
		DeltaMagnitude: magnitude,
		RawDX:          dx,
		RawDY:          dy,
	}
	if math.Abs(dx) >= math.Abs(dy) {
		m.MainAxisX = 1
		m.DeltaX = dx
	} else {
		m.MainAxisY = 1
		m.DeltaY = dy
	}

	if dx < 0 {
		m.MotionLeft = 1
	} else if dx > 0 {
		m.MotionRight = 1
	}
	if dy < 0 {
		m.MotionUp = 1
	} else if dy > 0 {
		m.MotionDown = 1
	}

	return m, nil
}

// Displacement returns the straight-line distance between the first and last
// point, or 0 for fewer than two points.
func Displacement(points []Point2D) float64 {
	if len(points) < 2 {
		return 0
	}
	first, last := points[0], points[len(points)-1]
	return math.Hypot(last.X-first.X, last.Y-first.Y)
}
