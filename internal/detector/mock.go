package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed set of hands or, when a sequence is set,
// one entry of the sequence per Detect call.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	next     int
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence queues per-call results. Once exhausted, Detect returns no hands.
func (m *MockDetector) SetSequence(seq [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.sequence != nil {
		if m.next >= len(m.sequence) {
			return nil, nil
		}
		hands := m.sequence[m.next]
		m.next++
		return hands, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseLandmarks builds a hand whose digits read as open or closed under the
// tip-above-PIP rule, with the wrist at (x, y). The palm faces away from the
// camera, so an open thumb points toward +X.
func PoseLandmarks(handedness string, open [5]bool, x, y, score float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}

	h.Points[Wrist] = Point3D{X: x, Y: y}

	// Thumb
	h.Points[ThumbCMC] = Point3D{X: x + 0.03, Y: y - 0.02}
	h.Points[ThumbMCP] = Point3D{X: x + 0.05, Y: y - 0.04}
	h.Points[ThumbIP] = Point3D{X: x + 0.06, Y: y - 0.05}
	if open[0] {
		h.Points[ThumbTip] = Point3D{X: x + 0.10, Y: y - 0.07}
	} else {
		h.Points[ThumbTip] = Point3D{X: x + 0.03, Y: y - 0.06}
	}

	// Index, middle, ring, pinky laid out right to left.
	fingers := [4][4]int{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{RingMCP, RingPIP, RingDIP, RingTip},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	for i, f := range fingers {
		fx := x + 0.02 - float64(i)*0.025
		h.Points[f[0]] = Point3D{X: fx, Y: y - 0.10}
		h.Points[f[1]] = Point3D{X: fx, Y: y - 0.15}
		if open[i+1] {
			h.Points[f[2]] = Point3D{X: fx, Y: y - 0.20}
			h.Points[f[3]] = Point3D{X: fx, Y: y - 0.25}
		} else {
			h.Points[f[2]] = Point3D{X: fx, Y: y - 0.12}
			h.Points[f[3]] = Point3D{X: fx, Y: y - 0.09}
		}
	}
	// Middle MCP sits over the wrist so the palm normal is well defined.
	h.Points[MiddleMCP].X = x

	return h
}

// FistLandmarks returns a closed hand.
func FistLandmarks(handedness string, score float64) HandLandmarks {
	return PoseLandmarks(handedness, [5]bool{}, 0.3, 0.6, score)
}

// OpenPalmLandmarks returns a hand with every digit extended.
func OpenPalmLandmarks(handedness string, score float64) HandLandmarks {
	return PoseLandmarks(handedness, [5]bool{true, true, true, true, true}, 0.3, 0.6, score)
}
