// Package detector provides the hand landmark source consumed by the recognizer.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the tracker.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Point3D represents a landmark position in normalized image coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Wrist2D returns the wrist position projected onto the image plane.
func (h *HandLandmarks) Wrist2D() (x, y float64) {
	w := h.Points[Wrist]
	return w.X, w.Y
}

// Frame is one tracker observation: zero or more hands seen in the same image.
type Frame struct {
	Hands     []HandLandmarks `json:"hands"`
	Timestamp int64           `json:"timestamp"` // milliseconds
}

// Hand returns the most confident hand with the given handedness, or nil.
func (f Frame) Hand(handedness string) *HandLandmarks {
	var best *HandLandmarks
	for i := range f.Hands {
		h := &f.Hands[i]
		if h.Handedness != handedness {
			continue
		}
		if best == nil || h.Score > best.Score {
			best = h
		}
	}
	return best
}

// Left returns the left hand and its confidence (0 when absent).
func (f Frame) Left() (*HandLandmarks, float64) {
	h := f.Hand(HandLeft)
	if h == nil {
		return nil, 0
	}
	return h, h.Score
}

// Right returns the right hand and its confidence (0 when absent).
func (f Frame) Right() (*HandLandmarks, float64) {
	h := f.Hand(HandRight)
	if h == nil {
		return nil, 0
	}
	return h, h.Score
}
