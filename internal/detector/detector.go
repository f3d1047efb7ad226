package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark trackers.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Mirror flips frames horizontally before detection so handedness
	// matches what the user sees on screen.
	Mirror bool

	// ScriptPath overrides the hand_landmarker.py lookup.
	ScriptPath string
}

// DefaultConfig returns the tracker settings the recognizer was tuned with.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
		Mirror:          true,
	}
}
