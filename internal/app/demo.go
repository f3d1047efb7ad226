package app

import "github.com/ayusman/gestpipe/internal/detector"

// DemoSequence scripts a tracker session for running without a camera or
// MediaPipe: both hands rest open, the left hand closes, the right hand
// (index and middle extended) swipes right, and the left hand opens again.
// The reference classifier reads it as next_slide.
func DemoSequence() [][]detector.HandLandmarks {
	twoFingers := [5]bool{false, true, true, false, false}
	left := detector.OpenPalmLandmarks(detector.HandLeft, 0.9)
	fist := detector.FistLandmarks(detector.HandLeft, 0.9)

	var seq [][]detector.HandLandmarks
	for i := 0; i < 3; i++ {
		seq = append(seq, []detector.HandLandmarks{left, detector.PoseLandmarks(detector.HandRight, twoFingers, 0.3, 0.6, 0.9)})
	}
	for i := 0; i <= 10; i++ {
		right := detector.PoseLandmarks(detector.HandRight, twoFingers, 0.3+0.03*float64(i), 0.6, 0.9)
		seq = append(seq, []detector.HandLandmarks{fist, right})
	}
	release := detector.PoseLandmarks(detector.HandRight, twoFingers, 0.63, 0.6, 0.9)
	return append(seq, []detector.HandLandmarks{left, release})
}
