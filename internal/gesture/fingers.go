// Package gesture provides the per-frame hand features the recognizer works on:
// finger states, motion buffering and features, gesture templates and
// finger-pattern confidence adjustment.
package gesture

import (
	"fmt"

	"github.com/ayusman/gestpipe/internal/detector"
)

// FingerState is the open (1) / closed (0) reading of thumb, index, middle,
// ring and pinky, in that order.
type FingerState [5]int

// String renders the state as "[1 0 0 0 0]".
func (s FingerState) String() string {
	return fmt.Sprintf("%v", [5]int(s))
}

// Matches returns how many digits agree between s and o.
func (s FingerState) Matches(o FingerState) int {
	n := 0
	for i := range s {
		if s[i] == o[i] {
			n++
		}
	}
	return n
}

// Floats returns the state as a feature slice.
func (s FingerState) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

// Valid reports whether every digit is 0 or 1.
func (s FingerState) Valid() bool {
	for _, v := range s {
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

// FingerStates extracts the digit vector of one hand.
//
// The thumb is judged horizontally against its IP joint, mirrored by palm
// orientation (sign of the wrist->middle MCP x wrist->pinky MCP cross product).
// The other digits are open when their tip is above their PIP joint.
func FingerStates(hand *detector.HandLandmarks) FingerState {
	var states FingerState
	if hand == nil {
		return states
	}

	p := &hand.Points
	wrist := p[detector.Wrist]
	v1x, v1y := p[detector.MiddleMCP].X-wrist.X, p[detector.MiddleMCP].Y-wrist.Y
	v2x, v2y := p[detector.PinkyMCP].X-wrist.X, p[detector.PinkyMCP].Y-wrist.Y
	palmFacing := v1x*v2y-v1y*v2x > 0

	tip, ip := p[detector.ThumbTip].X, p[detector.ThumbIP].X
	if palmFacing {
		states[0] = boolToInt(tip < ip)
	} else {
		states[0] = boolToInt(tip > ip)
	}

	states[1] = boolToInt(p[detector.IndexTip].Y < p[detector.IndexPIP].Y)
	states[2] = boolToInt(p[detector.MiddleTip].Y < p[detector.MiddlePIP].Y)
	states[3] = boolToInt(p[detector.RingTip].Y < p[detector.RingPIP].Y)
	states[4] = boolToInt(p[detector.PinkyTip].Y < p[detector.PinkyPIP].Y)

	return states
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// TriggerSet is the set of left-hand readings that count as a closed trigger.
type TriggerSet []FingerState

// DefaultTriggerSet accepts a full fist and a fist with the thumb read as
// extended, which the tracker reports often for a closed hand.
func DefaultTriggerSet() TriggerSet {
	return TriggerSet{
		{0, 0, 0, 0, 0},
		{1, 0, 0, 0, 0},
	}
}

// Contains reports whether s is one of the trigger readings.
func (t TriggerSet) Contains(s FingerState) bool {
	for _, c := range t {
		if c == s {
			return true
		}
	}
	return false
}

// IsTriggerClosed reports whether hand is present and closed.
func (t TriggerSet) IsTriggerClosed(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}
	return t.Contains(FingerStates(hand))
}
