package recognizer

import (
	"time"

	"github.com/ayusman/gestpipe/internal/gesture"
)

// State is the capture state machine position.
type State int

const (
	StateWait State = iota
	StateRecord
	StatePredict
)

func (s State) String() string {
	switch s {
	case StateWait:
		return "WAIT"
	case StateRecord:
		return "RECORD"
	case StatePredict:
		return "PREDICT"
	}
	return "UNKNOWN"
}

// Session is the transient state of one capture. It is created on entering
// RECORD and dropped on returning to WAIT.
type Session struct {
	Started time.Time
	Buffer  *gesture.MotionBuffer

	// Left is frozen at entry; the trigger hand never feeds classification.
	Left gesture.FingerState
	// Right is refreshed on every confident frame.
	Right    gesture.FingerState
	HasRight bool

	holding       bool
	holdStart     time.Time
	holdPattern   gesture.FingerState
	holdCompleted bool
	holdDuration  time.Duration
}

func newSession(capacity int, left, right gesture.FingerState, now time.Time) *Session {
	return &Session{
		Started:  now,
		Buffer:   gesture.NewMotionBuffer(capacity),
		Left:     left,
		Right:    right,
		HasRight: true,
	}
}

// Holding reports whether the static-hold detector is engaged.
func (s *Session) Holding() bool { return s.holding }

// HoldPattern is the right-hand state captured when the hold started.
func (s *Session) HoldPattern() gesture.FingerState { return s.holdPattern }

// updateHold advances the static-hold detector with the latest sample and
// reports whether the hold has lasted long enough to force a prediction.
func (s *Session) updateHold(window int, threshold float64, holdTime time.Duration, now time.Time) bool {
	if s.Buffer.Len() <= window {
		return false
	}

	if gesture.Displacement(s.Buffer.Recent(window)) >= threshold {
		if s.holding {
			Logf("motion detected, static hold cancelled")
		}
		s.holding = false
		s.holdDuration = 0
		return false
	}

	if !s.holding {
		s.holding = true
		s.holdStart = now
		s.holdPattern = s.Right
		return false
	}

	s.holdDuration = now.Sub(s.holdStart)
	if s.Right != s.holdPattern {
		Logf("finger states changed, static hold reset")
		s.holding = false
		s.holdDuration = 0
		return false
	}
	if s.holdDuration >= holdTime {
		s.holdCompleted = true
		return true
	}
	return false
}
