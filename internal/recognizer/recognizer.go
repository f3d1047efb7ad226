// Package recognizer turns a stream of landmark frames into gesture
// predictions. The left hand acts as a trigger: closing it starts a capture
// of right-hand motion, opening it (or holding the right hand still) ends the
// capture and classifies it.
package recognizer

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/gestpipe/internal/classifier"
	"github.com/ayusman/gestpipe/internal/config"
	"github.com/ayusman/gestpipe/internal/detector"
	"github.com/ayusman/gestpipe/internal/gesture"
)

// Logf is the package diagnostic logger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. nil mutes the package.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	Logf = f
}

var (
	// ErrNoRightHand is returned when a capture ends without a right-hand reading.
	ErrNoRightHand = errors.New("no right hand finger state")
	// ErrPredictionFailed wraps classifier failures during PREDICT.
	ErrPredictionFailed = errors.New("prediction failed")
)

// Result is one classified capture.
type Result struct {
	Gesture       string                 `json:"gesture"`
	Type          gesture.Type           `json:"type"`
	RawConfidence float64                `json:"raw_confidence"`
	Confidence    float64                `json:"confidence"`
	Boost         float64                `json:"boost"`
	Accepted      bool                   `json:"accepted"`
	TopK          []classifier.Scored    `json:"top_k"`
	Left          gesture.FingerState    `json:"left_fingers"`
	Right         gesture.FingerState    `json:"right_fingers"`
	Features      gesture.MotionFeatures `json:"motion_features"`
	Samples       int                    `json:"samples"`
	HoldActive    bool                   `json:"hold_active"`
	HoldCompleted bool                   `json:"hold_completed"`
	HoldDuration  time.Duration          `json:"hold_duration"`
	At            time.Time              `json:"at"`
}

// Recognizer is the WAIT -> RECORD -> PREDICT state machine. It is driven by
// a single goroutine through Step and is not safe for concurrent use.
type Recognizer struct {
	cfg       config.Recognizer
	triggers  gesture.TriggerSet
	artifacts *classifier.Cache
	patterns  gesture.PatternTable

	state   State
	session *Session
	last    *Result

	// OnStateChange, when set, is called on every transition.
	OnStateChange func(from, to State)
}

// New creates a recognizer. patterns may be nil, which disables boosting.
// An empty cfg.TriggerSet uses gesture.DefaultTriggerSet.
func New(cfg config.Recognizer, artifacts *classifier.Cache, patterns gesture.PatternTable) *Recognizer {
	triggers := gesture.DefaultTriggerSet()
	if len(cfg.TriggerSet) > 0 {
		triggers = make(gesture.TriggerSet, len(cfg.TriggerSet))
		for i, state := range cfg.TriggerSet {
			triggers[i] = gesture.FingerState(state)
		}
	}
	return &Recognizer{
		cfg:       cfg,
		triggers:  triggers,
		artifacts: artifacts,
		patterns:  patterns,
		state:     StateWait,
	}
}

// State returns the current state.
func (r *Recognizer) State() State {
	return r.state
}

// Session returns the active capture, or nil in WAIT.
func (r *Recognizer) Session() *Session {
	return r.session
}

// Reset abandons any capture and returns to WAIT.
func (r *Recognizer) Reset() {
	r.session = nil
	r.transition(StateWait)
}

// LastResult returns the most recent result while it is younger than the
// display duration.
func (r *Recognizer) LastResult(now time.Time) *Result {
	if r.last == nil || now.Sub(r.last.At) >= r.cfg.DisplayDuration.Duration {
		return nil
	}
	return r.last
}

// Step advances the machine by one frame. It returns a Result when a capture
// was classified on this frame. Errors are per-capture and leave the machine
// in WAIT, ready for the next frame.
func (r *Recognizer) Step(frame detector.Frame, now time.Time) (*Result, error) {
	left, leftConf := frame.Left()
	right, rightConf := frame.Right()
	minConf := r.cfg.MinHandConfidence

	switch r.state {
	case StateWait:
		if right == nil || leftConf <= minConf || rightConf <= minConf || !r.triggers.IsTriggerClosed(left) {
			return nil, nil
		}
		r.session = newSession(r.cfg.BufferSize, gesture.FingerStates(left), gesture.FingerStates(right), now)
		r.transition(StateRecord)
		Logf("recording gesture")
		return nil, nil

	case StateRecord:
		s := r.session
		if right != nil && rightConf > minConf {
			x, y := right.Wrist2D()
			s.Buffer.Append(gesture.Point2D{X: x, Y: y})
			s.Right = gesture.FingerStates(right)
			s.HasRight = true

			if s.updateHold(r.cfg.StaticWindow, r.cfg.StaticDetectionThreshold, r.cfg.StaticHoldTime.Duration, now) {
				Logf("static gesture held for %.1fs", s.holdDuration.Seconds())
				r.transition(StatePredict)
			}
		}
		if !r.triggers.IsTriggerClosed(left) {
			r.transition(StatePredict)
		}
		if r.state != StatePredict {
			return nil, nil
		}
		return r.predict(now)
	}

	return nil, nil
}

func (r *Recognizer) predict(now time.Time) (res *Result, err error) {
	s := r.session
	defer r.Reset()
	defer func() {
		if p := recover(); p != nil {
			Logf("prediction failed: %v", p)
			res, err = nil, fmt.Errorf("%w: %v", ErrPredictionFailed, p)
		}
	}()

	if s == nil || !s.HasRight {
		Logf("%v, capture skipped", ErrNoRightHand)
		return nil, ErrNoRightHand
	}

	points := s.Buffer.Points()
	if len(points) < 2 {
		points = []gesture.Point2D{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}}
	} else {
		points = gesture.Smooth(points, r.cfg.SmoothingWindow)
	}

	features, err := gesture.ComputeMotion(points, r.cfg.MinDeltaMagnitude, true)
	if err != nil {
		Logf("prediction failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}

	typ := r.classifyType(s, features.DeltaMagnitude)
	right := s.Right
	if typ == gesture.TypeStatic {
		right = s.holdPattern
	}

	artifacts, err := r.artifacts.Get()
	if err != nil {
		Logf("prediction failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}
	pred, err := artifacts.Predict(s.Left, right, features)
	if err != nil {
		Logf("prediction failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}

	boost := r.patterns.Boost(pred.Label, right)
	confidence := gesture.ApplyBoost(pred.Confidence, boost)

	res = &Result{
		Gesture:       pred.Label,
		Type:          typ,
		RawConfidence: pred.Confidence,
		Confidence:    confidence,
		Boost:         boost,
		Accepted:      confidence >= r.cfg.MinPredictionConfidence,
		TopK:          pred.TopK,
		Left:          s.Left,
		Right:         right,
		Features:      features,
		Samples:       s.Buffer.Len(),
		HoldActive:    s.holding,
		HoldCompleted: s.holdCompleted,
		HoldDuration:  s.holdDuration,
		At:            now,
	}
	r.last = res

	if res.Accepted {
		Logf("%s gesture: %s (confidence %.3f, boost %+.2f)", typ, res.Gesture, confidence, boost)
	} else {
		Logf("low confidence %s gesture: %s (%.3f)", typ, res.Gesture, confidence)
	}
	return res, nil
}

// classifyType applies the hold policy to the hold detector and the
// recomputed displacement.
func (r *Recognizer) classifyType(s *Session, magnitude float64) gesture.Type {
	still := magnitude < r.cfg.StaticDeltaThreshold

	var static bool
	switch r.cfg.HoldPolicy {
	case config.HoldPolicyHold:
		static = s.holding
	case config.HoldPolicyMagnitude:
		static = still
	default:
		static = s.holding && still
	}

	if s.holding != still {
		Logf("hold detector (%v) and displacement %.4f disagree, policy %q", s.holding, magnitude, r.cfg.HoldPolicy)
	}
	if static {
		return gesture.TypeStatic
	}
	return gesture.TypeDynamic
}

func (r *Recognizer) transition(to State) {
	from := r.state
	r.state = to
	if from != to && r.OnStateChange != nil {
		r.OnStateChange(from, to)
	}
}
