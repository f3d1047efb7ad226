// Package practice grades a captured gesture against its reference template.
//
// Checks run in a fixed order and the first failing one decides the outcome:
// template lookup, right-hand fingers, static hold or motion size, axis,
// direction, and finally the classifier's own verdict.
package practice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ayusman/gestpipe/internal/classifier"
	"github.com/ayusman/gestpipe/internal/config"
	"github.com/ayusman/gestpipe/internal/gesture"
)

// Reason codes.
const (
	ReasonNoTemplate      = "no_template"
	ReasonRightFingers    = "right_fingers"
	ReasonStaticDuration  = "static_duration"
	ReasonStaticMotion    = "static_motion"
	ReasonStaticCorrect   = "static_correct"
	ReasonMotionSmall     = "motion_small"
	ReasonWrongAxis       = "wrong_axis"
	ReasonWrongDirection  = "wrong_direction"
	ReasonLowConfidence   = "low_confidence"
	ReasonWrongPrediction = "wrong_prediction"
	ReasonMLCorrect       = "ml_correct"
	ReasonMLError         = "ml_error"
	ReasonError           = "error"
)

// Attempt is one captured gesture to grade.
type Attempt struct {
	Left     gesture.FingerState
	Right    gesture.FingerState
	Motion   gesture.MotionFeatures
	Target   string
	Duration time.Duration
}

// Result is the grade of an Attempt. Predicted and Confidence are set only
// when the classifier ran.
type Result struct {
	Success    bool    `json:"success"`
	ReasonCode string  `json:"reason_code"`
	Message    string  `json:"reason_msg"`
	Target     string  `json:"target_gesture"`
	Predicted  string  `json:"predicted,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

func fail(target, code, format string, args ...interface{}) Result {
	return Result{ReasonCode: code, Message: fmt.Sprintf(format, args...), Target: target}
}

func pass(target, code, format string, args ...interface{}) Result {
	r := fail(target, code, format, args...)
	r.Success = true
	return r
}

// Evaluator grades attempts. It is safe for concurrent use; the templates are
// read-only and the artifacts come from a shared cache.
type Evaluator struct {
	templates *gesture.TemplateSet
	artifacts *classifier.Cache
	cfg       config.Practice
}

// NewEvaluator creates an evaluator.
func NewEvaluator(templates *gesture.TemplateSet, artifacts *classifier.Cache, cfg config.Practice) *Evaluator {
	return &Evaluator{templates: templates, artifacts: artifacts, cfg: cfg}
}

// Templates returns the reference templates.
func (e *Evaluator) Templates() *gesture.TemplateSet {
	return e.templates
}

// Evaluate grades a. It never returns an error: classifier problems become
// an ml_error result.
func (e *Evaluator) Evaluate(ctx context.Context, a Attempt) Result {
	tpl, ok := e.templates.Get(a.Target)
	if !ok {
		return fail(a.Target, ReasonNoTemplate, "No template found for %s", a.Target)
	}

	if a.Right != tpl.Right {
		return fail(a.Target, ReasonRightFingers, "Wrong right fingers: got %s, expected %s",
			listString(a.Right), listString(tpl.Right))
	}

	e.logStaticDynamic(tpl, a)

	m := a.Motion
	if tpl.IsStatic {
		holdTime := e.cfg.StaticHoldTime.Seconds()
		if a.Duration.Seconds() < holdTime {
			return fail(a.Target, ReasonStaticDuration, "Hold longer: %.1fs < %.1fs", a.Duration.Seconds(), holdTime)
		}
		if m.DeltaMagnitude > e.cfg.StaticMaxMotion {
			return fail(a.Target, ReasonStaticMotion, "Too much motion: %.3f", m.DeltaMagnitude)
		}
		return pass(a.Target, ReasonStaticCorrect, "Static gesture held for %.1fs", a.Duration.Seconds())
	}

	if m.DeltaMagnitude < e.cfg.DynamicMinMotion {
		return fail(a.Target, ReasonMotionSmall, "Movement too small: %.3f", m.DeltaMagnitude)
	}

	// Grade and classify on the uncollapsed displacement.
	m.DeltaX, m.DeltaY = m.RawDX, m.RawDY

	wantHorizontal := tpl.MainAxisX == 1
	if wantHorizontal != m.Horizontal() {
		axis := "vertical"
		if wantHorizontal {
			axis = "horizontal"
		}
		return fail(a.Target, ReasonWrongAxis, "Wrong axis: expected %s movement", axis)
	}

	if dir, ok := directionMatches(tpl, m); !ok {
		return fail(a.Target, ReasonWrongDirection, "Wrong direction: expected %s", dir)
	}

	return e.classify(ctx, tpl, a, m)
}

// directionMatches compares the sign of the captured delta on the template's
// axis. Horizontally a zero delta is accepted; vertically it is not.
func directionMatches(tpl gesture.Template, m gesture.MotionFeatures) (string, bool) {
	if tpl.MainAxisX == 1 {
		want, got := tpl.DeltaX, m.RawDX
		if (want > 0 && got < 0) || (want < 0 && got > 0) {
			if want > 0 {
				return "right", false
			}
			return "left", false
		}
		return "", true
	}

	want, got := tpl.DeltaY, m.RawDY
	if (want > 0 && got <= 0) || (want < 0 && got >= 0) {
		if want > 0 {
			return "down", false
		}
		return "up", false
	}
	return "", true
}

func (e *Evaluator) classify(ctx context.Context, tpl gesture.Template, a Attempt, m gesture.MotionFeatures) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = fail(a.Target, ReasonMLError, "Prediction failed: %v", r)
		}
	}()

	if e.artifacts == nil {
		return fail(a.Target, ReasonMLError, "Prediction failed: classifier not configured")
	}
	if err := ctx.Err(); err != nil {
		return fail(a.Target, ReasonMLError, "Prediction failed: %v", err)
	}
	artifacts, err := e.artifacts.Get()
	if err != nil {
		return fail(a.Target, ReasonMLError, "Prediction failed: %v", err)
	}
	// The trigger hand's live reading is never trusted; the template's left
	// state stands in for it.
	p, err := artifacts.Predict(tpl.Left, a.Right, m)
	if err != nil {
		return fail(a.Target, ReasonMLError, "Prediction failed: %v", err)
	}

	pct := p.Confidence * 100
	switch {
	case p.Confidence < e.cfg.MinConfidence:
		res = fail(a.Target, ReasonLowConfidence, "Too uncertain: %.1f%% < %.0f%%", pct, e.cfg.MinConfidence*100)
	case p.Label != a.Target:
		res = fail(a.Target, ReasonWrongPrediction, "ML predicted: %s (%.1f%%)", p.Label, pct)
	default:
		res = pass(a.Target, ReasonMLCorrect, "Perfect! (%.1f%% confidence)", pct)
	}
	res.Predicted = p.Label
	res.Confidence = p.Confidence
	return res
}

// logStaticDynamic reports the sub-classifier's opinion, loading the
// artifacts on first use. The template decides which branch is graded.
func (e *Evaluator) logStaticDynamic(tpl gesture.Template, a Attempt) {
	if e.artifacts == nil {
		return
	}
	artifacts, err := e.artifacts.Get()
	if err != nil || artifacts.StaticDynamic == nil {
		return
	}
	typ, p, err := artifacts.StaticDynamic.Classify(tpl.Left, a.Right, a.Motion.DeltaMagnitude)
	if err != nil {
		log.Printf("static/dynamic check failed for %s: %v", a.Target, err)
		return
	}
	if typ != tpl.Type() {
		log.Printf("static/dynamic classifier says %s (%.2f), template %s is %s", typ, p, tpl.Name, tpl.Type())
	}
}

// listString renders a finger state as "[1, 0, 0, 0, 0]".
func listString(s gesture.FingerState) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
