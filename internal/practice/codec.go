package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ayusman/gestpipe/internal/gesture"
)

const maxRequestSize = 1 << 20

// Request is the wire form of an Attempt, shared by the CLI and the HTTP API.
type Request struct {
	LeftFingers    []int          `json:"left_fingers"`
	RightFingers   []int          `json:"right_fingers"`
	MotionFeatures *requestMotion `json:"motion_features"`
	TargetGesture  *string        `json:"target_gesture"`
	Duration       *float64       `json:"duration,omitempty"`
}

// requestMotion distinguishes an absent raw_dx/raw_dy from a zero one.
type requestMotion struct {
	gesture.MotionFeatures
	RawDX *float64 `json:"raw_dx"`
	RawDY *float64 `json:"raw_dy"`
}

// Response is the wire form of a Result.
type Response struct {
	Success       bool   `json:"success"`
	ReasonCode    string `json:"reason_code"`
	ReasonMsg     string `json:"reason_msg"`
	TargetGesture string `json:"target_gesture"`
}

// Target returns the requested gesture, or "unknown".
func (r Request) Target() string {
	if r.TargetGesture == nil || *r.TargetGesture == "" {
		return "unknown"
	}
	return *r.TargetGesture
}

// Attempt validates r and converts it. defaultDuration applies when the
// request carries no duration.
func (r Request) Attempt(defaultDuration time.Duration) (Attempt, error) {
	var a Attempt
	if r.TargetGesture == nil {
		return a, errors.New("missing target_gesture")
	}
	a.Target = *r.TargetGesture

	left, err := fingerState("left_fingers", r.LeftFingers)
	if err != nil {
		return a, err
	}
	right, err := fingerState("right_fingers", r.RightFingers)
	if err != nil {
		return a, err
	}
	if r.MotionFeatures == nil {
		return a, errors.New("missing motion_features")
	}
	a.Left, a.Right = left, right

	m := r.MotionFeatures.MotionFeatures
	m.RawDX, m.RawDY = m.DeltaX, m.DeltaY
	if r.MotionFeatures.RawDX != nil {
		m.RawDX = *r.MotionFeatures.RawDX
	}
	if r.MotionFeatures.RawDY != nil {
		m.RawDY = *r.MotionFeatures.RawDY
	}
	a.Motion = m

	a.Duration = defaultDuration
	if r.Duration != nil {
		if *r.Duration < 0 {
			return a, fmt.Errorf("duration must not be negative, got %g", *r.Duration)
		}
		a.Duration = time.Duration(*r.Duration * float64(time.Second))
	}
	return a, nil
}

func fingerState(field string, v []int) (gesture.FingerState, error) {
	var s gesture.FingerState
	if v == nil {
		return s, fmt.Errorf("missing %s", field)
	}
	if len(v) != len(s) {
		return s, fmt.Errorf("%s must have %d values, got %d", field, len(s), len(v))
	}
	copy(s[:], v)
	if !s.Valid() {
		return s, fmt.Errorf("%s values must be 0 or 1, got %v", field, v)
	}
	return s, nil
}

// DecodeRequest reads one JSON request from r.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(io.LimitReader(r, maxRequestSize))
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// ResponseFor converts a Result to its wire form.
func ResponseFor(res Result) Response {
	return Response{
		Success:       res.Success,
		ReasonCode:    res.ReasonCode,
		ReasonMsg:     res.Message,
		TargetGesture: res.Target,
	}
}

// ErrorResponse reports a request that could not be evaluated.
func ErrorResponse(target string, err error) Response {
	return Response{
		ReasonCode:    ReasonError,
		ReasonMsg:     "CLI Error: " + err.Error(),
		TargetGesture: target,
	}
}

// Serve reads one request from in, evaluates it and writes one response to
// out. Malformed input produces an error response, not a returned error; only
// a failed write is returned.
func Serve(ctx context.Context, e *Evaluator, defaultDuration time.Duration, in io.Reader, out io.Writer) error {
	resp := handle(ctx, e, defaultDuration, in)
	if err := json.NewEncoder(out).Encode(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func handle(ctx context.Context, e *Evaluator, defaultDuration time.Duration, in io.Reader) Response {
	req, err := DecodeRequest(in)
	if err != nil {
		return ErrorResponse(req.Target(), err)
	}
	a, err := req.Attempt(defaultDuration)
	if err != nil {
		return ErrorResponse(req.Target(), err)
	}
	return ResponseFor(e.Evaluate(ctx, a))
}
