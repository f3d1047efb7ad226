// Package events fans recognition results out to interested sinks: the
// websocket hub, Redis, and the event log.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gestpipe/internal/classifier"
	"github.com/ayusman/gestpipe/internal/gesture"
	"github.com/ayusman/gestpipe/internal/recognizer"
)

// Kind tags an Event.
type Kind string

const (
	// KindGesture is a classified capture.
	KindGesture Kind = "gesture"
	// KindState is a recognizer state transition.
	KindState Kind = "state"
	// KindAction reports the outcome of running a bound action.
	KindAction Kind = "action"
)

// Event is the payload delivered to every sink.
type Event struct {
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`

	Gesture       string                  `json:"gesture,omitempty"`
	Type          gesture.Type            `json:"type,omitempty"`
	Confidence    float64                 `json:"confidence,omitempty"`
	RawConfidence float64                 `json:"raw_confidence,omitempty"`
	Boost         float64                 `json:"boost,omitempty"`
	Accepted      bool                    `json:"accepted"`
	TopK          []classifier.Scored     `json:"top_k,omitempty"`
	Right         *gesture.FingerState    `json:"right_fingers,omitempty"`
	Motion        *gesture.MotionFeatures `json:"motion_features,omitempty"`

	State  string `json:"state,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// FromResult builds a gesture event.
func FromResult(res *recognizer.Result) Event {
	right := res.Right
	motion := res.Features
	return Event{
		ID:            uuid.NewString(),
		Kind:          KindGesture,
		At:            res.At,
		Gesture:       res.Gesture,
		Type:          res.Type,
		Confidence:    res.Confidence,
		RawConfidence: res.RawConfidence,
		Boost:         res.Boost,
		Accepted:      res.Accepted,
		TopK:          res.TopK,
		Right:         &right,
		Motion:        &motion,
	}
}

// StateChange builds a state transition event.
func StateChange(from, to recognizer.State, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Kind:   KindState,
		At:     at,
		State:  to.String(),
		Detail: from.String() + " -> " + to.String(),
	}
}

// Sink receives published events.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Bus delivers each event to every registered sink in registration order.
// A failing sink is logged and does not stop delivery to the others.
type Bus struct {
	mu    sync.RWMutex
	sinks map[string]Sink
	order []string
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{sinks: make(map[string]Sink)}
}

// Add registers a sink under name, replacing any sink with the same name.
func (b *Bus) Add(name string, s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sinks[name]; !ok {
		b.order = append(b.order, name)
	}
	b.sinks[name] = s
}

// Publish delivers e and returns the number of sinks that failed.
func (b *Bus) Publish(ctx context.Context, e Event) int {
	b.mu.RLock()
	names := append([]string(nil), b.order...)
	sinks := make([]Sink, len(names))
	for i, n := range names {
		sinks[i] = b.sinks[n]
	}
	b.mu.RUnlock()

	failed := 0
	for i, s := range sinks {
		if err := s.Publish(ctx, e); err != nil {
			log.Printf("event sink %s: %v", names[i], err)
			failed++
		}
	}
	return failed
}
