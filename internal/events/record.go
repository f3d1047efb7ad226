package events

import (
	"context"
	"encoding/json"

	"github.com/ayusman/gestpipe/internal/store"
)

// Recorder persists gesture events to the event log.
type Recorder struct {
	events *store.EventRepository
}

// NewRecorder creates a recorder over repo.
func NewRecorder(repo *store.EventRepository) *Recorder {
	return &Recorder{events: repo}
}

// Publish stores gesture events; other kinds are skipped.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	if e.Kind != KindGesture {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.events.Create(&store.Event{
		ID:            e.ID,
		Gesture:       e.Gesture,
		Type:          string(e.Type),
		Confidence:    e.Confidence,
		RawConfidence: e.RawConfidence,
		Accepted:      e.Accepted,
		Data:          data,
		CreatedAt:     e.At,
	})
}
