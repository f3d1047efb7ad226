package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a persisted recognition result. Data holds the full JSON payload.
type Event struct {
	ID            string          `json:"id"`
	Gesture       string          `json:"gesture"`
	Type          string          `json:"type"`
	Confidence    float64         `json:"confidence"`
	RawConfidence float64         `json:"raw_confidence"`
	Accepted      bool            `json:"accepted"`
	Data          json.RawMessage `json:"data"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EventRepository records recognition events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event. Missing ID and CreatedAt are filled in.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	// UTC keeps the stored text ordering chronological.
	e.CreatedAt = e.CreatedAt.UTC()
	data := e.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, gesture, type, confidence, raw_confidence, accepted, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Gesture, e.Type, e.Confidence, e.RawConfidence, e.Accepted, string(data), e.CreatedAt,
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT id, gesture, type, confidence, raw_confidence, accepted, data, created_at
		 FROM events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.ID, &e.Gesture, &e.Type, &e.Confidence, &e.RawConfidence, &e.Accepted, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteBefore removes events older than t and returns how many were removed.
func (r *EventRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE created_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
