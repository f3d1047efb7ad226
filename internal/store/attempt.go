package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Attempt is one graded practice attempt.
type Attempt struct {
	ID         string    `json:"id"`
	Target     string    `json:"target_gesture"`
	Success    bool      `json:"success"`
	ReasonCode string    `json:"reason_code"`
	ReasonMsg  string    `json:"reason_msg"`
	Predicted  string    `json:"predicted,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Duration   float64   `json:"duration"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttemptStats summarizes the attempts at one target gesture.
type AttemptStats struct {
	Target   string  `json:"target_gesture"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Wrong    int     `json:"wrong"`
	Accuracy float64 `json:"accuracy"`
}

// AttemptRepository records practice attempts.
type AttemptRepository struct {
	db *sql.DB
}

// Attempts returns the practice attempt repository for this store.
func (s *Store) Attempts() *AttemptRepository {
	return &AttemptRepository{db: s.db}
}

// Create inserts an attempt. Missing ID and CreatedAt are filled in.
func (r *AttemptRepository) Create(a *Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()

	_, err := r.db.Exec(
		`INSERT INTO practice_attempts
		 (id, target, success, reason_code, reason_msg, predicted, confidence, duration, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Target, a.Success, a.ReasonCode, a.ReasonMsg, a.Predicted, a.Confidence, a.Duration, a.CreatedAt,
	)
	return err
}

// List returns up to limit attempts, newest first. An empty target lists
// every gesture.
func (r *AttemptRepository) List(target string, limit int) ([]Attempt, error) {
	rows, err := r.db.Query(
		`SELECT id, target, success, reason_code, reason_msg, predicted, confidence, duration, created_at
		 FROM practice_attempts
		 WHERE ? = '' OR target = ?
		 ORDER BY created_at DESC LIMIT ?`,
		target, target, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.Target, &a.Success, &a.ReasonCode, &a.ReasonMsg,
			&a.Predicted, &a.Confidence, &a.Duration, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Stats returns per-gesture totals ordered by gesture name.
func (r *AttemptRepository) Stats() ([]AttemptStats, error) {
	rows, err := r.db.Query(
		`SELECT target, COUNT(*), COALESCE(SUM(success), 0)
		 FROM practice_attempts GROUP BY target ORDER BY target`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []AttemptStats
	for rows.Next() {
		var s AttemptStats
		if err := rows.Scan(&s.Target, &s.Total, &s.Correct); err != nil {
			return nil, err
		}
		s.Wrong = s.Total - s.Correct
		if s.Total > 0 {
			s.Accuracy = float64(s.Correct) / float64(s.Total)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
