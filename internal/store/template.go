package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gestpipe/internal/gesture"
)

// TemplateRepository stores the reference gesture templates.
type TemplateRepository struct {
	db *sql.DB
}

// Templates returns the template repository for this store.
func (s *Store) Templates() *TemplateRepository {
	return &TemplateRepository{db: s.db}
}

const templateColumns = `name, left_fingers, right_fingers, main_axis_x, main_axis_y,
	delta_x, delta_y, is_static, accuracy, updated_at`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertTemplate(db execer, t gesture.Template) error {
	left, err := json.Marshal(t.Left)
	if err != nil {
		return err
	}
	right, err := json.Marshal(t.Right)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO templates (`+templateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			left_fingers = excluded.left_fingers,
			right_fingers = excluded.right_fingers,
			main_axis_x = excluded.main_axis_x,
			main_axis_y = excluded.main_axis_y,
			delta_x = excluded.delta_x,
			delta_y = excluded.delta_y,
			is_static = excluded.is_static,
			accuracy = excluded.accuracy,
			updated_at = excluded.updated_at`,
		t.Name, string(left), string(right), t.MainAxisX, t.MainAxisY,
		t.DeltaX, t.DeltaY, t.IsStatic, t.Accuracy, time.Now(),
	)
	return err
}

// Upsert inserts or replaces one template.
func (r *TemplateRepository) Upsert(t gesture.Template) error {
	return upsertTemplate(r.db, t)
}

// ReplaceAll swaps the stored templates for ts in one transaction.
func (r *TemplateRepository) ReplaceAll(ts []gesture.Template) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM templates`); err != nil {
		return err
	}
	for _, t := range ts {
		if err := upsertTemplate(tx, t); err != nil {
			return fmt.Errorf("store template %s: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (gesture.Template, time.Time, error) {
	var t gesture.Template
	var left, right string
	var updated time.Time
	if err := row.Scan(&t.Name, &left, &right, &t.MainAxisX, &t.MainAxisY,
		&t.DeltaX, &t.DeltaY, &t.IsStatic, &t.Accuracy, &updated); err != nil {
		return t, updated, err
	}
	if err := json.Unmarshal([]byte(left), &t.Left); err != nil {
		return t, updated, fmt.Errorf("template %s left fingers: %w", t.Name, err)
	}
	if err := json.Unmarshal([]byte(right), &t.Right); err != nil {
		return t, updated, fmt.Errorf("template %s right fingers: %w", t.Name, err)
	}
	return t, updated, nil
}

// Get retrieves a template by gesture name.
func (r *TemplateRepository) Get(name string) (gesture.Template, error) {
	t, _, err := scanTemplate(r.db.QueryRow(
		`SELECT `+templateColumns+` FROM templates WHERE name = ?`, name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// List returns all templates ordered by name.
func (r *TemplateRepository) List() ([]gesture.Template, error) {
	rows, err := r.db.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []gesture.Template
	for rows.Next() {
		t, _, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Count returns the number of stored templates.
func (r *TemplateRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&n)
	return n, err
}
