package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Phrase represents an ordered gesture sequence and its translation stored
// in the database. Position records registration order; when several phrases
// share the same gesture sequence the lowest position wins.
type Phrase struct {
	ID          string
	Name        string
	Gestures    []string
	Translation string
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PhraseRepository provides CRUD operations for phrases.
type PhraseRepository struct {
	db *sql.DB
}

// Phrases returns the phrase repository for this store.
func (s *Store) Phrases() *PhraseRepository {
	return &PhraseRepository{db: s.db}
}

// Create inserts a new phrase into the database. The phrase is appended at
// the end of the registration order.
func (r *PhraseRepository) Create(p *Phrase) error {
	if len(p.Gestures) == 0 {
		return fmt.Errorf("phrase %q has no gestures", p.Name)
	}

	gestures, err := json.Marshal(p.Gestures)
	if err != nil {
		return err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Append after the current highest position.
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(position), -1) + 1 FROM phrases`,
	).Scan(&p.Position); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO phrases (id, name, gestures, translation, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(gestures), p.Translation, p.Position, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a phrase by its ID.
func (r *PhraseRepository) GetByID(id string) (*Phrase, error) {
	row := r.db.QueryRow(
		`SELECT id, name, gestures, translation, position, created_at, updated_at
		 FROM phrases WHERE id = ?`,
		id,
	)
	return scanPhrase(row)
}

// GetByName retrieves a phrase by its name.
func (r *PhraseRepository) GetByName(name string) (*Phrase, error) {
	row := r.db.QueryRow(
		`SELECT id, name, gestures, translation, position, created_at, updated_at
		 FROM phrases WHERE name = ?`,
		name,
	)
	return scanPhrase(row)
}

// List retrieves all phrases in registration order.
func (r *PhraseRepository) List() ([]*Phrase, error) {
	rows, err := r.db.Query(
		`SELECT id, name, gestures, translation, position, created_at, updated_at
		 FROM phrases ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phrases []*Phrase
	for rows.Next() {
		p, err := scanPhrase(rows)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return phrases, nil
}

// Update updates an existing phrase in the database. Position is not
// changed; registration order survives edits.
func (r *PhraseRepository) Update(p *Phrase) error {
	if len(p.Gestures) == 0 {
		return fmt.Errorf("phrase %q has no gestures", p.Name)
	}

	gestures, err := json.Marshal(p.Gestures)
	if err != nil {
		return err
	}

	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE phrases SET name = ?, gestures = ?, translation = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, string(gestures), p.Translation, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a phrase from the database by its ID.
func (r *PhraseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM phrases WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPhrase(row scanner) (*Phrase, error) {
	p := &Phrase{}
	var gestures string

	err := row.Scan(&p.ID, &p.Name, &gestures, &p.Translation, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(gestures), &p.Gestures); err != nil {
		return nil, fmt.Errorf("phrase %s: decode gestures: %w", p.ID, err)
	}

	return p, nil
}
