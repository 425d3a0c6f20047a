package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/instadash/internal/history"
)

// DefaultListLimit caps List when the filter sets no limit.
const DefaultListLimit = 50

const attemptColumns = `id, session_id, number, outcome, message, prompt,
	json_bytes, temperature, html_bytes, started_at, finished_at`

type attemptRepository struct {
	db *sql.DB
}

var _ history.Repository = (*attemptRepository)(nil)

func newAttemptRepository(db *sql.DB) *attemptRepository {
	return &attemptRepository{db: db}
}

// Save inserts a, replacing any row with the same ID.
func (r *attemptRepository) Save(a *history.Attempt) error {
	if a == nil || a.ID == "" {
		return errors.New("attempt requires an id")
	}
	m := toAttemptModel(a)
	_, err := r.db.Exec(`INSERT OR REPLACE INTO attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.Number, m.Outcome, m.Message, m.Prompt,
		m.JSONBytes, m.Temperature, m.HTMLBytes, m.StartedAt, m.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// FindByID returns the attempt with id or *history.AttemptNotFoundError.
func (r *attemptRepository) FindByID(id string) (*history.Attempt, error) {
	row := r.db.QueryRow(`SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id)
	m, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &history.AttemptNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find attempt: %w", err)
	}
	a := m.toDomain()
	return &a, nil
}

// List returns attempts newest first.
func (r *attemptRepository) List(f history.Filter) (attempts []history.Attempt, err error) {
	var (
		where []string
		args  []any
	)
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, f.Outcome)
	}

	q := `SELECT ` + attemptColumns + ` FROM attempts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC, number DESC LIMIT ?"
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		m, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, m.toDomain())
	}
	return attempts, rows.Err()
}

// Prune deletes attempts that started before the cutoff.
func (r *attemptRepository) Prune(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM attempts WHERE started_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(s scanner) (*attemptModel, error) {
	var m attemptModel
	err := s.Scan(&m.ID, &m.SessionID, &m.Number, &m.Outcome, &m.Message, &m.Prompt,
		&m.JSONBytes, &m.Temperature, &m.HTMLBytes, &m.StartedAt, &m.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
