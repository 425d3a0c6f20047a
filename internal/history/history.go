// Package history records generation attempts so past runs can be listed
// from the CLI. It stores metadata only; artifacts are never persisted.
package history

import (
	"fmt"
	"time"
)

// Attempt is one recorded submission.
type Attempt struct {
	ID          string
	SessionID   string
	Number      int
	Outcome     string
	Message     string
	Prompt      string
	JSONBytes   int
	Temperature float64
	HTMLBytes   int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration is the time the attempt took.
func (a Attempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}

// Succeeded reports whether the attempt produced an artifact.
func (a Attempt) Succeeded() bool {
	return a.Outcome == "success"
}

// Filter narrows List results.
type Filter struct {
	SessionID string
	Outcome   string
	Limit     int
}

// Repository persists attempts.
type Repository interface {
	Save(a *Attempt) error
	FindByID(id string) (*Attempt, error)
	List(f Filter) ([]Attempt, error)
	Prune(before time.Time) (int64, error)
}

// AttemptNotFoundError indicates that no attempt has the given ID.
type AttemptNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *AttemptNotFoundError) Error() string {
	return fmt.Sprintf("attempt not found: id=%q", e.ID)
}
