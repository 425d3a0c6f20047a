package history

import (
	"github.com/google/uuid"

	"github.com/zjrosen/instadash/internal/log"
	"github.com/zjrosen/instadash/internal/workflow"
)

// Recorder writes finished workflow attempts to a Repository. Write
// failures are logged and never surface to the workflow.
type Recorder struct {
	repo      Repository
	sessionID string
}

// NewRecorder creates a Recorder that tags attempts with a fresh session ID.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, sessionID: uuid.NewString()}
}

var _ workflow.Recorder = (*Recorder)(nil)

// SessionID identifies the process that recorded the attempts.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// AttemptStarted is a no-op; only finished attempts are stored.
func (r *Recorder) AttemptStarted(workflow.Attempt) {}

// AttemptFinished stores a.
func (r *Recorder) AttemptFinished(a workflow.Attempt) {
	rec := &Attempt{
		ID:          uuid.NewString(),
		SessionID:   r.sessionID,
		Number:      a.Number,
		Outcome:     a.Outcome,
		Message:     a.Message,
		Prompt:      a.Request.UserPrompt,
		JSONBytes:   len(a.Request.JSONData),
		Temperature: a.Request.Temperature,
		HTMLBytes:   a.HTMLBytes,
		StartedAt:   a.StartedAt,
		FinishedAt:  a.FinishedAt,
	}
	if err := r.repo.Save(rec); err != nil {
		log.ErrorErr(log.CatDB, "Failed to record attempt", err, "outcome", a.Outcome)
	}
}
