package sqlite

import (
	"time"

	"github.com/zjrosen/instadash/internal/history"
)

// attemptModel is a row of the attempts table. Times are Unix milliseconds.
type attemptModel struct {
	ID          string
	SessionID   string
	Number      int64
	Outcome     string
	Message     *string // nullable
	Prompt      string
	JSONBytes   int64
	Temperature float64
	HTMLBytes   int64
	StartedAt   int64
	FinishedAt  int64
}

func toAttemptModel(a *history.Attempt) *attemptModel {
	m := &attemptModel{
		ID:          a.ID,
		SessionID:   a.SessionID,
		Number:      int64(a.Number),
		Outcome:     a.Outcome,
		Prompt:      a.Prompt,
		JSONBytes:   int64(a.JSONBytes),
		Temperature: a.Temperature,
		HTMLBytes:   int64(a.HTMLBytes),
		StartedAt:   a.StartedAt.UnixMilli(),
		FinishedAt:  a.FinishedAt.UnixMilli(),
	}
	if a.Message != "" {
		msg := a.Message
		m.Message = &msg
	}
	return m
}

func (m *attemptModel) toDomain() history.Attempt {
	a := history.Attempt{
		ID:          m.ID,
		SessionID:   m.SessionID,
		Number:      int(m.Number),
		Outcome:     m.Outcome,
		Prompt:      m.Prompt,
		JSONBytes:   int(m.JSONBytes),
		Temperature: m.Temperature,
		HTMLBytes:   int(m.HTMLBytes),
		StartedAt:   time.UnixMilli(m.StartedAt),
		FinishedAt:  time.UnixMilli(m.FinishedAt),
	}
	if m.Message != nil {
		a.Message = *m.Message
	}
	return a
}
