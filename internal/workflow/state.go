package workflow

import (
	"time"
)

// Phase is the lifecycle position of the generation workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the workflow. Pointer fields are copies; mutating
// them does not affect the controller.
type State struct {
	JSONText    string
	PromptText  string
	Temperature float64
	Phase       Phase

	// ArtifactHTML is the most recent successful artifact. A later failed
	// attempt leaves it in place.
	ArtifactHTML *string

	// ErrorMessage is set only while Phase is PhaseFailed.
	ErrorMessage *string

	// SuccessBanner is true for a short window after a success.
	SuccessBanner bool

	// Attempts counts submissions that reached PhasePending.
	Attempts int

	UpdatedAt time.Time
}

// HasArtifact reports whether an artifact is available.
func (s State) HasArtifact() bool {
	return s.ArtifactHTML != nil
}

// CanExport reports whether copy and download are enabled.
func (s State) CanExport() bool {
	return s.ArtifactHTML != nil && s.Phase != PhasePending
}

// Artifact returns the artifact text or "".
func (s State) Artifact() string {
	if s.ArtifactHTML == nil {
		return ""
	}
	return *s.ArtifactHTML
}

// Error returns the error text or "".
func (s State) Error() string {
	if s.ErrorMessage == nil {
		return ""
	}
	return *s.ErrorMessage
}

func strPtr(s string) *string {
	return &s
}

func copyPtr(p *string) *string {
	if p == nil {
		return nil
	}
	return strPtr(*p)
}
