package workflow

import (
	"errors"
	"strings"
)

const (
	// InvalidJSONMessage is shown when the JSON text does not parse.
	InvalidJSONMessage = "Invalid JSON format. Please check your JSON syntax."

	// EmptyPromptMessage is shown when the prompt is blank.
	EmptyPromptMessage = "Please enter a prompt describing how you want the dashboard to look."
)

var (
	// ErrInFlight is returned by Begin while a request is pending.
	ErrInFlight = errors.New("a generation is already in progress")

	// ErrNotPending is returned by Complete when no request is outstanding.
	ErrNotPending = errors.New("no generation is pending")

	// ErrInvalidJSON marks a validation failure caused by unparsable JSON.
	ErrInvalidJSON = errors.New("invalid json")

	// ErrEmptyPrompt marks a validation failure caused by a blank prompt.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// ValidationError reports why Begin refused to submit. Both flags may be set.
type ValidationError struct {
	InvalidJSON bool
	EmptyPrompt bool
}

// Error returns the user-facing message, naming every failed check.
func (e *ValidationError) Error() string {
	var msgs []string
	if e.InvalidJSON {
		msgs = append(msgs, InvalidJSONMessage)
	}
	if e.EmptyPrompt {
		msgs = append(msgs, EmptyPromptMessage)
	}
	return strings.Join(msgs, " ")
}

// Is lets errors.Is match ErrInvalidJSON and ErrEmptyPrompt.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrInvalidJSON:
		return e.InvalidJSON
	case ErrEmptyPrompt:
		return e.EmptyPrompt
	}
	return false
}
