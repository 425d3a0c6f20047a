package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFile is returned when a selection or drop contains no files.
	ErrNoFile = errors.New("no file selected")

	// ErrUnsupportedType is returned when a file's declared media type is
	// not application/json.
	ErrUnsupportedType = errors.New("unsupported file type: application/json required")

	// ErrFileTooLarge is returned when a file exceeds the configured size bound.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)

// ReadError is returned when an accepted file cannot be read.
// Existing JSON text is left untouched when this occurs.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing notice for an ingestion error.
func Message(err error) string {
	var readErr *ReadError
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return "Please upload a valid JSON file (.json)"
	case errors.Is(err, ErrFileTooLarge):
		return err.Error()
	case errors.As(err, &readErr):
		return fmt.Sprintf("Could not read %s: %v", readErr.Path, readErr.Err)
	case errors.Is(err, ErrNoFile):
		return "No file selected"
	default:
		return err.Error()
	}
}
