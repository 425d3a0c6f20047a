// Package validate holds the pure input checks that gate generation.
//
// Validators never return errors or panic; malformed input is reported
// through Result.Valid.
package validate

import (
	"encoding/json"
	"strings"
)

// Result reports whether a piece of input passed validation.
type Result struct {
	Valid bool
}

// ValidateJSON reports whether text parses as JSON. Blank text counts as
// valid so a field that has not been filled in yet is not flagged.
func ValidateJSON(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Valid: true}
	}
	return Result{Valid: json.Valid([]byte(text))}
}

// ValidatePrompt reports whether text contains anything besides whitespace.
// Length limits are enforced by the input widget, not here.
func ValidatePrompt(text string) Result {
	return Result{Valid: strings.TrimSpace(text) != ""}
}

// IsParsableJSON is the stricter check used before submission: blank text
// is not a JSON document.
func IsParsableJSON(text string) bool {
	return strings.TrimSpace(text) != "" && json.Valid([]byte(text))
}
