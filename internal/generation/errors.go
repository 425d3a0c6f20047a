package generation

import (
	"errors"
	"fmt"
)

const (
	// FallbackMessage is shown when the service reports failure without a message.
	FallbackMessage = "Failed to generate dashboard"

	// ConnectivityMessage is shown when the service cannot be reached.
	ConnectivityMessage = "Unable to reach the dashboard generation service. Check that it is running and try again."

	// DecodeMessage is shown when a successful response does not match the expected shape.
	DecodeMessage = "The generation service returned an unexpected response."
)

// TransportError means no HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError means the service answered but reported failure, either with
// a non-2xx status or with success:false.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// DecodeError means a 2xx response body did not match the wire contract.
type DecodeError struct {
	Status int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding response (status %d): %s: %v", e.Status, e.Reason, e.Err)
	}
	return fmt.Sprintf("decoding response (status %d): %s", e.Status, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Message maps a Generate error to the single line shown to the user.
func Message(err error) string {
	var (
		transportErr *TransportError
		serviceErr   *ServiceError
		decodeErr    *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &serviceErr):
		return serviceErr.Message
	case errors.As(err, &transportErr):
		return ConnectivityMessage
	case errors.As(err, &decodeErr):
		return DecodeMessage
	default:
		return err.Error()
	}
}

// Outcome classifies err for metrics and history.
func Outcome(err error) string {
	var (
		transportErr *TransportError
		serviceErr   *ServiceError
		decodeErr    *DecodeError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &serviceErr):
		return "service"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &decodeErr):
		return "decode"
	default:
		return "error"
	}
}
