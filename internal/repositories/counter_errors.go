package repositories

import "fmt"

// CounterErrorCode classifies failures of order number sequence allocation.
type CounterErrorCode string

const (
	// CounterErrorUnknown covers backend failures during allocation.
	CounterErrorUnknown CounterErrorCode = "counter_unknown"
	// CounterErrorInvalidInput indicates a blank counter id or non-positive step.
	CounterErrorInvalidInput CounterErrorCode = "counter_invalid_input"
)

// CounterError reports a failed sequence allocation with a machine readable code.
type CounterError struct {
	Code    CounterErrorCode
	Message string
	Err     error
}

func (e *CounterError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *CounterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewCounterError constructs a typed counter error.
func NewCounterError(code CounterErrorCode, message string, err error) *CounterError {
	if message == "" {
		message = string(code)
	}
	return &CounterError{Code: code, Message: message, Err: err}
}
