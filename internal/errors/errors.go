// Package errors classifies the failures the status daemon can hit so the
// loop can decide which ones are logged and which ones end the process.
package errors

import (
	"errors"
	"fmt"
)

// Error codes, one per failure class.
const (
	ErrSensor = "SENSOR" // a metric source was unreadable or malformed
	ErrRender = "RENDER" // a screen could not be drawn from the snapshot
	ErrSink   = "SINK"   // the display rejected a frame
	ErrInit   = "INIT"   // the display could not be reached at startup
	ErrLoop   = "LOOP"   // anything else that escaped a tick
)

// Error is a classified error with an optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// New creates an error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with a format string.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, code, message string) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// Error renders a single log-friendly line: "message: cause".
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a classified Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
