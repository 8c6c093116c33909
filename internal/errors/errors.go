package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"  // missing or contradictory configuration/credentials
	ErrExec    = "EXEC"    // external binary returned non-zero
	ErrTimeout = "TIMEOUT" // command or connection deadline exceeded
	ErrSSH     = "SSH"     // SSH transport or authentication failure
	ErrParse   = "PARSE"   // CLI output did not match the expected shape
)

// Error represents a structured error with code, message, suggestion, and
// optional cause. The formatted output follows the pattern:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error

	// ExitCode carries the child process exit status for ErrExec errors.
	// Zero for all other codes.
	ExitCode int
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrExec code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrExec,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewExec creates an ErrExec error carrying the child's exit code and stderr.
func NewExec(command string, exitCode int, stderr string) *Error {
	msg := fmt.Sprintf("'%s' exited with code %d", command, exitCode)
	if s := strings.TrimSpace(stderr); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, s)
	}
	return &Error{
		Code:     ErrExec,
		Message:  msg,
		ExitCode: exitCode,
	}
}

// Error implements the error interface with formatted output.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Code == code
	}
	return false
}

// CodeOf returns the code of a structured Error, or empty string for other errors.
func CodeOf(err error) string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ""
}
