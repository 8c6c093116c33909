package api

import (
	stderrors "errors"

	"github.com/kdlocpanda/vision/internal/errors"
)

// Envelope wraps action output in a consistent structure for machine
// parsing. Both the HTTP handlers and the CLI's --json mode emit it.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody provides structured error information. Suggestion is actionable
// guidance; credentials never appear in any field.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	ExitCode   int    `json:"exit_code,omitempty"`
}

// OK builds a success envelope around data.
func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds a failure envelope from an error, preserving structured
// code/message/suggestion when the error carries them.
func Fail(err error) Envelope {
	return Envelope{Success: false, Error: errorBody(err)}
}

func errorBody(err error) *ErrorBody {
	var verr *errors.Error
	if stderrors.As(err, &verr) {
		return &ErrorBody{
			Code:       verr.Code,
			Message:    verr.Message,
			Suggestion: verr.Suggestion,
			ExitCode:   verr.ExitCode,
		}
	}
	return &ErrorBody{
		Code:    "UNKNOWN",
		Message: err.Error(),
	}
}
