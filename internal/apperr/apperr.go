// Package apperr defines the error taxonomy shared by the REST and socket
// surfaces. Handlers return *Error values; the API error handler maps them to
// HTTP statuses and safe client messages, anything else becomes a generic 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func New(status int, message, details string) *Error {
	return &Error{Status: status, Message: message, Details: details}
}

func BadRequest(message, details string) *Error {
	return New(http.StatusBadRequest, message, details)
}

func Unauthorized(message, details string) *Error {
	return New(http.StatusUnauthorized, message, details)
}

func Forbidden(message, details string) *Error {
	return New(http.StatusForbidden, message, details)
}

func NotFound(message, details string) *Error {
	return New(http.StatusNotFound, message, details)
}

func Conflict(message, details string) *Error {
	return New(http.StatusConflict, message, details)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message, "")
}

// As unwraps err into an *Error if it is one.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
