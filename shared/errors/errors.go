package errors

import (
	"errors"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) Unwrap() error {
	return e.Err
}

var (
	ErrForumNotFound      = errors.New("forum not found")
	ErrRepliesUnavailable = errors.New("replies could not be loaded")
	ErrReplyNotSent       = errors.New("could not send reply")
	ErrNotAuthenticated   = errors.New("you must be logged in to reply")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrMessageTooLong     = errors.New("message exceeds character limit")
	ErrReplyDepthExceeded = errors.New("this reply cannot be answered further")
)

// WithStatus wraps err so that handlers respond with code and err's message.
func WithStatus(err error, code int) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: err.Error(), StatusCode: code, Err: err}
}

// StatusCode returns the status carried by err, or 500.
func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether err was produced by client-side validation,
// i.e. no network call was attempted.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLong) ||
		errors.Is(err, ErrReplyDepthExceeded)
}
