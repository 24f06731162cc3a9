package common

import "net/http"

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status returns the HTTP status, defaulting to 400.
func (e *AppError) Status() int {
	if e == nil || e.HTTPStatus == 0 {
		return http.StatusBadRequest
	}
	return e.HTTPStatus
}

// ErrorCode returns the machine-readable code, defaulting to BAD_REQUEST.
func (e *AppError) ErrorCode() string {
	if e == nil || e.Code == "" {
		return "BAD_REQUEST"
	}
	return e.Code
}

// WithDetails attaches details to e and returns it.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}
