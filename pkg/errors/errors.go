package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Client-facing auth messages are
// deliberately coarse so that failures cannot be used to enumerate
// accounts or probe which check rejected a token.
var (
	ErrInvalidCredentials  = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "please check your email and password and try again")
	ErrEmailAlreadyExists  = New("EMAIL_ALREADY_EXISTS", http.StatusConflict, "email already exists, please sign in")
	ErrNotAuthenticated    = New("AUTHENTICATION_ERROR", http.StatusUnauthorized, "authorization token is missing or invalid")
	ErrAuthorization       = New("AUTHORIZATION_ERROR", http.StatusForbidden, "invalid or expired token")
	ErrInvalidRefreshToken = New("INVALID_REFRESH_TOKEN", http.StatusForbidden, "failed to refresh access token")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrRateLimited         = New("RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, "too many requests, please try again later")
	ErrForbiddenOrigin     = New("FORBIDDEN_ACCESS", http.StatusForbidden, "access denied")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss signals an absent cache key. It never leaves the
	// service layer.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache key not found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
