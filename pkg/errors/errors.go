// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the typed errors a popup login can end with.
package errors

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrInvalidArgument is returned when a login is started with bad input
	ErrInvalidArgument = "invalid_argument"

	// ErrPopupBlocked is returned when no window handle could be obtained
	ErrPopupBlocked = "popup_blocked"

	// ErrUserAbandoned is returned when the window closed before the redirect was observed
	ErrUserAbandoned = "user_abandoned"

	// ErrTimeout is returned when the optional maximum wait elapsed
	ErrTimeout = "timeout"

	// ErrCancelled is returned when the session was cancelled before it settled
	ErrCancelled = "cancelled"

	// ErrReadFailed is returned when the window location kept failing to read
	ErrReadFailed = "read_failed"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string, cause error) *Error {
	return NewError(ErrInvalidArgument, message, cause)
}

// NewPopupBlockedError creates a new popup blocked error
func NewPopupBlockedError(message string, cause error) *Error {
	return NewError(ErrPopupBlocked, message, cause)
}

// NewUserAbandonedError creates a new user abandoned error
func NewUserAbandonedError(message string, cause error) *Error {
	return NewError(ErrUserAbandoned, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *Error {
	return NewError(ErrTimeout, message, cause)
}

// NewCancelledError creates a new cancelled error
func NewCancelledError(message string, cause error) *Error {
	return NewError(ErrCancelled, message, cause)
}

// NewReadFailedError creates a new read failed error
func NewReadFailedError(message string, cause error) *Error {
	return NewError(ErrReadFailed, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// TypeOf returns the type of the first *Error in err's chain, or "" if there is none.
func TypeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return TypeOf(err) == ErrInvalidArgument
}

// IsPopupBlocked checks if the error is a popup blocked error
func IsPopupBlocked(err error) bool {
	return TypeOf(err) == ErrPopupBlocked
}

// IsUserAbandoned checks if the error is a user abandoned error
func IsUserAbandoned(err error) bool {
	return TypeOf(err) == ErrUserAbandoned
}

// IsTimeout checks if the error is a timeout error
func IsTimeout(err error) bool {
	return TypeOf(err) == ErrTimeout
}

// IsCancelled checks if the error is a cancelled error
func IsCancelled(err error) bool {
	return TypeOf(err) == ErrCancelled
}

// IsReadFailed checks if the error is a read failed error
func IsReadFailed(err error) bool {
	return TypeOf(err) == ErrReadFailed
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return TypeOf(err) == ErrInternal
}
