// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic layer: deal ordering and
// management, access unlocking, click tracking, password resets and
// event logging.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors handlers map to HTTP responses.
var (
	// ErrNotAuthenticated is returned when an operation requires a
	// signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidCode is returned when an unlock or reset code does not
	// match.
	ErrInvalidCode = errors.New("invalid code")

	// ErrAccessCodeNotConfigured is returned when the unlock code has
	// not been set by an administrator. Handlers must not expose the
	// reason to clients.
	ErrAccessCodeNotConfigured = errors.New("access code not configured")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError carries per-field messages for form re-rendering.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// NewValidationError creates a ValidationError with one field message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// AsValidationError unwraps err into a *ValidationError if possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// RemoteFailure wraps an error from an upstream service such as the
// OpenAI API, so handlers can distinguish it from local failures.
type RemoteFailure struct {
	Op  string
	Err error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteFailure) Unwrap() error {
	return e.Err
}

// IsRemoteFailure reports whether err originated upstream.
func IsRemoteFailure(err error) bool {
	var rf *RemoteFailure
	return errors.As(err, &rf)
}
