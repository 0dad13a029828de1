// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package decl

import "fmt"

// ParseError reports malformed declaration metadata.
type ParseError struct {
	// Decl names the declaration, or is empty for whole-module failures.
	Decl string

	// Message describes the failure.
	Message string

	// Err is the underlying front-end error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.Decl == "" {
		return "decl: " + msg
	}
	return fmt.Sprintf("decl: %s: %s", e.Decl, msg)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
