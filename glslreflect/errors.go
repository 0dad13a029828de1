// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glslreflect

import "fmt"

// SyntaxError reports GLSL the reflector cannot read.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return "glsl: " + e.Message
	}
	return fmt.Sprintf("glsl:%d:%d: %s", e.Line, e.Column, e.Message)
}

func errorAt(tok token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: tok.line, Column: tok.column, Message: fmt.Sprintf(format, args...)}
}
