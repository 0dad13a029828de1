// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package engine

import "fmt"

// ErrorKind categorizes translation failures.
type ErrorKind uint8

const (
	// ErrIO indicates the source file could not be read.
	ErrIO ErrorKind = iota

	// ErrInclude indicates an #include could not be resolved.
	ErrInclude

	// ErrParse indicates the source did not parse or lower.
	ErrParse

	// ErrValidation indicates the IR failed validation.
	ErrValidation

	// ErrEntryPoint indicates a missing entry point or a stage mismatch.
	ErrEntryPoint

	// ErrCodegen indicates the target backend failed.
	ErrCodegen

	// ErrReflection indicates the generated source could not be reflected.
	ErrReflection
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrIO:
		return "IO"
	case ErrInclude:
		return "Include"
	case ErrParse:
		return "Parse"
	case ErrValidation:
		return "Validation"
	case ErrEntryPoint:
		return "EntryPoint"
	case ErrCodegen:
		return "Codegen"
	case ErrReflection:
		return "Reflection"
	default:
		return "Unknown"
	}
}

// TranslationError reports a failure of the translation engine. It aborts
// the conversion of one (file, entry point, stage).
type TranslationError struct {
	Kind ErrorKind

	// Path is the source file, or empty for in-memory sources.
	Path string

	Err error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("translate %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("translate %s: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *TranslationError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, path string, err error) *TranslationError {
	return &TranslationError{Kind: kind, Path: path, Err: err}
}
