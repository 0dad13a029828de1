// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import "fmt"

// UnsupportedTypeError reports a declaration that cannot be represented as
// a fixed-size type tree.
type UnsupportedTypeError struct {
	// Type is the rendered type, when known.
	Type string

	// Reason describes what is not representable.
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("layout: unsupported type: %s", e.Reason)
	}
	return fmt.Sprintf("layout: unsupported type %s: %s", e.Type, e.Reason)
}

func unsupported(typ, format string, args ...any) *UnsupportedTypeError {
	return &UnsupportedTypeError{
		Type:   typ,
		Reason: fmt.Sprintf(format, args...),
	}
}
