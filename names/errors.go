// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package names

import "fmt"

// ReflectionMismatchError reports that the compiler reflected a different
// number of leaves for a root than its declaration flattens into.
type ReflectionMismatchError struct {
	// Root is the declared root name.
	Root string

	// Expected is the number of flattened leaves.
	Expected int

	// Got is the number of reflected names.
	Got int
}

// Error implements the error interface.
func (e *ReflectionMismatchError) Error() string {
	return fmt.Sprintf("names: reflection mismatch for %q: declaration has %d leaves, compiler reported %d",
		e.Root, e.Expected, e.Got)
}
