// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package layout models the declared type graph of shader uniforms and
// stage parameters and flattens it into leaf storage locations.
//
// A declaration such as
//
//	struct A { b: f32, c: array<f32, 2> }
//	var<uniform> a: array<A, 2>;
//
// is represented as a [RootBinding] named "a" with an enclosing dimension
// of 2 and an aggregate element type. [Flatten] expands it depth-first into
// the ordered leaf paths
//
//	a[0].b, a[0].c[0], a[0].c[1], a[1].b, a[1].c[0], a[1].c[1]
//
// The declaration-level index varies slowest and the innermost array index
// varies fastest. This is the same order in which target compilers enumerate
// active uniforms, so the sequence can be paired positionally with reflected
// names.
//
// All types are immutable once constructed and safe to share between
// goroutines.
package layout
