// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"fmt"
	"strings"
)

// Kind classifies a TypeDecl node.
type Kind uint8

const (
	// KindScalar is a single scalar value (f32, i32, u32, bool, ...).
	KindScalar Kind = iota

	// KindVector is a vector of 2 to 4 scalars.
	KindVector

	// KindMatrix is a matrix with 2 to 4 columns and rows.
	KindMatrix

	// KindArray is an array with a compile-time length.
	KindArray

	// KindAggregate is a struct with ordered, named fields.
	KindAggregate
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindVector:
		return "Vector"
	case KindMatrix:
		return "Matrix"
	case KindArray:
		return "FixedArray"
	case KindAggregate:
		return "Aggregate"
	default:
		return "Unknown"
	}
}

// Field is a named member of an aggregate type.
type Field struct {
	Name string
	Type *TypeDecl
}

// TypeDecl is a node in the declared type tree.
//
// Construct nodes with Scalar, Vector, Matrix, Array and Aggregate. The zero
// value is not a valid type.
type TypeDecl struct {
	kind Kind

	// name is the scalar name for scalars, vectors and matrices,
	// and the declared struct name (possibly empty) for aggregates.
	name string

	// size is the component count of a vector.
	size int

	// cols and rows describe a matrix.
	cols int
	rows int

	// elem and length describe a fixed array.
	elem   *TypeDecl
	length int

	fields []Field
}

// Scalar returns a scalar type with the given name, e.g. "f32".
func Scalar(name string) *TypeDecl {
	return &TypeDecl{kind: KindScalar, name: name}
}

// Vector returns a vector of n scalars.
func Vector(scalar string, n int) (*TypeDecl, error) {
	if n < 2 || n > 4 {
		return nil, unsupported(fmt.Sprintf("vec%d<%s>", n, scalar), "vector size must be 2, 3 or 4")
	}
	return &TypeDecl{kind: KindVector, name: scalar, size: n}, nil
}

// Matrix returns a matrix type with the given column and row counts.
func Matrix(scalar string, cols, rows int) (*TypeDecl, error) {
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return nil, unsupported(fmt.Sprintf("mat%dx%d<%s>", cols, rows, scalar), "matrix dimensions must be 2, 3 or 4")
	}
	return &TypeDecl{kind: KindMatrix, name: scalar, cols: cols, rows: rows}, nil
}

// Array returns a fixed array of length elements.
// Runtime-sized arrays (length 0) are not representable.
func Array(elem *TypeDecl, length int) (*TypeDecl, error) {
	if elem == nil {
		return nil, unsupported("", "array without element type")
	}
	if length < 1 {
		return nil, unsupported(fmt.Sprintf("array<%s>", elem), "array length must be a positive constant, got %d", length)
	}
	return &TypeDecl{kind: KindArray, elem: elem, length: length}, nil
}

// Aggregate returns a struct type with fields in declaration order.
// The field list is copied.
func Aggregate(name string, fields []Field) (*TypeDecl, error) {
	if len(fields) == 0 {
		return nil, unsupported(name, "empty struct")
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, unsupported(name, "member %d has no name", i)
		}
		if f.Type == nil {
			return nil, unsupported(name, "member %q has no type", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, unsupported(name, "duplicate member %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return &TypeDecl{
		kind:   KindAggregate,
		name:   name,
		fields: append([]Field(nil), fields...),
	}, nil
}

// Must panics if err is non-nil and returns t otherwise.
// It is intended for statically known types in tests and tables.
func Must(t *TypeDecl, err error) *TypeDecl {
	if err != nil {
		panic(err)
	}
	return t
}

// Kind returns the node kind.
func (t *TypeDecl) Kind() Kind { return t.kind }

// Name returns the scalar name, or the struct name for aggregates.
func (t *TypeDecl) Name() string { return t.name }

// Size returns the component count of a vector, or 0.
func (t *TypeDecl) Size() int { return t.size }

// Columns returns the column count of a matrix, or 0.
func (t *TypeDecl) Columns() int { return t.cols }

// Rows returns the row count of a matrix, or 0.
func (t *TypeDecl) Rows() int { return t.rows }

// Elem returns the element type of an array, or nil.
func (t *TypeDecl) Elem() *TypeDecl { return t.elem }

// Len returns the length of an array, or 0.
func (t *TypeDecl) Len() int { return t.length }

// Fields returns a copy of the aggregate members.
func (t *TypeDecl) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

// IsLeaf reports whether the type occupies a single reflected location.
func (t *TypeDecl) IsLeaf() bool {
	return t.kind == KindScalar || t.kind == KindVector || t.kind == KindMatrix
}

// String renders the type in WGSL notation.
func (t *TypeDecl) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.kind {
	case KindScalar:
		return t.name
	case KindVector:
		return fmt.Sprintf("vec%d<%s>", t.size, t.name)
	case KindMatrix:
		return fmt.Sprintf("mat%dx%d<%s>", t.cols, t.rows, t.name)
	case KindArray:
		return fmt.Sprintf("array<%s, %d>", t.elem, t.length)
	case KindAggregate:
		if t.name != "" {
			return t.name
		}
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			parts[i] = f.Name + ": " + f.Type.String()
		}
		return "struct { " + strings.Join(parts, ", ") + " }"
	default:
		return "unknown"
	}
}

// LeafCount returns the number of leaves t flattens into. Counts above
// MaxLeaves saturate at MaxLeaves+1.
func LeafCount(t *TypeDecl) int {
	switch t.kind {
	case KindArray:
		return saturatingMul(t.length, LeafCount(t.elem))
	case KindAggregate:
		n := 0
		for _, f := range t.fields {
			n += LeafCount(f.Type)
			if n > MaxLeaves {
				return MaxLeaves + 1
			}
		}
		return n
	default:
		return 1
	}
}

// saturatingMul returns a*b for non-negative operands, capped at
// MaxLeaves+1.
func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > (MaxLeaves+1)/b {
		return MaxLeaves + 1
	}
	return a * b
}
