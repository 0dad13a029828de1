// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import "fmt"

// MaxDepth bounds type nesting during flattening.
const MaxDepth = 64

// MaxLeaves bounds the number of entries a single root may flatten into.
const MaxLeaves = 1 << 20

// RootBinding is a named top-level declaration: a uniform variable or a
// stage parameter.
type RootBinding struct {
	// Name is the declared identifier.
	Name string

	// Type is the element type of the declaration.
	Type *TypeDecl

	// Dim is the enclosing declaration-level array length,
	// or 0 when the declaration is not an array.
	Dim int
}

// NewRootBinding validates and returns a root binding.
func NewRootBinding(name string, typ *TypeDecl, dim int) (RootBinding, error) {
	if name == "" {
		return RootBinding{}, unsupported(typ.String(), "root declaration has no name")
	}
	if typ == nil {
		return RootBinding{}, unsupported("", "root %q has no type", name)
	}
	if dim < 0 {
		return RootBinding{}, unsupported(typ.String(), "root %q has negative dimension %d", name, dim)
	}
	return RootBinding{Name: name, Type: typ, Dim: dim}, nil
}

// LeafCount returns the number of entries Flatten produces for r,
// saturating at MaxLeaves+1.
func (r RootBinding) LeafCount() int {
	n := LeafCount(r.Type)
	if r.Dim > 0 {
		n = saturatingMul(n, r.Dim)
	}
	return n
}

// FlattenedEntry is one leaf of a flattened root.
type FlattenedEntry struct {
	Path QualifiedPath
	Leaf *TypeDecl
}

// Flatten expands r into its leaves in depth-first order.
//
// The declaration-level index of r varies slowest. Within an element,
// aggregate members follow declaration order and each array index varies
// faster than any index above it.
func Flatten(r RootBinding) ([]FlattenedEntry, error) {
	if r.Type == nil {
		return nil, unsupported("", "root %q has no type", r.Name)
	}
	n := r.LeafCount()
	if n > MaxLeaves {
		return nil, unsupported(r.Type.String(), "root %q expands to more than %d leaves", r.Name, MaxLeaves)
	}

	f := &flattener{
		entries: make([]FlattenedEntry, 0, n),
		seen:    make(map[string]struct{}, n),
	}
	base := NewPath(r.Name)
	if r.Dim == 0 {
		if err := f.walk(base, r.Type, 0); err != nil {
			return nil, err
		}
		return f.entries, nil
	}
	for i := 0; i < r.Dim; i++ {
		if err := f.walk(base.Index(i), r.Type, 1); err != nil {
			return nil, err
		}
	}
	return f.entries, nil
}

type flattener struct {
	entries []FlattenedEntry
	seen    map[string]struct{}
}

func (f *flattener) walk(path QualifiedPath, t *TypeDecl, depth int) error {
	if depth > MaxDepth {
		return unsupported(t.String(), "nesting deeper than %d levels at %s", MaxDepth, path)
	}
	switch t.kind {
	case KindArray:
		for i := 0; i < t.length; i++ {
			if err := f.walk(path.Index(i), t.elem, depth+1); err != nil {
				return err
			}
		}
	case KindAggregate:
		for _, field := range t.fields {
			if err := f.walk(path.Field(field.Name), field.Type, depth+1); err != nil {
				return err
			}
		}
	default:
		f.emit(path, t)
	}
	return nil
}

func (f *flattener) emit(path QualifiedPath, leaf *TypeDecl) {
	key := path.String()
	if _, dup := f.seen[key]; dup {
		// Aggregate rejects duplicate members, so this is a flattening defect.
		panic(fmt.Sprintf("layout: duplicate flattened path %q", key))
	}
	f.seen[key] = struct{}{}
	f.entries = append(f.entries, FlattenedEntry{Path: path, Leaf: leaf})
}
