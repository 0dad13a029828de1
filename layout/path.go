// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind distinguishes field and index path segments.
type SegmentKind uint8

const (
	// SegmentField selects an aggregate member: ".name".
	SegmentField SegmentKind = iota

	// SegmentIndex selects an array element: "[i]".
	SegmentIndex
)

// Segment is one step of a QualifiedPath.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

// String renders the segment as ".name" or "[i]".
func (s Segment) String() string {
	if s.Kind == SegmentIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return "." + s.Name
}

// QualifiedPath addresses one storage location below a root declaration.
type QualifiedPath struct {
	Root     string
	Segments []Segment
}

// NewPath returns the path naming root itself.
func NewPath(root string) QualifiedPath {
	return QualifiedPath{Root: root}
}

// Field returns a copy of p extended with a field segment.
func (p QualifiedPath) Field(name string) QualifiedPath {
	return p.with(Segment{Kind: SegmentField, Name: name})
}

// Index returns a copy of p extended with an index segment.
func (p QualifiedPath) Index(i int) QualifiedPath {
	return p.with(Segment{Kind: SegmentIndex, Index: i})
}

// with never appends into p's backing array, so sibling paths stay independent.
func (p QualifiedPath) with(s Segment) QualifiedPath {
	segs := make([]Segment, len(p.Segments), len(p.Segments)+1)
	copy(segs, p.Segments)
	return QualifiedPath{Root: p.Root, Segments: append(segs, s)}
}

// WithRoot returns a copy of p under a different root name.
func (p QualifiedPath) WithRoot(root string) QualifiedPath {
	return QualifiedPath{Root: root, Segments: append([]Segment(nil), p.Segments...)}
}

// String renders the canonical form, e.g. "a[1].c[0]".
func (p QualifiedPath) String() string {
	var sb strings.Builder
	sb.WriteString(p.Root)
	for _, s := range p.Segments {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Member renders the segments without the root and without a leading dot,
// e.g. "c[0]" for "a.c[0]". It returns "" for a bare root.
func (p QualifiedPath) Member() string {
	var sb strings.Builder
	for _, s := range p.Segments {
		sb.WriteString(s.String())
	}
	return strings.TrimPrefix(sb.String(), ".")
}

// Equal reports whether p and o have the same root and segment sequence.
func (p QualifiedPath) Equal(o QualifiedPath) bool {
	if p.Root != o.Root || len(p.Segments) != len(o.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != o.Segments[i] {
			return false
		}
	}
	return true
}

// ParsePath parses the canonical form produced by String.
func ParsePath(s string) (QualifiedPath, error) {
	end := strings.IndexAny(s, ".[")
	if end < 0 {
		end = len(s)
	}
	root := s[:end]
	if root == "" {
		return QualifiedPath{}, fmt.Errorf("layout: path %q has no root", s)
	}
	segs, err := ParseSegments(s[end:])
	if err != nil {
		return QualifiedPath{}, err
	}
	return QualifiedPath{Root: root, Segments: segs}, nil
}

// ParseSegments parses a member path such as "b.c[2]", ".b" or "[0].b".
// A leading identifier is read as a field segment.
func ParseSegments(s string) ([]Segment, error) {
	var segs []Segment
	for i := 0; i < len(s); {
		switch s[i] {
		case '[':
			j := strings.IndexByte(s[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("layout: unterminated index in %q", s)
			}
			n, err := strconv.Atoi(s[i+1 : i+j])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("layout: invalid index %q in %q", s[i+1:i+j], s)
			}
			segs = append(segs, Segment{Kind: SegmentIndex, Index: n})
			i += j + 1
		case '.':
			i++
			fallthrough
		default:
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("layout: empty field name in %q", s)
			}
			segs = append(segs, Segment{Kind: SegmentField, Name: s[i:j]})
			i = j
		}
	}
	return segs, nil
}
