// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package names

import (
	"strconv"
	"strings"

	"github.com/gogpu/shaderconv/layout"
)

// CanonicalAttributeName joins a stage parameter name and a member path
// into one identifier.
//
//	CanonicalAttributeName("vert_in", "pos")        == "vert_in_pos"
//	CanonicalAttributeName("vert_in", "light.dir")  == "vert_in_light_dir"
//	CanonicalAttributeName("vert_in", "uv[1]")      == "vert_in_uv_1"
//	CanonicalAttributeName("color", "")             == "color"
//
// The result depends only on its arguments, so a vertex output and a
// fragment input declared under the same parameter name get the same name.
func CanonicalAttributeName(paramName, memberPath string) string {
	parts := strings.FieldsFunc(memberPath, func(r rune) bool {
		return r == '.' || r == '[' || r == ']'
	})
	return join(paramName, parts)
}

// CanonicalPathName is CanonicalAttributeName over a path, using the
// path root as the parameter name.
func CanonicalPathName(p layout.QualifiedPath) string {
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		if s.Kind == layout.SegmentIndex {
			parts[i] = strconv.Itoa(s.Index)
		} else {
			parts[i] = s.Name
		}
	}
	return join(p.Root, parts)
}

func join(param string, parts []string) string {
	var sb strings.Builder
	sb.WriteString(param)
	for _, part := range parts {
		if sb.Len() > 0 {
			sb.WriteByte('_')
		}
		sb.WriteString(part)
	}
	return sb.String()
}
