// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga/ir"
)

// Stage is a pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

// String returns the lower-case stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("stage(%d)", s)
	}
}

// Short returns the abbreviation used in file names: vs, fs or cs.
func (s Stage) Short() string {
	switch s {
	case StageVertex:
		return "vs"
	case StageFragment:
		return "fs"
	case StageCompute:
		return "cs"
	default:
		return s.String()
	}
}

// ParseStage accepts "vertex", "fragment", "compute" and their
// abbreviations, case-insensitively.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertex", "vert", "vs":
		return StageVertex, nil
	case "fragment", "frag", "fs", "pixel":
		return StageFragment, nil
	case "compute", "comp", "cs":
		return StageCompute, nil
	default:
		return 0, fmt.Errorf("unknown stage %q", s)
	}
}

func (s Stage) ir() ir.ShaderStage {
	switch s {
	case StageFragment:
		return ir.StageFragment
	case StageCompute:
		return ir.StageCompute
	default:
		return ir.StageVertex
	}
}
