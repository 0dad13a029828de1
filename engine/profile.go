// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga/glsl"
)

// Profile is a target GLSL version.
type Profile struct {
	Version glsl.Version
}

// DefaultProfile is GLSL 3.30 core.
var DefaultProfile = Profile{Version: glsl.Version330}

var profiles = map[string]glsl.Version{
	"330":   glsl.Version330,
	"400":   glsl.Version400,
	"410":   glsl.Version410,
	"420":   glsl.Version420,
	"430":   glsl.Version430,
	"450":   glsl.Version450,
	"460":   glsl.Version460,
	"300es": glsl.VersionES300,
	"310es": glsl.VersionES310,
	"320es": glsl.VersionES320,
}

// ParseProfile parses a profile name such as "330", "450 core" or "300es".
// An empty name selects DefaultProfile.
func ParseProfile(s string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultProfile, nil
	}
	key = strings.TrimSuffix(key, "core")
	key = strings.ReplaceAll(key, " ", "")
	v, ok := profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("unknown GLSL profile %q", s)
	}
	return Profile{Version: v}, nil
}

// String returns the profile as written in a #version directive.
func (p Profile) String() string {
	return p.Version.String()
}

// ES reports whether p targets OpenGL ES.
func (p Profile) ES() bool {
	return p.Version.ES
}

// SupportsCompute reports whether p can express compute shaders.
func (p Profile) SupportsCompute() bool {
	return p.Version.SupportsCompute()
}

func (p Profile) version() glsl.Version {
	if p.Version.Major == 0 {
		return DefaultProfile.Version
	}
	return p.Version
}
