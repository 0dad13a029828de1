// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shaderconv

import "github.com/gogpu/shaderconv/engine"

// Options configures a Converter.
type Options struct {
	// IncludeSearchPaths are searched in order for #include files not
	// found next to the including file.
	IncludeSearchPaths []string

	// Defines are substituted before parsing. They override #define
	// directives of the same name. A name with an empty value is defined
	// for #ifdef and #if defined() but is not substituted.
	Defines map[string]string

	// Profile is the target GLSL version.
	Profile engine.Profile

	// Validate runs IR validation before code generation.
	Validate bool

	// LinkageName names vertex outputs. Set it to the parameter name the
	// fragment stage declares its inputs under, so both stages produce
	// the same attribute names.
	//
	// Fragment inputs are always named after their own parameters, so the
	// names only line up when the fragment entry point takes its inputs as
	// one struct parameter called LinkageName. Loose @location arguments
	// keep their argument names: a vertex output "in_uv" then meets a
	// fragment input "uv". Vertex outputs and fragment inputs still pair
	// up by location in the generated source.
	LinkageName string

	// TargetName names fragment outputs.
	TargetName string
}

// DefaultOptions returns options for GLSL 3.30 core with validation.
func DefaultOptions() Options {
	return Options{
		Profile:     engine.DefaultProfile,
		Validate:    true,
		LinkageName: "in",
		TargetName:  "target",
	}
}

// withDefaults fills empty names.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.LinkageName == "" {
		o.LinkageName = d.LinkageName
	}
	if o.TargetName == "" {
		o.TargetName = d.TargetName
	}
	if o.Profile.Version.Major == 0 {
		o.Profile = d.Profile
	}
	return o
}
