// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shaderconv

import (
	"errors"

	"github.com/gogpu/shaderconv/layout"
	"github.com/gogpu/shaderconv/names"
)

// ConvertedShader is the result of converting one entry point.
type ConvertedShader struct {
	// Source is the generated GLSL.
	Source string

	Stage      Stage
	EntryPoint string

	// Profile is the GLSL version directive value, e.g. "330 core".
	Profile string

	// Uniforms maps compiled uniform leaves and sampler uniforms to
	// original names.
	Uniforms *names.NameMap

	// Attributes maps compiled stage inputs and outputs to canonical
	// attribute names.
	Attributes *names.NameMap

	// Diagnostics are per-declaration failures that left names unmapped
	// without aborting the conversion: *names.ReflectionMismatchError,
	// *layout.UnsupportedTypeError and *decl.ParseError.
	Diagnostics []error

	// Warnings are non-fatal notes from the translator.
	Warnings []string
}

// Mismatches returns the reflection mismatches among the diagnostics.
func (s *ConvertedShader) Mismatches() []*names.ReflectionMismatchError {
	var out []*names.ReflectionMismatchError
	for _, err := range s.Diagnostics {
		var m *names.ReflectionMismatchError
		if errors.As(err, &m) {
			out = append(out, m)
		}
	}
	return out
}

// Unsupported returns the declarations that could not be modeled.
func (s *ConvertedShader) Unsupported() []*layout.UnsupportedTypeError {
	var out []*layout.UnsupportedTypeError
	for _, err := range s.Diagnostics {
		var u *layout.UnsupportedTypeError
		if errors.As(err, &u) {
			out = append(out, u)
		}
	}
	return out
}

// Report is the serializable summary of a ConvertedShader.
type Report struct {
	Stage       string          `json:"stage" yaml:"stage" msgpack:"stage"`
	EntryPoint  string          `json:"entry_point" yaml:"entry_point" msgpack:"entry_point"`
	Profile     string          `json:"profile" yaml:"profile" msgpack:"profile"`
	Uniforms    []names.Mapping `json:"uniforms" yaml:"uniforms" msgpack:"uniforms"`
	Attributes  []names.Mapping `json:"attributes" yaml:"attributes" msgpack:"attributes"`
	Diagnostics []string        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Warnings    []string        `json:"warnings,omitempty" yaml:"warnings,omitempty" msgpack:"warnings,omitempty"`
}

// Report returns the name maps and diagnostics of s.
func (s *ConvertedShader) Report() Report {
	r := Report{
		Stage:      s.Stage.String(),
		EntryPoint: s.EntryPoint,
		Profile:    s.Profile,
		Uniforms:   s.Uniforms.Entries(),
		Attributes: s.Attributes.Entries(),
		Warnings:   s.Warnings,
	}
	for _, err := range s.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, err.Error())
	}
	return r
}
