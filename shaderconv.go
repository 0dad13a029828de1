// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shaderconv converts WGSL shaders to GLSL and maps the names the
// GLSL backend emits back to the names written in the source.
//
// Backends rename things. A uniform declared as
//
//	struct Light { dir: vec3<f32>, color: vec3<f32> }
//	@group(0) @binding(0) var<uniform> lights: array<Light, 2>;
//
// may be reported by a GL driver as "_group_0_binding_0_fs[1].color", and
// a vertex output member "uv" may become "_vs2fs_location1". A conversion
// returns the generated source together with two name maps, one for
// uniform leaves and one for stage attributes, so callers can keep using
// the original names:
//
//	conv := shaderconv.NewConverter(shaderconv.DefaultOptions(), nil)
//	shader, err := conv.Convert("light.wgsl", shaderconv.StageFragment, "fs_main")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	loc, _ := shader.Uniforms.Compiled("lights[1].color")
//
// Uniform names are paired positionally per declaration: each declaration
// is flattened depth-first into leaf paths and matched against the names
// the reflected GLSL reports for its compiled root. A declaration whose
// counts disagree is left unmapped and reported in Diagnostics; the other
// declarations are unaffected.
//
// Stage attributes get canonical names that both sides of a stage
// boundary agree on: a vertex output member "uv" and a fragment input
// parameter in.uv are both named "in_uv" when Options.LinkageName is "in".
//
// Lower-level building blocks live in sub-packages: layout (type trees and
// flattening), names (reconciliation), decl (WGSL declarations),
// glslreflect (GLSL declarations) and engine (translation).
package shaderconv

import "github.com/gogpu/shaderconv/engine"

// Version is the shaderconv release.
const Version = "0.3.0"

// Stage is a pipeline stage.
type Stage = engine.Stage

// Pipeline stages.
const (
	StageVertex   = engine.StageVertex
	StageFragment = engine.StageFragment
	StageCompute  = engine.StageCompute
)

// Convert converts one entry point of a WGSL file with opts.
//
// It is a shortcut for NewConverter(opts, nil).Convert.
func Convert(path string, stage Stage, entryPoint string, opts Options) (*ConvertedShader, error) {
	return NewConverter(opts, nil).Convert(path, stage, entryPoint)
}

// ConvertSource is Convert for in-memory source. name is used for
// diagnostics and to resolve relative includes.
func ConvertSource(name, source string, stage Stage, entryPoint string, opts Options) (*ConvertedShader, error) {
	return NewConverter(opts, nil).ConvertSource(name, source, stage, entryPoint)
}
