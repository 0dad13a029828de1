// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glslreflect reports the externally visible names of generated
// GLSL: uniform leaves, sampler uniforms and location-bound stage
// attributes.
//
// It reads declarations only. Function bodies are skipped, as are
// preprocessor lines and comments. Uniform names are produced in the form
// a GL driver reports them for active uniforms, one name per leaf:
//
//	uniform Light lights[2];    // lights[0].dir, lights[0].color, lights[1].dir, ...
//	uniform Params { mat4 mvp; } params;   // params.mvp
//	uniform Globals { float time; };       // time
//
// Interface blocks (in/out blocks) and buffer blocks are not reported.
package glslreflect
