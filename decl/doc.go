// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package decl extracts uniform and stage-parameter declarations from WGSL
// source, using the naga front-end.
//
// WGSL is parsed and lowered to naga's IR. The IR type arena keeps struct
// members in declaration order and array lengths as constants, which is
// everything the layout package needs to build a type tree:
//
//	module, err := decl.Parse(source)
//	roots, errs := decl.Uniforms(module)
//	inputs, outputs, err := decl.StageParams(module, "fs_main")
//
// A declaration that cannot be modeled affects only its own root: Uniforms
// skips it and reports a *ParseError or *layout.UnsupportedTypeError.
package decl
