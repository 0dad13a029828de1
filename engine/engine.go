// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderconv/decl"
	"github.com/gogpu/shaderconv/glslreflect"
	"github.com/gogpu/shaderconv/internal/logging"
)

// Request describes one translation: one source file, one entry point,
// one stage.
type Request struct {
	// SourcePath is the WGSL file. It also anchors relative includes.
	SourcePath string

	// Source, if non-empty, is used instead of reading SourcePath.
	Source string

	EntryPoint string
	Stage      Stage

	// IncludePaths are searched in order after the directory of the
	// including file.
	IncludePaths []string

	// Defines are substituted before parsing and override #define. An
	// empty value only marks the name as defined.
	Defines map[string]string

	Profile Profile

	// Validate runs IR validation before code generation.
	Validate bool
}

// Output is the result of a successful translation.
type Output struct {
	// Source is the generated GLSL.
	Source string

	// Module is the lowered IR of the preprocessed input.
	Module *ir.Module

	// Reflection lists the externally visible names of Source.
	Reflection *glslreflect.Reflection

	// Textures maps each combined sampler uniform of Source to the
	// binding of the texture it samples. Translators that cannot tell
	// leave it nil.
	Textures map[string]ir.ResourceBinding

	// Warnings are non-fatal notes, such as a raised GLSL version.
	Warnings []string
}

// Translator converts one request into target source.
type Translator interface {
	Translate(req Request) (*Output, error)
}

// Naga translates WGSL to GLSL with the naga compiler.
type Naga struct {
	// Options is the base GLSL backend configuration. LangVersion and
	// EntryPoint are overwritten per request.
	Options glsl.Options
}

// NewNaga returns a Naga translator with default backend options.
func NewNaga() *Naga {
	return &Naga{Options: glsl.DefaultOptions()}
}

// Translate implements Translator.
func (n *Naga) Translate(req Request) (*Output, error) {
	log := logging.Logger().With("path", req.SourcePath, "entry", req.EntryPoint, "stage", req.Stage)

	source := req.Source
	if source == "" {
		data, err := os.ReadFile(req.SourcePath)
		if err != nil {
			return nil, newError(ErrIO, req.SourcePath, err)
		}
		source = string(data)
	}

	source, err := Preprocess(req.SourcePath, source, req.IncludePaths, req.Defines)
	if err != nil {
		return nil, err
	}

	module, err := decl.Parse(source)
	if err != nil {
		return nil, newError(ErrParse, req.SourcePath, err)
	}
	log.Debug("parsed", "types", len(module.Types), "globals", len(module.GlobalVariables))

	stage, ok := decl.EntryPointStage(module, req.EntryPoint)
	if !ok {
		return nil, newError(ErrEntryPoint, req.SourcePath, fmt.Errorf("entry point %q not found", req.EntryPoint))
	}
	if stage != req.Stage.ir() {
		return nil, newError(ErrEntryPoint, req.SourcePath,
			fmt.Errorf("entry point %q is not a %s shader", req.EntryPoint, req.Stage))
	}

	profile := req.Profile
	if profile.Version.Major == 0 {
		profile = DefaultProfile
	}
	if req.Stage == StageCompute && !profile.SupportsCompute() {
		return nil, newError(ErrCodegen, req.SourcePath, fmt.Errorf("GLSL %s has no compute shaders", profile))
	}

	if req.Validate {
		verrs, err := naga.Validate(module)
		if err != nil {
			return nil, newError(ErrValidation, req.SourcePath, err)
		}
		if len(verrs) > 0 {
			errs := make([]error, len(verrs))
			for i := range verrs {
				errs[i] = &verrs[i]
			}
			return nil, newError(ErrValidation, req.SourcePath, errors.Join(errs...))
		}
	}

	opts := n.Options
	opts.LangVersion = profile.version()
	opts.EntryPoint = req.EntryPoint
	code, info, err := glsl.Compile(module, opts)
	if err != nil {
		return nil, newError(ErrCodegen, req.SourcePath, err)
	}

	refl, err := glslreflect.Reflect(code)
	if err != nil {
		return nil, newError(ErrReflection, req.SourcePath, err)
	}

	out := &Output{
		Source:     code,
		Module:     module,
		Reflection: refl,
		Textures:   make(map[string]ir.ResourceBinding, len(info.TextureMappings)),
	}
	for name, m := range info.TextureMappings {
		out.Textures[name] = m.TextureBinding
	}
	if required := info.RequiredVersion; required.Major != 0 && versionNumber(required) > versionNumber(opts.LangVersion) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("shader requires GLSL %s, requested %s", required, opts.LangVersion))
	}
	for _, ext := range info.UsedExtensions {
		out.Warnings = append(out.Warnings, "uses extension "+ext)
	}

	log.Debug("translated", "bytes", len(code), "uniforms", len(refl.Uniforms), "samplers", len(refl.Samplers))
	return out, nil
}

func versionNumber(v glsl.Version) int {
	return int(v.Major)*100 + int(v.Minor)
}
