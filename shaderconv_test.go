// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shaderconv

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderconv/engine"
)

// litShader is a small forward-lit shader pair with a uniform struct,
// a texture and a vertex-to-fragment interface struct.
const litShader = `
struct Material {
    color: vec4<f32>,
    roughness: f32,
}

struct VertexOutput {
    @builtin(position) pos: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@group(0) @binding(0) var<uniform> material: Material;
@group(0) @binding(1) var albedo: texture_2d<f32>;
@group(0) @binding(2) var albedo_sampler: sampler;

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.pos = vec4<f32>(position, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(albedo, albedo_sampler, in.uv) * material.color * material.roughness;
}
`

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, engine.DefaultProfile, opts.Profile)
	assert.True(t, opts.Validate)
	assert.Equal(t, "in", opts.LinkageName)
	assert.Equal(t, "target", opts.TargetName)

	conv := NewConverter(Options{}, nil)
	assert.Equal(t, "in", conv.Options().LinkageName)
	assert.Equal(t, engine.DefaultProfile, conv.Options().Profile)
}

func TestConvertSource_Naga(t *testing.T) {
	opts := DefaultOptions()
	opts.Validate = false
	shader, err := ConvertSource("lit.wgsl", litShader, StageFragment, "fs_main", opts)
	require.NoError(t, err)

	assert.Contains(t, shader.Source, "void main")
	assert.Equal(t, StageFragment, shader.Stage)
	assert.NotZero(t, shader.Uniforms.Len())

	// Whatever names the backend picked, the material leaves must be
	// reachable by their original names.
	for _, friendly := range []string{"material.color", "material.roughness"} {
		_, ok := shader.Uniforms.Compiled(friendly)
		assert.True(t, ok, "uniform %q not mapped; map: %v; diagnostics: %v",
			friendly, shader.Uniforms.Entries(), shader.Diagnostics)
	}
}

func TestConvert_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.wgsl"), []byte(`
struct Material {
    color: vec4<f32>,
    roughness: f32,
}
`), 0o600))
	main := filepath.Join(dir, "main.wgsl")
	require.NoError(t, os.WriteFile(main, []byte(`#include "common.wgsl"
#define ROUGH material.roughness
@group(0) @binding(0) var<uniform> material: Material;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return material.color * ROUGH;
}
`), 0o600))

	opts := DefaultOptions()
	opts.Validate = false
	shader, err := Convert(main, StageFragment, "fs_main", opts)
	require.NoError(t, err)
	assert.Contains(t, shader.Source, "void main")
}

func TestConvert_StageMismatch(t *testing.T) {
	_, err := ConvertSource("lit.wgsl", litShader, StageVertex, "fs_main", DefaultOptions())

	var terr *engine.TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, engine.ErrEntryPoint, terr.Kind)
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	convertFake(t, fragmentGLSL, StageFragment, "fs_main")
	assert.True(t, strings.Contains(buf.String(), "converted"), "log output: %s", buf.String())

	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}
