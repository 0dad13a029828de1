// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shaderconv

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/naga/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderconv/decl"
	"github.com/gogpu/shaderconv/engine"
	"github.com/gogpu/shaderconv/glslreflect"
	"github.com/gogpu/shaderconv/layout"
	"github.com/gogpu/shaderconv/names"
)

// fakeTranslator returns a fixed module and reflects fixed GLSL.
type fakeTranslator struct {
	module   *ir.Module
	glsl     string
	textures map[string]ir.ResourceBinding
	err      error

	mu       sync.Mutex
	requests []engine.Request
}

func (f *fakeTranslator) Translate(req engine.Request) (*engine.Output, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	refl, err := glslreflect.Reflect(f.glsl)
	if err != nil {
		return nil, err
	}
	return &engine.Output{Source: f.glsl, Module: f.module, Reflection: refl, Textures: f.textures}, nil
}

func u32p(v uint32) *uint32 { return &v }

func bindingp(b ir.Binding) *ir.Binding { return &b }

// sceneModule declares
//
//	struct A { b: f32, c: array<f32, 2> }
//	struct VertexOutput {
//	    @builtin(position) pos: vec4<f32>,
//	    @location(0) color: vec4<f32>,
//	    @location(1) uv: vec2<f32>,
//	}
//	@group(0) @binding(0) var<uniform> a: array<A, 2>;
//	@group(0) @binding(1) var<uniform> exposure: f32;
//	@group(0) @binding(2) var albedo: texture_2d<f32>;
//	@group(0) @binding(3) var albedo_sampler: sampler;
//	@group(0) @binding(4) var<uniform> tail: array<f32>;
//
//	@vertex fn vs_main(@location(0) position: vec3<f32>) -> VertexOutput
//	@fragment fn fs_main(in: VertexOutput) -> @location(0) vec4<f32>
func sceneModule() *ir.Module {
	f32 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	return &ir.Module{
		Types: []ir.Type{
			{Inner: f32}, // 0
			{Inner: ir.ArrayType{Base: 0, Size: ir.ArraySize{Constant: u32p(2)}, Stride: 16}}, // 1
			{Name: "A", Inner: ir.StructType{Members: []ir.StructMember{
				{Name: "b", Type: 0},
				{Name: "c", Type: 1, Offset: 16},
			}}}, // 2
			{Inner: ir.ArrayType{Base: 2, Size: ir.ArraySize{Constant: u32p(2)}, Stride: 48}}, // 3
			{Inner: ir.VectorType{Size: ir.Vec4, Scalar: f32}},                              // 4
			{Inner: ir.VectorType{Size: ir.Vec2, Scalar: f32}},                              // 5
			{Inner: ir.VectorType{Size: ir.Vec3, Scalar: f32}},                              // 6
			{Name: "VertexOutput", Inner: ir.StructType{Members: []ir.StructMember{
				{Name: "pos", Type: 4, Binding: bindingp(ir.BuiltinBinding{Builtin: ir.BuiltinPosition})},
				{Name: "color", Type: 4, Binding: bindingp(ir.LocationBinding{Location: 0}), Offset: 16},
				{Name: "uv", Type: 5, Binding: bindingp(ir.LocationBinding{Location: 1}), Offset: 32},
			}}}, // 7
			{Inner: ir.ImageType{Dim: ir.Dim2D}},                             // 8
			{Inner: ir.SamplerType{}},                                        // 9
			{Inner: ir.ArrayType{Base: 0, Size: ir.ArraySize{}, Stride: 4}}, // 10
		},
		GlobalVariables: []ir.GlobalVariable{
			{Name: "a", Space: ir.SpaceUniform, Binding: &ir.ResourceBinding{Group: 0, Binding: 0}, Type: 3},
			{Name: "exposure", Space: ir.SpaceUniform, Binding: &ir.ResourceBinding{Group: 0, Binding: 1}, Type: 0},
			{Name: "albedo", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 0, Binding: 2}, Type: 8},
			{Name: "albedo_sampler", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 0, Binding: 3}, Type: 9},
			{Name: "tail", Space: ir.SpaceUniform, Binding: &ir.ResourceBinding{Group: 0, Binding: 4}, Type: 10},
		},
		EntryPoints: []ir.EntryPoint{
			{
				Name:  "vs_main",
				Stage: ir.StageVertex,
				Function: ir.Function{
					Name:      "vs_main",
					Arguments: []ir.FunctionArgument{{Name: "position", Type: 6, Binding: bindingp(ir.LocationBinding{Location: 0})}},
					Result:    &ir.FunctionResult{Type: 7},
				},
			},
			{
				Name:  "fs_main",
				Stage: ir.StageFragment,
				Function: ir.Function{
					Name:      "fs_main",
					Arguments: []ir.FunctionArgument{{Name: "in", Type: 7}},
					Result:    &ir.FunctionResult{Type: 4, Binding: bindingp(ir.LocationBinding{Location: 0})},
				},
			},
		},
	}
}

const fragmentGLSL = `#version 330 core
struct A {
    float b;
    float c[2];
};
layout(std140) uniform A_block_0Fragment { A _group_0_binding_0_fs[2]; };
uniform float exposure;
uniform sampler2D albedo_albedo_sampler;

smooth in vec4 _vs2fs_location0;
smooth in vec2 _vs2fs_location1;
layout(location = 0) out vec4 _fs2p_location0;

void main() {
    _fs2p_location0 = _vs2fs_location0 * exposure;
}
`

const vertexGLSL = `#version 330 core
uniform float exposure;
layout(location = 0) in vec3 _p2vs_location0;
smooth out vec4 _vs2fs_location0;
smooth out vec2 _vs2fs_location1;

void main() {
    gl_Position = vec4(_p2vs_location0, exposure);
}
`

func convertFake(t *testing.T, glsl string, stage Stage, entry string) *ConvertedShader {
	t.Helper()
	conv := NewConverter(DefaultOptions(), &fakeTranslator{module: sceneModule(), glsl: glsl})
	shader, err := conv.ConvertSource("scene.wgsl", "// unused", stage, entry)
	require.NoError(t, err)
	return shader
}

func TestConvert_Uniforms(t *testing.T) {
	shader := convertFake(t, fragmentGLSL, StageFragment, "fs_main")

	want := map[string]string{
		"_group_0_binding_0_fs[0].b":    "a[0].b",
		"_group_0_binding_0_fs[0].c[0]": "a[0].c[0]",
		"_group_0_binding_0_fs[0].c[1]": "a[0].c[1]",
		"_group_0_binding_0_fs[1].b":    "a[1].b",
		"_group_0_binding_0_fs[1].c[0]": "a[1].c[0]",
		"_group_0_binding_0_fs[1].c[1]": "a[1].c[1]",
		"exposure":                      "exposure",
	}
	for compiled, friendly := range want {
		got, ok := shader.Uniforms.Friendly(compiled)
		assert.True(t, ok, "compiled %q unmapped", compiled)
		assert.Equal(t, friendly, got)

		back, ok := shader.Uniforms.Compiled(friendly)
		assert.True(t, ok)
		assert.Equal(t, compiled, back)
	}

	// The runtime-sized uniform cannot be modeled and is reported.
	unsupported := shader.Unsupported()
	require.Len(t, unsupported, 1)
	assert.Contains(t, unsupported[0].Reason, "tail")
	assert.Empty(t, shader.Mismatches())
}

func TestConvert_Samplers(t *testing.T) {
	shader := convertFake(t, fragmentGLSL, StageFragment, "fs_main")

	got, ok := shader.Uniforms.Friendly("albedo_albedo_sampler")
	require.True(t, ok)
	assert.Equal(t, "albedo", got)
}

func TestConvert_SecondSamplerOfTextureUnmapped(t *testing.T) {
	glsl := `uniform sampler2D albedo_linear;
uniform sampler2D albedo_nearest;
uniform float exposure;
`
	shader := convertFake(t, glsl, StageFragment, "fs_main")

	got, ok := shader.Uniforms.Friendly("albedo_linear")
	require.True(t, ok)
	assert.Equal(t, "albedo", got)
	assert.True(t, shader.Uniforms.Has("albedo_nearest"))
	_, ok = shader.Uniforms.Friendly("albedo_nearest")
	assert.False(t, ok)
}

func TestConvert_SamplerByBinding(t *testing.T) {
	glsl := `uniform sampler2D _group_0_binding_2_fs;
uniform float exposure;
`
	shader := convertFake(t, glsl, StageFragment, "fs_main")

	got, ok := shader.Uniforms.Friendly("_group_0_binding_2_fs")
	require.True(t, ok)
	assert.Equal(t, "albedo", got)
}

func TestConvert_SamplerByTextureBinding(t *testing.T) {
	glsl := `uniform sampler2D combined0;
uniform sampler2D combined1[2];
uniform sampler2D albedo_shadow;
uniform float exposure;
`
	fake := &fakeTranslator{
		module: sceneModule(),
		glsl:   glsl,
		textures: map[string]ir.ResourceBinding{
			"combined0":     {Group: 0, Binding: 2},
			"combined1":     {Group: 3, Binding: 0},
			"albedo_shadow": {Group: 3, Binding: 1},
		},
	}
	shader, err := NewConverter(DefaultOptions(), fake).ConvertSource("scene.wgsl", "", StageFragment, "fs_main")
	require.NoError(t, err)

	got, ok := shader.Uniforms.Friendly("combined0")
	require.True(t, ok)
	assert.Equal(t, "albedo", got)

	// A reported binding that names no texture is not resolved by name.
	for _, compiled := range []string{"combined1[0]", "combined1[1]", "albedo_shadow"} {
		assert.True(t, shader.Uniforms.Has(compiled))
		_, ok := shader.Uniforms.Friendly(compiled)
		assert.False(t, ok, "%s should be unmapped", compiled)
	}
}

func TestConvert_SamplerArrayElements(t *testing.T) {
	glsl := `uniform sampler2D _group_0_binding_2_fs[2];
`
	fake := &fakeTranslator{
		module:   sceneModule(),
		glsl:     glsl,
		textures: map[string]ir.ResourceBinding{"_group_0_binding_2_fs": {Group: 0, Binding: 2}},
	}
	shader, err := NewConverter(DefaultOptions(), fake).ConvertSource("scene.wgsl", "", StageFragment, "fs_main")
	require.NoError(t, err)

	for compiled, want := range map[string]string{
		"_group_0_binding_2_fs[0]": "albedo[0]",
		"_group_0_binding_2_fs[1]": "albedo[1]",
	} {
		got, ok := shader.Uniforms.Friendly(compiled)
		require.True(t, ok, compiled)
		assert.Equal(t, want, got)
	}
}

func TestConvert_MismatchIsolation(t *testing.T) {
	// The compiler dropped the last array element of a; exposure is intact.
	glsl := `struct A { float b; float c[2]; };
uniform A a[1];
uniform float exposure;
`
	shader := convertFake(t, glsl, StageFragment, "fs_main")

	var mismatch *names.ReflectionMismatchError
	for _, m := range shader.Mismatches() {
		if m.Root == "a" {
			mismatch = m
		}
	}
	require.NotNil(t, mismatch)
	assert.Equal(t, 6, mismatch.Expected)
	assert.Equal(t, 3, mismatch.Got)

	for _, compiled := range []string{"a[0].b", "a[0].c[0]", "a[0].c[1]"} {
		assert.True(t, shader.Uniforms.Has(compiled), "compiled %q should be retained", compiled)
		_, ok := shader.Uniforms.Friendly(compiled)
		assert.False(t, ok, "compiled %q should be unmapped", compiled)
	}
	got, ok := shader.Uniforms.Friendly("exposure")
	assert.True(t, ok)
	assert.Equal(t, "exposure", got)
}

func TestConvert_OrphanRetained(t *testing.T) {
	glsl := `uniform float exposure;
uniform float _naga_internal;
`
	shader := convertFake(t, glsl, StageFragment, "fs_main")
	assert.True(t, shader.Uniforms.Has("_naga_internal"))
	assert.Contains(t, shader.Uniforms.Unmapped(), "_naga_internal")
}

func TestConvert_InjectedRootNotGuessed(t *testing.T) {
	// exposure was optimized out; the backend added a root of the same
	// shape that neither its name nor its binding ties to exposure.
	glsl := `struct A { float b; float c[2]; };
uniform A a[2];
uniform float _naga_injected;
`
	shader := convertFake(t, glsl, StageFragment, "fs_main")

	assert.True(t, shader.Uniforms.Has("_naga_injected"))
	_, ok := shader.Uniforms.Friendly("_naga_injected")
	assert.False(t, ok, "_naga_injected must stay unmapped")
	_, ok = shader.Uniforms.Compiled("exposure")
	assert.False(t, ok, "exposure has no compiled counterpart")

	got, ok := shader.Uniforms.Friendly("a[1].c[0]")
	assert.True(t, ok)
	assert.Equal(t, "a[1].c[0]", got)
}

func TestConvert_FragmentAttributes(t *testing.T) {
	shader := convertFake(t, fragmentGLSL, StageFragment, "fs_main")

	tests := map[string]string{
		"_vs2fs_location0": "in_color",
		"_vs2fs_location1": "in_uv",
		"_fs2p_location0":  "target",
	}
	for compiled, friendly := range tests {
		got, ok := shader.Attributes.Friendly(compiled)
		assert.True(t, ok, "attribute %q unmapped", compiled)
		assert.Equal(t, friendly, got)
	}
}

func TestConvert_LinkageAgreesAcrossStages(t *testing.T) {
	vs := convertFake(t, vertexGLSL, StageVertex, "vs_main")
	fs := convertFake(t, fragmentGLSL, StageFragment, "fs_main")

	for _, name := range []string{"in_color", "in_uv"} {
		vsCompiled, ok := vs.Attributes.Compiled(name)
		require.True(t, ok, "vertex output %q missing", name)
		fsCompiled, ok := fs.Attributes.Compiled(name)
		require.True(t, ok, "fragment input %q missing", name)
		assert.Equal(t, vsCompiled, fsCompiled)
	}

	got, ok := vs.Attributes.Friendly("_p2vs_location0")
	assert.True(t, ok)
	assert.Equal(t, "position", got)
}

func TestConvert_LinkageName(t *testing.T) {
	opts := DefaultOptions()
	opts.LinkageName = "vert_out"
	conv := NewConverter(opts, &fakeTranslator{module: sceneModule(), glsl: vertexGLSL})
	shader, err := conv.ConvertSource("scene.wgsl", "", StageVertex, "vs_main")
	require.NoError(t, err)

	got, ok := shader.Attributes.Friendly("_vs2fs_location1")
	assert.True(t, ok)
	assert.Equal(t, "vert_out_uv", got)
}

func TestConvert_LooseFragmentInputs(t *testing.T) {
	module := sceneModule()
	module.EntryPoints = append(module.EntryPoints, ir.EntryPoint{
		Name:  "fs_loose",
		Stage: ir.StageFragment,
		Function: ir.Function{
			Name:      "fs_loose",
			Arguments: []ir.FunctionArgument{{Name: "uv", Type: 5, Binding: bindingp(ir.LocationBinding{Location: 1})}},
			Result:    &ir.FunctionResult{Type: 4, Binding: bindingp(ir.LocationBinding{Location: 0})},
		},
	})
	glsl := `smooth in vec2 _vs2fs_location1;
layout(location = 0) out vec4 _fs2p_location0;
`
	fs, err := NewConverter(DefaultOptions(), &fakeTranslator{module: module, glsl: glsl}).
		ConvertSource("scene.wgsl", "", StageFragment, "fs_loose")
	require.NoError(t, err)
	vs := convertFake(t, vertexGLSL, StageVertex, "vs_main")

	// Same compiled varying, different attribute names.
	got, ok := fs.Attributes.Friendly("_vs2fs_location1")
	require.True(t, ok)
	assert.Equal(t, "uv", got)
	got, ok = vs.Attributes.Friendly("_vs2fs_location1")
	require.True(t, ok)
	assert.Equal(t, "in_uv", got)
}

func TestConvert_MissingAttribute(t *testing.T) {
	glsl := `uniform float exposure;
layout(location = 0) in vec4 color;
layout(location = 0) out vec4 frag;
`
	shader := convertFake(t, glsl, StageFragment, "fs_main")

	mismatches := shader.Mismatches()
	require.Len(t, mismatches, 1)
	assert.Equal(t, "in_uv", mismatches[0].Root)

	got, _ := shader.Attributes.Friendly("color")
	assert.Equal(t, "in_color", got)
}

func TestConvert_Deterministic(t *testing.T) {
	a := convertFake(t, fragmentGLSL, StageFragment, "fs_main")
	b := convertFake(t, fragmentGLSL, StageFragment, "fs_main")
	assert.True(t, a.Uniforms.Equal(b.Uniforms))
	assert.True(t, a.Attributes.Equal(b.Attributes))
	assert.Equal(t, a.Report(), b.Report())
}

func TestConvert_Parallel(t *testing.T) {
	fake := &fakeTranslator{module: sceneModule(), glsl: fragmentGLSL}
	conv := NewConverter(DefaultOptions(), fake)

	var wg sync.WaitGroup
	results := make([]*ConvertedShader, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shader, err := conv.ConvertSource("scene.wgsl", "", StageFragment, "fs_main")
			if err == nil {
				results[i] = shader
			}
		}()
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.True(t, r.Uniforms.Equal(results[0].Uniforms))
	}
	assert.Len(t, fake.requests, len(results))
}

func TestConvert_RequestCarriesOptions(t *testing.T) {
	fake := &fakeTranslator{module: sceneModule(), glsl: fragmentGLSL}
	opts := DefaultOptions()
	opts.IncludeSearchPaths = []string{"lib"}
	opts.Defines = map[string]string{"N": "4"}
	opts.Validate = false
	_, err := NewConverter(opts, fake).Convert("scene.wgsl", StageFragment, "fs_main")
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, "scene.wgsl", req.SourcePath)
	assert.Equal(t, []string{"lib"}, req.IncludePaths)
	assert.Equal(t, "4", req.Defines["N"])
	assert.False(t, req.Validate)
	assert.Equal(t, engine.DefaultProfile, req.Profile)
}

func TestConvert_TranslationError(t *testing.T) {
	cause := &engine.TranslationError{Kind: engine.ErrParse, Path: "x.wgsl", Err: errors.New("bad token")}
	_, err := NewConverter(DefaultOptions(), &fakeTranslator{err: cause}).Convert("x.wgsl", StageFragment, "fs_main")
	assert.Same(t, cause, err)
}

func TestConvert_PlainErrorWrapped(t *testing.T) {
	cause := errors.New("backend crashed")
	_, err := NewConverter(DefaultOptions(), &fakeTranslator{err: cause}).Convert("x.wgsl", StageFragment, "fs_main")

	var terr *engine.TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, engine.ErrCodegen, terr.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestConvert_MissingEntryPointDiagnosed(t *testing.T) {
	shader := convertFake(t, fragmentGLSL, StageFragment, "other_main")

	var perr *decl.ParseError
	found := false
	for _, err := range shader.Diagnostics {
		if errors.As(err, &perr) {
			found = true
		}
	}
	assert.True(t, found, "diagnostics %v should hold a *decl.ParseError", shader.Diagnostics)
	assert.True(t, shader.Attributes.Has("_vs2fs_location0"))
}

func TestMatchRoots(t *testing.T) {
	f32 := layout.Scalar("f32")
	root := func(name string, binding uint32) decl.Root {
		r, err := layout.NewRootBinding(name, f32, 0)
		require.NoError(t, err)
		return decl.Root{Binding: r, Resource: &ir.ResourceBinding{Group: 0, Binding: binding}}
	}
	res := func(name string, binding int) glslreflect.Resource {
		return glslreflect.Resource{Root: name, Binding: binding, Names: []string{name}}
	}

	roots := []decl.Root{root("input", 0), root("color", 1), root("light", 2), root("extra", 3)}
	reflected := []glslreflect.Resource{
		res("_group_0_binding_2_vs", -1),
		res("color_1", -1),
		res("_input", -1),
		res("leftover", -1),
	}
	got := matchRoots(roots, reflected)
	assert.Equal(t, map[int]string{
		0: "_input",
		1: "color_1",
		2: "_group_0_binding_2_vs",
	}, got)
	assert.NotContains(t, got, 3, "a root matched by neither name nor binding must stay unassigned")
}

func TestReport(t *testing.T) {
	shader := convertFake(t, fragmentGLSL, StageFragment, "fs_main")
	r := shader.Report()

	assert.Equal(t, "fragment", r.Stage)
	assert.Equal(t, "fs_main", r.EntryPoint)
	assert.Equal(t, "330 core", r.Profile)
	assert.Contains(t, r.Uniforms, names.Mapping{Compiled: "exposure", Friendly: "exposure"})
	assert.Len(t, r.Diagnostics, 1)
}
