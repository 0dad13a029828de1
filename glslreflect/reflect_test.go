// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glslreflect

import (
	"errors"
	"strings"
	"testing"
)

func mustReflect(t *testing.T, source string) *Reflection {
	t.Helper()
	r, err := Reflect(source)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	return r
}

func assertNames(t *testing.T, what string, got, want []string) {
	t.Helper()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func TestReflect_StructArrayUniform(t *testing.T) {
	r := mustReflect(t, `#version 330 core
struct A {
    float b;
    float c[2];
};
uniform A a[2];

void main() {
    gl_FragColor = vec4(a[0].b);
}
`)
	if len(r.Uniforms) != 1 {
		t.Fatalf("Uniforms = %d roots, want 1", len(r.Uniforms))
	}
	u := r.Uniforms[0]
	if u.Root != "a" || u.Dim != 2 || u.Binding != -1 {
		t.Errorf("root = %s dim %d binding %d, want a dim 2 binding -1", u.Root, u.Dim, u.Binding)
	}
	assertNames(t, "Names", u.Names, []string{
		"a[0].b", "a[0].c[0]", "a[0].c[1]",
		"a[1].b", "a[1].c[0]", "a[1].c[1]",
	})
}

func TestReflect_TypeSideDims(t *testing.T) {
	r := mustReflect(t, `struct L { vec3 dir; };
uniform L[2] lights[3];
`)
	names := r.Uniforms[0].Names
	if len(names) != 6 {
		t.Fatalf("Names = %v, want 6 entries", names)
	}
	// Declarator dimension varies slowest.
	assertNames(t, "first names", names[:3], []string{"lights[0][0].dir", "lights[0][1].dir", "lights[1][0].dir"})
}

func TestReflect_NamedBlock(t *testing.T) {
	r := mustReflect(t, `#version 420
layout(std140, binding = 2) uniform Params_block {
    mat4 mvp;
    vec4 tint[2];
} params;
`)
	u := r.Uniforms[0]
	if u.Root != "params" || u.Binding != 2 {
		t.Errorf("root = %s binding %d, want params binding 2", u.Root, u.Binding)
	}
	assertNames(t, "Names", u.Names, []string{"params.mvp", "params.tint[0]", "params.tint[1]"})
}

func TestReflect_AnonymousBlock(t *testing.T) {
	r := mustReflect(t, `struct Uniforms { vec4 color; float scale; };
layout(std140, binding = 0) uniform Uniforms_block_0Fragment { Uniforms _group_0_binding_0_fs; float time; };
`)
	assertNames(t, "Roots", r.UniformRoots(), []string{"_group_0_binding_0_fs", "time"})
	assertNames(t, "UniformNames", r.UniformNames(), []string{
		"_group_0_binding_0_fs.color", "_group_0_binding_0_fs.scale", "time",
	})
	for _, u := range r.Uniforms {
		if u.Binding != 0 {
			t.Errorf("%s binding = %d, want 0", u.Root, u.Binding)
		}
	}
}

func TestReflect_NestedStructs(t *testing.T) {
	r := mustReflect(t, `
struct Inner { float v[2]; };
struct Mid { Inner i[2]; };
struct Outer { Mid m; };
uniform Outer o;
`)
	assertNames(t, "Names", r.Uniforms[0].Names, []string{
		"o.m.i[0].v[0]", "o.m.i[0].v[1]", "o.m.i[1].v[0]", "o.m.i[1].v[1]",
	})
}

func TestReflect_Samplers(t *testing.T) {
	r := mustReflect(t, `
uniform highp sampler2D _group_0_binding_1_fs;
layout(binding = 3) uniform samplerCube env[2];
uniform float exposure;
`)
	assertNames(t, "Samplers", r.Samplers, []string{"_group_0_binding_1_fs", "env[0]", "env[1]"})
	assertNames(t, "Roots", r.UniformRoots(), []string{"exposure"})
}

func TestReflect_Attributes(t *testing.T) {
	r := mustReflect(t, `#version 330 core
layout(location = 0) in vec3 position;
layout(location = 1) in vec2 uv;
in float legacy;
layout(location = 0) smooth out vec4 _vs2fs_location0;
flat out int _vs2fs_location1;
out gl_PerVertex { vec4 gl_Position; };
void main() {}
`)
	if len(r.Inputs) != 3 {
		t.Fatalf("Inputs = %+v, want 3", r.Inputs)
	}
	if r.Inputs[1].Name != "uv" || r.Inputs[1].Location != 1 || !r.Inputs[1].HasLocation {
		t.Errorf("Inputs[1] = %+v, want uv at location 1", r.Inputs[1])
	}
	if r.Inputs[2].HasLocation {
		t.Errorf("Inputs[2] = %+v, want no location", r.Inputs[2])
	}
	if a, ok := AttributeAt(r.Inputs, 0); !ok || a.Name != "position" {
		t.Errorf("AttributeAt(Inputs, 0) = %+v, %v, want position", a, ok)
	}
	if _, ok := AttributeAt(r.Inputs, 5); ok {
		t.Error("AttributeAt(Inputs, 5) found an attribute")
	}
	if len(r.Outputs) != 2 || r.Outputs[0].Name != "_vs2fs_location0" {
		t.Errorf("Outputs = %+v, want two outputs starting with _vs2fs_location0", r.Outputs)
	}
}

func TestReflect_SkipsBodiesAndDirectives(t *testing.T) {
	r := mustReflect(t, `#version 310 es
#extension GL_EXT_texture_buffer : enable
#define DECLARE(x) \
    uniform float x;
precision highp float;
/* uniform float commented; */
// uniform float alsoCommented;
const int N = 3;
uniform vec2 offsets[N];

float helper(float x);

float helper(float x) {
    if (x > 0.0) { return x; }
    return -x;
}

layout(std430, binding = 1) buffer Data_block { float data[]; };
layout(local_size_x = 64) in;
`)
	assertNames(t, "UniformNames", r.UniformNames(), []string{"offsets[0]", "offsets[1]", "offsets[2]"})
}

func TestReflect_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unknown type", "uniform Missing m;"},
		{"unterminated comment", "/* uniform float a;"},
		{"unbalanced body", "void main() { if (x) {"},
		{"unsized uniform", "uniform float values[];"},
		{"missing semicolon", "uniform float a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reflect(tt.source)
			if err == nil {
				t.Fatal("Reflect() error = nil")
			}
		})
	}
}

func TestReflect_SyntaxErrorPosition(t *testing.T) {
	_, err := Reflect("uniform float a;\nuniform Missing m;\n")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SyntaxError", err)
	}
	if serr.Line != 2 || serr.Column != 9 {
		t.Errorf("position = %d:%d, want 2:9", serr.Line, serr.Column)
	}
}

func TestBuiltinType(t *testing.T) {
	tests := map[string]string{
		"float":  "f32",
		"uvec3":  "vec3<u32>",
		"bvec2":  "vec2<bool>",
		"mat4":   "mat4x4<f32>",
		"mat2x3": "mat2x3<f32>",
		"dmat3":  "mat3x3<f64>",
		"ivec4":  "vec4<i32>",
	}
	for name, want := range tests {
		got, ok := builtinType(name)
		if !ok {
			t.Errorf("builtinType(%q) not recognized", name)
			continue
		}
		if got.String() != want {
			t.Errorf("builtinType(%q) = %s, want %s", name, got, want)
		}
	}
	for _, name := range []string{"imat4", "vec5", "Light", "sampler2D"} {
		if _, ok := builtinType(name); ok {
			t.Errorf("builtinType(%q) recognized, want not", name)
		}
	}
}
