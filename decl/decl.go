// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package decl

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderconv/layout"
)

// Parse parses and lowers WGSL source to IR.
func Parse(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, &ParseError{Message: "parse", Err: err}
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, &ParseError{Message: "lower", Err: err}
	}
	return module, nil
}

// Root is a uniform declaration ready for flattening.
type Root struct {
	Binding layout.RootBinding

	// Global is the IR handle of the declaring variable.
	Global ir.GlobalVariableHandle

	// Resource is the @group/@binding pair, if declared.
	Resource *ir.ResourceBinding
}

// Uniforms returns every uniform and push-constant global in declaration
// order. Globals that cannot be modeled are skipped and reported.
func Uniforms(module *ir.Module) ([]Root, []error) {
	var (
		roots []Root
		errs  []error
	)
	for i, global := range module.GlobalVariables {
		if global.Space != ir.SpaceUniform && global.Space != ir.SpacePushConstant {
			continue
		}
		handle, err := safecast.Conv[uint32](i)
		if err != nil {
			errs = append(errs, &ParseError{Decl: global.Name, Err: err})
			continue
		}
		binding, err := rootBinding(module, global)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		roots = append(roots, Root{
			Binding:  binding,
			Global:   ir.GlobalVariableHandle(handle),
			Resource: global.Binding,
		})
	}
	return roots, errs
}

// rootBinding lifts an outer fixed array of the global into the root
// dimension so its index varies slowest.
func rootBinding(module *ir.Module, global ir.GlobalVariable) (layout.RootBinding, error) {
	if global.Name == "" {
		return layout.RootBinding{}, &ParseError{Message: fmt.Sprintf("unnamed global of type %d", global.Type)}
	}
	if int(global.Type) >= len(module.Types) {
		return layout.RootBinding{}, &ParseError{Decl: global.Name, Message: fmt.Sprintf("type handle %d out of range", global.Type)}
	}

	elem, dim := global.Type, 0
	if arr, ok := module.Types[global.Type].Inner.(ir.ArrayType); ok {
		if arr.Size.Constant == nil {
			return layout.RootBinding{}, &layout.UnsupportedTypeError{
				Type:   typeName(module, global.Type),
				Reason: fmt.Sprintf("uniform %q is a runtime-sized array", global.Name),
			}
		}
		n, err := safecast.Conv[int](*arr.Size.Constant)
		if err != nil {
			return layout.RootBinding{}, &ParseError{Decl: global.Name, Err: err}
		}
		elem, dim = arr.Base, n
	}

	typ, err := TypeOf(module, elem)
	if err != nil {
		return layout.RootBinding{}, err
	}
	return layout.NewRootBinding(global.Name, typ, dim)
}

// TypeOf converts an IR type to a layout type tree.
func TypeOf(module *ir.Module, handle ir.TypeHandle) (*layout.TypeDecl, error) {
	return convertType(module, handle, 0)
}

func convertType(module *ir.Module, handle ir.TypeHandle, depth int) (*layout.TypeDecl, error) {
	if depth > layout.MaxDepth {
		return nil, &layout.UnsupportedTypeError{
			Type:   typeName(module, handle),
			Reason: fmt.Sprintf("nesting deeper than %d levels", layout.MaxDepth),
		}
	}
	if int(handle) >= len(module.Types) {
		return nil, &ParseError{Message: fmt.Sprintf("type handle %d out of range", handle)}
	}

	typ := module.Types[handle]
	switch inner := typ.Inner.(type) {
	case ir.ScalarType:
		return layout.Scalar(scalarName(inner)), nil
	case ir.VectorType:
		return layout.Vector(scalarName(inner.Scalar), int(inner.Size))
	case ir.MatrixType:
		return layout.Matrix(scalarName(inner.Scalar), int(inner.Columns), int(inner.Rows))
	case ir.ArrayType:
		if inner.Size.Constant == nil {
			return nil, &layout.UnsupportedTypeError{Type: typeName(module, handle), Reason: "runtime-sized array"}
		}
		n, err := safecast.Conv[int](*inner.Size.Constant)
		if err != nil {
			return nil, &ParseError{Message: "array length", Err: err}
		}
		elem, err := convertType(module, inner.Base, depth+1)
		if err != nil {
			return nil, err
		}
		return layout.Array(elem, n)
	case ir.StructType:
		fields := make([]layout.Field, 0, len(inner.Members))
		for i, member := range inner.Members {
			if member.Name == "" {
				return nil, &ParseError{Decl: typ.Name, Message: fmt.Sprintf("member %d has no name", i)}
			}
			mt, err := convertType(module, member.Type, depth+1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, layout.Field{Name: member.Name, Type: mt})
		}
		return layout.Aggregate(typ.Name, fields)
	default:
		return nil, &layout.UnsupportedTypeError{Type: typeName(module, handle), Reason: "not a data type"}
	}
}

func scalarName(s ir.ScalarType) string {
	bits := int(s.Width) * 8
	switch s.Kind {
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarSint:
		return fmt.Sprintf("i%d", bits)
	case ir.ScalarUint:
		return fmt.Sprintf("u%d", bits)
	default:
		return fmt.Sprintf("f%d", bits)
	}
}

// typeName renders an IR type for diagnostics.
func typeName(module *ir.Module, handle ir.TypeHandle) string {
	if int(handle) >= len(module.Types) {
		return fmt.Sprintf("type_%d", handle)
	}
	typ := module.Types[handle]
	if typ.Name != "" {
		return typ.Name
	}
	switch inner := typ.Inner.(type) {
	case ir.ArrayType:
		if inner.Size.Constant == nil {
			return fmt.Sprintf("array<%s>", typeName(module, inner.Base))
		}
		return fmt.Sprintf("array<%s, %d>", typeName(module, inner.Base), *inner.Size.Constant)
	case ir.ImageType:
		return "texture"
	case ir.SamplerType:
		return "sampler"
	case ir.AtomicType:
		return "atomic<" + scalarName(inner.Scalar) + ">"
	case ir.PointerType:
		return "ptr<" + typeName(module, inner.Base) + ">"
	default:
		return fmt.Sprintf("type_%d", handle)
	}
}

// Texture is a texture global.
type Texture struct {
	Name     string
	Resource *ir.ResourceBinding
}

// Textures returns the texture globals in declaration order.
func Textures(module *ir.Module) []Texture {
	var out []Texture
	for _, global := range module.GlobalVariables {
		if int(global.Type) >= len(module.Types) || global.Name == "" {
			continue
		}
		if _, ok := module.Types[global.Type].Inner.(ir.ImageType); ok {
			out = append(out, Texture{Name: global.Name, Resource: global.Binding})
		}
	}
	return out
}

// EntryPointStage returns the stage of the named entry point.
func EntryPointStage(module *ir.Module, name string) (ir.ShaderStage, bool) {
	for _, ep := range module.EntryPoints {
		if ep.Name == name {
			return ep.Stage, true
		}
	}
	return 0, false
}
