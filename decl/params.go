// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package decl

import (
	"fmt"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderconv/layout"
)

// Member is one location-bound value of a stage parameter.
type Member struct {
	// Path is the member path below the parameter, empty for a parameter
	// that is itself location-bound.
	Path []layout.Segment

	// Location is the @location index.
	Location uint32

	// Type is the member type.
	Type *layout.TypeDecl
}

// Param is a stage input or output.
type Param struct {
	// Name is the declared parameter name. Entry point results are
	// unnamed in WGSL, so outputs have an empty name.
	Name string

	// Members lists location-bound members in declaration order.
	Members []Member
}

// Entries returns the members of p as flattened entries under root.
func (p Param) Entries(root string) []layout.FlattenedEntry {
	out := make([]layout.FlattenedEntry, len(p.Members))
	for i, m := range p.Members {
		out[i] = layout.FlattenedEntry{
			Path: layout.QualifiedPath{Root: root, Segments: append([]layout.Segment(nil), m.Path...)},
			Leaf: m.Type,
		}
	}
	return out
}

// StageParams returns the location-bound inputs and outputs of an entry
// point. Builtins are skipped, as are parameters with no located member.
func StageParams(module *ir.Module, entryPoint string) (inputs, outputs []Param, err error) {
	fn, err := entryFunction(module, entryPoint)
	if err != nil {
		return nil, nil, err
	}

	for _, arg := range fn.Arguments {
		p, err := stageParam(module, arg.Name, arg.Type, arg.Binding)
		if err != nil {
			return nil, nil, err
		}
		if len(p.Members) > 0 {
			inputs = append(inputs, p)
		}
	}

	if fn.Result != nil {
		p, err := stageParam(module, "", fn.Result.Type, fn.Result.Binding)
		if err != nil {
			return nil, nil, err
		}
		if len(p.Members) > 0 {
			outputs = append(outputs, p)
		}
	}
	return inputs, outputs, nil
}

// entryFunction returns the function inlined in the named entry point.
func entryFunction(module *ir.Module, name string) (*ir.Function, error) {
	for i := range module.EntryPoints {
		if module.EntryPoints[i].Name == name {
			return &module.EntryPoints[i].Function, nil
		}
	}
	return nil, &ParseError{Decl: name, Message: "entry point not found"}
}

func stageParam(module *ir.Module, name string, handle ir.TypeHandle, binding *ir.Binding) (Param, error) {
	p := Param{Name: name}

	if binding != nil {
		loc, ok := (*binding).(ir.LocationBinding)
		if !ok {
			return p, nil
		}
		typ, err := TypeOf(module, handle)
		if err != nil {
			return p, err
		}
		p.Members = append(p.Members, Member{Location: loc.Location, Type: typ})
		return p, nil
	}

	if int(handle) >= len(module.Types) {
		return p, &ParseError{Decl: name, Message: fmt.Sprintf("type handle %d out of range", handle)}
	}
	st, ok := module.Types[handle].Inner.(ir.StructType)
	if !ok {
		return p, nil
	}
	for _, member := range st.Members {
		if member.Binding == nil {
			continue
		}
		loc, ok := (*member.Binding).(ir.LocationBinding)
		if !ok {
			continue
		}
		typ, err := TypeOf(module, member.Type)
		if err != nil {
			return p, err
		}
		p.Members = append(p.Members, Member{
			Path:     []layout.Segment{{Kind: layout.SegmentField, Name: member.Name}},
			Location: loc.Location,
			Type:     typ,
		})
	}
	return p, nil
}
