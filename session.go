// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shaderconv

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/shaderconv/decl"
	"github.com/gogpu/shaderconv/engine"
	"github.com/gogpu/shaderconv/glslreflect"
	"github.com/gogpu/shaderconv/internal/logging"
	"github.com/gogpu/shaderconv/layout"
	"github.com/gogpu/shaderconv/names"
)

// Converter converts shaders with a fixed set of options.
// It is safe for concurrent use if its Translator is.
type Converter struct {
	opts       Options
	translator engine.Translator
}

// NewConverter returns a Converter. A nil translator selects the naga
// WGSL to GLSL translator.
func NewConverter(opts Options, translator engine.Translator) *Converter {
	if translator == nil {
		translator = engine.NewNaga()
	}
	return &Converter{opts: opts.withDefaults(), translator: translator}
}

// Options returns the options of c with defaults applied.
func (c *Converter) Options() Options {
	return c.opts
}

// Convert converts the entry point of the WGSL file at path.
func (c *Converter) Convert(path string, stage Stage, entryPoint string) (*ConvertedShader, error) {
	return c.Session(path, "", stage, entryPoint).Run()
}

// ConvertSource converts in-memory WGSL. name anchors relative includes.
func (c *Converter) ConvertSource(name, source string, stage Stage, entryPoint string) (*ConvertedShader, error) {
	return c.Session(name, source, stage, entryPoint).Run()
}

// Session returns a conversion of one (file, entry point, stage). Sessions
// share nothing mutable and may run in parallel.
func (c *Converter) Session(path, source string, stage Stage, entryPoint string) *Session {
	return &Session{
		opts:       c.opts,
		translator: c.translator,
		req: engine.Request{
			SourcePath:   path,
			Source:       source,
			EntryPoint:   entryPoint,
			Stage:        stage,
			IncludePaths: c.opts.IncludeSearchPaths,
			Defines:      c.opts.Defines,
			Profile:      c.opts.Profile,
			Validate:     c.opts.Validate,
		},
	}
}

// Session converts one entry point. A Session runs once.
type Session struct {
	opts       Options
	translator engine.Translator
	req        engine.Request

	log    *slog.Logger
	out    *engine.Output
	result *ConvertedShader
}

// Run translates the source and reconciles uniform and attribute names.
//
// Translation failures abort the session with a *engine.TranslationError.
// Failures that concern a single declaration are collected in
// ConvertedShader.Diagnostics and leave only that declaration's names
// unmapped.
func (s *Session) Run() (*ConvertedShader, error) {
	s.log = logging.Logger().With("path", s.req.SourcePath, "entry", s.req.EntryPoint, "stage", s.req.Stage)

	out, err := s.translator.Translate(s.req)
	if err != nil {
		var terr *engine.TranslationError
		if !errors.As(err, &terr) {
			err = &engine.TranslationError{Kind: engine.ErrCodegen, Path: s.req.SourcePath, Err: err}
		}
		return nil, err
	}
	if out.Module == nil || out.Reflection == nil {
		return nil, &engine.TranslationError{
			Kind: engine.ErrReflection,
			Path: s.req.SourcePath,
			Err:  errors.New("translator returned no module or reflection"),
		}
	}
	s.out = out

	s.result = &ConvertedShader{
		Source:     out.Source,
		Stage:      s.req.Stage,
		EntryPoint: s.req.EntryPoint,
		Profile:    s.req.Profile.String(),
		Warnings:   out.Warnings,
	}

	uniforms := s.uniforms()
	samplers := s.samplers()
	s.result.Uniforms = names.Merge(uniforms, samplers)
	s.result.Attributes = s.attributes()

	s.log.Debug("converted",
		"uniforms", s.result.Uniforms.Len(),
		"mapped", s.result.Uniforms.Mapped(),
		"attributes", s.result.Attributes.Len(),
		"diagnostics", len(s.result.Diagnostics))
	return s.result, nil
}

func (s *Session) diagnose(errs ...error) {
	for _, err := range errs {
		s.log.Warn("names left unmapped", "err", err)
	}
	s.result.Diagnostics = append(s.result.Diagnostics, errs...)
}

// uniforms reconciles declared uniform roots with reflected leaves.
func (s *Session) uniforms() *names.NameMap {
	roots, errs := decl.Uniforms(s.out.Module)
	s.diagnose(errs...)

	compiled := matchRoots(roots, s.out.Reflection.Uniforms)
	bindings := make([]names.Binding, 0, len(roots))
	for i, root := range roots {
		name, ok := compiled[i]
		if !ok {
			s.log.Debug("uniform has no reflected root", "root", root.Binding.Name)
			continue
		}
		entries, err := layout.Flatten(root.Binding)
		if err != nil {
			s.diagnose(err)
			continue
		}
		s.log.Debug("uniform root", "root", root.Binding.Name, "compiled", name, "leaves", len(entries))
		bindings = append(bindings, names.Binding{Root: name, Expected: entries})
	}

	m, errs := names.ReconcileAll(bindings, s.out.Reflection.UniformNames())
	s.diagnose(errs...)
	return m
}

var bindingName = regexp.MustCompile(`^_group_(\d+)_binding_(\d+)`)

// matchRoots assigns a reflected root to each declared root, by name
// first, then by group and binding. Roots matched neither way stay
// unassigned; their reflected names are kept as unmapped orphans.
func matchRoots(roots []decl.Root, reflected []glslreflect.Resource) map[int]string {
	assigned := make(map[int]string, len(roots))
	taken := make(map[int]bool, len(reflected))

	available := func() []string {
		var out []string
		for j, r := range reflected {
			if !taken[j] {
				out = append(out, r.Root)
			}
		}
		return out
	}
	take := func(i int, root string) {
		for j, r := range reflected {
			if !taken[j] && r.Root == root {
				taken[j] = true
				assigned[i] = root
				return
			}
		}
	}

	for i, root := range roots {
		if name, ok := names.MatchRoot(root.Binding.Name, available()); ok {
			take(i, name)
		}
	}

	for i, root := range roots {
		if _, done := assigned[i]; done || root.Resource == nil {
			continue
		}
		if j, ok := matchBinding(root.Resource, reflected, taken); ok {
			take(i, reflected[j].Root)
		}
	}
	return assigned
}

// matchBinding finds the reflected root generated for a resource binding,
// either through the _group_G_binding_B naming or a unique layout binding.
func matchBinding(rb *ir.ResourceBinding, reflected []glslreflect.Resource, taken map[int]bool) (int, bool) {
	for j, r := range reflected {
		if taken[j] {
			continue
		}
		if m := bindingName.FindStringSubmatch(r.Root); m != nil && sameBinding(m, rb) {
			return j, true
		}
	}

	found := -1
	for j, r := range reflected {
		if taken[j] || r.Binding < 0 || uint64(r.Binding) != uint64(rb.Binding) {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = j
	}
	return found, found >= 0
}

// samplers maps combined sampler uniforms to the texture they sample,
// using the backend's texture bindings and falling back to the uniform
// name. Only the first sampler of a texture is mapped.
func (s *Session) samplers() *names.NameMap {
	textures := decl.Textures(s.out.Module)
	mappings := make([]names.Mapping, 0, len(s.out.Reflection.Samplers))
	for _, sampler := range s.out.Reflection.Samplers {
		path, err := layout.ParsePath(sampler)
		if err != nil {
			s.log.Debug("unparsable sampler name", "sampler", sampler, "err", err)
			mappings = append(mappings, names.Mapping{Compiled: sampler})
			continue
		}
		var friendly string
		if rb, ok := s.out.Textures[path.Root]; ok {
			friendly = textureAt(rb, textures)
		} else {
			friendly = textureFor(path.Root, textures)
		}
		if friendly != "" {
			friendly = path.WithRoot(friendly).String()
		}
		mappings = append(mappings, names.Mapping{Compiled: sampler, Friendly: friendly})
	}
	return names.NewNameMap(mappings...)
}

// textureAt returns the texture declared at rb.
func textureAt(rb ir.ResourceBinding, textures []decl.Texture) string {
	for _, tex := range textures {
		if tex.Resource != nil && *tex.Resource == rb {
			return tex.Name
		}
	}
	return ""
}

// textureFor returns the texture a combined sampler named base was
// generated from: the longest texture name that base equals or starts
// with followed by '_', or else the texture whose group and binding base
// encodes.
func textureFor(base string, textures []decl.Texture) string {
	best := ""
	for _, tex := range textures {
		if len(tex.Name) <= len(best) {
			continue
		}
		if base == tex.Name || strings.HasPrefix(base, tex.Name+"_") || strings.HasPrefix(base, "_"+tex.Name+"_") {
			best = tex.Name
		}
	}
	if best != "" {
		return best
	}
	m := bindingName.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	for _, tex := range textures {
		if tex.Resource != nil && sameBinding(m, tex.Resource) {
			return tex.Name
		}
	}
	return ""
}

func sameBinding(m []string, rb *ir.ResourceBinding) bool {
	return m[1] == strconv.FormatUint(uint64(rb.Group), 10) && m[2] == strconv.FormatUint(uint64(rb.Binding), 10)
}

// attributes pairs located stage parameters with reflected inputs and
// outputs by location.
func (s *Session) attributes() *names.NameMap {
	inputs, outputs, err := decl.StageParams(s.out.Module, s.req.EntryPoint)
	if err != nil {
		s.diagnose(err)
		return names.NewNameMap(attributeMappings(s.out.Reflection.Inputs, nil)...)
	}

	var inRoot, outRoot func(decl.Param) string
	switch s.req.Stage {
	case engine.StageVertex:
		inRoot = func(p decl.Param) string { return p.Name }
		outRoot = func(decl.Param) string { return s.opts.LinkageName }
	case engine.StageFragment:
		inRoot = func(p decl.Param) string { return p.Name }
		outRoot = func(decl.Param) string { return s.opts.TargetName }
	default:
		return names.NewNameMap(append(
			attributeMappings(s.out.Reflection.Inputs, nil),
			attributeMappings(s.out.Reflection.Outputs, nil)...)...)
	}

	inNames := s.canonical(inputs, inRoot, s.out.Reflection.Inputs, "input")
	outNames := s.canonical(outputs, outRoot, s.out.Reflection.Outputs, "output")
	return names.NewNameMap(append(
		attributeMappings(s.out.Reflection.Inputs, inNames),
		attributeMappings(s.out.Reflection.Outputs, outNames)...)...)
}

// canonical returns the canonical name per location and reports declared
// locations that have no reflected attribute.
func (s *Session) canonical(params []decl.Param, root func(decl.Param) string, reflected []glslreflect.Attribute, kind string) map[uint32]string {
	byLocation := make(map[uint32]string)
	for _, p := range params {
		for i, e := range p.Entries(root(p)) {
			loc := p.Members[i].Location
			name := names.CanonicalPathName(e.Path)
			if _, dup := byLocation[loc]; dup {
				s.diagnose(fmt.Errorf("%s location %d declared twice (%s)", kind, loc, name))
				continue
			}
			byLocation[loc] = name
			if _, ok := attributeAt(reflected, loc); !ok {
				s.diagnose(&names.ReflectionMismatchError{Root: name, Expected: 1, Got: 0})
			}
		}
	}
	return byLocation
}

func attributeMappings(reflected []glslreflect.Attribute, byLocation map[uint32]string) []names.Mapping {
	out := make([]names.Mapping, len(reflected))
	for i, a := range reflected {
		out[i].Compiled = a.Name
		if loc, ok := attributeLocation(a); ok {
			out[i].Friendly = byLocation[loc]
		}
	}
	return out
}

func attributeAt(reflected []glslreflect.Attribute, loc uint32) (glslreflect.Attribute, bool) {
	if a, ok := glslreflect.AttributeAt(reflected, loc); ok {
		return a, true
	}
	for _, a := range reflected {
		if l, ok := attributeLocation(a); ok && l == loc {
			return a, true
		}
	}
	return glslreflect.Attribute{}, false
}

var locationSuffix = regexp.MustCompile(`_location(\d+)$`)

// attributeLocation returns the declared location of a, or the one encoded
// in linkage names such as _vs2fs_location1 when no layout is declared.
func attributeLocation(a glslreflect.Attribute) (uint32, bool) {
	if a.HasLocation {
		return a.Location, true
	}
	m := locationSuffix.FindStringSubmatch(a.Name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
