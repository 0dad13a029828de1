// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glslreflect

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/gogpu/shaderconv/layout"
)

// Resource is one uniform root of the generated source.
type Resource struct {
	// Root is the reported root name: the variable name, the block
	// instance name, or the member name of an anonymous block.
	Root string

	// Type is the element type of the root.
	Type *layout.TypeDecl

	// Dim is the declaration-level array length, 0 if not an array.
	Dim int

	// Binding is the layout binding, or -1 when none is declared.
	Binding int

	// Names lists the leaf names in the order a driver reports them.
	Names []string
}

// Attribute is a stage input or output variable.
type Attribute struct {
	Name        string
	Location    uint32
	HasLocation bool
}

// Reflection holds the externally visible names of one GLSL stage.
type Reflection struct {
	Uniforms []Resource
	Samplers []string
	Inputs   []Attribute
	Outputs  []Attribute
}

// UniformNames returns the leaf names of all uniforms in declaration order.
func (r *Reflection) UniformNames() []string {
	var out []string
	for _, u := range r.Uniforms {
		out = append(out, u.Names...)
	}
	return out
}

// UniformRoots returns the root name of every uniform.
func (r *Reflection) UniformRoots() []string {
	out := make([]string, len(r.Uniforms))
	for i, u := range r.Uniforms {
		out[i] = u.Root
	}
	return out
}

// AttributeAt returns the attribute bound to location.
func AttributeAt(attrs []Attribute, location uint32) (Attribute, bool) {
	for _, a := range attrs {
		if a.HasLocation && a.Location == location {
			return a, true
		}
	}
	return Attribute{}, false
}

// Reflect reads the declarations of GLSL source.
func Reflect(source string) (*Reflection, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &parser{
		tokens:  tokens,
		structs: make(map[string]*layout.TypeDecl),
		consts:  make(map[string]int),
		out:     &Reflection{},
	}
	for p.peek().kind != tokenEOF {
		if err := p.declaration(); err != nil {
			return nil, err
		}
	}
	return p.out, nil
}

type qualifiers struct {
	storage string
	layout  map[string]int
}

func (q qualifiers) layoutValue(key string) (int, bool) {
	v, ok := q.layout[key]
	return v, ok && v >= 0
}

type declarator struct {
	name string
	dims []int
	tok  token
}

type parser struct {
	tokens  []token
	pos     int
	structs map[string]*layout.TypeDecl
	consts  map[string]int
	out     *Reflection
}

func (p *parser) declaration() error {
	switch tok := p.peek(); {
	case tok.is(";"):
		p.next()
		return nil
	case tok.is("precision"):
		return p.skipPast(";")
	}

	q, err := p.qualifiers()
	if err != nil {
		return err
	}

	// Bare qualifier statements such as "layout(local_size_x = 64) in;".
	if p.peek().is(";") {
		p.next()
		return nil
	}
	if p.peek().is("struct") {
		return p.structDeclaration(q)
	}
	if q.storage != "" && p.peek().kind == tokenIdent && p.peekAt(1).is("{") {
		return p.block(q)
	}

	typeTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	typeDims, err := p.dims()
	if err != nil {
		return err
	}
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	if p.peek().is("(") {
		return p.function()
	}
	decls, init, err := p.declarators(nameTok)
	if err != nil {
		return err
	}
	return p.variables(q, typeTok, typeDims, decls, init)
}

var storageQualifiers = map[string]string{
	"uniform":   "uniform",
	"in":        "in",
	"attribute": "in",
	"out":       "out",
	"inout":     "inout",
	"buffer":    "buffer",
	"shared":    "shared",
	"const":     "const",
}

var otherQualifiers = map[string]bool{
	"flat": true, "smooth": true, "noperspective": true, "centroid": true,
	"sample": true, "patch": true, "invariant": true, "precise": true,
	"highp": true, "mediump": true, "lowp": true, "varying": true,
	"readonly": true, "writeonly": true, "coherent": true, "volatile": true,
	"restrict": true,
}

func (p *parser) qualifiers() (qualifiers, error) {
	q := qualifiers{}
	for {
		tok := p.peek()
		if tok.kind != tokenIdent {
			return q, nil
		}
		switch {
		case tok.text == "layout":
			p.next()
			if err := p.layoutQualifier(&q); err != nil {
				return q, err
			}
		case storageQualifiers[tok.text] != "":
			p.next()
			q.storage = storageQualifiers[tok.text]
		case otherQualifiers[tok.text]:
			p.next()
		default:
			return q, nil
		}
	}
}

// layoutQualifier reads "( id [= value], ... )". Keys without a value are
// stored as -1.
func (p *parser) layoutQualifier(q *qualifiers) error {
	if err := p.expect("("); err != nil {
		return err
	}
	if q.layout == nil {
		q.layout = make(map[string]int)
	}
	for {
		key, err := p.expectIdent()
		if err != nil {
			return err
		}
		value := -1
		if p.peek().is("=") {
			p.next()
			if value, err = p.constant(); err != nil {
				return err
			}
		}
		q.layout[key.text] = value

		if p.peek().is(",") {
			p.next()
			continue
		}
		return p.expect(")")
	}
}

func (p *parser) structDeclaration(q qualifiers) error {
	p.next()
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	fields, err := p.members(true)
	if err != nil {
		return err
	}
	typ, err := layout.Aggregate(nameTok.text, fields)
	if err != nil {
		return err
	}
	p.structs[nameTok.text] = typ

	if p.peek().is(";") {
		p.next()
		return nil
	}
	first, err := p.expectIdent()
	if err != nil {
		return err
	}
	decls, init, err := p.declarators(first)
	if err != nil {
		return err
	}
	return p.variables(q, nameTok, nil, decls, init)
}

// block reads an interface block. Only uniform blocks are reported.
func (p *parser) block(q qualifiers) error {
	nameTok := p.next()
	report := q.storage == "uniform"
	fields, err := p.members(report)
	if err != nil {
		return err
	}

	var instance *declarator
	if p.peek().kind == tokenIdent {
		d := declarator{tok: p.next()}
		d.name = d.tok.text
		if d.dims, err = p.dims(); err != nil {
			return err
		}
		instance = &d
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	if !report {
		return nil
	}

	binding := -1
	if v, ok := q.layoutValue("binding"); ok {
		binding = v
	}
	if instance != nil {
		typ, err := layout.Aggregate(nameTok.text, fields)
		if err != nil {
			return err
		}
		return p.addResource(instance.tok, instance.name, typ, instance.dims, binding)
	}
	for _, f := range fields {
		if err := p.addResource(nameTok, f.Name, f.Type, nil, binding); err != nil {
			return err
		}
	}
	return nil
}

// members reads "{ member; ... }". With build unset the member types are
// not resolved.
func (p *parser) members(build bool) ([]layout.Field, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var fields []layout.Field
	for !p.peek().is("}") {
		if p.peek().kind == tokenEOF {
			return nil, errorAt(p.peek(), "unexpected end of input in member list")
		}
		if _, err := p.qualifiers(); err != nil {
			return nil, err
		}
		typeTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		typeDims, err := p.dims()
		if err != nil {
			return nil, err
		}
		first, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		decls, _, err := p.declarators(first)
		if err != nil {
			return nil, err
		}
		if !build {
			continue
		}
		base, err := p.resolve(typeTok)
		if err != nil {
			return nil, err
		}
		for _, d := range decls {
			typ, err := arrayOf(base, append(d.dims, typeDims...))
			if err != nil {
				return nil, err
			}
			fields = append(fields, layout.Field{Name: d.name, Type: typ})
		}
	}
	p.next()
	return fields, nil
}

// declarators reads "name[dims] [= init], ... ;" starting after the
// first name. init reports the integer initializer of a single-token
// constant expression, or -1.
func (p *parser) declarators(first token) ([]declarator, int, error) {
	var decls []declarator
	init := -1
	tok := first
	for {
		d := declarator{name: tok.text, tok: tok}
		var err error
		if d.dims, err = p.dims(); err != nil {
			return nil, 0, err
		}
		decls = append(decls, d)

		if p.peek().is("=") {
			p.next()
			if p.peek().kind == tokenNumber && (p.peekAt(1).is(";") || p.peekAt(1).is(",")) {
				init, _ = parseInt(p.peek().text)
			}
			if err := p.skipInitializer(); err != nil {
				return nil, 0, err
			}
		}

		switch {
		case p.peek().is(","):
			p.next()
			if tok, err = p.expectIdent(); err != nil {
				return nil, 0, err
			}
		case p.peek().is(";"):
			p.next()
			return decls, init, nil
		default:
			return nil, 0, errorAt(p.peek(), "expected ',' or ';', found %q", p.peek().text)
		}
	}
}

// variables records the declared variables that are externally visible.
func (p *parser) variables(q qualifiers, typeTok token, typeDims []int, decls []declarator, init int) error {
	switch q.storage {
	case "const":
		if len(decls) == 1 && init >= 0 && (typeTok.text == "int" || typeTok.text == "uint") {
			p.consts[decls[0].name] = init
		}
		return nil

	case "uniform":
		binding := -1
		if v, ok := q.layoutValue("binding"); ok {
			binding = v
		}
		if isOpaque(typeTok.text) {
			for _, d := range decls {
				p.out.Samplers = append(p.out.Samplers, expandNames(d.name, append(d.dims, typeDims...))...)
			}
			return nil
		}
		base, err := p.resolve(typeTok)
		if err != nil {
			return err
		}
		for _, d := range decls {
			if err := p.addResource(d.tok, d.name, base, append(d.dims, typeDims...), binding); err != nil {
				return err
			}
		}
		return nil

	case "in", "out":
		location, hasLocation := q.layoutValue("location")
		for i, d := range decls {
			if strings.HasPrefix(d.name, "gl_") {
				continue
			}
			a := Attribute{Name: d.name}
			if hasLocation && i == 0 {
				loc, err := safecast.Conv[uint32](location)
				if err != nil {
					return errorAt(d.tok, "location %d out of range", location)
				}
				a.Location, a.HasLocation = loc, true
			}
			if q.storage == "in" {
				p.out.Inputs = append(p.out.Inputs, a)
			} else {
				p.out.Outputs = append(p.out.Outputs, a)
			}
		}
	}
	return nil
}

func (p *parser) addResource(at token, name string, elem *layout.TypeDecl, dims []int, binding int) error {
	dim := 0
	if len(dims) > 0 {
		dim = dims[0]
		if dim <= 0 {
			return errorAt(at, "uniform %q has an unsized array dimension", name)
		}
		var err error
		if elem, err = arrayOf(elem, dims[1:]); err != nil {
			return err
		}
	}
	root, err := layout.NewRootBinding(name, elem, dim)
	if err != nil {
		return err
	}
	entries, err := layout.Flatten(root)
	if err != nil {
		return err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Path.String()
	}
	p.out.Uniforms = append(p.out.Uniforms, Resource{
		Root:    name,
		Type:    root.Type,
		Dim:     dim,
		Binding: binding,
		Names:   names,
	})
	return nil
}

// function skips a prototype or definition whose name was just read.
func (p *parser) function() error {
	if err := p.skipBalanced("(", ")"); err != nil {
		return err
	}
	if p.peek().is(";") {
		p.next()
		return nil
	}
	return p.skipBalanced("{", "}")
}

// dims reads zero or more "[size]" suffixes. An empty "[]" yields -1.
func (p *parser) dims() ([]int, error) {
	var dims []int
	for p.peek().is("[") {
		p.next()
		if p.peek().is("]") {
			p.next()
			dims = append(dims, -1)
			continue
		}
		n, err := p.constant()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		dims = append(dims, n)
	}
	return dims, nil
}

// constant reads an integer literal or a previously declared integer
// constant.
func (p *parser) constant() (int, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		n, err := parseInt(tok.text)
		if err != nil {
			return 0, errorAt(tok, "invalid integer %q", tok.text)
		}
		return n, nil
	case tokenIdent:
		if n, ok := p.consts[tok.text]; ok {
			return n, nil
		}
		return 0, errorAt(tok, "%q is not an integer constant", tok.text)
	default:
		return 0, errorAt(tok, "expected integer constant, found %q", tok.text)
	}
}

func (p *parser) resolve(tok token) (*layout.TypeDecl, error) {
	if t, ok := builtinType(tok.text); ok {
		return t, nil
	}
	if t, ok := p.structs[tok.text]; ok {
		return t, nil
	}
	return nil, errorAt(tok, "unknown type %q", tok.text)
}

func (p *parser) skipInitializer() error {
	depth := 0
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokenEOF:
			return errorAt(tok, "unexpected end of input in initializer")
		case tok.is("(") || tok.is("[") || tok.is("{"):
			depth++
		case tok.is(")") || tok.is("]") || tok.is("}"):
			depth--
		case depth == 0 && (tok.is(",") || tok.is(";")):
			return nil
		}
		p.next()
	}
}

func (p *parser) skipBalanced(open, closing string) error {
	if err := p.expect(open); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		tok := p.next()
		switch {
		case tok.kind == tokenEOF:
			return errorAt(tok, "unbalanced %q", open)
		case tok.is(open):
			depth++
		case tok.is(closing):
			depth--
		}
	}
	return nil
}

func (p *parser) skipPast(text string) error {
	for {
		tok := p.next()
		if tok.kind == tokenEOF {
			return errorAt(tok, "expected %q", text)
		}
		if tok.is(text) {
			return nil
		}
	}
}

func (p *parser) expect(text string) error {
	tok := p.next()
	if !tok.is(text) {
		return errorAt(tok, "expected %q, found %q", text, tok.text)
	}
	return nil
}

func (p *parser) expectIdent() (token, error) {
	tok := p.next()
	if tok.kind != tokenIdent {
		return tok, errorAt(tok, "expected identifier, found %q", tok.text)
	}
	return tok, nil
}

func (p *parser) peek() token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// arrayOf wraps elem in arrays; dims[0] is the outermost length.
func arrayOf(elem *layout.TypeDecl, dims []int) (*layout.TypeDecl, error) {
	t := elem
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] <= 0 {
			return nil, &layout.UnsupportedTypeError{Type: elem.String(), Reason: "unsized array"}
		}
		var err error
		if t, err = layout.Array(t, dims[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func expandNames(name string, dims []int) []string {
	names := []string{name}
	for _, n := range dims {
		if n <= 0 {
			continue
		}
		next := make([]string, 0, len(names)*n)
		for _, prefix := range names {
			for i := range n {
				next = append(next, fmt.Sprintf("%s[%d]", prefix, i))
			}
		}
		names = next
	}
	return names
}

func parseInt(s string) (int, error) {
	s = strings.TrimRight(s, "uU")
	n, err := strconv.ParseInt(s, 0, 32)
	return int(n), err
}

func isOpaque(name string) bool {
	for _, prefix := range []string{"sampler", "isampler", "usampler", "image", "iimage", "uimage", "texture", "subpassInput", "atomic_uint"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

var scalarTypes = map[byte]string{0: "f32", 'i': "i32", 'u': "u32", 'b': "bool", 'd': "f64"}

// builtinType maps GLSL scalar, vector and matrix type names.
func builtinType(name string) (*layout.TypeDecl, bool) {
	switch name {
	case "float":
		return layout.Scalar("f32"), true
	case "int":
		return layout.Scalar("i32"), true
	case "uint":
		return layout.Scalar("u32"), true
	case "bool":
		return layout.Scalar("bool"), true
	case "double":
		return layout.Scalar("f64"), true
	}

	var prefix byte
	rest := name
	if len(name) > 0 && strings.IndexByte("iubd", name[0]) >= 0 && !strings.HasPrefix(name, "bool") {
		prefix, rest = name[0], name[1:]
	}
	scalar := scalarTypes[prefix]

	if n, ok := strings.CutPrefix(rest, "vec"); ok && len(n) == 1 && n[0] >= '2' && n[0] <= '4' {
		t, err := layout.Vector(scalar, int(n[0]-'0'))
		return t, err == nil
	}
	if prefix != 0 && prefix != 'd' {
		return nil, false
	}
	if n, ok := strings.CutPrefix(rest, "mat"); ok {
		cols, rows := 0, 0
		switch {
		case len(n) == 1:
			cols, rows = int(n[0]-'0'), int(n[0]-'0')
		case len(n) == 3 && n[1] == 'x':
			cols, rows = int(n[0]-'0'), int(n[2]-'0')
		default:
			return nil, false
		}
		t, err := layout.Matrix(scalar, cols, rows)
		return t, err == nil
	}
	return nil, false
}
