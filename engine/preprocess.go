// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Preprocess resolves #include, #define and conditional directives in
// source.
//
// An include is looked up next to the including file first, then in each
// of includePaths in order. Every file is included at most once. Defines
// from the source apply to the lines that follow them; entries of defines
// take precedence over source definitions. Substitution happens on
// identifier boundaries and is not rescanned. A define with an empty
// value is only visible to conditionals.
//
// #ifdef, #ifndef, #if, #elif, #else and #endif select lines; #if and
// #elif accept defined(NAME), defined NAME, an integer literal, and a
// leading '!'. Conditionals must be balanced within each file.
//
// Directive lines and skipped lines are replaced by blank lines, so parser
// line numbers match the input as long as it has no includes; included
// lines shift everything after them.
func Preprocess(path, source string, includePaths []string, defines map[string]string) (string, error) {
	p := &preprocessor{
		searchPaths: includePaths,
		fixed:       make(map[string]string, len(defines)),
		defines:     make(map[string]string, len(defines)),
		included:    make(map[string]bool),
	}
	for name, value := range defines {
		p.fixed[name] = value
		p.defines[name] = value
	}
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			p.included[abs] = true
		}
	}
	if err := p.process(path, source); err != nil {
		return "", err
	}
	return p.out.String(), nil
}

type preprocessor struct {
	searchPaths []string
	fixed       map[string]string
	defines     map[string]string
	included    map[string]bool
	out         strings.Builder
}

// cond is one open conditional block.
type cond struct {
	parent bool // enclosing block is active
	active bool // current branch is active
	taken  bool // some branch has been active
	inElse bool
}

func (p *preprocessor) process(path, source string) error {
	var stack []cond
	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		directive, rest, ok := parseDirective(line)
		if !ok {
			if active() {
				p.out.WriteString(p.substitute(line))
			}
			p.out.WriteByte('\n')
			continue
		}

		switch directive {
		case "ifdef", "ifndef", "if":
			on, err := p.condition(directive, rest)
			if err != nil {
				return newError(ErrParse, path, fmt.Errorf("line %d: %w", lineNo, err))
			}
			parent := active()
			stack = append(stack, cond{parent: parent, active: parent && on, taken: on})
			p.out.WriteByte('\n')
			continue
		case "elif", "else":
			if len(stack) == 0 {
				return newError(ErrParse, path, fmt.Errorf("line %d: #%s without #if", lineNo, directive))
			}
			top := &stack[len(stack)-1]
			if top.inElse {
				return newError(ErrParse, path, fmt.Errorf("line %d: #%s after #else", lineNo, directive))
			}
			on := true
			if directive == "elif" {
				var err error
				if on, err = p.condition("if", rest); err != nil {
					return newError(ErrParse, path, fmt.Errorf("line %d: %w", lineNo, err))
				}
			} else {
				top.inElse = true
			}
			top.active = top.parent && !top.taken && on
			top.taken = top.taken || on
			p.out.WriteByte('\n')
			continue
		case "endif":
			if len(stack) == 0 {
				return newError(ErrParse, path, fmt.Errorf("line %d: #endif without #if", lineNo))
			}
			stack = stack[:len(stack)-1]
			p.out.WriteByte('\n')
			continue
		}

		if !active() {
			p.out.WriteByte('\n')
			continue
		}

		switch directive {
		case "include":
			if err := p.include(path, rest); err != nil {
				return err
			}
		case "define":
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				return newError(ErrParse, path, fmt.Errorf("line %d: #define without a name", lineNo))
			}
			name := fields[0]
			value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), name))
			if _, fixed := p.fixed[name]; !fixed {
				p.defines[name] = value
			}
			p.out.WriteByte('\n')
		case "undef":
			name := strings.TrimSpace(rest)
			if _, fixed := p.fixed[name]; !fixed {
				delete(p.defines, name)
			}
			p.out.WriteByte('\n')
		default:
			// Not ours; WGSL has no other directives starting with '#'.
			p.out.WriteString(line)
			p.out.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return newError(ErrIO, path, err)
	}
	if len(stack) > 0 {
		return newError(ErrParse, path, fmt.Errorf("%d unterminated conditional block(s) at end of file", len(stack)))
	}
	return nil
}

// condition evaluates the argument of #ifdef, #ifndef or #if.
func (p *preprocessor) condition(directive, rest string) (bool, error) {
	expr := strings.TrimSpace(rest)
	if i := strings.Index(expr, "//"); i >= 0 {
		expr = strings.TrimSpace(expr[:i])
	}
	switch directive {
	case "ifdef", "ifndef":
		if !isIdent(expr) {
			return false, fmt.Errorf("#%s needs a single name, got %q", directive, expr)
		}
		_, defined := p.defines[expr]
		return defined == (directive == "ifdef"), nil
	}

	negate := false
	for strings.HasPrefix(expr, "!") {
		negate = !negate
		expr = strings.TrimSpace(expr[1:])
	}
	var on bool
	if name, ok := strings.CutPrefix(expr, "defined"); ok && (name == "" || strings.IndexByte(" \t(", name[0]) >= 0) {
		name = strings.TrimSpace(name)
		if inner, ok := strings.CutPrefix(name, "("); ok {
			inner, ok = strings.CutSuffix(inner, ")")
			if !ok {
				return false, fmt.Errorf("unbalanced parentheses in #if %s", rest)
			}
			name = strings.TrimSpace(inner)
		}
		if !isIdent(name) {
			return false, fmt.Errorf("malformed defined() in #if %s", rest)
		}
		_, on = p.defines[name]
	} else {
		n, err := strconv.ParseInt(expr, 0, 64)
		if err != nil {
			return false, fmt.Errorf("unsupported #if expression %q", strings.TrimSpace(rest))
		}
		on = n != 0
	}
	return on != negate, nil
}

func (p *preprocessor) include(from, spec string) error {
	name, err := includeName(spec)
	if err != nil {
		return newError(ErrInclude, from, err)
	}

	var candidates []string
	if filepath.IsAbs(name) {
		candidates = append(candidates, name)
	} else {
		if from != "" {
			candidates = append(candidates, filepath.Join(filepath.Dir(from), name))
		}
		for _, dir := range p.searchPaths {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return newError(ErrIO, candidate, err)
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			abs = filepath.Clean(candidate)
		}
		if p.included[abs] {
			p.out.WriteByte('\n')
			return nil
		}
		p.included[abs] = true
		return p.process(candidate, string(data))
	}
	return newError(ErrInclude, from, fmt.Errorf("%q not found (searched %s)", name, strings.Join(candidates, ", ")))
}

// parseDirective splits "#name rest" lines.
func parseDirective(line string) (name, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	after, found := strings.CutPrefix(trimmed, "#")
	if !found {
		return "", "", false
	}
	after = strings.TrimLeft(after, " \t")
	end := 0
	for end < len(after) && isIdentByte(after[end]) {
		end++
	}
	return after[:end], after[end:], true
}

func includeName(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if len(spec) >= 2 {
		first, last := spec[0], spec[len(spec)-1]
		if (first == '"' && last == '"') || (first == '<' && last == '>') {
			if name := spec[1 : len(spec)-1]; name != "" {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("malformed #include %s", spec)
}

// substitute replaces defined identifiers outside line comments.
func (p *preprocessor) substitute(line string) string {
	if len(p.defines) == 0 {
		return line
	}
	code, comment := line, ""
	if i := strings.Index(line, "//"); i >= 0 {
		code, comment = line[:i], line[i:]
	}

	var sb strings.Builder
	for i := 0; i < len(code); {
		c := code[i]
		if !isIdentByte(c) {
			sb.WriteByte(c)
			i++
			continue
		}
		j := i
		for j < len(code) && isIdentByte(code[j]) {
			j++
		}
		word := code[i:j]
		if value, ok := p.defines[word]; ok && value != "" && !isDigitByte(c) {
			sb.WriteString(value)
		} else {
			sb.WriteString(word)
		}
		i = j
	}
	sb.WriteString(comment)
	return sb.String()
}

func isIdent(s string) bool {
	if s == "" || isDigitByte(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigitByte(c)
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}
