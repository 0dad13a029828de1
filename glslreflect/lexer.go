// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glslreflect

type tokenKind uint8

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenPunct
)

type token struct {
	kind   tokenKind
	text   string
	line   int
	column int
}

func (t token) is(text string) bool {
	return t.kind != tokenEOF && t.text == text
}

// lexer splits GLSL into identifiers, numbers and single-character
// punctuation. Comments and preprocessor lines produce no tokens.
type lexer struct {
	source string
	pos    int
	line   int
	column int
	tokens []token

	// lineStart is true while only whitespace precedes pos on its line.
	lineStart bool
}

func tokenize(source string) ([]token, error) {
	l := &lexer{
		source:    source,
		line:      1,
		column:    1,
		lineStart: true,
		tokens:    make([]token, 0, len(source)/4+1),
	}
	for !l.isAtEnd() {
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, token{kind: tokenEOF, line: l.line, column: l.column})
	return l.tokens, nil
}

func (l *lexer) scanToken() error {
	c := l.peek()
	switch {
	case c == '\n':
		l.advance()
		l.lineStart = true
		return nil
	case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
		l.advance()
		return nil
	case c == '#' && l.lineStart:
		l.directive()
		return nil
	case c == '/' && l.peekNext() == '/':
		for !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
		return nil
	case c == '/' && l.peekNext() == '*':
		return l.blockComment()
	}

	l.lineStart = false
	start, line, column := l.pos, l.line, l.column
	switch {
	case isDigit(c) || (c == '.' && isDigit(l.peekNext())):
		for !l.isAtEnd() && (isIdentChar(l.peek()) || l.peek() == '.') {
			l.advance()
		}
		l.emit(tokenNumber, start, line, column)
	case isIdentStart(c):
		for !l.isAtEnd() && isIdentChar(l.peek()) {
			l.advance()
		}
		l.emit(tokenIdent, start, line, column)
	default:
		l.advance()
		l.emit(tokenPunct, start, line, column)
	}
	return nil
}

// directive skips a preprocessor line, honoring backslash continuations.
func (l *lexer) directive() {
	for !l.isAtEnd() {
		c := l.peek()
		if c == '\\' && l.peekNext() == '\n' {
			l.advance()
			l.advance()
			continue
		}
		if c == '\n' {
			return
		}
		l.advance()
	}
}

func (l *lexer) blockComment() error {
	line, column := l.line, l.column
	l.advance()
	l.advance()
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return &SyntaxError{Line: line, Column: column, Message: "unterminated block comment"}
}

func (l *lexer) emit(kind tokenKind, start, line, column int) {
	l.tokens = append(l.tokens, token{kind: kind, text: l.source[start:l.pos], line: line, column: column})
}

func (l *lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
