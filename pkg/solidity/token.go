// Package solidity is a small Solidity front end: a lexer, a concrete syntax
// tree that keeps every declaration while treating function bodies and
// expressions as opaque token runs, and a binding graph that maps identifier
// tokens to the declarations they define or reference.
package solidity

import (
	"bytes"
	"fmt"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdentifier
	TokenNumber
	TokenString
	TokenPunct
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenPunct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is a lexical token and its byte span in the source.
// Keywords are lexed as identifiers; the parser tells them apart by text.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

// Longest first.
var punctuators = []string{
	">>>=",
	"...", "<<=", ">>=", ">>>",
	"**", "==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "|=", "&=", "^=",
	"<<", ">>", "=>", "->", ":=",
}

// SyntaxError reports a lexing or parsing failure at a source position.
type SyntaxError struct {
	File   string
	Offset int
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

func newSyntaxError(file string, src []byte, offset int, msg string) *SyntaxError {
	if offset > len(src) {
		offset = len(src)
	}
	line := 1 + bytes.Count(src[:offset], []byte{'\n'})
	col := offset + 1
	if i := bytes.LastIndexByte(src[:offset], '\n'); i >= 0 {
		col = offset - i
	}
	return &SyntaxError{File: file, Offset: offset, Line: line, Column: col, Msg: msg}
}

// Tokenize splits src into tokens, dropping whitespace and comments.
// The returned slice always ends with a TokenEOF token.
func Tokenize(file string, src []byte) ([]Token, error) {
	var toks []Token
	n := len(src)
	i := 0
	for {
		for i < n {
			c := src[i]
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v' {
				i++
				continue
			}
			if c == '/' && i+1 < n && src[i+1] == '/' {
				for i < n && src[i] != '\n' {
					i++
				}
				continue
			}
			if c == '/' && i+1 < n && src[i+1] == '*' {
				end := bytes.Index(src[i+2:], []byte("*/"))
				if end < 0 {
					return nil, newSyntaxError(file, src, i, "unterminated block comment")
				}
				i += 2 + end + 2
				continue
			}
			break
		}

		if i >= n {
			return append(toks, Token{Kind: TokenEOF, Start: n, End: n}), nil
		}

		start := i
		c := src[i]
		switch {
		case isIdentStart(c):
			for i < n && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, Token{Kind: TokenIdentifier, Text: string(src[start:i]), Start: start, End: i})

		case isDigit(c) || (c == '.' && i+1 < n && isDigit(src[i+1])):
			i = scanNumber(src, i)
			toks = append(toks, Token{Kind: TokenNumber, Text: string(src[start:i]), Start: start, End: i})

		case c == '"' || c == '\'':
			i++
			for i < n && src[i] != c {
				if src[i] == '\n' {
					return nil, newSyntaxError(file, src, start, "unterminated string literal")
				}
				if src[i] == '\\' {
					i++
				}
				i++
			}
			if i >= n {
				return nil, newSyntaxError(file, src, start, "unterminated string literal")
			}
			i++
			toks = append(toks, Token{Kind: TokenString, Text: string(src[start:i]), Start: start, End: i})

		default:
			width := 1
			for _, p := range punctuators {
				if bytes.HasPrefix(src[i:], []byte(p)) {
					width = len(p)
					break
				}
			}
			i += width
			toks = append(toks, Token{Kind: TokenPunct, Text: string(src[start:i]), Start: start, End: i})
		}
	}
}

func scanNumber(src []byte, i int) int {
	n := len(src)
	if src[i] == '0' && i+1 < n && (src[i+1] == 'x' || src[i+1] == 'X') {
		i += 2
		for i < n && (isHexDigit(src[i]) || src[i] == '_') {
			i++
		}
		return i
	}
	for i < n && (isDigit(src[i]) || src[i] == '_') {
		i++
	}
	if i+1 < n && src[i] == '.' && isDigit(src[i+1]) {
		i++
		for i < n && (isDigit(src[i]) || src[i] == '_') {
			i++
		}
	}
	if i < n && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < n && src[j] == '-' {
			j++
		}
		if j < n && isDigit(src[j]) {
			i = j
			for i < n && isDigit(src[i]) {
				i++
			}
		}
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
