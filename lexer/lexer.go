// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lexer scans 6502 assembly source text into a positional token
// stream, in the style of the teacher repository's fstring-based line
// scanner but generalized into a full standalone lexical pass, as required
// by the specification's three-stage pipeline.
package lexer

import (
	"fmt"
	"strings"

	"github.com/beevik/sasm6502/token"
)

// An Error describes a fatal lexical failure: an unrecognized leading
// character, an unterminated string literal, or an unknown directive
// keyword.
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

// cursor is a byte-indexed scanning position over the source text, with
// one-character lookahead, tracking the running line number.
type cursor struct {
	src  string
	pos  int
	line int
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.src)
}

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) peekAt(n int) byte {
	if c.pos+n >= len(c.src) {
		return 0
	}
	return c.src[c.pos+n]
}

func (c *cursor) advance() byte {
	ch := c.src[c.pos]
	c.pos++
	if ch == '\n' {
		c.line++
	}
	return ch
}

func (c *cursor) startsWith(s string) bool {
	return strings.HasPrefix(c.src[c.pos:], s)
}

// col returns the 0-based column of the cursor on its current line, used
// only for error reporting.
func (c *cursor) col(lineStart int) int {
	return c.pos - lineStart
}

func isDigit(b byte) bool      { return b >= '0' && b <= '9' }
func isHexDigit(b byte) bool   { return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') }
func isBinDigit(b byte) bool   { return b == '0' || b == '1' }
func isAlpha(b byte) bool      { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isIdentStart(b byte) bool { return isAlpha(b) || b == '_' }
func isIdentChar(b byte) bool  { return isAlpha(b) || isDigit(b) || b == '_' }
func isSpace(b byte) bool      { return b == ' ' || b == '\t' }

// Lex scans source into a token stream terminated by a single EndOfFile
// token. Per the specification, source must end with a newline; whitespace
// and comments are scanned but discarded from the returned stream.
func Lex(source string) ([]token.Token, error) {
	if len(source) == 0 || (source[len(source)-1] != '\n' && source[len(source)-1] != '\r') {
		return nil, &Error{Line: strings.Count(source, "\n") + 1, Col: 0, Msg: "source file must end with a newline"}
	}

	c := &cursor{src: source, line: 1}
	lineStart := 0
	var toks []token.Token

	for !c.eof() {
		ch := c.peek()

		switch {
		case ch == '\n':
			start := c.pos
			c.advance()
			toks = append(toks, token.Token{Value: "\n", Kind: token.Newline, Start: start, End: c.pos, Line: c.line - 1})
			lineStart = c.pos

		case ch == '\r':
			c.advance() // folded into the following \n; not itself significant

		case isSpace(ch):
			for !c.eof() && isSpace(c.peek()) {
				c.advance()
			}

		case ch == ';':
			for !c.eof() && c.peek() != '\n' {
				c.advance()
			}

		case ch == '"':
			t, err := lexString(c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)

		case ch == '$':
			t, err := lexHex(c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)

		case ch == '%':
			t, err := lexBin(c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)

		case isDigit(ch):
			toks = append(toks, lexDecimal(c))

		case ch == '.':
			t, err := lexDirective(c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)

		case ch == '@':
			toks = append(toks, lexLocalLabel(c))

		case isIdentStart(ch):
			toks = append(toks, lexIdentifier(c))

		default:
			t, err := lexOperator(c, lineStart)
			if err != nil {
				return nil, err
			}
			toks = append(toks, t)
		}
	}

	toks = append(toks, token.Token{Kind: token.EndOfFile, Start: len(source), End: len(source), Line: c.line})
	return toks, nil
}

func lexString(c *cursor) (token.Token, error) {
	start := c.pos
	line := c.line
	c.advance() // opening quote
	for {
		if c.eof() || c.peek() == '\n' {
			return token.Token{}, &Error{Line: line, Col: start, Msg: "unterminated string literal"}
		}
		ch := c.advance()
		if ch == '"' {
			break
		}
	}
	return token.Token{Value: c.src[start:c.pos], Kind: token.StringConst, Start: start, End: c.pos, Line: line}, nil
}

func lexHex(c *cursor) (token.Token, error) {
	start := c.pos
	line := c.line
	c.advance() // '$'
	digitsStart := c.pos
	for !c.eof() && isHexDigit(c.peek()) {
		c.advance()
	}
	if c.pos == digitsStart {
		return token.Token{}, &Error{Line: line, Col: start, Msg: "invalid hexadecimal literal"}
	}
	return token.Token{Value: c.src[start:c.pos], Kind: token.HexNumber, Start: start, End: c.pos, Line: line}, nil
}

func lexBin(c *cursor) (token.Token, error) {
	start := c.pos
	line := c.line
	c.advance() // '%'
	digitsStart := c.pos
	for !c.eof() && isBinDigit(c.peek()) {
		c.advance()
	}
	if c.pos == digitsStart {
		return token.Token{}, &Error{Line: line, Col: start, Msg: "invalid binary literal"}
	}
	return token.Token{Value: c.src[start:c.pos], Kind: token.BinNumber, Start: start, End: c.pos, Line: line}, nil
}

func lexDecimal(c *cursor) token.Token {
	start := c.pos
	line := c.line
	for !c.eof() && isDigit(c.peek()) {
		c.advance()
	}
	return token.Token{Value: c.src[start:c.pos], Kind: token.DecNumber, Start: start, End: c.pos, Line: line}
}

func lexDirective(c *cursor) (token.Token, error) {
	start := c.pos
	line := c.line
	c.advance() // '.'
	bodyStart := c.pos
	for !c.eof() && isIdentChar(c.peek()) {
		c.advance()
	}
	if c.pos == bodyStart {
		return token.Token{}, &Error{Line: line, Col: start, Msg: "invalid directive"}
	}
	name := strings.ToLower(c.src[start:c.pos])
	if !token.Directives[name] {
		return token.Token{}, &Error{Line: line, Col: start, Msg: fmt.Sprintf("unknown directive %q", c.src[start:c.pos])}
	}
	return token.Token{Value: name, Kind: token.Directive, Start: start, End: c.pos, Line: line}, nil
}

func lexLocalLabel(c *cursor) token.Token {
	start := c.pos
	line := c.line
	c.advance() // '@'
	for !c.eof() && isIdentChar(c.peek()) {
		c.advance()
	}
	return token.Token{Value: c.src[start:c.pos], Kind: token.LocalLabel, Start: start, End: c.pos, Line: line}
}

func lexIdentifier(c *cursor) token.Token {
	start := c.pos
	line := c.line
	for !c.eof() && isIdentChar(c.peek()) {
		c.advance()
	}
	lexeme := c.src[start:c.pos]
	kind := token.Identifier
	if len(lexeme) == 1 {
		switch lexeme[0] {
		case 'X', 'x':
			kind = token.XRegister
		case 'Y', 'y':
			kind = token.YRegister
		}
	}
	return token.Token{Value: lexeme, Kind: kind, Start: start, End: c.pos, Line: line}
}

// lexOperator handles the punctuation alphabet, including the two-character
// combos formed from the prefix characters '<', '>', ':', and the greedily
// consumed unnamed-label reference run ':+…' / ':-…'.
func lexOperator(c *cursor, lineStart int) (token.Token, error) {
	start := c.pos
	line := c.line
	ch := c.peek()

	switch ch {
	case '<':
		switch {
		case c.startsWith("<<"):
			c.advance()
			c.advance()
			return tok(c, token.Shl, start, line), nil
		case c.startsWith("<="):
			c.advance()
			c.advance()
			return tok(c, token.LtEq, start, line), nil
		case c.startsWith("<>"):
			c.advance()
			c.advance()
			return tok(c, token.NotEq, start, line), nil
		default:
			c.advance()
			return tok(c, token.Lt, start, line), nil
		}

	case '>':
		switch {
		case c.startsWith(">>"):
			c.advance()
			c.advance()
			return tok(c, token.Shr, start, line), nil
		case c.startsWith(">="):
			c.advance()
			c.advance()
			return tok(c, token.GtEq, start, line), nil
		default:
			c.advance()
			return tok(c, token.Gt, start, line), nil
		}

	case ':':
		if c.peekAt(1) == '+' || c.peekAt(1) == '-' {
			return lexULabel(c), nil
		}
		if c.startsWith("::") {
			c.advance()
			c.advance()
			return tok(c, token.DoubleColon, start, line), nil
		}
		if c.startsWith(":=") {
			c.advance()
			c.advance()
			return tok(c, token.ColonAssign, start, line), nil
		}
		c.advance()
		return tok(c, token.Colon, start, line), nil

	case '&':
		if c.startsWith("&&") {
			c.advance()
			c.advance()
			return tok(c, token.AmpAmp, start, line), nil
		}
		c.advance()
		return tok(c, token.Amp, start, line), nil

	case '|':
		if c.startsWith("||") {
			c.advance()
			c.advance()
			return tok(c, token.PipePipe, start, line), nil
		}
		c.advance()
		return tok(c, token.Pipe, start, line), nil

	case '+':
		c.advance()
		return tok(c, token.Plus, start, line), nil
	case '-':
		c.advance()
		return tok(c, token.Minus, start, line), nil
	case '*':
		c.advance()
		return tok(c, token.Star, start, line), nil
	case '/':
		c.advance()
		return tok(c, token.Slash, start, line), nil
	case '^':
		c.advance()
		return tok(c, token.Caret, start, line), nil
	case '~':
		c.advance()
		return tok(c, token.Tilde, start, line), nil
	case '!':
		c.advance()
		return tok(c, token.Bang, start, line), nil
	case '=':
		c.advance()
		return tok(c, token.Eq, start, line), nil
	case ',':
		c.advance()
		return tok(c, token.Comma, start, line), nil
	case '#':
		c.advance()
		return tok(c, token.Hash, start, line), nil
	case '(':
		c.advance()
		return tok(c, token.OParen, start, line), nil
	case ')':
		c.advance()
		return tok(c, token.CParen, start, line), nil
	case '{':
		c.advance()
		return tok(c, token.OCurly, start, line), nil
	case '}':
		c.advance()
		return tok(c, token.CCurly, start, line), nil
	case '[':
		c.advance()
		return tok(c, token.OBracket, start, line), nil
	case ']':
		c.advance()
		return tok(c, token.CBracket, start, line), nil
	}

	return token.Token{}, &Error{Line: line, Col: c.col(lineStart), Msg: fmt.Sprintf("unrecognized character %q", ch)}
}

func tok(c *cursor, kind token.Kind, start, line int) token.Token {
	return token.Token{Value: c.src[start:c.pos], Kind: kind, Start: start, End: c.pos, Line: line}
}

// lexULabel consumes the run of like signs following ':' as a single
// unnamed-label reference token (e.g. ":+", ":++", ":-", ":--").
func lexULabel(c *cursor) token.Token {
	start := c.pos
	line := c.line
	c.advance() // ':'
	sign := c.peek()
	for !c.eof() && c.peek() == sign {
		c.advance()
	}
	return token.Token{Value: c.src[start:c.pos], Kind: token.ULabel, Start: start, End: c.pos, Line: line}
}
