// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser implements the recursive-descent grammar that turns a
// token stream into a generic syntax tree, in the manner of the teacher
// repository's own line-oriented assembler parser, generalized into a
// standalone grammar over the full token stream rather than one line at a
// time.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/sasm6502/ast"
	"github.com/beevik/sasm6502/isa"
	"github.com/beevik/sasm6502/token"
)

// An Error describes a fatal parse failure: an unexpected token kind,
// value, and the line it occurred on.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// parser holds the token cursor and produces the AST.
type parser struct {
	toks []token.Token
	pos  int
}

// Parse consumes a complete token stream (as produced by the lexer,
// terminated by a single EndOfFile token) and returns the Program node at
// the root of the syntax tree.
func Parse(toks []token.Token) (*ast.Node, error) {
	toks = reclassifyOpcodes(toks)
	p := &parser{toks: toks}
	return p.parseProgram()
}

// reclassifyOpcodes retags any Identifier token whose lowercased value
// names a known 6502 mnemonic as an Opcode token, per the lexer/parser
// division of labor described in the grammar.
func reclassifyOpcodes(toks []token.Token) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		if t.Kind == token.Identifier && isa.IsOpcode(t.Value) {
			t.Kind = token.Opcode
		}
		out[i] = t
	}
	return out
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return &Error{Line: p.cur().Line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, p.errorf("expected %s, found %s %q", k, p.cur().Kind, p.cur().Value)
	}
	return p.advance(), nil
}

// skipNewlines consumes any run of Newline tokens, which separate
// statements and are otherwise grammatically insignificant.
func (p *parser) skipNewlines() {
	for p.cur().Kind == token.Newline {
		p.advance()
	}
}

func (p *parser) parseProgram() (*ast.Node, error) {
	prog := ast.New(ast.Program, 0)
	p.skipNewlines()
	for p.cur().Kind != token.EndOfFile {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			prog.AddChild(stmt)
		}
		if p.cur().Kind != token.EndOfFile {
			if p.cur().Kind != token.Newline {
				return nil, p.errorf("expected end of line, found %s %q", p.cur().Kind, p.cur().Value)
			}
			p.skipNewlines()
		}
	}
	return prog, nil
}

// parseStatement parses one logical line: an opcode, a directive, an
// assignment, or a label (optionally followed, on the same line, by one
// of the other three).
func (p *parser) parseStatement() (*ast.Node, error) {
	switch p.cur().Kind {
	case token.Opcode:
		return p.parseOpcodeStatement()

	case token.Directive:
		return p.parseDirectiveStatement()

	case token.Identifier:
		if p.peekAt(1).Kind == token.Eq {
			return p.parseAssignmentStatement()
		}
		return p.parseLabelStatement()

	case token.LocalLabel:
		return p.parseLabelStatement()

	case token.Colon:
		return p.parseLabelStatement()

	default:
		return nil, p.errorf("unexpected token %s %q", p.cur().Kind, p.cur().Value)
	}
}

func (p *parser) parseAssignmentStatement() (*ast.Node, error) {
	line := p.cur().Line
	name := p.advance() // identifier
	if _, err := p.expect(token.Eq); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.AssignmentStatement, line)
	n.AddData(name.Value)
	n.AddChild(expr)
	return n, nil
}

// parseLabelStatement parses a named label, a local (@-prefixed) label, or
// an unnamed label, optionally followed on the same line by another
// statement (e.g. "loop: lda #1").
func (p *parser) parseLabelStatement() (*ast.Node, error) {
	line := p.cur().Line
	n := ast.New(ast.LabelStatement, line)

	switch p.cur().Kind {
	case token.Identifier:
		name := p.advance()
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		lbl := ast.New(ast.Label, line)
		lbl.AddData(name.Value)
		n.AddChild(lbl)

	case token.LocalLabel:
		name := p.advance()
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		lbl := ast.New(ast.LocalLabel, line)
		lbl.AddData(name.Value)
		n.AddChild(lbl)

	case token.Colon:
		p.advance()
		lbl := ast.New(ast.UnnamedLabel, line)
		n.AddChild(lbl)

	default:
		return nil, p.errorf("expected a label, found %s %q", p.cur().Kind, p.cur().Value)
	}

	if p.cur().Kind != token.Newline && p.cur().Kind != token.EndOfFile {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		n.AddChild(stmt)
	}
	return n, nil
}

func (p *parser) parseDirectiveStatement() (*ast.Node, error) {
	line := p.cur().Line
	dir := p.advance() // Directive token

	if token.IsNonGoal(dir.Value) {
		return nil, p.errorf("directive %s is not supported", dir.Value)
	}

	n := ast.New(ast.DirectiveStatement, line)
	n.AddData(dir.Value)

	if token.IsSegmentSwitch(dir.Value) {
		s, err := p.expect(token.StringConst)
		if err != nil {
			return nil, err
		}
		name := strings.Trim(s.Value, `"`)
		if name != strings.ToUpper(name) {
			return nil, p.errorf("segment name %q must be uppercase", name)
		}
		n.AddData(name)
		return n, nil
	}

	if p.cur().Kind == token.Newline || p.cur().Kind == token.EndOfFile {
		return n, nil
	}

	args := ast.New(ast.DirArgs, line)
	for {
		arg, err := p.parseDirArg()
		if err != nil {
			return nil, err
		}
		args.AddChild(arg)
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	n.AddChild(args)
	return n, nil
}

func (p *parser) parseDirArg() (*ast.Node, error) {
	if p.cur().Kind == token.StringConst {
		t := p.advance()
		n := ast.New(ast.String, t.Line)
		n.AddData(strings.Trim(t.Value, `"`))
		return n, nil
	}
	return p.parseExpression()
}

// parseOpcodeStatement dispatches on the token that follows the mnemonic
// to choose an addressing mode, purely syntactically.
func (p *parser) parseOpcodeStatement() (*ast.Node, error) {
	line := p.cur().Line
	mnem := p.advance()

	n := ast.New(ast.OpcodeStatement, line)
	n.AddData(strings.ToLower(mnem.Value))

	switch p.cur().Kind {
	case token.Newline, token.EndOfFile:
		n.AddChild(ast.New(ast.AccumulatorMode, line))
		return n, nil

	case token.Hash:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		mode := ast.New(ast.ImmediateMode, line)
		mode.AddChild(expr)
		n.AddChild(mode)
		return n, nil

	case token.OParen:
		mode, err := p.parseIndirectMode(line)
		if err != nil {
			return nil, err
		}
		n.AddChild(mode)
		return n, nil

	default:
		mode, err := p.parseDirectMode(line)
		if err != nil {
			return nil, err
		}
		n.AddChild(mode)
		return n, nil
	}
}

// parseIndirectMode distinguishes Indirect-X from Indirect-Y by whether
// the comma falls inside or outside the parentheses.
func (p *parser) parseIndirectMode(line int) (*ast.Node, error) {
	p.advance() // '('
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.Comma {
		p.advance()
		if _, err := p.expect(token.XRegister); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.CParen); err != nil {
			return nil, err
		}
		mode := ast.New(ast.IndirectXMode, line)
		mode.AddChild(expr)
		return mode, nil
	}
	if _, err := p.expect(token.CParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Comma); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.YRegister); err != nil {
		return nil, err
	}
	mode := ast.New(ast.IndirectYMode, line)
	mode.AddChild(expr)
	return mode, nil
}

// parseDirectMode parses an operand expression, which may name a label
// jump target (for branch mnemonics, via the ULabel factor form) or a
// named label, followed by an optional ",X" or ",Y" index. The generator,
// not the parser, decides whether a branch mnemonic's DirectMode operand
// is encoded as a relative displacement.
func (p *parser) parseDirectMode(line int) (*ast.Node, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.cur().Kind == token.Comma {
		p.advance()
		switch p.cur().Kind {
		case token.XRegister:
			p.advance()
			mode := ast.New(ast.DirectRegXMode, line)
			mode.AddChild(expr)
			return mode, nil
		case token.YRegister:
			p.advance()
			mode := ast.New(ast.DirectRegYMode, line)
			mode.AddChild(expr)
			return mode, nil
		default:
			return nil, p.errorf("expected X or Y register, found %s %q", p.cur().Kind, p.cur().Value)
		}
	}

	mode := ast.New(ast.DirectMode, line)
	mode.AddChild(expr)
	return mode, nil
}

// word-form operator keywords recognized only where the grammar expects
// an operator at the corresponding precedence level.
const (
	kwOR     = "or"
	kwXOR    = "xor"
	kwAND    = "and"
	kwMOD    = "mod"
	kwBITOR  = "bitor"
	kwBITAND = "bitand"
	kwBITXOR = "bitxor"
	kwSHL    = "shl"
	kwSHR    = "shr"
)

func identIs(t token.Token, kw string) bool {
	return t.Kind == token.Identifier && strings.EqualFold(t.Value, kw)
}

func (p *parser) parseExpression() (*ast.Node, error) {
	return p.parsePrec7()
}

// parsePrec7 is the lowest-precedence level: a prefix boolean-not, or
// fall through.
func (p *parser) parsePrec7() (*ast.Node, error) {
	if p.cur().Kind == token.Bang {
		line := p.cur().Line
		op := p.advance()
		operand, err := p.parsePrec7()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.UnaryOp, line)
		n.AddData(op.Value)
		n.AddChild(operand)
		return n, nil
	}
	return p.parsePrec6()
}

func (p *parser) parsePrec6() (*ast.Node, error) {
	left, err := p.parsePrec5()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.PipePipe || identIs(p.cur(), kwOR) {
		line := p.cur().Line
		op := p.advance()
		right, err := p.parsePrec5()
		if err != nil {
			return nil, err
		}
		left = foldBinary(line, "||", op, left, right)
	}
	return left, nil
}

func (p *parser) parsePrec5() (*ast.Node, error) {
	left, err := p.parsePrec4()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.AmpAmp || identIs(p.cur(), kwXOR) || identIs(p.cur(), kwAND) {
		line := p.cur().Line
		op := p.advance()
		right, err := p.parsePrec4()
		if err != nil {
			return nil, err
		}
		left = foldBinary(line, "&&", op, left, right)
	}
	return left, nil
}

func (p *parser) parsePrec4() (*ast.Node, error) {
	left, err := p.parsePrec3()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind.IsPrec4() {
		line := p.cur().Line
		op := p.advance()
		right, err := p.parsePrec3()
		if err != nil {
			return nil, err
		}
		left = foldBinary(line, op.Value, op, left, right)
	}
	return left, nil
}

func (p *parser) parsePrec3() (*ast.Node, error) {
	left, err := p.parsePrec2()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind.IsPrec3() || identIs(p.cur(), kwBITOR) {
		line := p.cur().Line
		op := p.advance()
		right, err := p.parsePrec2()
		if err != nil {
			return nil, err
		}
		left = foldBinary(line, canonicalOp(op), op, left, right)
	}
	return left, nil
}

func (p *parser) parsePrec2() (*ast.Node, error) {
	left, err := p.parsePrec1()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind.IsPrec2() || identIs(p.cur(), kwMOD) || identIs(p.cur(), kwBITAND) ||
		identIs(p.cur(), kwBITXOR) || identIs(p.cur(), kwSHL) || identIs(p.cur(), kwSHR) {
		line := p.cur().Line
		op := p.advance()
		right, err := p.parsePrec1()
		if err != nil {
			return nil, err
		}
		left = foldBinary(line, canonicalOp(op), op, left, right)
	}
	return left, nil
}

// canonicalOp maps a word-form operator keyword to the symbolic operator
// it aliases, for uniform storage in the AST's Data slice.
func canonicalOp(t token.Token) string {
	if t.Kind != token.Identifier {
		return t.Value
	}
	switch strings.ToLower(t.Value) {
	case kwOR:
		return "||"
	case kwAND:
		return "&&"
	case kwBITOR:
		return "|"
	case kwBITAND:
		return "&"
	case kwBITXOR:
		return "^"
	case kwSHL:
		return "<<"
	case kwSHR:
		return ">>"
	case kwMOD:
		return "%"
	}
	return t.Value
}

func foldBinary(line int, opValue string, op token.Token, left, right *ast.Node) *ast.Node {
	n := ast.New(ast.BinaryOp, line)
	if op.Kind == token.Identifier {
		n.AddData(canonicalOp(op))
	} else {
		n.AddData(opValue)
	}
	n.AddChild(left)
	n.AddChild(right)
	return n
}

// parsePrec1 handles prefix unary operators: '-', '+', '<' (low byte),
// '>' (high byte), '~' (complement), '!' (boolean not).
func (p *parser) parsePrec1() (*ast.Node, error) {
	if p.cur().Kind.IsUnaryPrefix() {
		line := p.cur().Line
		op := p.advance()
		operand, err := p.parsePrec1()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.UnaryOp, line)
		n.AddData(op.Value)
		n.AddChild(operand)
		return n, nil
	}
	return p.parsePrec0()
}

// parsePrec0 handles the built-in pseudo-functions (none defined by this
// grammar beyond the unary forms already consumed at Prec1) and falls
// through to a factor.
func (p *parser) parsePrec0() (*ast.Node, error) {
	return p.parseFactor()
}

func (p *parser) parseFactor() (*ast.Node, error) {
	if p.cur().Kind.IsNumber() {
		return p.parseNumber()
	}

	switch p.cur().Kind {
	case token.OParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.CParen); err != nil {
			return nil, err
		}
		return expr, nil

	case token.Identifier:
		t := p.advance()
		n := ast.New(ast.Variable, t.Line)
		n.AddData(t.Value)
		return n, nil

	case token.LocalLabel:
		t := p.advance()
		n := ast.New(ast.Variable, t.Line)
		n.AddData(t.Value)
		return n, nil

	case token.ULabel:
		t := p.advance()
		n := ast.New(ast.LabelJump, t.Line)
		n.AddData(t.Value)
		return n, nil

	default:
		return nil, p.errorf("expected an expression, found %s %q", p.cur().Kind, p.cur().Value)
	}
}

// parseNumber canonicalizes a numeric literal of any base to a base-10
// string stored in the Number node's data.
func (p *parser) parseNumber() (*ast.Node, error) {
	t := p.advance()
	var v uint64
	var err error
	switch t.Kind {
	case token.HexNumber:
		v, err = strconv.ParseUint(t.Value[1:], 16, 32)
	case token.BinNumber:
		v, err = strconv.ParseUint(t.Value[1:], 2, 32)
	case token.DecNumber:
		v, err = strconv.ParseUint(t.Value, 10, 32)
	}
	if err != nil {
		return nil, &Error{Line: t.Line, Message: fmt.Sprintf("invalid numeric literal %q", t.Value)}
	}
	n := ast.New(ast.Number, t.Line)
	n.AddData(strconv.FormatUint(v&0xFFFF, 10))
	return n, nil
}
