// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen implements the two-pass code generator: three walks of
// the parsed syntax tree (symbol walk, size walk, emit walk) threaded
// through a single mutable Context, in the manner of the teacher
// repository's assembler, which also resolves labels and emits bytes in a
// single mutable pass over its own line-oriented representation.
package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/sasm6502/ast"
	"github.com/beevik/sasm6502/isa"
	"github.com/beevik/sasm6502/linkcfg"
	"github.com/beevik/sasm6502/token"
)

// An Error describes a fatal semantic failure: an undefined reference, a
// segment missing from the configuration, an operand out of range, or an
// unknown mnemonic/mode combination.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// AddressMode identifies whether a Segment's addresses are derived from a
// zero-page or absolute memory region.
type AddressMode byte

const (
	Absolute AddressMode = iota
	ZeroPage
)

func (m AddressMode) String() string {
	if m == ZeroPage {
		return "ZeroPage"
	}
	return "Absolute"
}

// A Label records where a name (or synthesized unnamed-label key) was
// declared: which segment, and the segment-relative byte offset at the
// point of declaration.
type Label struct {
	SegmentID int
	Offset    uint16
}

// storageKind distinguishes a literal byte already known at pass 1 from a
// byte pair still waiting on label resolution.
type storageKind byte

const (
	storageLiteral storageKind = iota
	storageLabelLow
	storageLabelHigh
)

// A Storage is one element of a Segment's emitted byte sequence: either a
// literal byte, or a reference to the low/high byte of a label's resolved
// address.
type Storage struct {
	Kind  storageKind
	Value byte   // valid when Kind == storageLiteral
	Label string // valid when Kind != storageLiteral
}

// A Segment is a named, ordered run of emitted bytes mapped by the linker
// configuration onto a memory region.
type Segment struct {
	ID          int
	Name        string
	AddressMode AddressMode
	Size        uint16
	Values      []Storage
}

// A Context owns all mutable state threaded through the three AST walks:
// the symbol table, the segment list, and the configuration being linked
// against.
type Context struct {
	Config   *linkcfg.Configuration
	Vars     map[string]uint16
	Labels   map[string]*Label
	Segments []*Segment

	segIndex    map[string]int // segment name -> index into Segments
	curSegIdx   int            // index of the current segment, or -1 if none
	nextSegID   int
	ulabelCount int

	// IncludeDir is the directory .incbin paths are resolved relative to.
	IncludeDir string

	// Logf, when non-nil, receives section-delimited diagnostic trace
	// lines during the three walks.
	Logf func(format string, args ...any)
}

// NewContext creates a Context ready to generate code against cfg.
func NewContext(cfg *linkcfg.Configuration, includeDir string) *Context {
	return &Context{
		Config:     cfg,
		Vars:       make(map[string]uint16),
		Labels:     make(map[string]*Label),
		segIndex:   make(map[string]int),
		curSegIdx:  -1,
		IncludeDir: includeDir,
	}
}

func (c *Context) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

func (c *Context) curSegment() *Segment {
	if c.curSegIdx < 0 {
		return nil
	}
	return c.Segments[c.curSegIdx]
}

// switchSegment implements the `.segment "NAME"` behavior shared by all
// three walks: restore a known segment's id, or allocate a fresh one by
// consulting the configuration.
func (c *Context) switchSegment(name string, line int) error {
	if idx, ok := c.segIndex[name]; ok {
		c.curSegIdx = idx
		return nil
	}
	entry, ok := c.Config.SegmentByName(name)
	if !ok {
		return &Error{line, fmt.Sprintf("segment %q not declared in configuration", name)}
	}
	mode := Absolute
	if entry.Type == linkcfg.ZP {
		mode = ZeroPage
	}
	seg := &Segment{ID: c.nextSegID, Name: name, AddressMode: mode}
	c.nextSegID++
	c.Segments = append(c.Segments, seg)
	c.segIndex[name] = len(c.Segments) - 1
	c.curSegIdx = len(c.Segments) - 1
	return nil
}

// segmentStart returns the base address of a named segment: its own
// configured start if set, else the start of its load memory region.
func (c *Context) segmentStart(segName string) (uint16, error) {
	entry, ok := c.Config.SegmentByName(segName)
	if !ok {
		return 0, fmt.Errorf("segment %q not declared in configuration", segName)
	}
	if entry.HasStart {
		return entry.Start, nil
	}
	mem, ok := c.Config.MemoryByName(entry.Load)
	if !ok {
		return 0, fmt.Errorf("segment %q names undeclared load memory %q", segName, entry.Load)
	}
	return mem.Start, nil
}

// SegmentStart returns the base load address of a named, already-declared
// segment.
func (c *Context) SegmentStart(segName string) (uint16, error) {
	return c.segmentStart(segName)
}

// ResolveAddress computes the final address of a named label: the start
// of its segment plus its offset within that segment.
func (c *Context) ResolveAddress(name string) (uint16, error) {
	lbl, ok := c.Labels[name]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", name)
	}
	seg := c.Segments[lbl.SegmentID]
	start, err := c.segmentStart(seg.Name)
	if err != nil {
		return 0, err
	}
	return start + lbl.Offset, nil
}

// ulabelKey synthesizes the unnamed-label symbol-table key for the given
// counter value.
func ulabelKey(n int) string {
	return fmt.Sprintf("label-%d", n)
}

// Generate runs the full three-walk pipeline over prog, leaving the
// finished per-segment byte sequences in c.Segments. prog must be the
// Program root returned by the parser.
func Generate(c *Context, prog *ast.Node) error {
	c.logf("=== symbol walk ===")
	if err := c.symbolWalk(prog); err != nil {
		return err
	}
	c.logf("=== size walk ===")
	c.ulabelCount = 0
	c.curSegIdx = -1
	if err := c.sizeWalk(prog); err != nil {
		return err
	}
	sizeWalkCount := c.ulabelCount
	c.logf("=== emit walk ===")
	c.ulabelCount = 0
	c.curSegIdx = -1
	for _, seg := range c.Segments {
		seg.Values = seg.Values[:0]
	}
	if err := c.emitWalk(prog); err != nil {
		return err
	}
	if c.ulabelCount != sizeWalkCount {
		return fmt.Errorf("internal error: unnamed-label counter disagreement between passes (%d vs %d)", sizeWalkCount, c.ulabelCount)
	}
	return nil
}

// symbolWalk is pass 1's first half: establish variable values, segment
// bindings, and a label entry (offset 0, corrected during the size walk)
// for every declared label.
func (c *Context) symbolWalk(prog *ast.Node) error {
	ucount := 0
	for _, stmt := range prog.Children {
		switch stmt.Kind {
		case ast.AssignmentStatement:
			v, err := strconv.ParseUint(stmt.Child(0).Datum(0), 10, 32)
			if err != nil {
				return &Error{stmt.Line, fmt.Sprintf("invalid constant expression for %q", stmt.Datum(0))}
			}
			c.Vars[stmt.Datum(0)] = uint16(v)

		case ast.DirectiveStatement:
			if token.IsSegmentSwitch(stmt.Datum(0)) {
				if err := c.switchSegment(stmt.Datum(1), stmt.Line); err != nil {
					return &Error{stmt.Line, err.Error()}
				}
			}

		case ast.LabelStatement:
			key, err := c.labelKeyForDeclaration(stmt.Child(0), &ucount)
			if err != nil {
				return err
			}
			if c.curSegIdx < 0 {
				return &Error{stmt.Line, "label declared before any segment switch"}
			}
			c.Labels[key] = &Label{SegmentID: c.curSegment().ID, Offset: 0}
			if trailing := stmt.Child(1); trailing != nil {
				if err := c.symbolWalkOne(trailing, &ucount); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// symbolWalkOne handles a statement nested under a label on the same
// source line (the label itself was already processed by the caller).
func (c *Context) symbolWalkOne(stmt *ast.Node, ucount *int) error {
	switch stmt.Kind {
	case ast.AssignmentStatement:
		v, err := strconv.ParseUint(stmt.Child(0).Datum(0), 10, 32)
		if err != nil {
			return &Error{stmt.Line, fmt.Sprintf("invalid constant expression for %q", stmt.Datum(0))}
		}
		c.Vars[stmt.Datum(0)] = uint16(v)
	case ast.DirectiveStatement:
		if token.IsSegmentSwitch(stmt.Datum(0)) {
			if err := c.switchSegment(stmt.Datum(1), stmt.Line); err != nil {
				return &Error{stmt.Line, err.Error()}
			}
		}
	}
	return nil
}

// labelKeyForDeclaration returns the symbol-table key a Label/LocalLabel/
// UnnamedLabel node should be stored under, advancing the unnamed-label
// counter as a side effect for UnnamedLabel nodes.
func (c *Context) labelKeyForDeclaration(n *ast.Node, ucount *int) (string, error) {
	switch n.Kind {
	case ast.Label, ast.LocalLabel:
		return n.Datum(0), nil
	case ast.UnnamedLabel:
		key := ulabelKey(*ucount)
		*ucount++
		return key, nil
	}
	return "", fmt.Errorf("malformed label node %s", n.Kind)
}

// sizeWalk is pass 1's second half: compute the byte size of every
// emitted item and fix up each label's offset to the running segment
// size at the point of declaration.
func (c *Context) sizeWalk(prog *ast.Node) error {
	for _, stmt := range prog.Children {
		if err := c.sizeWalkStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) sizeWalkStatement(stmt *ast.Node) error {
	switch stmt.Kind {
	case ast.DirectiveStatement:
		if token.IsSegmentSwitch(stmt.Datum(0)) {
			return c.switchSegment(stmt.Datum(1), stmt.Line)
		}
		n, err := c.directiveSize(stmt)
		if err != nil {
			return err
		}
		c.curSegment().Size += n

	case ast.LabelStatement:
		key, err := c.labelKeyForDeclaration(stmt.Child(0), &c.ulabelCount)
		if err != nil {
			return err
		}
		if lbl, ok := c.Labels[key]; ok {
			lbl.Offset = c.curSegment().Size
		}
		if trailing := stmt.Child(1); trailing != nil {
			return c.sizeWalkStatement(trailing)
		}

	case ast.OpcodeStatement:
		n, err := c.opcodeSize(stmt)
		if err != nil {
			return err
		}
		c.curSegment().Size += n
	}
	return nil
}

// directiveSize computes the byte contribution of a non-segment
// directive for the size walk.
func (c *Context) directiveSize(stmt *ast.Node) (uint16, error) {
	name := stmt.Datum(0)
	args := stmt.Child(0)

	switch {
	case token.IsReserve(name):
		if args == nil || len(args.Children) == 0 {
			return 0, &Error{stmt.Line, ".res requires an argument"}
		}
		n, err := strconv.ParseUint(args.Child(0).Datum(0), 10, 32)
		if err != nil {
			return 0, &Error{stmt.Line, ".res argument must be a literal size"}
		}
		return uint16(n), nil

	case token.IsIncbin(name):
		if args == nil || len(args.Children) == 0 {
			return 0, &Error{stmt.Line, ".incbin requires a file name"}
		}
		data, err := c.readIncbin(args.Child(0).Datum(0))
		if err != nil {
			return 0, &Error{stmt.Line, err.Error()}
		}
		return uint16(len(data)), nil

	default:
		width, ok := token.DataDirectives[name]
		if !ok || args == nil {
			return 0, nil
		}
		if width == 1 {
			var total uint16
			for _, a := range args.Children {
				switch a.Kind {
				case ast.String:
					total += uint16(len(a.Datum(0)))
				default:
					total++
				}
			}
			return total, nil
		}
		return uint16(len(args.Children)) * uint16(width), nil
	}
}

func (c *Context) readIncbin(name string) ([]byte, error) {
	path := filepath.Join(c.IncludeDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(".incbin %q: %v", name, err)
	}
	return data, nil
}

// opcodeSize computes the instruction's encoded length during the size
// walk, per the addressing-mode rules in the generator design.
func (c *Context) opcodeSize(stmt *ast.Node) (uint16, error) {
	mnem := stmt.Datum(0)
	mode := stmt.Child(0)

	switch mode.Kind {
	case ast.AccumulatorMode:
		return 1, nil

	case ast.ImmediateMode:
		return 2, nil

	case ast.DirectMode, ast.DirectRegXMode, ast.DirectRegYMode, ast.IndirectXMode, ast.IndirectYMode:
		if mode.Kind == ast.IndirectXMode || mode.Kind == ast.IndirectYMode {
			return 2, nil
		}
		if mode.Kind == ast.DirectMode && isa.IsBranch(mnem) {
			return 2, nil
		}
		operand := mode.Child(0)
		wide, err := c.isWideOperand(operand)
		if err != nil {
			return 0, &Error{stmt.Line, err.Error()}
		}
		if wide {
			return 3, nil
		}
		return 2, nil

	default:
		return 0, &Error{stmt.Line, fmt.Sprintf("unsupported addressing mode for %s", mnem)}
	}
}

// isWideOperand decides, during the size walk, whether a direct-mode
// operand will occupy the absolute (2-byte) or zero-page (1-byte) operand
// form. Unresolved labels are assumed absolute unless their containing
// segment's address mode is known to be zero page (the single-pass size
// estimation the specification documents, rather than fixpoint
// iteration).
func (c *Context) isWideOperand(n *ast.Node) (bool, error) {
	switch n.Kind {
	case ast.Number:
		v, _ := strconv.ParseUint(n.Datum(0), 10, 32)
		return v > 0xFF, nil

	case ast.Variable:
		name := n.Datum(0)
		if v, ok := c.Vars[name]; ok {
			return v > 0xFF, nil
		}
		if lbl, ok := c.Labels[name]; ok {
			return c.Segments[lbl.SegmentID].AddressMode != ZeroPage, nil
		}
		return true, nil

	case ast.BinaryOp:
		v, err := c.evalForSizing(n)
		if err != nil {
			return false, err
		}
		return v > 0xFF, nil

	default:
		return true, nil
	}
}

// evalForSizing evaluates an expression during the size walk, treating a
// label in a zero-page segment as 0 and any other label as 0x100, per the
// specification's documented single-pass estimation. A name that is
// neither a variable nor a label is an error.
func (c *Context) evalForSizing(n *ast.Node) (int, error) {
	return c.eval(n, func(name string) (uint16, bool, error) {
		if v, ok := c.Vars[name]; ok {
			return v, true, nil
		}
		if lbl, ok := c.Labels[name]; ok {
			if c.Segments[lbl.SegmentID].AddressMode == ZeroPage {
				return 0, true, nil
			}
			return 0x100, true, nil
		}
		return 0, false, fmt.Errorf("undefined name %q", name)
	})
}

// emitWalk is pass 2: materialize bytes for every statement using the
// now-complete symbol table.
func (c *Context) emitWalk(prog *ast.Node) error {
	for _, stmt := range prog.Children {
		if err := c.emitStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) emitStatement(stmt *ast.Node) error {
	switch stmt.Kind {
	case ast.AssignmentStatement:
		return nil

	case ast.DirectiveStatement:
		if token.IsSegmentSwitch(stmt.Datum(0)) {
			return c.switchSegment(stmt.Datum(1), stmt.Line)
		}
		return c.emitDirective(stmt)

	case ast.LabelStatement:
		if stmt.Child(0).Kind == ast.UnnamedLabel {
			c.ulabelCount++
		}
		if trailing := stmt.Child(1); trailing != nil {
			return c.emitStatement(trailing)
		}
		return nil

	case ast.OpcodeStatement:
		return c.emitOpcode(stmt)
	}
	return nil
}

func (c *Context) emit(bytes ...byte) {
	seg := c.curSegment()
	for _, b := range bytes {
		seg.Values = append(seg.Values, Storage{Kind: storageLiteral, Value: b})
	}
}

func (c *Context) emitDirective(stmt *ast.Node) error {
	name := stmt.Datum(0)
	args := stmt.Child(0)

	switch {
	case token.IsReserve(name):
		return nil

	case token.IsIncbin(name):
		data, err := c.readIncbin(args.Child(0).Datum(0))
		if err != nil {
			return &Error{stmt.Line, err.Error()}
		}
		c.emit(data...)
		return nil

	default:
		width, ok := token.DataDirectives[name]
		if !ok || args == nil {
			return nil
		}
		if width == 1 {
			for _, a := range args.Children {
				switch a.Kind {
				case ast.String:
					c.emit([]byte(a.Datum(0))...)
				case ast.Number:
					v, _ := strconv.ParseUint(a.Datum(0), 10, 32)
					c.emit(byte(v))
				case ast.BinaryOp:
					v, err := c.evalOperand(a)
					if err != nil {
						return &Error{stmt.Line, err.Error()}
					}
					if v > 0xFF {
						c.emit(byte(v), byte(v>>8))
					} else {
						c.emit(byte(v))
					}
				default:
					v, err := c.evalOperand(a)
					if err != nil {
						return &Error{stmt.Line, err.Error()}
					}
					c.emit(byte(v))
				}
			}
			return nil
		}

		for _, a := range args.Children {
			v, err := c.evalOperand(a)
			if err != nil {
				return &Error{stmt.Line, err.Error()}
			}
			b := make([]byte, width)
			for i := 0; i < width; i++ {
				b[i] = byte(v >> (8 * i))
			}
			c.emit(b...)
		}
		return nil
	}
}

// evalOperand evaluates an expression at emit time against the fully
// resolved symbol table (variables and label addresses).
func (c *Context) evalOperand(n *ast.Node) (int, error) {
	return c.eval(n, func(name string) (uint16, bool, error) {
		if v, ok := c.Vars[name]; ok {
			return v, true, nil
		}
		if _, ok := c.Labels[name]; ok {
			addr, err := c.ResolveAddress(name)
			if err != nil {
				return 0, false, err
			}
			return addr, true, nil
		}
		return 0, false, fmt.Errorf("undefined name %q", name)
	})
}

func (c *Context) emitOpcode(stmt *ast.Node) error {
	mnem := stmt.Datum(0)
	mode := stmt.Child(0)

	switch mode.Kind {
	case ast.AccumulatorMode:
		inst, ok := isa.Encode(mnem, isa.ACC)
		if !ok {
			inst, ok = isa.Encode(mnem, isa.IMP)
		}
		if !ok {
			return &Error{stmt.Line, fmt.Sprintf("%s has no implied/accumulator addressing mode", mnem)}
		}
		c.emit(inst.Opcode)
		return nil

	case ast.ImmediateMode:
		return c.emitImmediate(stmt.Line, mnem, mode.Child(0))

	case ast.DirectMode:
		if isa.IsBranch(mnem) {
			return c.emitRelative(stmt.Line, mnem, mode.Child(0))
		}
		return c.emitDirect(stmt.Line, mnem, mode.Child(0), isa.ABS, isa.ZPG)

	case ast.DirectRegXMode:
		return c.emitDirect(stmt.Line, mnem, mode.Child(0), isa.ABX, isa.ZPX)

	case ast.DirectRegYMode:
		return c.emitDirect(stmt.Line, mnem, mode.Child(0), isa.ABY, isa.ZPY)

	case ast.IndirectXMode:
		inst, ok := isa.Encode(mnem, isa.IDX)
		if !ok {
			return &Error{stmt.Line, fmt.Sprintf("%s has no indirect-X addressing mode", mnem)}
		}
		v, err := c.evalOperand(mode.Child(0))
		if err != nil {
			return &Error{stmt.Line, err.Error()}
		}
		c.emit(inst.Opcode, byte(v))
		return nil

	case ast.IndirectYMode:
		inst, ok := isa.Encode(mnem, isa.IDY)
		if !ok {
			return &Error{stmt.Line, fmt.Sprintf("%s has no indirect-Y addressing mode", mnem)}
		}
		v, err := c.evalOperand(mode.Child(0))
		if err != nil {
			return &Error{stmt.Line, err.Error()}
		}
		c.emit(inst.Opcode, byte(v))
		return nil

	default:
		return &Error{stmt.Line, fmt.Sprintf("unsupported addressing mode for %s (legal modes: %s)", mnem, legalModes(mnem))}
	}
}

// legalModes renders the addressing modes a mnemonic legally supports, for
// use in diagnostics when a statement's parsed mode doesn't match any of
// them.
func legalModes(mnem string) string {
	variants := isa.Variants(mnem)
	if len(variants) == 0 {
		return "none"
	}
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Mode.String()
	}
	return strings.Join(names, ", ")
}

func (c *Context) emitImmediate(line int, mnem string, operand *ast.Node) error {
	inst, ok := isa.Encode(mnem, isa.IMM)
	if !ok {
		return &Error{line, fmt.Sprintf("%s has no immediate addressing mode", mnem)}
	}

	if operand.Kind == ast.UnaryOp && (operand.Datum(0) == "<" || operand.Datum(0) == ">") {
		v, err := c.evalOperand(operand.Child(0))
		if err != nil {
			return &Error{line, err.Error()}
		}
		if operand.Datum(0) == "<" {
			c.emit(inst.Opcode, byte(v))
		} else {
			c.emit(inst.Opcode, byte(v>>8))
		}
		return nil
	}

	v, err := c.evalOperand(operand)
	if err != nil {
		return &Error{line, err.Error()}
	}
	if v > 0xFF {
		return &Error{line, fmt.Sprintf("immediate operand %d exceeds one byte", v)}
	}
	c.emit(inst.Opcode, byte(v))
	return nil
}

func (c *Context) emitDirect(line int, mnem string, operand *ast.Node, wideMode, zpMode isa.Mode) error {
	v, err := c.evalOperand(operand)
	if err != nil {
		return &Error{line, err.Error()}
	}
	if v > 0xFF {
		inst, ok := isa.Encode(mnem, wideMode)
		if !ok {
			return &Error{line, fmt.Sprintf("%s has no %s addressing mode", mnem, wideMode)}
		}
		c.emit(inst.Opcode, byte(v), byte(v>>8))
		return nil
	}
	inst, ok := isa.Encode(mnem, zpMode)
	if !ok {
		inst, ok = isa.Encode(mnem, wideMode)
		if !ok {
			return &Error{line, fmt.Sprintf("%s has no matching addressing mode", mnem)}
		}
		c.emit(inst.Opcode, byte(v), byte(v>>8))
		return nil
	}
	c.emit(inst.Opcode, byte(v))
	return nil
}

// emitRelative resolves a branch's target — either a named label or a
// :+/:- unnamed-label reference — and emits the signed 8-bit displacement
// from the branch's position (the fully-sized segment, since Size is
// fixed by the size walk and unchanged during emission) to the target
// offset.
//
// A backward unnamed-label reference (":-") carries a stray +1 in its
// displacement, matching the documented arithmetic quirk of this dialect
// rather than corrected two's-complement negation.
func (c *Context) emitRelative(line int, mnem string, operand *ast.Node) error {
	inst, ok := isa.Encode(mnem, isa.REL)
	if !ok {
		return &Error{line, fmt.Sprintf("%s is not a branch mnemonic", mnem)}
	}

	var targetOffset int
	backwardBug := false

	switch operand.Kind {
	case ast.LabelJump:
		ref := operand.Datum(0)
		sign := ref[1]
		count := len(ref) - 1
		var targetKey string
		if sign == '+' {
			targetKey = ulabelKey(c.ulabelCount + count - 1)
		} else {
			targetKey = ulabelKey(c.ulabelCount - count)
			backwardBug = true
		}
		target, ok := c.Labels[targetKey]
		if !ok {
			return &Error{line, fmt.Sprintf("unresolved unnamed label reference %q", ref)}
		}
		targetOffset = int(target.Offset)

	case ast.Variable:
		lbl, ok := c.Labels[operand.Datum(0)]
		if !ok {
			return &Error{line, fmt.Sprintf("undefined label %q", operand.Datum(0))}
		}
		targetOffset = int(lbl.Offset)

	default:
		return &Error{line, "branch operand must be a label"}
	}

	displacement := targetOffset - int(c.curSegment().Size)
	if backwardBug {
		displacement++
	}
	if displacement < -128 || displacement > 127 {
		return &Error{line, fmt.Sprintf("branch target out of range (%d)", displacement)}
	}
	c.emit(inst.Opcode, byte(int8(displacement)))
	return nil
}

// eval implements the expression evaluator shared by the
// size and emit walks, parameterized by a name-resolution callback as
// recommended by the design's note on evaluator duplication.
func (c *Context) eval(n *ast.Node, resolve func(string) (uint16, bool, error)) (int, error) {
	switch n.Kind {
	case ast.Number:
		v, err := strconv.ParseUint(n.Datum(0), 10, 32)
		if err != nil {
			return 0, err
		}
		return int(uint16(v)), nil

	case ast.Variable:
		v, ok, err := resolve(n.Datum(0))
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("undefined name %q", n.Datum(0))
		}
		return int(v), nil

	case ast.UnaryOp:
		v, err := c.eval(n.Child(0), resolve)
		if err != nil {
			return 0, err
		}
		switch n.Datum(0) {
		case "-":
			return int(uint16(-v)), nil
		case "+":
			return int(uint16(v)), nil
		case "<":
			return v & 0xFF, nil
		case ">":
			return (v >> 8) & 0xFF, nil
		case "~":
			return int(uint16(^v)), nil
		case "!":
			if v == 0 {
				return 1, nil
			}
			return 0, nil
		}
		return 0, fmt.Errorf("unknown unary operator %q", n.Datum(0))

	case ast.BinaryOp:
		l, err := c.eval(n.Child(0), resolve)
		if err != nil {
			return 0, err
		}
		r, err := c.eval(n.Child(1), resolve)
		if err != nil {
			return 0, err
		}
		return int(uint16(evalBinary(n.Datum(0), l, r))), nil

	default:
		return 0, fmt.Errorf("cannot evaluate node kind %s", n.Kind)
	}
}

func evalBinary(op string, l, r int) int {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	case "%":
		if r == 0 {
			return 0
		}
		return l % r
	case "|":
		return l | r
	case "&":
		return l & r
	case "^":
		return l ^ r
	case "<<":
		return l << uint(r)
	case ">>":
		return l >> uint(r)
	case "=":
		return boolInt(l == r)
	case "<>":
		return boolInt(l != r)
	case "<":
		return boolInt(l < r)
	case ">":
		return boolInt(l > r)
	case "<=":
		return boolInt(l <= r)
	case ">=":
		return boolInt(l >= r)
	case "&&":
		return boolInt(l != 0 && r != 0)
	case "||":
		return boolInt(l != 0 || r != 0)
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DumpSegments writes a human-readable summary of the finished segment
// list to fn, one line per segment.
func (c *Context) DumpSegments(fn func(string, ...any)) {
	for _, seg := range c.Segments {
		fn("segment %q: id=%d mode=%v size=%d bytes=%d", seg.Name, seg.ID, seg.AddressMode, seg.Size, len(seg.Values))
	}
}

// Bytes returns the concatenated, fully-resolved byte image of a segment.
func (seg *Segment) Bytes() []byte {
	out := make([]byte, len(seg.Values))
	for i, s := range seg.Values {
		out[i] = s.Value
	}
	return out
}
