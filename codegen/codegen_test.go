package codegen

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/beevik/sasm6502/lexer"
	"github.com/beevik/sasm6502/linkcfg"
	"github.com/beevik/sasm6502/parser"
)

const testConfig = `
MEMORY {
	RAM: start=$0000, size=$8000, type=rw;
	ZP:  start=$0000, size=$0100, type=rw;
}
SEGMENTS {
	CODE: load=RAM, type=rw;
	ZEROPAGE: load=ZP, type=zp;
}
`

// assemble lexes, parses, and generates code for a snippet preceded by a
// ".segment \"CODE\"" switch, returning the concatenated CODE segment
// bytes as an uppercase hex string for easy comparison against the
// scenario table.
func assemble(t *testing.T, src string) string {
	t.Helper()
	cfg, err := linkcfg.Parse(testConfig)
	if err != nil {
		t.Fatalf("config parse error: %v", err)
	}
	full := ".segment \"CODE\"\n" + src
	toks, err := lexer.Lex(full)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ctx := NewContext(cfg, ".")
	if err := Generate(ctx, prog); err != nil {
		t.Fatalf("generate error: %v", err)
	}
	for _, seg := range ctx.Segments {
		if seg.Name == "CODE" {
			return strings.ToUpper(hex.EncodeToString(seg.Bytes()))
		}
	}
	t.Fatal("CODE segment not found")
	return ""
}

func TestS1ImmediateLoad(t *testing.T) {
	if got := assemble(t, "lda #$00\n"); got != "A900" {
		t.Errorf("S1: got %s, want A900", got)
	}
}

func TestS2BranchToNamedLabel(t *testing.T) {
	if got := assemble(t, "start: lda #$01\nbne start\n"); got != "A901D0FC" {
		t.Errorf("S2: got %s, want A901D0FC", got)
	}
}

func TestS3AbsoluteVariable(t *testing.T) {
	if got := assemble(t, "foo = $1234\nlda foo\n"); got != "AD3412" {
		t.Errorf("S3: got %s, want AD3412", got)
	}
}

func TestS4ByteDirectiveStringAndNumber(t *testing.T) {
	if got := assemble(t, `.byte "AB", $03`+"\n"); got != "414203" {
		t.Errorf("S4: got %s, want 414203", got)
	}
}

func TestS5BackwardUnnamedLabel(t *testing.T) {
	if got := assemble(t, ":\nlda #1\nbne :-\n"); got != "A901D0FD" {
		t.Errorf("S5: got %s, want A901D0FD", got)
	}
}

func TestS6WordDirective(t *testing.T) {
	if got := assemble(t, "foo = $BEEF\n.word foo\n"); got != "EFBE" {
		t.Errorf("S6: got %s, want EFBE", got)
	}
}

func TestImmediateOverflowIsError(t *testing.T) {
	cfg, err := linkcfg.Parse(testConfig)
	if err != nil {
		t.Fatal(err)
	}
	toks, err := lexer.Lex(".segment \"CODE\"\nfoo = $1234\nlda #foo\n")
	if err != nil {
		t.Fatal(err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, ".")
	if err := Generate(ctx, prog); err == nil {
		t.Fatal("expected error for immediate operand wider than one byte")
	}
}

func TestUndeclaredSegmentIsError(t *testing.T) {
	cfg, err := linkcfg.Parse(testConfig)
	if err != nil {
		t.Fatal(err)
	}
	toks, err := lexer.Lex(".segment \"BOGUS\"\nlda #1\n")
	if err != nil {
		t.Fatal(err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, ".")
	if err := Generate(ctx, prog); err == nil {
		t.Fatal("expected error for segment not declared in configuration")
	}
}

func TestZeroPageSegmentAddressMode(t *testing.T) {
	cfg, err := linkcfg.Parse(testConfig)
	if err != nil {
		t.Fatal(err)
	}
	toks, err := lexer.Lex(".segment \"ZEROPAGE\"\ncount: .res 1\n")
	if err != nil {
		t.Fatal(err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewContext(cfg, ".")
	if err := Generate(ctx, prog); err != nil {
		t.Fatal(err)
	}
	if ctx.Segments[0].AddressMode != ZeroPage {
		t.Errorf("expected ZeroPage address mode, got %v", ctx.Segments[0].AddressMode)
	}
}
