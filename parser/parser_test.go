package parser

import (
	"testing"

	"github.com/beevik/sasm6502/ast"
	"github.com/beevik/sasm6502/lexer"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	toks, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return prog
}

func TestPrecedenceClimbing(t *testing.T) {
	prog := mustParse(t, "a = 1 + 2 * 3\n")
	stmt := prog.Child(0)
	if stmt.Kind != ast.AssignmentStatement {
		t.Fatalf("expected AssignmentStatement, got %s", stmt.Kind)
	}
	rhs := stmt.Child(0)
	if rhs.Kind != ast.BinaryOp || rhs.Datum(0) != "+" {
		t.Fatalf("expected top-level +, got %s %v", rhs.Kind, rhs.Data)
	}
	right := rhs.Child(1)
	if right.Kind != ast.BinaryOp || right.Datum(0) != "*" {
		t.Fatalf("expected nested *, got %s %v", right.Kind, right.Data)
	}
}

func TestIndirectXMode(t *testing.T) {
	prog := mustParse(t, "lda ($10, X)\n")
	stmt := prog.Child(0)
	mode := stmt.Child(0)
	if mode.Kind != ast.IndirectXMode {
		t.Fatalf("expected IndirectXMode, got %s", mode.Kind)
	}
}

func TestIndirectYMode(t *testing.T) {
	prog := mustParse(t, "lda ($10), Y\n")
	stmt := prog.Child(0)
	mode := stmt.Child(0)
	if mode.Kind != ast.IndirectYMode {
		t.Fatalf("expected IndirectYMode, got %s", mode.Kind)
	}
}

func TestImmediateMode(t *testing.T) {
	prog := mustParse(t, "lda #$00\n")
	mode := prog.Child(0).Child(0)
	if mode.Kind != ast.ImmediateMode {
		t.Fatalf("expected ImmediateMode, got %s", mode.Kind)
	}
}

func TestAccumulatorMode(t *testing.T) {
	prog := mustParse(t, "asl\n")
	mode := prog.Child(0).Child(0)
	if mode.Kind != ast.AccumulatorMode {
		t.Fatalf("expected AccumulatorMode, got %s", mode.Kind)
	}
}

func TestDirectRegXMode(t *testing.T) {
	prog := mustParse(t, "lda $10,X\n")
	mode := prog.Child(0).Child(0)
	if mode.Kind != ast.DirectRegXMode {
		t.Fatalf("expected DirectRegXMode, got %s", mode.Kind)
	}
}

func TestLabelWithTrailingStatement(t *testing.T) {
	prog := mustParse(t, "start: lda #$01\n")
	stmt := prog.Child(0)
	if stmt.Kind != ast.LabelStatement {
		t.Fatalf("expected LabelStatement, got %s", stmt.Kind)
	}
	if stmt.Child(0).Kind != ast.Label || stmt.Child(0).Datum(0) != "start" {
		t.Fatalf("expected Label(start), got %s %v", stmt.Child(0).Kind, stmt.Child(0).Data)
	}
	if stmt.Child(1).Kind != ast.OpcodeStatement {
		t.Fatalf("expected trailing OpcodeStatement, got %s", stmt.Child(1).Kind)
	}
}

func TestUnnamedLabelStatement(t *testing.T) {
	prog := mustParse(t, ":\n")
	stmt := prog.Child(0)
	if stmt.Kind != ast.LabelStatement || stmt.Child(0).Kind != ast.UnnamedLabel {
		t.Fatalf("expected UnnamedLabel, got %s", stmt.Kind)
	}
}

func TestBranchToUnnamedLabel(t *testing.T) {
	prog := mustParse(t, "bne :-\n")
	mode := prog.Child(0).Child(0)
	if mode.Kind != ast.DirectMode {
		t.Fatalf("expected DirectMode, got %s", mode.Kind)
	}
	jump := mode.Child(0)
	if jump.Kind != ast.LabelJump || jump.Datum(0) != ":-" {
		t.Fatalf("expected LabelJump(:-), got %s %v", jump.Kind, jump.Data)
	}
}

func TestDirectiveByteArgs(t *testing.T) {
	prog := mustParse(t, `.byte "AB", $03` + "\n")
	stmt := prog.Child(0)
	if stmt.Kind != ast.DirectiveStatement || stmt.Datum(0) != ".byte" {
		t.Fatalf("expected DirectiveStatement(.byte), got %s %v", stmt.Kind, stmt.Data)
	}
	args := stmt.Child(0)
	if args.Kind != ast.DirArgs || len(args.Children) != 2 {
		t.Fatalf("expected 2 DirArgs, got %s %d", args.Kind, len(args.Children))
	}
	if args.Child(0).Kind != ast.String || args.Child(0).Datum(0) != "AB" {
		t.Fatalf("expected String(AB), got %s %v", args.Child(0).Kind, args.Child(0).Data)
	}
}

func TestSegmentDirectiveRequiresUppercase(t *testing.T) {
	toks, err := lexer.Lex(`.segment "lower"` + "\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected parse error for lowercase segment name")
	}
}

func TestNumberCanonicalization(t *testing.T) {
	prog := mustParse(t, "a = $10\n")
	rhs := prog.Child(0).Child(0)
	if rhs.Kind != ast.Number || rhs.Datum(0) != "16" {
		t.Fatalf("expected Number(16), got %s %v", rhs.Kind, rhs.Data)
	}
}

func TestWordFormOperators(t *testing.T) {
	prog := mustParse(t, "a = 1 SHL 2\n")
	rhs := prog.Child(0).Child(0)
	if rhs.Kind != ast.BinaryOp || rhs.Datum(0) != "<<" {
		t.Fatalf("expected BinaryOp(<<), got %s %v", rhs.Kind, rhs.Data)
	}
}
