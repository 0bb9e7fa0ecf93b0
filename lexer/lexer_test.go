package lexer

import (
	"testing"

	"github.com/beevik/sasm6502/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func checkKinds(t *testing.T, src string, want ...token.Kind) {
	t.Helper()
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): unexpected error: %v", src, err)
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("Lex(%q) = %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Lex(%q)[%d] = %v, want %v", src, i, got[i], want[i])
		}
	}
}

func TestRequiresTrailingNewline(t *testing.T) {
	if _, err := Lex("lda #1"); err == nil {
		t.Fatal("expected error for missing trailing newline")
	}
}

func TestBasicTokens(t *testing.T) {
	checkKinds(t, "lda #$10\n",
		token.Identifier, token.Hash, token.HexNumber, token.Newline, token.EndOfFile)
}

func TestDecimalAndBinary(t *testing.T) {
	checkKinds(t, "42 %1010\n",
		token.DecNumber, token.BinNumber, token.Newline, token.EndOfFile)
}

func TestDirective(t *testing.T) {
	checkKinds(t, ".byte 1, 2\n",
		token.Directive, token.DecNumber, token.Comma, token.DecNumber, token.Newline, token.EndOfFile)
}

func TestUnknownDirectiveIsError(t *testing.T) {
	if _, err := Lex(".bogus\n"); err == nil {
		t.Fatal("expected unknown directive error")
	}
}

func TestLocalLabel(t *testing.T) {
	checkKinds(t, "@loop\n", token.LocalLabel, token.Newline, token.EndOfFile)
}

func TestRegisterReclassification(t *testing.T) {
	toks, err := Lex("lda $10,X\n")
	if err != nil {
		t.Fatal(err)
	}
	if toks[3].Kind != token.XRegister {
		t.Errorf("expected XRegister, got %v", toks[3].Kind)
	}
}

func TestUnnamedLabelReferences(t *testing.T) {
	toks, err := Lex(":\nbeq :+\nbeq :--\n")
	if err != nil {
		t.Fatal(err)
	}
	var refs []string
	for _, tk := range toks {
		if tk.Kind == token.ULabel {
			refs = append(refs, tk.Value)
		}
	}
	if len(refs) != 2 || refs[0] != ":+" || refs[1] != ":--" {
		t.Errorf("unexpected unnamed label refs: %v", refs)
	}
}

func TestTwoCharOperators(t *testing.T) {
	checkKinds(t, "a = b << c >> d\n",
		token.Identifier, token.Eq, token.Identifier, token.Shl, token.Identifier,
		token.Shr, token.Identifier, token.Newline, token.EndOfFile)
}

func TestRelationalOperators(t *testing.T) {
	checkKinds(t, "a <> b <= c >= d\n",
		token.Identifier, token.NotEq, token.Identifier, token.LtEq, token.Identifier,
		token.GtEq, token.Identifier, token.Newline, token.EndOfFile)
}

func TestCommentsAndWhitespaceDiscarded(t *testing.T) {
	checkKinds(t, "  lda #1   ; load it\n",
		token.Identifier, token.Hash, token.DecNumber, token.Newline, token.EndOfFile)
}

func TestStringLiteral(t *testing.T) {
	checkKinds(t, `.byte "hi"` + "\n",
		token.Directive, token.StringConst, token.Newline, token.EndOfFile)
}

func TestUnterminatedString(t *testing.T) {
	if _, err := Lex(".byte \"hi\n"); err == nil {
		t.Fatal("expected unterminated string error")
	}
}

func TestUnrecognizedCharacter(t *testing.T) {
	if _, err := Lex("lda #1 ` \n"); err == nil {
		t.Fatal("expected unrecognized character error")
	}
}

func TestMonotonePositions(t *testing.T) {
	toks, err := Lex("lda #$10\nsta $20\n")
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(toks); i++ {
		if toks[i].Start < toks[i-1].Start {
			t.Fatalf("token positions not monotone at %d: %v then %v", i, toks[i-1], toks[i])
		}
	}
}
