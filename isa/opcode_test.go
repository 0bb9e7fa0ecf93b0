package isa

import "testing"

func TestCanonicalEncodings(t *testing.T) {
	cases := []struct {
		mnemonic string
		mode     Mode
		opcode   byte
	}{
		{"lda", IMM, 0xA9},
		{"jmp", ABS, 0x4C},
		{"bne", REL, 0xD0},
		{"sta", ZPG, 0x85},
		{"adc", IDX, 0x61},
		{"adc", IDY, 0x71},
		{"asl", ACC, 0x0A},
		{"brk", IMP, 0x00},
	}
	for _, c := range cases {
		inst, ok := Encode(c.mnemonic, c.mode)
		if !ok {
			t.Errorf("Encode(%s, %s): no match", c.mnemonic, c.mode)
			continue
		}
		if inst.Opcode != c.opcode {
			t.Errorf("Encode(%s, %s) = %#02x, want %#02x", c.mnemonic, c.mode, inst.Opcode, c.opcode)
		}
	}
}

func TestIsOpcode(t *testing.T) {
	if !IsOpcode("LDA") || !IsOpcode("lda") {
		t.Error("expected lda to be recognized as an opcode")
	}
	if IsOpcode("foo") {
		t.Error("did not expect foo to be recognized as an opcode")
	}
	if len(variants) != 56 {
		t.Errorf("expected 56 mnemonics, got %d", len(variants))
	}
}

func TestUnsupportedMode(t *testing.T) {
	if _, ok := Encode("jmp", ZPG); ok {
		t.Error("jmp has no zero-page mode")
	}
}
