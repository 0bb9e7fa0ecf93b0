// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package isa is a pure lookup table mapping a 6502 mnemonic and addressing
// mode to its opcode byte and encoded length, grounded on the teacher
// repository's own Instructions/GetInstructions table but trimmed to the 56
// documented NMOS 6502 mnemonics named in the specification (no 65C02
// extensions such as BRA/STZ/PHX).
package isa

import "strings"

// A Mode identifies one of the 6502's addressing modes.
type Mode byte

const (
	IMP Mode = iota // implied / accumulator
	ACC
	IMM // immediate
	REL // relative (branches)
	ZPG // zero page
	ZPX // zero page, X
	ZPY // zero page, Y
	ABS // absolute
	ABX // absolute, X
	ABY // absolute, Y
	IND // indirect
	IDX // indexed indirect (zp,X)
	IDY // indirect indexed (zp),Y
)

var modeNames = [...]string{
	IMP: "IMP", ACC: "ACC", IMM: "IMM", REL: "REL",
	ZPG: "ZPG", ZPX: "ZPX", ZPY: "ZPY",
	ABS: "ABS", ABX: "ABX", ABY: "ABY",
	IND: "IND", IDX: "IDX", IDY: "IDY",
}

func (m Mode) String() string { return modeNames[m] }

// Length returns the number of machine code bytes (opcode + operand) an
// instruction encoded with this mode occupies.
func (m Mode) Length() byte {
	switch m {
	case IMP, ACC:
		return 1
	case IMM, REL, ZPG, ZPX, ZPY, IDX, IDY:
		return 2
	default: // ABS, ABX, ABY, IND
		return 3
	}
}

// An Instruction describes one mnemonic/addressing-mode encoding.
type Instruction struct {
	Name   string // mnemonic, upper case
	Mode   Mode
	Opcode byte
	Length byte
}

type opcodeData struct {
	name   string
	mode   Mode
	opcode byte
}

// data enumerates every legal mnemonic/mode combination of the 56 documented
// NMOS 6502 opcodes, canonical encodings per spec §6 ("opcode byte values
// for all supported mnemonic/addressing-mode combinations MUST equal the
// canonical MOS 6502 encoding").
var data = []opcodeData{
	{"ADC", IMM, 0x69}, {"ADC", ZPG, 0x65}, {"ADC", ZPX, 0x75}, {"ADC", ABS, 0x6D}, {"ADC", ABX, 0x7D}, {"ADC", ABY, 0x79}, {"ADC", IDX, 0x61}, {"ADC", IDY, 0x71},
	{"AND", IMM, 0x29}, {"AND", ZPG, 0x25}, {"AND", ZPX, 0x35}, {"AND", ABS, 0x2D}, {"AND", ABX, 0x3D}, {"AND", ABY, 0x39}, {"AND", IDX, 0x21}, {"AND", IDY, 0x31},
	{"ASL", ACC, 0x0A}, {"ASL", ZPG, 0x06}, {"ASL", ZPX, 0x16}, {"ASL", ABS, 0x0E}, {"ASL", ABX, 0x1E},
	{"BCC", REL, 0x90},
	{"BCS", REL, 0xB0},
	{"BEQ", REL, 0xF0},
	{"BIT", ZPG, 0x24}, {"BIT", ABS, 0x2C},
	{"BMI", REL, 0x30},
	{"BNE", REL, 0xD0},
	{"BPL", REL, 0x10},
	{"BRK", IMP, 0x00},
	{"BVC", REL, 0x50},
	{"BVS", REL, 0x70},
	{"CLC", IMP, 0x18},
	{"CLD", IMP, 0xD8},
	{"CLI", IMP, 0x58},
	{"CLV", IMP, 0xB8},
	{"CMP", IMM, 0xC9}, {"CMP", ZPG, 0xC5}, {"CMP", ZPX, 0xD5}, {"CMP", ABS, 0xCD}, {"CMP", ABX, 0xDD}, {"CMP", ABY, 0xD9}, {"CMP", IDX, 0xC1}, {"CMP", IDY, 0xD1},
	{"CPX", IMM, 0xE0}, {"CPX", ZPG, 0xE4}, {"CPX", ABS, 0xEC},
	{"CPY", IMM, 0xC0}, {"CPY", ZPG, 0xC4}, {"CPY", ABS, 0xCC},
	{"DEC", ZPG, 0xC6}, {"DEC", ZPX, 0xD6}, {"DEC", ABS, 0xCE}, {"DEC", ABX, 0xDE},
	{"DEX", IMP, 0xCA},
	{"DEY", IMP, 0x88},
	{"EOR", IMM, 0x49}, {"EOR", ZPG, 0x45}, {"EOR", ZPX, 0x55}, {"EOR", ABS, 0x4D}, {"EOR", ABX, 0x5D}, {"EOR", ABY, 0x59}, {"EOR", IDX, 0x41}, {"EOR", IDY, 0x51},
	{"INC", ZPG, 0xE6}, {"INC", ZPX, 0xF6}, {"INC", ABS, 0xEE}, {"INC", ABX, 0xFE},
	{"INX", IMP, 0xE8},
	{"INY", IMP, 0xC8},
	{"JMP", ABS, 0x4C}, {"JMP", IND, 0x6C},
	{"JSR", ABS, 0x20},
	{"LDA", IMM, 0xA9}, {"LDA", ZPG, 0xA5}, {"LDA", ZPX, 0xB5}, {"LDA", ABS, 0xAD}, {"LDA", ABX, 0xBD}, {"LDA", ABY, 0xB9}, {"LDA", IDX, 0xA1}, {"LDA", IDY, 0xB1},
	{"LDX", IMM, 0xA2}, {"LDX", ZPG, 0xA6}, {"LDX", ZPY, 0xB6}, {"LDX", ABS, 0xAE}, {"LDX", ABY, 0xBE},
	{"LDY", IMM, 0xA0}, {"LDY", ZPG, 0xA4}, {"LDY", ZPX, 0xB4}, {"LDY", ABS, 0xAC}, {"LDY", ABX, 0xBC},
	{"LSR", ACC, 0x4A}, {"LSR", ZPG, 0x46}, {"LSR", ZPX, 0x56}, {"LSR", ABS, 0x4E}, {"LSR", ABX, 0x5E},
	{"NOP", IMP, 0xEA},
	{"ORA", IMM, 0x09}, {"ORA", ZPG, 0x05}, {"ORA", ZPX, 0x15}, {"ORA", ABS, 0x0D}, {"ORA", ABX, 0x1D}, {"ORA", ABY, 0x19}, {"ORA", IDX, 0x01}, {"ORA", IDY, 0x11},
	{"PHA", IMP, 0x48},
	{"PHP", IMP, 0x08},
	{"PLA", IMP, 0x68},
	{"PLP", IMP, 0x28},
	{"ROL", ACC, 0x2A}, {"ROL", ZPG, 0x26}, {"ROL", ZPX, 0x36}, {"ROL", ABS, 0x2E}, {"ROL", ABX, 0x3E},
	{"ROR", ACC, 0x6A}, {"ROR", ZPG, 0x66}, {"ROR", ZPX, 0x76}, {"ROR", ABS, 0x6E}, {"ROR", ABX, 0x7E},
	{"RTI", IMP, 0x40},
	{"RTS", IMP, 0x60},
	{"SBC", IMM, 0xE9}, {"SBC", ZPG, 0xE5}, {"SBC", ZPX, 0xF5}, {"SBC", ABS, 0xED}, {"SBC", ABX, 0xFD}, {"SBC", ABY, 0xF9}, {"SBC", IDX, 0xE1}, {"SBC", IDY, 0xF1},
	{"SEC", IMP, 0x38},
	{"SED", IMP, 0xF8},
	{"SEI", IMP, 0x78},
	{"STA", ZPG, 0x85}, {"STA", ZPX, 0x95}, {"STA", ABS, 0x8D}, {"STA", ABX, 0x9D}, {"STA", ABY, 0x99}, {"STA", IDX, 0x81}, {"STA", IDY, 0x91},
	{"STX", ZPG, 0x86}, {"STX", ZPY, 0x96}, {"STX", ABS, 0x8E},
	{"STY", ZPG, 0x84}, {"STY", ZPX, 0x94}, {"STY", ABS, 0x8C},
	{"TAX", IMP, 0xAA},
	{"TAY", IMP, 0xA8},
	{"TSX", IMP, 0xBA},
	{"TXA", IMP, 0x8A},
	{"TXS", IMP, 0x9A},
	{"TYA", IMP, 0x98},
}

// variants maps a lowercased mnemonic to every instruction encoding
// registered for it.
var variants map[string][]*Instruction

func init() {
	variants = make(map[string][]*Instruction, 56)
	for _, d := range data {
		inst := &Instruction{
			Name:   d.name,
			Mode:   d.mode,
			Opcode: d.opcode,
			Length: d.mode.Length(),
		}
		key := strings.ToLower(d.name)
		variants[key] = append(variants[key], inst)
	}
}

// IsOpcode reports whether the lowercased lexeme names a known 6502
// mnemonic. The parser uses this to retag an Identifier token as Opcode.
func IsOpcode(lexeme string) bool {
	_, ok := variants[strings.ToLower(lexeme)]
	return ok
}

// Variants returns every encoding registered for the lowercased mnemonic, or
// nil if it is not a known opcode.
func Variants(mnemonic string) []*Instruction {
	return variants[strings.ToLower(mnemonic)]
}

// Encode looks up the opcode byte for a mnemonic/mode pair. ok is false if
// the combination is not a legal 6502 encoding.
func Encode(mnemonic string, mode Mode) (inst *Instruction, ok bool) {
	for _, v := range variants[strings.ToLower(mnemonic)] {
		if v.Mode == mode {
			return v, true
		}
	}
	return nil, false
}

// IsBranch reports whether mnemonic is one of the eight relative-addressed
// branch instructions.
func IsBranch(mnemonic string) bool {
	switch strings.ToUpper(mnemonic) {
	case "BCC", "BCS", "BEQ", "BMI", "BNE", "BPL", "BVC", "BVS":
		return true
	}
	return false
}
