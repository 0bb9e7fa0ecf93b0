// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"
	"testing"

	"github.com/beevik/sasm6502/linkcfg"
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

func mustConfig(t *testing.T) *linkcfg.Configuration {
	t.Helper()
	cfg, err := linkcfg.Parse(testConfig)
	if err != nil {
		t.Fatalf("config parse error: %v", err)
	}
	return cfg
}

func TestAssembleProducesSegmentAndExports(t *testing.T) {
	cfg := mustConfig(t)
	src := ".segment \"CODE\"\nstart: lda #$01\nbne start\n"
	result, err := Assemble(src, "test.s", cfg, ".", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	seg, ok := result.SegmentByName("CODE")
	if !ok {
		t.Fatal("expected CODE segment in result")
	}
	if seg.Start != 0x0000 {
		t.Errorf("expected CODE to start at $0000, got $%04X", seg.Start)
	}
	want := []byte{0xA9, 0x01, 0xD0, 0xFC}
	if string(seg.Data) != string(want) {
		t.Errorf("unexpected CODE bytes: %X, want %X", seg.Data, want)
	}

	found := false
	for _, exp := range result.Exports {
		if exp.Name == "start" && exp.Address == 0x0000 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected export start=$0000, got %+v", result.Exports)
	}
}

func TestAssembleLexErrorIsReported(t *testing.T) {
	cfg := mustConfig(t)
	_, err := Assemble(".segment \"CODE\"\nlda #$01 `\n", "bad.s", cfg, ".", nil)
	if err == nil {
		t.Fatal("expected lex error to propagate")
	}
	if !strings.Contains(err.Error(), "bad.s") {
		t.Errorf("expected error to mention source name, got %v", err)
	}
}

func TestAssembleUndeclaredSegmentIsReported(t *testing.T) {
	cfg := mustConfig(t)
	_, err := Assemble(".segment \"BOGUS\"\nlda #$01\n", "bad.s", cfg, ".", nil)
	if err == nil {
		t.Fatal("expected undeclared-segment error to propagate")
	}
}

func TestResultWriteTo(t *testing.T) {
	cfg := mustConfig(t)
	src := ".segment \"CODE\"\nfoo = $1234\nstart: lda foo\n"
	result, err := Assemble(src, "test.s", cfg, ".", nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var sb strings.Builder
	if _, err := result.WriteTo(&sb); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !strings.Contains(sb.String(), "start") {
		t.Errorf("expected export listing to include start, got %q", sb.String())
	}
}

func TestAssembleVerboseTraceIsCalled(t *testing.T) {
	cfg := mustConfig(t)
	var lines []string
	logf := func(format string, args ...any) {
		lines = append(lines, format)
	}
	src := ".segment \"CODE\"\nlda #$01\n"
	if _, err := Assemble(src, "test.s", cfg, ".", logf); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected verbose trace lines to be emitted")
	}
}
