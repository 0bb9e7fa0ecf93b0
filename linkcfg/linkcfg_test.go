package linkcfg

import "testing"

const sample = `
MEMORY {
	ZP:   start=$0000, size=$0100, type=rw;
	RAM:  start=$0200, size=$8000, type=rw, define=yes;
	ROM:  start=$C000, size=$4000, type=ro, file="rom.bin", fill=yes, fillval=$FF;
}
SEGMENTS {
	ZEROPAGE: load=ZP, type=zp;
	CODE:     load=RAM, type=rw, start=$0200;
	VECTORS:  load=ROM, type=ro, run=ROM, offset=$3FFA;
}
SYMBOLS  { anything at all ; goes here ; }
FEATURES { ; }
`

func TestParseMemoryAndSegments(t *testing.T) {
	cfg, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Memory) != 3 {
		t.Fatalf("expected 3 memory entries, got %d", len(cfg.Memory))
	}
	if len(cfg.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(cfg.Segments))
	}

	ram, ok := cfg.MemoryByName("RAM")
	if !ok {
		t.Fatal("expected RAM memory entry")
	}
	if ram.Start != 0x0200 || ram.Size != 0x8000 || !ram.Define {
		t.Errorf("unexpected RAM entry: %+v", ram)
	}

	rom, ok := cfg.MemoryByName("ROM")
	if !ok {
		t.Fatal("expected ROM memory entry")
	}
	if rom.File != "rom.bin" || !rom.Fill || rom.FillVal != 0xFF {
		t.Errorf("unexpected ROM entry: %+v", rom)
	}

	code, ok := cfg.SegmentByName("CODE")
	if !ok {
		t.Fatal("expected CODE segment entry")
	}
	if code.Load != "RAM" || code.Type != RW || !code.HasStart || code.Start != 0x0200 {
		t.Errorf("unexpected CODE entry: %+v", code)
	}

	zp, ok := cfg.SegmentByName("ZEROPAGE")
	if !ok {
		t.Fatal("expected ZEROPAGE segment entry")
	}
	if zp.Type != ZP {
		t.Errorf("expected ZP type, got %v", zp.Type)
	}

	vectors, ok := cfg.SegmentByName("VECTORS")
	if !ok {
		t.Fatal("expected VECTORS segment entry")
	}
	if vectors.Run != "ROM" || vectors.Offset != 0x3FFA {
		t.Errorf("unexpected VECTORS entry: %+v", vectors)
	}
}

func TestUnknownMemoryNameNotFound(t *testing.T) {
	cfg, err := Parse(sample)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.MemoryByName("NOPE"); ok {
		t.Error("expected NOPE to be absent")
	}
}

func TestMissingRequiredKeyIsError(t *testing.T) {
	_, err := Parse("MEMORY { RAM: size=$100; }\n")
	if err == nil {
		t.Fatal("expected error for missing start key")
	}
}

func TestUnknownSectionIsError(t *testing.T) {
	_, err := Parse("BOGUS { x=1; }\n")
	if err == nil {
		t.Fatal("expected error for unknown section")
	}
}

func TestUnknownSegmentTypeIsError(t *testing.T) {
	_, err := Parse("MEMORY { RAM: start=0, size=1; }\nSEGMENTS { CODE: load=RAM, type=bogus; }\n")
	if err == nil {
		t.Fatal("expected error for unknown segment type")
	}
}

func TestDecimalAndBinaryValues(t *testing.T) {
	cfg, err := Parse("MEMORY { RAM: start=512, size=%100000000; }\n")
	if err != nil {
		t.Fatal(err)
	}
	ram, _ := cfg.MemoryByName("RAM")
	if ram.Start != 512 || ram.Size != 256 {
		t.Errorf("unexpected decimal/binary parse: %+v", ram)
	}
}
