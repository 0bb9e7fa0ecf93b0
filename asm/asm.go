// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm drives the full lexer -> parser -> codegen pipeline over a
// single assembly source file and collects its result into linkable
// segments and a resolved export table.
package asm

import (
	"fmt"
	"io"
	"sort"

	"github.com/beevik/sasm6502/codegen"
	"github.com/beevik/sasm6502/lexer"
	"github.com/beevik/sasm6502/linkcfg"
	"github.com/beevik/sasm6502/parser"
)

// A SegmentResult is one segment's finished byte image, annotated with the
// memory configuration data needed to locate it once linked.
type SegmentResult struct {
	Name        string
	AddressMode codegen.AddressMode
	Start       uint16
	Data        []byte
}

// An Export is a named address resolved by the code generator: either a
// user-declared label or an unnamed-label synthesized key.
type Export struct {
	Name    string
	Address uint16
}

// A Result is everything produced by assembling one source file: its
// segment images in declaration order, and the full export table sorted by
// address.
type Result struct {
	Segments []SegmentResult
	Exports  []Export
}

// SegmentByName returns the named segment's result, if present.
func (r *Result) SegmentByName(name string) (SegmentResult, bool) {
	for _, seg := range r.Segments {
		if seg.Name == name {
			return seg, true
		}
	}
	return SegmentResult{}, false
}

// WriteTo renders the export table as a sorted, human-readable symbol
// listing, one "ADDRESS  NAME" line per export, in the manner of the
// ".map" sidecar files ca65-style toolchains write alongside a linked
// binary.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, exp := range r.Exports {
		n, err := fmt.Fprintf(w, "%04X  %s\n", exp.Address, exp.Name)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Assemble lexes, parses, and generates code for source (named sourceName
// for diagnostics) against the supplied linker configuration. includeDir is
// the directory .incbin file arguments are resolved relative to. When logf
// is non-nil, a section-delimited diagnostic trace of all three compiler
// stages is sent to it.
func Assemble(source string, sourceName string, cfg *linkcfg.Configuration, includeDir string, logf func(format string, args ...any)) (*Result, error) {
	log := func(format string, args ...any) {
		if logf != nil {
			logf(format, args...)
		}
	}

	log("=== lexing %s ===", sourceName)
	toks, err := lexer.Lex(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourceName, err)
	}
	log("%d tokens", len(toks))

	log("=== parsing %s ===", sourceName)
	prog, err := parser.Parse(toks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourceName, err)
	}
	if logf != nil {
		prog.Dump(logf)
	}

	log("=== generating code for %s ===", sourceName)
	ctx := codegen.NewContext(cfg, includeDir)
	ctx.Logf = logf
	if err := codegen.Generate(ctx, prog); err != nil {
		return nil, fmt.Errorf("%s: %w", sourceName, err)
	}

	result, err := buildResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourceName, err)
	}

	if logf != nil {
		ctx.DumpSegments(logf)
		for _, seg := range result.Segments {
			logf("segment %q @ $%04X: %s", seg.Name, seg.Start, byteString(seg.Data))
		}
	}
	return result, nil
}

// buildResult resolves every segment's load address and every declared
// label's final address once the three walks have completed.
func buildResult(ctx *codegen.Context) (*Result, error) {
	result := &Result{}
	for _, seg := range ctx.Segments {
		start, err := ctx.SegmentStart(seg.Name)
		if err != nil {
			return nil, err
		}
		result.Segments = append(result.Segments, SegmentResult{
			Name:        seg.Name,
			AddressMode: seg.AddressMode,
			Start:       start,
			Data:        seg.Bytes(),
		})
	}

	for name := range ctx.Labels {
		addr, err := ctx.ResolveAddress(name)
		if err != nil {
			return nil, err
		}
		result.Exports = append(result.Exports, Export{Name: name, Address: addr})
	}
	sort.Slice(result.Exports, func(i, j int) bool {
		if result.Exports[i].Address != result.Exports[j].Address {
			return result.Exports[i].Address < result.Exports[j].Address
		}
		return result.Exports[i].Name < result.Exports[j].Name
	})

	return result, nil
}
