// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sasm6502 assembles a single 6502 assembly source file against a
// linker configuration file and writes the resulting binary image.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/sasm6502/asm"
	"github.com/beevik/sasm6502/internal/inspect"
	"github.com/beevik/sasm6502/lexer"
	"github.com/beevik/sasm6502/linkcfg"
	"github.com/beevik/sasm6502/parser"
)

var (
	cfgPath = flag.String("cfg", "", "Linker configuration file (MEMORY/SEGMENTS)")
	outPath = flag.String("o", "", "Output binary file (defaults to the source file's name with a .bin extension)")
	verbose = flag.Bool("v", false, "Verbose diagnostic trace of lex/parse/codegen")
	dump    = flag.Bool("dump", false, "Write a .map export listing next to the output binary")
	inspFlag = flag.Bool("inspect", false, "Start an interactive inspector after a successful assembly")
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 || *cfgPath == "" {
		fmt.Println("Syntax: sasm6502 [options] file.s")
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if err := run(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(sourcePath string) error {
	cfgData, err := os.ReadFile(*cfgPath)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	cfg, err := linkcfg.Parse(string(cfgData))
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	srcData, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	var logf func(string, ...any)
	if *verbose {
		logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	includeDir := filepath.Dir(sourcePath)
	result, err := asm.Assemble(string(srcData), sourcePath, cfg, includeDir, logf)
	if err != nil {
		return err
	}

	outFile := *outPath
	if outFile == "" {
		ext := filepath.Ext(sourcePath)
		outFile = sourcePath[:len(sourcePath)-len(ext)] + ".bin"
	}
	if err := writeBinary(result, outFile); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", outFile)

	if *dump {
		mapFile := outFile[:len(outFile)-len(filepath.Ext(outFile))] + ".map"
		f, err := os.OpenFile(mapFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("creating map file: %w", err)
		}
		defer f.Close()
		if _, err := result.WriteTo(f); err != nil {
			return fmt.Errorf("writing map file: %w", err)
		}
		fmt.Printf("Wrote %s\n", mapFile)
	}

	if *inspFlag {
		toks, err := lexer.Lex(string(srcData))
		if err != nil {
			return err
		}
		prog, err := parser.Parse(toks)
		if err != nil {
			return err
		}
		insp := inspect.New(toks, prog, result)
		return insp.Run(os.Stdin, os.Stdout)
	}

	return nil
}

// writeBinary concatenates every segment's bytes, in declaration order,
// into a single flat image.
func writeBinary(result *asm.Result, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, seg := range result.Segments {
		if _, err := f.Write(seg.Data); err != nil {
			return err
		}
	}
	return nil
}
