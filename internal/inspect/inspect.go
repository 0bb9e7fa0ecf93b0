// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inspect implements an interactive, read-only REPL for browsing
// the result of a completed assembly: its token stream, its AST, and its
// finished segments and exports. It is reachable from the CLI's -inspect
// flag and is purely informational; nothing it does affects assembled
// output.
package inspect

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/sasm6502/asm"
	"github.com/beevik/sasm6502/ast"
	"github.com/beevik/sasm6502/token"
)

// An Inspector holds the state browsed by the REPL: the token stream, the
// parsed AST, and the finished assembly result.
type Inspector struct {
	Tokens []token.Token
	Prog   *ast.Node
	Result *asm.Result

	in     *bufio.Scanner
	out    *bufio.Writer
	tree   *cmd.Tree
	lastCmd *cmd.Selection
}

// New creates an Inspector ready to run against a completed assembly.
func New(toks []token.Token, prog *ast.Node, result *asm.Result) *Inspector {
	insp := &Inspector{Tokens: toks, Prog: prog, Result: result}
	insp.tree = buildTree()
	return insp
}

func buildTree() *cmd.Tree {
	root := cmd.NewTree("sasm6502-inspect")
	root.AddCommand(cmd.Command{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Inspector).cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:        "tokens",
		Brief:       "List the lexed token stream",
		Description: "Print every token produced by the lexer, in source order.",
		Usage:       "tokens",
		Data:        (*Inspector).cmdTokens,
	})
	root.AddCommand(cmd.Command{
		Name:        "ast",
		Brief:       "Dump the parsed syntax tree",
		Description: "Print the parsed AST as an indented tree.",
		Usage:       "ast",
		Data:        (*Inspector).cmdAST,
	})
	root.AddCommand(cmd.Command{
		Name:        "segments",
		Brief:       "List assembled segments",
		Description: "Print every segment's name, address mode, load address, and size.",
		Usage:       "segments",
		Data:        (*Inspector).cmdSegments,
	})
	root.AddCommand(cmd.Command{
		Name:        "exports",
		Brief:       "List resolved label addresses",
		Description: "Print every exported label, sorted by address.",
		Usage:       "exports",
		Data:        (*Inspector).cmdExports,
	})
	root.AddCommand(cmd.Command{
		Name:        "quit",
		Brief:       "Exit the inspector",
		Description: "Exit the inspector.",
		Usage:       "quit",
		Data:        (*Inspector).cmdQuit,
	})
	return root
}

var errQuit = fmt.Errorf("quit")

// Run reads REPL commands from r and writes output to w until the user
// quits or the input is exhausted.
func (insp *Inspector) Run(r io.Reader, w io.Writer) error {
	insp.in = bufio.NewScanner(r)
	insp.out = bufio.NewWriter(w)
	defer insp.out.Flush()

	for {
		insp.out.WriteString("inspect> ")
		insp.out.Flush()

		if !insp.in.Scan() {
			return nil
		}
		line := strings.TrimSpace(insp.in.Text())

		var c cmd.Selection
		if line != "" {
			var err error
			c, err = insp.tree.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				insp.printf("Command not found.\n")
				continue
			case err == cmd.ErrAmbiguous:
				insp.printf("Command is ambiguous.\n")
				continue
			case err != nil:
				insp.printf("ERROR: %v.\n", err)
				continue
			}
		} else if insp.lastCmd != nil {
			c = *insp.lastCmd
		}

		if c.Command == nil {
			continue
		}
		insp.lastCmd = &c

		handler := c.Command.Data.(func(*Inspector, cmd.Selection) error)
		if err := handler(insp, c); err != nil {
			if err == errQuit {
				return nil
			}
			return err
		}
	}
}

func (insp *Inspector) printf(format string, args ...any) {
	fmt.Fprintf(insp.out, format, args...)
	insp.out.Flush()
}

func (insp *Inspector) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		for _, child := range insp.tree.Commands {
			insp.printf("%-10s %s\n", child.Name, child.Brief)
		}
		return nil
	}
	s, err := insp.tree.Lookup(strings.Join(c.Args, " "))
	if err != nil {
		insp.printf("Command not found.\n")
		return nil
	}
	insp.printf("usage: %s\n%s\n", s.Command.Usage, s.Command.Description)
	return nil
}

func (insp *Inspector) cmdTokens(c cmd.Selection) error {
	for _, tok := range insp.Tokens {
		insp.printf("%5d  %-12s %q\n", tok.Line, tok.Kind, tok.Value)
	}
	return nil
}

func (insp *Inspector) cmdAST(c cmd.Selection) error {
	insp.Prog.Dump(func(format string, args ...any) {
		insp.printf(format+"\n", args...)
	})
	return nil
}

func (insp *Inspector) cmdSegments(c cmd.Selection) error {
	for _, seg := range insp.Result.Segments {
		insp.printf("%-10s %-8s start=$%04X size=%d\n", seg.Name, seg.AddressMode, seg.Start, len(seg.Data))
	}
	return nil
}

func (insp *Inspector) cmdExports(c cmd.Selection) error {
	exports := append([]asm.Export(nil), insp.Result.Exports...)
	sort.Slice(exports, func(i, j int) bool { return exports[i].Address < exports[j].Address })
	for _, exp := range exports {
		insp.printf("$%04X  %s\n", exp.Address, exp.Name)
	}
	return nil
}

func (insp *Inspector) cmdQuit(c cmd.Selection) error {
	return errQuit
}
