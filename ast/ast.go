// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast defines the generic syntax tree produced by the parser and
// walked by the code generator.
package ast

// A Kind tags the grammatical role of a Node. The set is closed; see the
// data model section of the specification for the full list.
type Kind byte

const (
	Invalid Kind = iota

	Program
	AssignmentStatement
	DirectiveStatement
	LabelStatement
	OpcodeStatement

	DirArgs

	Label
	LocalLabel
	UnnamedLabel
	LabelJump

	AccumulatorMode
	ImmediateMode
	DirectMode
	DirectRegXMode
	DirectRegYMode
	IndirectXMode
	IndirectYMode
	RelativeMode

	Variable
	Number
	String
	UnaryOp
	BinaryOp
)

var kindNames = [...]string{
	Invalid:              "Invalid",
	Program:              "Program",
	AssignmentStatement:  "AssignmentStatement",
	DirectiveStatement:   "DirectiveStatement",
	LabelStatement:       "LabelStatement",
	OpcodeStatement:      "OpcodeStatement",
	DirArgs:              "DirArgs",
	Label:                "Label",
	LocalLabel:           "LocalLabel",
	UnnamedLabel:         "UnnamedLabel",
	LabelJump:            "LabelJump",
	AccumulatorMode:      "AccumulatorMode",
	ImmediateMode:        "ImmediateMode",
	DirectMode:           "DirectMode",
	DirectRegXMode:       "DirectRegXMode",
	DirectRegYMode:       "DirectRegYMode",
	IndirectXMode:        "IndirectXMode",
	IndirectYMode:        "IndirectYMode",
	RelativeMode:         "RelativeMode",
	Variable:             "Variable",
	Number:               "Number",
	String:               "String",
	UnaryOp:              "UnaryOp",
	BinaryOp:             "BinaryOp",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// A Node is one element of the syntax tree. Data holds lexemes carried
// forward from the token stream (an identifier name, a canonicalized
// numeric literal, an operator symbol, a directive keyword); Children is an
// ordered list whose order is semantic (for example, a BinaryOp's two
// children are [left, right]).
type Node struct {
	Kind     Kind
	Data     []string
	Children []*Node
	Line     int // source line the node was parsed from, for diagnostics
}

// New creates a childless, dataless node of the given kind.
func New(kind Kind, line int) *Node {
	return &Node{Kind: kind, Line: line}
}

// AddChild appends a child node and returns the receiver for chaining.
func (n *Node) AddChild(c *Node) *Node {
	n.Children = append(n.Children, c)
	return n
}

// AddData appends a lexeme to the node's data list and returns the receiver.
func (n *Node) AddData(s string) *Node {
	n.Data = append(n.Data, s)
	return n
}

// Child returns the i'th child, or nil if it doesn't exist.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Datum returns the i'th data string, or "" if it doesn't exist.
func (n *Node) Datum(i int) string {
	if i < 0 || i >= len(n.Data) {
		return ""
	}
	return n.Data[i]
}

// Dump writes a human-readable, indented representation of the tree to fn,
// one line per node. It is used by the driver package to produce the
// informational AST dump alongside assembled output.
func (n *Node) Dump(fn func(string, ...any)) {
	n.dump(fn, 0)
}

func (n *Node) dump(fn func(string, ...any), depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fn("%s%s %v  (line %d)", indent, n.Kind, n.Data, n.Line)
	for _, c := range n.Children {
		c.dump(fn, depth+1)
	}
}
