// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linkcfg parses a linker configuration file describing MEMORY and
// SEGMENTS regions, in the fstring-cursor style of the teacher repository's
// own assembler line scanner, generalized into a standalone recursive
// scanner over the config grammar.
package linkcfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// SegmentKind identifies the storage category of a SEGMENTS entry.
type SegmentKind byte

const (
	RO SegmentKind = iota
	RW
	BSS
	ZP
	OVERWRITE
)

func parseSegmentKind(s string) (SegmentKind, bool) {
	switch strings.ToLower(s) {
	case "ro":
		return RO, true
	case "rw":
		return RW, true
	case "bss":
		return BSS, true
	case "zp":
		return ZP, true
	case "overwrite":
		return OVERWRITE, true
	}
	return 0, false
}

// A MemoryEntry describes one named region declared in the MEMORY section.
type MemoryEntry struct {
	Name    string
	Start   uint16
	Size    uint16
	Type    string // "ro", "rw", or "" if unset
	File    string
	Define  bool
	Fill    bool
	FillVal byte
}

// A SegmentEntry describes one named region declared in the SEGMENTS
// section, mapped onto a MemoryEntry by Load/Run.
type SegmentEntry struct {
	Name      string
	Load      string
	Type      SegmentKind
	Define    bool
	Align     uint16
	Start     uint16
	HasStart  bool
	Run       string
	Offset    uint16
	FillVal   byte
	AlignLoad bool
}

// A Configuration is the parsed form of a linker configuration file,
// queryable by name. SYMBOLS and FEATURES sections are recognized by the
// scanner but their contents are discarded; neither is required by the code
// generator.
type Configuration struct {
	Memory   []*MemoryEntry
	Segments []*SegmentEntry

	memByName *prefixtree.Tree[*MemoryEntry]
	segByName *prefixtree.Tree[*SegmentEntry]
}

// MemoryByName looks up a MEMORY entry by exact name, ignoring case. ok is
// false if no such entry was declared.
func (c *Configuration) MemoryByName(name string) (*MemoryEntry, bool) {
	m, err := c.memByName.FindValue(strings.ToUpper(name))
	if err != nil || !strings.EqualFold(m.Name, name) {
		return nil, false
	}
	return m, true
}

// SegmentByName looks up a SEGMENTS entry by exact name, ignoring case. ok
// is false if no such entry was declared.
func (c *Configuration) SegmentByName(name string) (*SegmentEntry, bool) {
	s, err := c.segByName.FindValue(strings.ToUpper(name))
	if err != nil || !strings.EqualFold(s.Name, name) {
		return nil, false
	}
	return s, true
}

// An Error describes a fatal configuration parse failure.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config line %d: %s", e.Line, e.Msg)
}

// cursor scans the configuration text, tracking the running line number.
// The grammar uses ';' as an entry terminator rather than a comment
// introducer, an idiosyncrasy of this dialect preserved deliberately.
type cursor struct {
	src  string
	pos  int
	line int
}

func (c *cursor) eof() bool { return c.pos >= len(c.src) }

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) advance() byte {
	ch := c.src[c.pos]
	c.pos++
	if ch == '\n' {
		c.line++
	}
	return ch
}

func (c *cursor) skipSpace() {
	for !c.eof() {
		switch c.peek() {
		case ' ', '\t', '\r', '\n':
			c.advance()
		default:
			return
		}
	}
}

func isIdentChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// ident scans a bare identifier (section name, entry name, key, or bareword
// value such as "yes"/"ro").
func (c *cursor) ident() string {
	start := c.pos
	for !c.eof() && isIdentChar(c.peek()) {
		c.advance()
	}
	return c.src[start:c.pos]
}

// rawNumber scans the raw text of a $hex, %bin, or decimal numeric
// literal (prefix included) without interpreting its value, for storage
// as a key/value pair pending later numeric parsing.
func (c *cursor) rawNumber() string {
	start := c.pos
	switch c.peek() {
	case '$':
		c.advance()
		for !c.eof() && isHexDigit(c.peek()) {
			c.advance()
		}
	case '%':
		c.advance()
		for !c.eof() && (c.peek() == '0' || c.peek() == '1') {
			c.advance()
		}
	default:
		for !c.eof() && c.peek() >= '0' && c.peek() <= '9' {
			c.advance()
		}
	}
	return c.src[start:c.pos]
}

// number scans a $hex, %bin, or decimal numeric literal.
func (c *cursor) number() (uint16, error) {
	line := c.line
	switch c.peek() {
	case '$':
		c.advance()
		start := c.pos
		for !c.eof() && isHexDigit(c.peek()) {
			c.advance()
		}
		if c.pos == start {
			return 0, &Error{line, "invalid hexadecimal value"}
		}
		n, err := strconv.ParseUint(c.src[start:c.pos], 16, 32)
		if err != nil {
			return 0, &Error{line, "hexadecimal value out of range"}
		}
		return uint16(n), nil
	case '%':
		c.advance()
		start := c.pos
		for !c.eof() && (c.peek() == '0' || c.peek() == '1') {
			c.advance()
		}
		if c.pos == start {
			return 0, &Error{line, "invalid binary value"}
		}
		n, err := strconv.ParseUint(c.src[start:c.pos], 2, 32)
		if err != nil {
			return 0, &Error{line, "binary value out of range"}
		}
		return uint16(n), nil
	default:
		start := c.pos
		for !c.eof() && c.peek() >= '0' && c.peek() <= '9' {
			c.advance()
		}
		if c.pos == start {
			return 0, &Error{line, "expected a numeric value"}
		}
		n, err := strconv.ParseUint(c.src[start:c.pos], 10, 32)
		if err != nil {
			return 0, &Error{line, "decimal value out of range"}
		}
		return uint16(n), nil
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// quotedString scans a double-quoted string value, returning its contents
// without the surrounding quotes.
func (c *cursor) quotedString() (string, error) {
	line := c.line
	if c.peek() != '"' {
		return "", &Error{line, "expected a quoted string"}
	}
	c.advance()
	start := c.pos
	for {
		if c.eof() || c.peek() == '\n' {
			return "", &Error{line, "unterminated string"}
		}
		if c.peek() == '"' {
			s := c.src[start:c.pos]
			c.advance()
			return s, nil
		}
		c.advance()
	}
}

// Parse scans linker configuration text into a Configuration. Section
// order is unconstrained; a repeated MEMORY or SEGMENTS section adds its
// entries to those already read. SYMBOLS and FEATURES sections are
// recognized and skipped.
func Parse(source string) (*Configuration, error) {
	c := &cursor{src: source, line: 1}
	cfg := &Configuration{
		memByName: prefixtree.New[*MemoryEntry](),
		segByName: prefixtree.New[*SegmentEntry](),
	}

	for {
		c.skipSpace()
		if c.eof() {
			break
		}
		section := c.ident()
		if section == "" {
			return nil, &Error{c.line, fmt.Sprintf("unexpected character %q", c.peek())}
		}
		c.skipSpace()
		if c.peek() != '{' {
			return nil, &Error{c.line, "expected '{' after section name"}
		}
		c.advance()

		switch strings.ToUpper(section) {
		case "MEMORY":
			if err := parseMemorySection(c, cfg); err != nil {
				return nil, err
			}
		case "SEGMENTS":
			if err := parseSegmentsSection(c, cfg); err != nil {
				return nil, err
			}
		case "SYMBOLS", "FEATURES":
			if err := skipSection(c); err != nil {
				return nil, err
			}
		default:
			return nil, &Error{c.line, fmt.Sprintf("unknown section %q", section)}
		}
	}

	for _, m := range cfg.Memory {
		cfg.memByName.Add(strings.ToUpper(m.Name), m)
	}
	for _, s := range cfg.Segments {
		cfg.segByName.Add(strings.ToUpper(s.Name), s)
	}

	return cfg, nil
}

// skipSection consumes tokens up to and including the section's closing
// '}', discarding SYMBOLS/FEATURES content verbatim.
func skipSection(c *cursor) error {
	depth := 1
	for depth > 0 {
		if c.eof() {
			return &Error{c.line, "unterminated section"}
		}
		switch c.advance() {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return nil
}

// readKeyValues reads the `key1=val1, key2=val2, ...` tail of an entry up
// to its terminating ';', returning the raw key/value pairs for the caller
// to interpret.
func readKeyValues(c *cursor) (map[string]string, error) {
	kv := make(map[string]string)
	for {
		c.skipSpace()
		if c.eof() {
			return nil, &Error{c.line, "unterminated entry"}
		}
		if c.peek() == ';' {
			c.advance()
			return kv, nil
		}
		key := c.ident()
		if key == "" {
			return nil, &Error{c.line, fmt.Sprintf("expected a key, found %q", c.peek())}
		}
		c.skipSpace()
		if c.peek() != '=' {
			return nil, &Error{c.line, "expected '=' after key"}
		}
		c.advance()
		c.skipSpace()

		var val string
		var err error
		switch {
		case c.peek() == '"':
			val, err = c.quotedString()
		case c.peek() == '$' || c.peek() == '%' || (c.peek() >= '0' && c.peek() <= '9'):
			val = c.rawNumber()
		default:
			val = c.ident()
			if val == "" {
				return nil, &Error{c.line, fmt.Sprintf("expected a value for %q", key)}
			}
		}
		if err != nil {
			return nil, err
		}
		kv[strings.ToLower(key)] = val

		c.skipSpace()
		if c.peek() == ',' {
			c.advance()
		}
	}
}

func parseNumericValue(s string, line int) (uint16, error) {
	c := &cursor{src: s, line: line}
	n, err := c.number()
	if err != nil {
		return 0, err
	}
	if !c.eof() {
		return 0, &Error{line, fmt.Sprintf("unexpected trailing characters in %q", s)}
	}
	return n, nil
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "yes")
}

func parseMemorySection(c *cursor, cfg *Configuration) error {
	for {
		c.skipSpace()
		if c.eof() {
			return &Error{c.line, "unterminated MEMORY section"}
		}
		if c.peek() == '}' {
			c.advance()
			return nil
		}
		line := c.line
		name := c.ident()
		if name == "" {
			return &Error{line, fmt.Sprintf("expected a memory name, found %q", c.peek())}
		}
		c.skipSpace()
		if c.peek() != ':' {
			return &Error{line, "expected ':' after memory name"}
		}
		c.advance()

		kv, err := readKeyValues(c)
		if err != nil {
			return err
		}

		m := &MemoryEntry{Name: name}
		if v, ok := kv["start"]; ok {
			if m.Start, err = parseNumericValue(v, line); err != nil {
				return err
			}
		} else {
			return &Error{line, fmt.Sprintf("memory %q missing required key \"start\"", name)}
		}
		if v, ok := kv["size"]; ok {
			if m.Size, err = parseNumericValue(v, line); err != nil {
				return err
			}
		} else {
			return &Error{line, fmt.Sprintf("memory %q missing required key \"size\"", name)}
		}
		if v, ok := kv["type"]; ok {
			m.Type = strings.ToLower(v)
		}
		if v, ok := kv["file"]; ok {
			m.File = v
		}
		if v, ok := kv["define"]; ok {
			m.Define = parseBool(v)
		}
		if v, ok := kv["fill"]; ok {
			m.Fill = parseBool(v)
		}
		if v, ok := kv["fillval"]; ok {
			n, err := parseNumericValue(v, line)
			if err != nil {
				return err
			}
			m.FillVal = byte(n)
		}

		cfg.Memory = append(cfg.Memory, m)
	}
}

func parseSegmentsSection(c *cursor, cfg *Configuration) error {
	for {
		c.skipSpace()
		if c.eof() {
			return &Error{c.line, "unterminated SEGMENTS section"}
		}
		if c.peek() == '}' {
			c.advance()
			return nil
		}
		line := c.line
		name := c.ident()
		if name == "" {
			return &Error{line, fmt.Sprintf("expected a segment name, found %q", c.peek())}
		}
		c.skipSpace()
		if c.peek() != ':' {
			return &Error{line, "expected ':' after segment name"}
		}
		c.advance()

		kv, err := readKeyValues(c)
		if err != nil {
			return err
		}

		s := &SegmentEntry{Name: name}
		if v, ok := kv["load"]; ok {
			s.Load = v
		} else {
			return &Error{line, fmt.Sprintf("segment %q missing required key \"load\"", name)}
		}
		if v, ok := kv["type"]; ok {
			kind, ok := parseSegmentKind(v)
			if !ok {
				return &Error{line, fmt.Sprintf("segment %q has unknown type %q", name, v)}
			}
			s.Type = kind
		} else {
			return &Error{line, fmt.Sprintf("segment %q missing required key \"type\"", name)}
		}
		if v, ok := kv["define"]; ok {
			s.Define = parseBool(v)
		}
		if v, ok := kv["align"]; ok {
			if s.Align, err = parseNumericValue(v, line); err != nil {
				return err
			}
		}
		if v, ok := kv["start"]; ok {
			if s.Start, err = parseNumericValue(v, line); err != nil {
				return err
			}
			s.HasStart = true
		}
		if v, ok := kv["run"]; ok {
			s.Run = v
		}
		if v, ok := kv["offset"]; ok {
			if s.Offset, err = parseNumericValue(v, line); err != nil {
				return err
			}
		}
		if v, ok := kv["fillval"]; ok {
			n, err := parseNumericValue(v, line)
			if err != nil {
				return err
			}
			s.FillVal = byte(n)
		}
		if v, ok := kv["align_load"]; ok {
			s.AlignLoad = parseBool(v)
		}

		cfg.Segments = append(cfg.Segments, s)
	}
}
