package token

// Directives is the closed set of period-prefixed directive keywords this
// dialect recognizes. Per the Design Note on directive-kind collapsing, every
// one of these lexes to a single Directive Kind carrying its lowercased name
// in Token.Value; the parser and code generator classify by name rather than
// by a per-directive Kind.
//
// This set mirrors the widely used ca65 dialect's directive surface. Not
// every entry is implemented by the code generator (macro expansion,
// conditional assembly, scopes, and struct/enum/repeat blocks are explicit
// non-goals) -- they are still recognized by the lexer so that source using
// them produces a semantic "directive not supported" parse error rather than
// a lex failure, matching the spec's requirement that only a truly unknown
// keyword fails the lex.
var Directives = map[string]bool{
	".a16": true, ".a8": true, ".addr": true, ".align": true,
	".asciiz": true, ".assert": true, ".autoimport": true,
	".bankbytes": true, ".bss": true, ".byt": true, ".byte": true,
	".case": true, ".charmap": true, ".code": true, ".condes": true,
	".constructor": true, ".data": true, ".dbyt": true, ".debuginfo": true,
	".define": true, ".definedsegment": true, ".destructor": true,
	".dword": true, ".else": true, ".elseif": true, ".end": true,
	".endenum": true, ".endif": true, ".endmacro": true, ".endproc": true,
	".endrepeat": true, ".endscope": true, ".endstruct": true,
	".endunion": true, ".enum": true, ".error": true, ".exitmac": true,
	".export": true, ".exportzp": true, ".faraddr": true, ".feature": true,
	".fileopt": true, ".fopt": true, ".forceimport": true, ".global": true,
	".globalzp": true, ".hibytes": true, ".i16": true, ".i8": true,
	".if": true, ".ifblank": true, ".ifconst": true, ".ifdef": true,
	".ifnblank": true, ".ifndef": true, ".ifp02": true, ".ifp4510": true,
	".ifp816": true, ".ifpc02": true, ".ifpsc02": true, ".ifref": true,
	".import": true, ".importzp": true, ".incbin": true, ".include": true,
	".interruptor": true, ".linecont": true, ".list": true,
	".listbytes": true, ".literal": true, ".lobytes": true, ".local": true,
	".localchar": true, ".macpack": true, ".macro": true, ".mod": true,
	".org": true, ".out": true, ".p02": true, ".p4510": true, ".p816": true,
	".pagelen": true, ".pagelength": true, ".popcharmap": true,
	".popcpu": true, ".popseg": true, ".proc": true, ".psc02": true,
	".pushcharmap": true, ".pushcpu": true, ".pushseg": true, ".reloc": true,
	".repeat": true, ".res": true, ".romtype": true, ".scope": true,
	".segment": true, ".set": true, ".setcpu": true, ".smart": true,
	".struct": true, ".tag": true, ".undef": true, ".undefine": true,
	".union": true, ".warning": true, ".word": true, ".zeropage": true,
}

// DataDirectives are directives that emit a sequence of byte-sized or
// multi-byte values from a comma-separated argument list (spec §4.4.2,
// §4.4.3).
var DataDirectives = map[string]int{
	".byte": 1, ".byt": 1,
	".word": 2, ".addr": 2, ".dbyt": 2,
	".dword": 4,
}

// IsSegmentSwitch reports whether name is the segment-switch directive.
func IsSegmentSwitch(name string) bool { return name == ".segment" }

// IsReserve reports whether name reserves uninitialized space.
func IsReserve(name string) bool { return name == ".res" }

// IsIncbin reports whether name includes a raw binary file.
func IsIncbin(name string) bool { return name == ".incbin" }

// IsNonGoal reports whether name belongs to one of the dialect features this
// implementation deliberately does not implement (macro expansion,
// conditional assembly, scopes/namespaces, repeat/enum/struct blocks).
func IsNonGoal(name string) bool {
	switch name {
	case ".macro", ".endmacro", ".exitmac", ".macpack",
		".if", ".ifblank", ".ifconst", ".ifdef", ".ifnblank", ".ifndef",
		".ifp02", ".ifp4510", ".ifp816", ".ifpc02", ".ifpsc02", ".ifref",
		".else", ".elseif", ".endif",
		".scope", ".endscope", ".proc", ".endproc",
		".repeat", ".endrepeat", ".enum", ".endenum",
		".struct", ".endstruct", ".union", ".endunion":
		return true
	}
	return false
}
