package asm

import "fmt"

// TokenKind identifies the category of a scanned token.
type TokenKind int

const (
	EndOfFile TokenKind = iota // sentinel: end of input

	Instruction       // "add", "sub", "lui", etc.
	Pseudoinstruction // "mv", "li", "nop", etc.
	Directive         // ".word", ".text", ".global", ...
	Identifier        // label names and symbol references
	Register          // "x0".."x31" and ABI aliases
	Number            // decimal or hex numeral, raw text preserved
	String            // double-quoted literal
	Comma             // ,
	Colon             // :
	LParen            // (
	RParen            // )
	Newline           // end of a physical line
)

var tokenKindNames = [...]string{
	EndOfFile:         "EndOfFile",
	Instruction:       "Instruction",
	Pseudoinstruction: "Pseudoinstruction",
	Directive:         "Directive",
	Identifier:        "Identifier",
	Register:          "Register",
	Number:            "Number",
	String:            "String",
	Comma:             "Comma",
	Colon:             "Colon",
	LParen:            "LParen",
	RParen:            "RParen",
	Newline:           "Newline",
}

func (k TokenKind) String() string {
	if int(k) >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Base distinguishes how a Number token was spelled.
type Base int

const (
	Dec Base = iota
	Hex
)

func (b Base) String() string {
	if b == Hex {
		return "Hex"
	}
	return "Dec"
}

// SourceLocation is a 1-based position in the source text. It is attached to
// every token and every error.
type SourceLocation struct {
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("line %d, column %d", l.Line, l.Column)
}

// Token is a single lexical unit. Text holds the exact source spelling for
// kinds that carry one; Base is meaningful only when Kind is Number.
type Token struct {
	Kind TokenKind
	Base Base
	Text string
	Loc  SourceLocation
}

func (t Token) String() string {
	if t.Kind == Number {
		return fmt.Sprintf("%s(%s) %-10q  %s", t.Kind, t.Base, t.Text, t.Loc)
	}
	return fmt.Sprintf("%-10s %-10q  %s", t.Kind, t.Text, t.Loc)
}
