package asm

import (
	"fmt"
	"strconv"
)

// ADDI takes a signed 12-bit immediate, LUI an unsigned 20-bit one.
const (
	immMin12 = -0x800
	immMax12 = 0x7FF
	immMax20 = 0xFFFFF
)

// ItemKind discriminates the parsed-item variants.
type ItemKind int

const (
	ItemInstruction ItemKind = iota // one native instruction (4 bytes)
	ItemWord                        // .word payload (4 bytes, literal or symbol)
	ItemBytes                       // raw data bytes, already word-padded
)

// ImmMod selects which slice of a symbol's resolved value an immediate field
// takes. The li expansion splits a 32-bit value across lui (upper 20 bits,
// rounded) and addi (sign-extended low 12 bits).
type ImmMod int

const (
	ModNone ImmMod = iota
	ModHi20
	ModLo12
)

// Operand is an immediate-position operand: either a numeric literal or a
// symbol reference resolved at code generation. Loc points at the operand's
// own source position for encoding-stage diagnostics.
type Operand struct {
	Sym string // symbol name; empty for a literal
	Val int64  // literal value; unused when Sym is set
	Mod ImmMod
	Loc SourceLocation
}

// Item is one assembled unit in program order. Pseudo-instructions are gone
// by the time Items exist; every ItemInstruction is a native lui/addi/add/sub.
// Addr is attached later by the memory map and is the only post-parse
// mutation.
type Item struct {
	Kind     ItemKind
	Mnemonic string // "lui", "addi", "add", "sub"
	Rd       uint32
	Rs1      uint32
	Rs2      uint32
	Imm      Operand // lui/addi immediate, or the ItemWord payload
	Data     []byte  // ItemBytes payload
	Addr     uint32
	Loc      SourceLocation
}

// EncodedSize is the number of output bytes the item occupies.
func (it *Item) EncodedSize() uint32 {
	if it.Kind == ItemBytes {
		return uint32(len(it.Data))
	}
	return 4
}

// Parser consumes the token sequence, expanding pseudo-instructions and
// recording symbol definitions and references as it goes. Errors accumulate
// per statement: a broken statement is skipped to its Newline, never guessed
// past.
type Parser struct {
	tokens []Token
	pos    int
	items  []Item
	syms   *SymbolTable
	errs   []*Error
}

// Parse consumes tokens and returns the ordered item list and populated
// symbol table. The error slice holds every parser error encountered;
// resolution of still-undefined symbols is the caller's next step.
func Parse(tokens []Token) ([]Item, *SymbolTable, []*Error) {
	p := &Parser{tokens: tokens, syms: NewSymbolTable()}
	for !p.at(EndOfFile) {
		p.parseStatement()
	}
	return p.items, p.syms, p.errs
}

func (p *Parser) peek() Token { return p.tokens[p.pos] }

func (p *Parser) at(kind TokenKind) bool { return p.tokens[p.pos].Kind == kind }

func (p *Parser) next() Token {
	t := p.tokens[p.pos]
	if t.Kind != EndOfFile {
		p.pos++
	}
	return t
}

// sync skips to just past the current statement's Newline.
func (p *Parser) sync() {
	for !p.at(Newline) && !p.at(EndOfFile) {
		p.pos++
	}
	if p.at(Newline) {
		p.pos++
	}
}

func (p *Parser) fail(loc SourceLocation, format string, args ...any) {
	p.errs = append(p.errs, errorf(StageParser, loc, format, args...))
	p.sync()
}

func (p *Parser) parseStatement() {
	// Leading label definitions: Identifier ':' pairs.
	for p.at(Identifier) && p.tokens[p.pos+1].Kind == Colon {
		name := p.next()
		p.next() // colon
		if _, dup := p.syms.DefineLabel(name.Text, len(p.items), name.Loc); dup != nil {
			p.fail(name.Loc, "duplicate definition of %q (already defined at %s)", name.Text, dup.DefLoc)
			return
		}
	}

	switch tok := p.peek(); tok.Kind {
	case Newline:
		p.next()
	case EndOfFile:
		// label-only final line without trailing newline
	case Directive:
		p.parseDirective()
	case Instruction:
		p.parseInstruction()
	case Pseudoinstruction:
		p.parsePseudo()
	default:
		p.fail(tok.Loc, "expected instruction, pseudo-instruction, or directive, got %s %q", tok.Kind, tok.Text)
	}
}

// endStatement demands the Newline closing the current statement.
func (p *Parser) endStatement() bool {
	if p.at(Newline) {
		p.next()
		return true
	}
	if p.at(EndOfFile) {
		return true
	}
	tok := p.peek()
	p.fail(tok.Loc, "unexpected %s %q after complete statement", tok.Kind, tok.Text)
	return false
}

func (p *Parser) expectComma() bool {
	if p.at(Comma) {
		p.next()
		return true
	}
	tok := p.peek()
	p.fail(tok.Loc, "expected ',', got %s %q", tok.Kind, tok.Text)
	return false
}

// expectRegister demands a Register token and returns its number.
func (p *Parser) expectRegister() (uint32, bool) {
	tok := p.peek()
	if tok.Kind != Register {
		p.fail(tok.Loc, "expected register, got %s %q", tok.Kind, tok.Text)
		return 0, false
	}
	p.next()
	return registerNumbers[tok.Text], true
}

// parseNumber converts a Number token's verbatim text, rejecting values that
// do not fit 32 bits in either signedness.
func (p *Parser) parseNumber(tok Token) (int64, bool) {
	v, err := strconv.ParseInt(tok.Text, 0, 64)
	if err != nil || v < -0x80000000 || v > 0xFFFFFFFF {
		p.fail(tok.Loc, "numeral %q out of 32-bit range", tok.Text)
		return 0, false
	}
	return v, true
}

// expectImmediate demands a numeric literal or symbol reference in an
// immediate slot. Literals are range-checked here against [min, max];
// symbolic values are checked at code generation once resolved.
func (p *Parser) expectImmediate(min, max int64) (Operand, bool) {
	tok := p.peek()
	switch tok.Kind {
	case Number:
		v, ok := p.parseNumber(p.next())
		if !ok {
			return Operand{}, false
		}
		if v < min || v > max {
			p.fail(tok.Loc, "immediate %s out of range [%d, %d]", tok.Text, min, max)
			return Operand{}, false
		}
		return Operand{Val: v, Loc: tok.Loc}, true
	case Identifier:
		p.next()
		p.syms.Reference(tok.Text, Constant, tok.Loc)
		return Operand{Sym: tok.Text, Loc: tok.Loc}, true
	default:
		p.fail(tok.Loc, "expected immediate or symbol, got %s %q", tok.Kind, tok.Text)
		return Operand{}, false
	}
}

func (p *Parser) emit(it Item) {
	p.items = append(p.items, it)
}

func (p *Parser) parseInstruction() {
	tok := p.next()
	switch tok.Text {
	case "lui":
		rd, ok := p.expectRegister()
		if !ok {
			return
		}
		if !p.expectComma() {
			return
		}
		imm, ok := p.expectImmediate(0, immMax20)
		if !ok {
			return
		}
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "lui", Rd: rd, Imm: imm, Loc: tok.Loc})
	case "addi":
		rd, ok := p.expectRegister()
		if !ok {
			return
		}
		if !p.expectComma() {
			return
		}
		rs1, ok := p.expectRegister()
		if !ok {
			return
		}
		if !p.expectComma() {
			return
		}
		imm, ok := p.expectImmediate(immMin12, immMax12)
		if !ok {
			return
		}
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "addi", Rd: rd, Rs1: rs1, Imm: imm, Loc: tok.Loc})
	case "add", "sub":
		rd, ok := p.expectRegister()
		if !ok {
			return
		}
		if !p.expectComma() {
			return
		}
		rs1, ok := p.expectRegister()
		if !ok {
			return
		}
		if !p.expectComma() {
			return
		}
		rs2, ok := p.expectRegister()
		if !ok {
			return
		}
		p.emit(Item{Kind: ItemInstruction, Mnemonic: tok.Text, Rd: rd, Rs1: rs1, Rs2: rs2, Loc: tok.Loc})
	default:
		p.fail(tok.Loc, "unsupported instruction %q", tok.Text)
		return
	}
	p.endStatement()
}

func (p *Parser) parsePseudo() {
	tok := p.next()
	switch tok.Text {
	case "nop":
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "addi", Loc: tok.Loc})
	case "inc", "dec":
		rd, ok := p.expectRegister()
		if !ok {
			return
		}
		imm := int64(1)
		if tok.Text == "dec" {
			imm = -1
		}
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "addi", Rd: rd, Rs1: rd,
			Imm: Operand{Val: imm, Loc: tok.Loc}, Loc: tok.Loc})
	case "neg":
		rd, ok := p.expectRegister()
		if !ok {
			return
		}
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "sub", Rd: rd, Rs2: rd, Loc: tok.Loc})
	case "mv":
		rd, ok := p.expectRegister()
		if !ok {
			return
		}
		if !p.expectComma() {
			return
		}
		rs1, ok := p.expectRegister()
		if !ok {
			return
		}
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "addi", Rd: rd, Rs1: rs1, Loc: tok.Loc})
	case "li":
		if !p.parseLoadImmediate(tok.Loc) {
			return
		}
	default:
		// unreachable while pseudoSet and this switch agree
		p.fail(tok.Loc, "unsupported pseudo-instruction %q", tok.Text)
		return
	}
	p.endStatement()
}

// parseLoadImmediate expands li. A literal that fits addi's 12-bit range
// becomes one addi; any other literal becomes lui+addi with the standard
// rounded upper-20 split. A symbolic immediate always takes the two
// instruction form since its value is unknown when layout is decided.
func (p *Parser) parseLoadImmediate(loc SourceLocation) bool {
	rd, ok := p.expectRegister()
	if !ok {
		return false
	}
	if !p.expectComma() {
		return false
	}
	imm, ok := p.expectImmediate(-0x80000000, 0xFFFFFFFF)
	if !ok {
		return false
	}

	if imm.Sym != "" {
		hi, lo := imm, imm
		hi.Mod, lo.Mod = ModHi20, ModLo12
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "lui", Rd: rd, Imm: hi, Loc: loc})
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "addi", Rd: rd, Rs1: rd, Imm: lo, Loc: loc})
		return true
	}

	if imm.Val >= immMin12 && imm.Val <= immMax12 {
		p.emit(Item{Kind: ItemInstruction, Mnemonic: "addi", Rd: rd, Imm: imm, Loc: loc})
		return true
	}

	hi20, lo12 := splitImmediate(uint32(imm.Val))
	p.emit(Item{Kind: ItemInstruction, Mnemonic: "lui", Rd: rd,
		Imm: Operand{Val: int64(hi20), Loc: imm.Loc}, Loc: loc})
	p.emit(Item{Kind: ItemInstruction, Mnemonic: "addi", Rd: rd, Rs1: rd,
		Imm: Operand{Val: int64(lo12), Loc: imm.Loc}, Loc: loc})
	return true
}

// splitImmediate breaks a 32-bit value into a lui upper-20 field and a
// sign-extended addi low-12 field such that (hi20 << 12) + lo12 == v.
// Adding 0x800 before the shift compensates for addi sign-extending its
// immediate.
func splitImmediate(v uint32) (hi20 uint32, lo12 int32) {
	hi20 = ((v + 0x800) >> 12) & 0xFFFFF
	lo12 = int32(v<<20) >> 20
	return hi20, lo12
}

func (p *Parser) parseDirective() {
	tok := p.next()
	switch tok.Text {
	case ".text", ".data":
		// section markers; no byte emission, no address effect
	case ".global":
		name := p.peek()
		if name.Kind != Identifier {
			p.fail(name.Loc, ".global expects a symbol name, got %s %q", name.Kind, name.Text)
			return
		}
		p.next()
		p.syms.Reference(name.Text, Label, name.Loc)
	case ".word":
		imm, ok := p.expectImmediate(-0x80000000, 0xFFFFFFFF)
		if !ok {
			return
		}
		if imm.Sym != "" {
			// re-record the reference with label kind; .word holds addresses
			s := p.syms.Lookup(imm.Sym)
			if !s.Defined {
				s.Kind = Label
			}
		}
		p.emit(Item{Kind: ItemWord, Imm: imm, Loc: tok.Loc})
	case ".string":
		lit := p.peek()
		if lit.Kind != String {
			p.fail(lit.Loc, ".string expects a quoted literal, got %s %q", lit.Kind, lit.Text)
			return
		}
		p.next()
		data, err := unescapeString(lit.Text, lit.Loc)
		if err != nil {
			p.errs = append(p.errs, err)
			p.sync()
			return
		}
		data = append(data, 0) // NUL terminator
		for len(data)%4 != 0 {
			data = append(data, 0) // keep following instructions word-aligned
		}
		p.emit(Item{Kind: ItemBytes, Data: data, Loc: tok.Loc})
	case ".equ":
		name := p.peek()
		if name.Kind != Identifier {
			p.fail(name.Loc, ".equ expects a symbol name, got %s %q", name.Kind, name.Text)
			return
		}
		p.next()
		if !p.expectComma() {
			return
		}
		num := p.peek()
		if num.Kind != Number {
			p.fail(num.Loc, ".equ expects a numeric value, got %s %q", num.Kind, num.Text)
			return
		}
		v, ok := p.parseNumber(p.next())
		if !ok {
			return
		}
		if _, dup := p.syms.DefineConstant(name.Text, uint32(v), name.Loc); dup != nil {
			p.fail(name.Loc, "duplicate definition of %q (already defined at %s)", name.Text, dup.DefLoc)
			return
		}
	default:
		p.fail(tok.Loc, "unknown directive %q", tok.Text)
		return
	}
	p.endStatement()
}

// unescapeString processes backslash escapes in a string literal's body
// (quotes already stripped by the tokenizer).
func unescapeString(s string, loc SourceLocation) ([]byte, *Error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(s) {
			return nil, errorf(StageParser, loc, "trailing backslash in string literal")
		}
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		default:
			return nil, errorf(StageParser, loc, "unknown escape sequence %q in string literal", fmt.Sprintf("\\%c", s[i]))
		}
	}
	return out, nil
}
