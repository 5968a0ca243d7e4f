package asm

// registerNumbers maps every accepted register spelling (numeric and ABI
// alias) to its 5-bit register number.
var registerNumbers = map[string]uint32{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13,
	"a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
	"x0": 0, "x1": 1, "x2": 2, "x3": 3, "x4": 4, "x5": 5, "x6": 6, "x7": 7,
	"x8": 8, "x9": 9, "x10": 10, "x11": 11, "x12": 12, "x13": 13, "x14": 14,
	"x15": 15, "x16": 16, "x17": 17, "x18": 18, "x19": 19, "x20": 20,
	"x21": 21, "x22": 22, "x23": 23, "x24": 24, "x25": 25, "x26": 26,
	"x27": 27, "x28": 28, "x29": 29, "x30": 30, "x31": 31,
}

// instructionSet holds the RV32I mnemonics the tokenizer classifies as
// Instruction. The parser accepts only the lui/addi/add/sub subset; the rest
// still tokenize so an unsupported instruction fails in the parser with a
// useful message instead of scanning as a label name.
var instructionSet = map[string]bool{
	"add": true, "sub": true, "sll": true, "slt": true, "sltu": true,
	"xor": true, "srl": true, "sra": true, "or": true, "and": true,
	"addi": true, "slti": true, "sltiu": true, "xori": true, "ori": true,
	"andi": true, "slli": true, "srli": true, "srai": true,
	"lb": true, "lh": true, "lw": true, "lbu": true, "lhu": true,
	"jalr": true,
	"sb":   true, "sh": true, "sw": true,
	"beq": true, "bne": true, "blt": true, "bge": true, "bltu": true, "bgeu": true,
	"lui": true, "auipc": true,
	"jal":   true,
	"ecall": true,
}

var pseudoSet = map[string]bool{
	"inc": true, "dec": true, "mv": true, "nop": true, "neg": true, "li": true,
}

func classifyIdentifier(s string) TokenKind {
	if _, ok := registerNumbers[s]; ok {
		return Register
	}
	if instructionSet[s] {
		return Instruction
	}
	if pseudoSet[s] {
		return Pseudoinstruction
	}
	return Identifier
}

// tokenizer holds all mutable cursor state for a single scan of one line.
// A fresh tokenizer per call keeps Tokenize reentrant.
type tokenizer struct {
	line []rune
	pos  int // index of the next rune to consume
	num  int // current 1-based line number
	col  int // current 1-based column number
}

func (t *tokenizer) peek() rune {
	if t.pos >= len(t.line) {
		return 0
	}
	return t.line[t.pos]
}

// advance consumes one rune, tracking the column.
func (t *tokenizer) advance() rune {
	r := t.line[t.pos]
	t.pos++
	t.col++
	return r
}

func (t *tokenizer) here() SourceLocation {
	return SourceLocation{Line: t.num, Column: t.col}
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// scanNumber collects a numeral: optional leading '-', then 0x-prefixed hex
// digits or decimal digits. The raw spelling is preserved verbatim; numeric
// conversion and overflow checking belong to the parser.
func (t *tokenizer) scanNumber() (Token, *Error) {
	loc := t.here()
	start := t.pos
	base := Dec

	if t.peek() == '-' {
		t.advance()
		if !isDigit(t.peek()) {
			return Token{}, errorf(StageTokenizer, loc, "expected digit after '-'")
		}
	}
	if t.peek() == '0' {
		t.advance()
		if t.peek() == 'x' || t.peek() == 'X' {
			t.advance()
			base = Hex
			if !isHexDigit(t.peek()) {
				return Token{}, errorf(StageTokenizer, loc, "expected hex digit after %q", "0x")
			}
			for isHexDigit(t.peek()) {
				t.advance()
			}
			return Token{Kind: Number, Base: Hex, Text: string(t.line[start:t.pos]), Loc: loc}, nil
		}
	}
	for isDigit(t.peek()) {
		t.advance()
	}
	return Token{Kind: Number, Base: base, Text: string(t.line[start:t.pos]), Loc: loc}, nil
}

// scanWord collects an identifier-shaped run (letters, digits, underscores;
// first rune already validated) and classifies it by exact-match lookup.
func (t *tokenizer) scanWord() Token {
	loc := t.here()
	start := t.pos
	for {
		r := t.peek()
		if !isLetter(r) && !isDigit(r) && r != '_' {
			break
		}
		t.advance()
	}
	text := string(t.line[start:t.pos])
	return Token{Kind: classifyIdentifier(text), Text: text, Loc: loc}
}

// scanDirective collects a '.'-prefixed alphabetic run.
func (t *tokenizer) scanDirective() Token {
	loc := t.here()
	start := t.pos
	t.advance() // the '.'
	for isLetter(t.peek()) {
		t.advance()
	}
	return Token{Kind: Directive, Text: string(t.line[start:t.pos]), Loc: loc}
}

// scanString collects a double-quoted literal, honoring backslash escapes.
// The stored text excludes the surrounding quotes and keeps escape sequences
// unprocessed; the parser unquotes them.
func (t *tokenizer) scanString() (Token, *Error) {
	loc := t.here()
	t.advance() // opening quote
	start := t.pos
	for t.pos < len(t.line) {
		r := t.peek()
		if r == '\\' {
			t.advance()
			if t.pos < len(t.line) {
				t.advance()
			}
			continue
		}
		if r == '"' {
			text := string(t.line[start:t.pos])
			t.advance() // closing quote
			return Token{Kind: String, Text: text, Loc: loc}, nil
		}
		t.advance()
	}
	return Token{}, errorf(StageTokenizer, loc, "unterminated string literal")
}

// Tokenize scans the whole source text into a materialized token sequence.
// Every physical line contributes exactly one trailing Newline token and the
// sequence ends with exactly one EndOfFile token. The first malformed
// character aborts the scan (fail-fast).
func Tokenize(source string) ([]Token, error) {
	var tokens []Token
	lines := splitLines(source)

	num := 1
	for _, line := range lines {
		t := &tokenizer{line: []rune(line), num: num, col: 1}

	scan:
		for t.pos < len(t.line) {
			switch r := t.peek(); {
			case r == ' ' || r == '\t' || r == '\r':
				t.advance()
			case r == '#':
				// comment runs to end of physical line
				break scan
			case r == ',':
				tokens = append(tokens, Token{Kind: Comma, Text: ",", Loc: t.here()})
				t.advance()
			case r == ':':
				tokens = append(tokens, Token{Kind: Colon, Text: ":", Loc: t.here()})
				t.advance()
			case r == '(':
				tokens = append(tokens, Token{Kind: LParen, Text: "(", Loc: t.here()})
				t.advance()
			case r == ')':
				tokens = append(tokens, Token{Kind: RParen, Text: ")", Loc: t.here()})
				t.advance()
			case r == '-' || isDigit(r):
				tok, err := t.scanNumber()
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, tok)
			case r == '.':
				tokens = append(tokens, t.scanDirective())
			case isLetter(r) || r == '_':
				tokens = append(tokens, t.scanWord())
			case r == '"':
				tok, err := t.scanString()
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, tok)
			default:
				return nil, errorf(StageTokenizer, t.here(), "unexpected character %q", r)
			}
		}

		tokens = append(tokens, Token{Kind: Newline, Loc: SourceLocation{Line: num, Column: t.col}})
		num++
	}

	tokens = append(tokens, Token{Kind: EndOfFile, Loc: SourceLocation{Line: num, Column: 1}})
	return tokens, nil
}

// splitLines splits on '\n' without producing a phantom final line for a
// trailing newline, matching how the tokenizer counts physical lines.
func splitLines(source string) []string {
	if source == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			lines = append(lines, source[start:i])
			start = i + 1
		}
	}
	if start < len(source) {
		lines = append(lines, source[start:])
	}
	return lines
}
