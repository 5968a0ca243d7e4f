package asm

import (
	"strings"
	"testing"
)

// mustParse tokenizes and parses src, failing the test on any error.
func mustParse(t *testing.T, src string) ([]Item, *SymbolTable) {
	t.Helper()
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	items, syms, errs := Parse(tokens)
	if len(errs) > 0 {
		t.Fatalf("Parse failed: %v", collapse(errs))
	}
	return items, syms
}

// parseErrors tokenizes and parses src, returning the accumulated errors.
func parseErrors(t *testing.T, src string) []*Error {
	t.Helper()
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	_, _, errs := Parse(tokens)
	return errs
}

func TestPseudoExpansion(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Item
	}{
		{
			"mv", "mv a1, a2",
			[]Item{{Kind: ItemInstruction, Mnemonic: "addi", Rd: 11, Rs1: 12}},
		},
		{
			"nop", "nop",
			[]Item{{Kind: ItemInstruction, Mnemonic: "addi"}},
		},
		{
			"inc", "inc t0",
			[]Item{{Kind: ItemInstruction, Mnemonic: "addi", Rd: 5, Rs1: 5, Imm: Operand{Val: 1}}},
		},
		{
			"dec", "dec t0",
			[]Item{{Kind: ItemInstruction, Mnemonic: "addi", Rd: 5, Rs1: 5, Imm: Operand{Val: -1}}},
		},
		{
			"neg", "neg a0",
			[]Item{{Kind: ItemInstruction, Mnemonic: "sub", Rd: 10, Rs1: 0, Rs2: 10}},
		},
		{
			"li small", "li a0, 42",
			[]Item{{Kind: ItemInstruction, Mnemonic: "addi", Rd: 10, Imm: Operand{Val: 42}}},
		},
		{
			"li negative small", "li a0, -2048",
			[]Item{{Kind: ItemInstruction, Mnemonic: "addi", Rd: 10, Imm: Operand{Val: -2048}}},
		},
		{
			"li large", "li a0, 0x12345",
			[]Item{
				{Kind: ItemInstruction, Mnemonic: "lui", Rd: 10, Imm: Operand{Val: 0x12}},
				{Kind: ItemInstruction, Mnemonic: "addi", Rd: 10, Rs1: 10, Imm: Operand{Val: 0x345}},
			},
		},
		{
			"li rounds upper half", "li a0, 0x1800",
			[]Item{
				{Kind: ItemInstruction, Mnemonic: "lui", Rd: 10, Imm: Operand{Val: 2}},
				{Kind: ItemInstruction, Mnemonic: "addi", Rd: 10, Rs1: 10, Imm: Operand{Val: -2048}},
			},
		},
		{
			"li all ones", "li a0, 0xFFFFFFFF",
			[]Item{
				{Kind: ItemInstruction, Mnemonic: "lui", Rd: 10, Imm: Operand{Val: 0}},
				{Kind: ItemInstruction, Mnemonic: "addi", Rd: 10, Rs1: 10, Imm: Operand{Val: -1}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items, _ := mustParse(t, tc.src)
			if len(items) != len(tc.want) {
				t.Fatalf("got %d items, want %d", len(items), len(tc.want))
			}
			for i, w := range tc.want {
				got := items[i]
				if got.Kind != w.Kind || got.Mnemonic != w.Mnemonic ||
					got.Rd != w.Rd || got.Rs1 != w.Rs1 || got.Rs2 != w.Rs2 ||
					got.Imm.Val != w.Imm.Val || got.Imm.Sym != w.Imm.Sym {
					t.Errorf("item %d = %+v, want %+v", i, got, w)
				}
			}
		})
	}
}

func TestLiSymbolicAlwaysTwoInstructions(t *testing.T) {
	items, syms := mustParse(t, "li a0, buffer\nbuffer: .word 0")
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 (lui+addi+word)", len(items))
	}
	if items[0].Mnemonic != "lui" || items[0].Imm.Sym != "buffer" || items[0].Imm.Mod != ModHi20 {
		t.Errorf("item 0 = %+v, want lui buffer hi20", items[0])
	}
	if items[1].Mnemonic != "addi" || items[1].Imm.Sym != "buffer" || items[1].Imm.Mod != ModLo12 {
		t.Errorf("item 1 = %+v, want addi buffer lo12", items[1])
	}
	s := syms.Lookup("buffer")
	if s == nil || !s.Defined {
		t.Fatalf("buffer not defined in symbol table")
	}
	if len(s.Refs) != 1 {
		t.Errorf("buffer refs = %d, want 1", len(s.Refs))
	}
}

func TestImmediateRangeValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		col  int
	}{
		{"addi one past max", "addi x1, x0, 0x800", 14},
		{"addi below min", "addi x1, x0, -2049", 14},
		{"lui past 20 bits", "lui x1, 0x100000", 9},
		{"lui negative", "lui x1, -1", 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := parseErrors(t, tc.src)
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Stage != StageParser {
				t.Errorf("stage = %s, want %s", errs[0].Stage, StageParser)
			}
			if errs[0].Loc.Line != 1 || errs[0].Loc.Column != tc.col {
				t.Errorf("location = %s, want line 1, column %d", errs[0].Loc, tc.col)
			}
		})
	}
}

func TestOperandKindValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"number in register slot", "addi 5, x0, 1", "expected register"},
		{"identifier in register slot", "add x1, x2, foo", "expected register"},
		{"register in immediate slot", "addi x1, x0, x2", "expected immediate"},
		{"missing comma", "add x1 x2, x3", "expected ','"},
		{"unsupported instruction", "lw x1, 0(sp)", "unsupported instruction"},
		{"trailing operand", "nop x1", "after complete statement"},
		{"statement starts mid-line", "add x1, x2, x3 add", "after complete statement"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := parseErrors(t, tc.src)
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
			}
			if !strings.Contains(errs[0].Message, tc.want) {
				t.Errorf("message %q does not contain %q", errs[0].Message, tc.want)
			}
		})
	}
}

func TestDuplicateLabel(t *testing.T) {
	errs := parseErrors(t, "top: nop\ntop: nop\n")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, `duplicate definition of "top"`) {
		t.Errorf("unexpected message %q", errs[0].Message)
	}
	if errs[0].Loc.Line != 2 {
		t.Errorf("error line = %d, want 2", errs[0].Loc.Line)
	}
}

func TestErrorAccumulationAcrossStatements(t *testing.T) {
	src := strings.Join([]string{
		"addi x1, x0, 0x800", // immediate out of range
		"add x1, x2",         // truncated statement
		"nop",                // fine
		"lw x1, 0(sp)",       // unsupported
	}, "\n")
	errs := parseErrors(t, src)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), collapse(errs))
	}
	// errors arrive in statement order
	wantLines := []int{1, 2, 4}
	for i, e := range errs {
		if e.Loc.Line != wantLines[i] {
			t.Errorf("error %d on line %d, want %d (%v)", i, e.Loc.Line, wantLines[i], e)
		}
	}
}

func TestDirectives(t *testing.T) {
	t.Run("word literal", func(t *testing.T) {
		items, _ := mustParse(t, ".word 0xDEADBEEF")
		if len(items) != 1 || items[0].Kind != ItemWord || uint32(items[0].Imm.Val) != 0xDEADBEEF {
			t.Fatalf("items = %+v", items)
		}
	})

	t.Run("word symbol", func(t *testing.T) {
		items, syms := mustParse(t, "start: nop\n.word start\n")
		if len(items) != 2 || items[1].Kind != ItemWord || items[1].Imm.Sym != "start" {
			t.Fatalf("items = %+v", items)
		}
		if s := syms.Lookup("start"); s.Kind != Label {
			t.Errorf("start kind = %s, want label", s.Kind)
		}
	})

	t.Run("sections emit nothing", func(t *testing.T) {
		items, _ := mustParse(t, ".text\nnop\n.data\n.word 1\n")
		if len(items) != 2 {
			t.Fatalf("got %d items, want 2", len(items))
		}
	})

	t.Run("global records a reference", func(t *testing.T) {
		_, syms := mustParse(t, ".global entry\nentry: nop\n")
		s := syms.Lookup("entry")
		if s == nil || !s.Defined || len(s.Refs) != 1 {
			t.Fatalf("entry = %+v", s)
		}
	})

	t.Run("string emits NUL-terminated padded bytes", func(t *testing.T) {
		items, _ := mustParse(t, ".string \"AB\\n\"")
		if len(items) != 1 || items[0].Kind != ItemBytes {
			t.Fatalf("items = %+v", items)
		}
		want := []byte{'A', 'B', '\n', 0}
		if string(items[0].Data) != string(want) {
			t.Errorf("data = %v, want %v", items[0].Data, want)
		}
	})

	t.Run("string pads to word boundary", func(t *testing.T) {
		items, _ := mustParse(t, ".string \"hello\"")
		if len(items[0].Data) != 8 {
			t.Fatalf("data length = %d, want 8", len(items[0].Data))
		}
		if string(items[0].Data[:6]) != "hello\x00" {
			t.Errorf("data = %v", items[0].Data)
		}
	})

	t.Run("equ defines a constant", func(t *testing.T) {
		_, syms := mustParse(t, ".equ limit, 0x40\naddi x1, x0, limit\n")
		s := syms.Lookup("limit")
		if s == nil || !s.Defined || s.Kind != Constant || s.Value != 0x40 {
			t.Fatalf("limit = %+v", s)
		}
		if len(s.Refs) != 1 {
			t.Errorf("limit refs = %d, want 1", len(s.Refs))
		}
	})

	t.Run("duplicate equ", func(t *testing.T) {
		errs := parseErrors(t, ".equ a, 1\n.equ a, 2\n")
		if len(errs) != 1 || !strings.Contains(errs[0].Message, "duplicate definition") {
			t.Fatalf("errs = %v", errs)
		}
	})

	t.Run("unknown directive", func(t *testing.T) {
		errs := parseErrors(t, ".align 4")
		if len(errs) != 1 || !strings.Contains(errs[0].Message, "unknown directive") {
			t.Fatalf("errs = %v", errs)
		}
	})
}

func TestForwardReferenceLifecycle(t *testing.T) {
	_, syms := mustParse(t, "li a0, target\nnop\ntarget: nop\n")
	s := syms.Lookup("target")
	if s == nil {
		t.Fatal("target missing from symbol table")
	}
	if !s.Defined {
		t.Error("target should be defined after its label is parsed")
	}
	if len(s.Refs) != 1 || s.Refs[0].Line != 1 {
		t.Errorf("refs = %v, want one reference on line 1", s.Refs)
	}
	if s.DefLoc.Line != 3 {
		t.Errorf("definition line = %d, want 3", s.DefLoc.Line)
	}
}

func TestMultipleLabelsOneLine(t *testing.T) {
	items, syms := mustParse(t, "a: b: nop\n")
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	for _, name := range []string{"a", "b"} {
		if s := syms.Lookup(name); s == nil || !s.Defined {
			t.Errorf("label %q not defined", name)
		}
	}
}
