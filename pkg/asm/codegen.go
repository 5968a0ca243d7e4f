package asm

// RISC-V opcode and sub-opcode fields for the supported encodings.
const (
	opcodeLui   = 0b0110111 // U-type
	opcodeOpImm = 0b0010011 // I-type (addi)
	opcodeOp    = 0b0110011 // R-type (add/sub)

	funct7Add uint32 = 0x00
	funct7Sub uint32 = 0x20
)

// Generate walks the items in address order and emits one 4-byte
// little-endian word per instruction, resolving symbolic operands against
// the finalized symbol table. It also builds the address-to-source-line map
// used by the monitor and by diagnostics.
//
// Every symbol is defined by the time Generate runs (the driver checks), so
// the only failures here are resolved values that do not fit their encoding
// field; those are fatal and carry the operand's original location.
func Generate(items []Item, syms *SymbolTable) ([]byte, map[uint32]int, *Error) {
	out := make([]byte, 0, len(items)*4)
	sourceMap := make(map[uint32]int)

	for i := range items {
		it := &items[i]
		sourceMap[it.Addr] = it.Loc.Line

		switch it.Kind {
		case ItemBytes:
			out = append(out, it.Data...)
		case ItemWord:
			v, err := resolveOperand(it.Imm, syms)
			if err != nil {
				return nil, nil, err
			}
			out = appendWord(out, v)
		case ItemInstruction:
			word, err := encodeInstruction(it, syms)
			if err != nil {
				return nil, nil, err
			}
			out = appendWord(out, word)
		}
	}
	return out, sourceMap, nil
}

func appendWord(out []byte, w uint32) []byte {
	return append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
}

// resolveOperand produces the operand's raw 32-bit value, before any
// field-modifier slicing.
func resolveOperand(op Operand, syms *SymbolTable) (uint32, *Error) {
	if op.Sym == "" {
		return uint32(op.Val), nil
	}
	s := syms.Lookup(op.Sym)
	if s == nil || !s.Defined {
		// the driver's resolution check makes this unreachable
		return 0, errorf(StageEncoding, op.Loc, "unresolved symbol %q", op.Sym)
	}
	return s.Value, nil
}

func encodeInstruction(it *Item, syms *SymbolTable) (uint32, *Error) {
	switch it.Mnemonic {
	case "lui":
		imm, err := immField(it.Imm, syms, false)
		if err != nil {
			return 0, err
		}
		return imm<<12 | it.Rd<<7 | opcodeLui, nil
	case "addi":
		imm, err := immField(it.Imm, syms, true)
		if err != nil {
			return 0, err
		}
		return imm<<20 | it.Rs1<<15 | it.Rd<<7 | opcodeOpImm, nil
	case "add":
		return funct7Add<<25 | it.Rs2<<20 | it.Rs1<<15 | it.Rd<<7 | opcodeOp, nil
	case "sub":
		return funct7Sub<<25 | it.Rs2<<20 | it.Rs1<<15 | it.Rd<<7 | opcodeOp, nil
	default:
		return 0, errorf(StageEncoding, it.Loc, "cannot encode mnemonic %q", it.Mnemonic)
	}
}

// immField resolves an immediate operand, applies its hi/lo modifier, and
// range-checks the result against the target field: sign-extended 12 bits
// for addi, unsigned 20 bits for lui. Literals were checked at parse time;
// this guards symbol-derived values.
func immField(op Operand, syms *SymbolTable, signed12 bool) (uint32, *Error) {
	v, err := resolveOperand(op, syms)
	if err != nil {
		return 0, err
	}

	switch op.Mod {
	case ModHi20:
		hi20, _ := splitImmediate(v)
		return hi20, nil
	case ModLo12:
		_, lo12 := splitImmediate(v)
		return uint32(lo12) & 0xFFF, nil
	}

	if signed12 {
		sv := int64(int32(v))
		if op.Sym == "" {
			sv = op.Val
		}
		if sv < immMin12 || sv > immMax12 {
			return 0, errorf(StageEncoding, op.Loc, "value %d does not fit a signed 12-bit immediate", sv)
		}
		return uint32(sv) & 0xFFF, nil
	}

	if v > immMax20 {
		return 0, errorf(StageEncoding, op.Loc, "value %d does not fit an unsigned 20-bit immediate", v)
	}
	return v, nil
}
