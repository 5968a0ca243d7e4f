// Package asm assembles a minimal RISC-V subset (lui, addi, add, sub, plus
// the inc/dec/mv/nop/neg/li pseudo-instructions) into little-endian machine
// code.
//
// The pipeline is strictly sequential: tokenize, parse (building the symbol
// table and expanding pseudo-instructions), check that every referenced
// symbol was defined, lay out addresses, generate code. Each stage owns its
// output and no state survives a run, so Assemble is reentrant.
package asm

// Assemble translates source text into machine code. It returns the byte
// buffer, a map from each item's byte address to its 1-based source line,
// and an error that is either a single *Error or an ErrorList when several
// problems were found.
func Assemble(source string) ([]byte, map[uint32]int, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, nil, err
	}

	items, syms, errs := Parse(tokens)
	if len(errs) > 0 {
		return nil, nil, collapse(errs)
	}

	if unresolved := syms.Unresolved(); len(unresolved) > 0 {
		var serrs []*Error
		for _, s := range unresolved {
			serrs = append(serrs, errorf(StageSymbol, s.Refs[0], "undefined symbol %q", s.Name))
		}
		return nil, nil, collapse(serrs)
	}

	if lerr := Layout(items, syms); lerr != nil {
		return nil, nil, lerr
	}

	out, sourceMap, gerr := Generate(items, syms)
	if gerr != nil {
		return nil, nil, gerr
	}
	return out, sourceMap, nil
}
