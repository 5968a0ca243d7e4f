package asm

import "math"

// Layout assigns each item an absolute byte address starting at base 0 and
// advancing by the item's encoded size, then back-patches every defined
// label's value into the symbol table. Addresses are strictly non-decreasing
// and word-aligned for instructions (data items are word-padded by the
// parser). The only failure mode is 32-bit address-space overflow.
func Layout(items []Item, syms *SymbolTable) *Error {
	var cursor uint32
	for i := range items {
		size := items[i].EncodedSize()
		if size > math.MaxUint32-cursor {
			return errorf(StageLayout, items[i].Loc, "program exceeds 32-bit address space")
		}
		items[i].Addr = cursor
		cursor += size
	}

	for _, s := range syms.entries {
		if !s.Defined || s.Kind != Label {
			continue
		}
		if s.itemIndex < len(items) {
			s.Value = items[s.itemIndex].Addr
		} else {
			// label at end of input points one past the last item
			s.Value = cursor
		}
	}
	return nil
}
