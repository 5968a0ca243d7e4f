package asm

import "sort"

// SymbolKind distinguishes address-valued labels from .equ constants.
type SymbolKind int

const (
	Label SymbolKind = iota
	Constant
)

func (k SymbolKind) String() string {
	if k == Constant {
		return "constant"
	}
	return "label"
}

// Symbol is one symbol-table entry. An entry comes into existence at its
// first reference or definition; Defined flips when the defining statement is
// parsed, and for labels Value is back-patched later by the memory map once
// the item the label points at has an address.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Value   uint32
	Defined bool
	DefLoc  SourceLocation
	Refs    []SourceLocation // ordered reference locations

	// itemIndex is the parsed-item index a defined label points at; a label
	// defined at end of input points one past the last item (the final
	// cursor address).
	itemIndex int
}

// SymbolTable maps names to entries for one assembly run.
type SymbolTable struct {
	entries map[string]*Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]*Symbol)}
}

// Lookup returns the entry for name, or nil.
func (st *SymbolTable) Lookup(name string) *Symbol {
	return st.entries[name]
}

// Reference records a use of name at loc, creating the entry (undefined,
// with the given kind) on first sight. The kind of an existing entry wins.
func (st *SymbolTable) Reference(name string, kind SymbolKind, loc SourceLocation) *Symbol {
	s, ok := st.entries[name]
	if !ok {
		s = &Symbol{Name: name, Kind: kind}
		st.entries[name] = s
	}
	s.Refs = append(s.Refs, loc)
	return s
}

// DefineLabel marks name as a label pointing at the item with index
// itemIndex. Its address value is filled in by the memory map. Returns the
// already-defined entry as the second value when this is a duplicate.
func (st *SymbolTable) DefineLabel(name string, itemIndex int, loc SourceLocation) (*Symbol, *Symbol) {
	s, ok := st.entries[name]
	if ok && s.Defined {
		return nil, s
	}
	if !ok {
		s = &Symbol{Name: name}
		st.entries[name] = s
	}
	s.Kind = Label
	s.Defined = true
	s.DefLoc = loc
	s.itemIndex = itemIndex
	return s, nil
}

// DefineConstant marks name as a .equ constant with a known value.
func (st *SymbolTable) DefineConstant(name string, value uint32, loc SourceLocation) (*Symbol, *Symbol) {
	s, ok := st.entries[name]
	if ok && s.Defined {
		return nil, s
	}
	if !ok {
		s = &Symbol{Name: name}
		st.entries[name] = s
	}
	s.Kind = Constant
	s.Defined = true
	s.Value = value
	s.DefLoc = loc
	return s, nil
}

// Unresolved returns every entry that was referenced but never defined,
// ordered by first reference location. Called once after parsing completes.
func (st *SymbolTable) Unresolved() []*Symbol {
	var out []*Symbol
	for _, s := range st.entries {
		if !s.Defined {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Refs[0], out[j].Refs[0]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}
