// Package symtab is the scoped symbol table: three independent
// namespaces per scope (variables, functions, structs), parent-linked
// scopes, and local-slot assignment (spec §3.2, §3.3, §4.2).
//
// Grounded on original_source/src/symtab.c, reimplemented over Go's
// builtin map instead of the original's hand-rolled 211-bucket hash
// table — see SPEC_FULL.md §4 for why that substitution is the one
// deliberate non-carry-forward from the original.
package symtab

import "mjvmc/internal/types"

// Symbol is a named, typed entity: a variable, a function or a
// struct definition (spec §3.2).
type Symbol struct {
	Name       string
	Type       *types.Type
	IsLocal    bool
	LocalIndex int
	FromStdlib bool // set by the stdlib preinstall step (spec §4.2)
}

// Clone returns an independent shallow copy of sym, so one declared
// symbol can be attached at more than one AST site without sharing
// mutable state (SPEC_FULL.md §4's copy_symbol carry-forward). The
// type checker does not call it.
func (s *Symbol) Clone() *Symbol {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Scope owns three name maps and a local-slot counter. Scopes form a
// stack via Parent; lookup walks parent links.
type Scope struct {
	Parent     *Scope
	vars       map[string]*Symbol
	funcs      map[string]*Symbol
	structs    map[string]*types.Type
	localCount int
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		Parent:  parent,
		vars:    make(map[string]*Symbol),
		funcs:   make(map[string]*Symbol),
		structs: make(map[string]*types.Type),
	}
}

// Table is the symbol table proper: a stack of scopes rooted at the
// global scope.
type Table struct {
	current *Scope
	global  *Scope
}

// New creates a table with an empty global scope. It does not
// preinstall the standard library — call stdlib.Install(t) for that
// (spec §4.2: "a standard-library preinit step").
func New() *Table {
	g := newScope(nil)
	return &Table{current: g, global: g}
}

// EnterScope pushes a new child scope.
func (t *Table) EnterScope() {
	t.current = newScope(t.current)
}

// ExitScope pops the current scope back to its parent. Exiting the
// global scope is a no-op — there is nothing to pop to.
func (t *Table) ExitScope() {
	if t.current.Parent == nil {
		return
	}
	t.current = t.current.Parent
}

// IsGlobal reports whether the current scope is the global scope.
func (t *Table) IsGlobal() bool {
	return t.current == t.global
}

// LocalCount returns the current scope's next-free local slot count,
// i.e. how many locals have been assigned so far in this scope.
func (t *Table) LocalCount() int {
	return t.current.localCount
}

// AddSymbol installs name as a variable or function symbol in the
// current scope, depending on typ.Kind. It fails (returns false) if
// name already exists in the same namespace in the current scope
// (spec §4.2); shadowing an outer scope's symbol of the same name is
// always allowed.
func (t *Table) AddSymbol(name string, typ *types.Type) (*Symbol, bool) {
	isFunc := typ != nil && typ.Kind == types.Function
	table := t.current.vars
	if isFunc {
		table = t.current.funcs
	}
	if _, exists := table[name]; exists {
		return nil, false
	}

	sym := &Symbol{Name: name, Type: typ}
	sym.IsLocal = !t.IsGlobal() && !isFunc
	if sym.IsLocal {
		sym.LocalIndex = t.current.localCount
		t.current.localCount++
	} else {
		sym.LocalIndex = -1
	}
	table[name] = sym
	return sym, true
}

// AddSymbolAtIndex installs a local symbol with an explicit slot
// index instead of the scope's auto-incrementing counter — used for
// function parameters, which occupy slots 0..param_count-1 in
// declaration order regardless of any other locals in the function's
// scope (spec §4.3 "Function").
func (t *Table) AddSymbolAtIndex(name string, typ *types.Type, index int) (*Symbol, bool) {
	if _, exists := t.current.vars[name]; exists {
		return nil, false
	}
	sym := &Symbol{Name: name, Type: typ, IsLocal: true, LocalIndex: index}
	t.current.vars[name] = sym
	if index >= t.current.localCount {
		t.current.localCount = index + 1
	}
	return sym, true
}

// Lookup searches the current scope then each ancestor in turn,
// variables before functions at each level (spec §3.3).
func (t *Table) Lookup(name string) *Symbol {
	for s := t.current; s != nil; s = s.Parent {
		if sym, ok := s.vars[name]; ok {
			return sym
		}
		if sym, ok := s.funcs[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupCurrent searches only the current scope (used for
// redeclaration checks).
func (t *Table) LookupCurrent(name string) *Symbol {
	if sym, ok := t.current.vars[name]; ok {
		return sym
	}
	if sym, ok := t.current.funcs[name]; ok {
		return sym
	}
	return nil
}

// AddStruct registers a struct type in the current scope's struct
// namespace. Fails on redefinition in the same scope.
func (t *Table) AddStruct(name string, st *types.Type) bool {
	if _, exists := t.current.structs[name]; exists {
		return false
	}
	t.current.structs[name] = st
	return true
}

// LookupStruct searches the current scope then each ancestor.
func (t *Table) LookupStruct(name string) *types.Type {
	for s := t.current; s != nil; s = s.Parent {
		if st, ok := s.structs[name]; ok {
			return st
		}
	}
	return nil
}

// LookupStructCurrent searches only the current scope.
func (t *Table) LookupStructCurrent(name string) *types.Type {
	if st, ok := t.current.structs[name]; ok {
		return st
	}
	return nil
}
