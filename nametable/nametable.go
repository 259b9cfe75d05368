// Package nametable implements the two-tier (global/local scope) mapping
// from interned identifiers to their resolved meaning.
package nametable

import "github.com/ytausky/gbas/intern"

// MacroID identifies a macro definition in the macro table.
type MacroID int

// SymbolID identifies a symbol in the object model.
type SymbolID int

// Kind discriminates the Name sum type.
type Kind int

const (
	KindKeyword Kind = iota
	KindMacro
	KindSymbol
)

// Name is one entry in the name table: a builtin keyword, a user macro, or
// a user symbol.
type Name struct {
	Kind    Kind
	Keyword string // KindKeyword
	Macro   MacroID
	Symbol  SymbolID
}

func Keyword(k string) Name  { return Name{Kind: KindKeyword, Keyword: k} }
func Macro(id MacroID) Name  { return Name{Kind: KindMacro, Macro: id} }
func Symbol(id SymbolID) Name { return Name{Kind: KindSymbol, Symbol: id} }

// Visibility distinguishes global identifiers from local ("_"-prefixed)
// ones. Local names resolve within the most recently opened global scope.
type Visibility int

const (
	Global Visibility = iota
	Local
)

// VisibilityOf inspects a raw identifier's text to classify it. A leading
// underscore marks a local identifier.
func VisibilityOf(text string) Visibility {
	if len(text) > 0 && text[0] == '_' {
		return Local
	}
	return Global
}

// Table is the two-level scope: one global map, plus one local map that is
// cleared every time a new global label opens a generation.
type Table struct {
	global map[intern.ID]Name
	local  map[intern.ID]Name
}

// New creates an empty name table.
func New() *Table {
	return &Table{
		global: make(map[intern.ID]Name),
		local:  make(map[intern.ID]Name),
	}
}

// OpenGlobalGeneration clears the local scope, as happens whenever a new
// global label is defined.
func (t *Table) OpenGlobalGeneration() {
	t.local = make(map[intern.ID]Name)
}

// Define binds name to id in the scope its visibility implies. Returns
// false if id already has a binding in that scope (the caller should
// diagnose redefinition).
func (t *Table) Define(id intern.ID, vis Visibility, name Name) bool {
	m := t.scopeFor(vis)
	if _, exists := m[id]; exists {
		return false
	}
	m[id] = name
	return true
}

// Lookup resolves id in the scope its visibility implies. Global lookups
// never see local bindings and vice versa.
func (t *Table) Lookup(id intern.ID, vis Visibility) (Name, bool) {
	m := t.scopeFor(vis)
	n, ok := m[id]
	return n, ok
}

func (t *Table) scopeFor(vis Visibility) map[intern.ID]Name {
	if vis == Local {
		return t.local
	}
	return t.global
}
