package object

import "github.com/ytausky/gbas/span"

// SymbolID is an opaque handle to a symbol.
type SymbolID int

// SymbolKind discriminates the Symbol sum type.
type SymbolKind int

const (
	// SymbolUndeclared is a name referenced but never (yet) defined — the
	// forward-reference placeholder created the first time an expression
	// mentions a name the analyzer hasn't seen a definition for.
	SymbolUndeclared SymbolKind = iota
	// SymbolSection names a whole section (its address).
	SymbolSection
	// SymbolClosure is an expression together with the location variable
	// that was current at the point the symbol was defined (a label or an
	// equ). Evaluating it plugs that variable's current value in as the
	// expression's location counter.
	SymbolClosure
)

// Symbol is one entry in the object's symbol table.
type Symbol struct {
	Kind       SymbolKind
	Section    SectionID // SymbolSection
	SectionVar VarID     // SymbolSection: the section's addr variable
	Expr       Expr      // SymbolClosure
	LocVar     VarID     // SymbolClosure: the location variable at definition time

	DefSpan  span.Span
	HasDef   bool
	RefSpans []span.Span // every point the name was used, for "unresolved symbol" diagnostics
}

// SymbolTable owns every symbol created during semantic analysis. It is
// read-only once linking begins.
type SymbolTable struct {
	symbols []Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// DeclareUndefined allocates a fresh undeclared symbol (a forward
// reference) and returns its id.
func (st *SymbolTable) DeclareUndefined(refSpan span.Span) SymbolID {
	st.symbols = append(st.symbols, Symbol{Kind: SymbolUndeclared, RefSpans: []span.Span{refSpan}})
	return SymbolID(len(st.symbols) - 1)
}

// DefineClosure turns an existing (possibly undeclared) symbol into a
// closure definition; id must already be in the table. Returns false if id already has
// a definition (a redefinition error the caller should diagnose).
func (st *SymbolTable) DefineClosure(id SymbolID, expr Expr, locVar VarID, defSpan span.Span) bool {
	s := &st.symbols[id]
	if s.HasDef {
		return false
	}
	s.Kind = SymbolClosure
	s.Expr = expr
	s.LocVar = locVar
	s.DefSpan = defSpan
	s.HasDef = true
	return true
}

// DefineSection turns id into a section-reference symbol (used when a
// `section` directive's pending label names the new section).
func (st *SymbolTable) DefineSection(id SymbolID, section SectionID, addrVar VarID, defSpan span.Span) bool {
	s := &st.symbols[id]
	if s.HasDef {
		return false
	}
	s.Kind = SymbolSection
	s.Section = section
	s.SectionVar = addrVar
	s.DefSpan = defSpan
	s.HasDef = true
	return true
}

// New allocates a fresh, still-undeclared symbol.
func (st *SymbolTable) New() SymbolID {
	st.symbols = append(st.symbols, Symbol{Kind: SymbolUndeclared})
	return SymbolID(len(st.symbols) - 1)
}

// AddReference records that id was used at refSpan, for diagnostics.
func (st *SymbolTable) AddReference(id SymbolID, refSpan span.Span) {
	st.symbols[id].RefSpans = append(st.symbols[id].RefSpans, refSpan)
}

// Get returns the symbol for id.
func (st *SymbolTable) Get(id SymbolID) Symbol { return st.symbols[id] }

// Len returns the number of symbols.
func (st *SymbolTable) Len() int { return len(st.symbols) }

// Undefined returns the ids of every symbol that was referenced but never
// defined.
func (st *SymbolTable) Undefined() []SymbolID {
	var out []SymbolID
	for i, s := range st.symbols {
		if !s.HasDef {
			out = append(out, SymbolID(i))
		}
	}
	return out
}

// Value resolves id's current Value given vars, evaluating a closure's
// expression (with the location counter of the variable current at its
// definition site) or a section's addr variable. An undeclared symbol
// evaluates to Unknown.
func (st *SymbolTable) Value(id SymbolID, vars *VarTable) Value {
	s := st.symbols[id]
	switch s.Kind {
	case SymbolSection:
		return vars.Get(s.SectionVar)
	case SymbolClosure:
		return s.Expr.Evaluate(EvalContext{Location: vars.Get(s.LocVar), Vars: vars, Symbols: st})
	default:
		return UnknownValue
	}
}
