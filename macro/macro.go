// Package macro stores macro definitions and produces a lazy expansion
// token stream that the parser consumes as if it were lexer output.
package macro

import (
	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/span"
)

// ID identifies one macro definition.
type ID int

// TokenAndSpan is one lexed token paired with its source span, the unit
// both a Lexer and an Expansion produce.
type TokenAndSpan struct {
	Tok lexer.Token
	Spn span.Span
}

// Def is a macro definition: its formal parameters and its body, stored
// exactly as written (the body tokens and their spans are kept verbatim).
type Def struct {
	Params    []intern.ID
	Body      []lexer.Token
	BodySpans []span.Span
	DefID     span.MacroDefId
}

// Table stores every macro defined during a run. Macro definitions live
// until assembly ends.
type Table struct {
	defs []Def
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{}
}

// Define records a new macro and returns its ID.
func (t *Table) Define(d Def) ID {
	t.defs = append(t.defs, d)
	return ID(len(t.defs) - 1)
}

// Get returns the definition for id.
func (t *Table) Get(id ID) Def { return t.defs[id] }

// Args is one macro call's argument list: one token sequence (with spans)
// per formal parameter slot the caller supplied. A call with fewer
// argument sequences than parameters leaves the rest empty.
type Args [][]TokenAndSpan

// NewExpansion starts expanding a call of macro def (looked up by id) with
// the given arguments, under call record callID. It implements the
// parser's token-source contract: repeated Next() calls drain the body in
// order, consuming argument tokens wherever the body references a
// parameter.
func NewExpansion(reg *span.Registry, t *Table, id ID, args Args, callID span.MacroCallId) *Expansion {
	def := t.Get(id)
	paramIndex := make(map[intern.ID]int, len(def.Params))
	for i, p := range def.Params {
		paramIndex[p] = i
	}
	return &Expansion{
		reg:        reg,
		def:        def,
		args:       args,
		paramIndex: paramIndex,
		callID:     callID,
	}
}

// Expansion is a stateful producer of (Token, Span) pairs, consumed by the
// parser as if it were a lexer: pushed onto a stack of token streams so
// that the visible token source is a seamless concatenation of the file
// being parsed and any macro expansions it invokes (an included file is
// parsed by a separate, nested Parse call instead).
type Expansion struct {
	reg        *span.Registry
	def        Def
	args       Args
	paramIndex map[intern.ID]int

	callID span.MacroCallId

	bodyIdx int

	// mid-argument substitution state
	inArg    bool
	argParam int
	argIdx   int
}

// Next returns the next expanded (token, span) pair, or ok=false once the
// body is exhausted.
func (e *Expansion) Next() (lexer.Token, span.Span, bool) {
	for {
		if e.inArg {
			arg := e.args.at(e.argParam)
			if e.argIdx < len(arg) {
				ts := arg[e.argIdx]
				pos := span.MacroExpansionPos{BodyIndex: e.bodyIdx, HasArg: true, ParamIdx: e.argParam, ArgIndex: e.argIdx}
				e.argIdx++
				if e.argIdx >= len(arg) {
					e.inArg = false
					e.bodyIdx++
				}
				return ts.Tok, e.reg.MkExpansionSpan(e.callID, pos, pos), true
			}
			e.inArg = false
			e.bodyIdx++
			continue
		}

		if e.bodyIdx >= len(e.def.Body) {
			return lexer.Token{}, span.Span{}, false
		}

		tok := e.def.Body[e.bodyIdx]
		pos := span.MacroExpansionPos{BodyIndex: e.bodyIdx}

		paramIdx, isParamRef := e.paramRef(tok)
		if !isParamRef {
			e.bodyIdx++
			return tok, e.reg.MkExpansionSpan(e.callID, pos, pos), true
		}

		arg := e.args.at(paramIdx)

		// Label substitution: a Label(p) body position whose argument's
		// first token is a plain Ident(x) synthesizes Label(x), consuming
		// the whole argument as a single name.
		if tok.Kind == lexer.KindLabel && len(arg) > 0 && arg[0].Tok.Kind == lexer.KindIdent {
			e.bodyIdx++
			synth := lexer.Token{Kind: lexer.KindLabel, Ident: arg[0].Tok.Ident, Range: arg[0].Tok.Range}
			argPos := span.MacroExpansionPos{BodyIndex: pos.BodyIndex, HasArg: true, ParamIdx: paramIdx, ArgIndex: 0}
			return synth, e.reg.MkExpansionSpan(e.callID, argPos, argPos), true
		}

		if len(arg) == 0 {
			// Missing/empty argument: no tokens at this body position.
			e.bodyIdx++
			continue
		}

		e.inArg = true
		e.argParam = paramIdx
		e.argIdx = 0
		continue
	}
}

func (e *Expansion) paramRef(tok lexer.Token) (int, bool) {
	if tok.Kind != lexer.KindIdent && tok.Kind != lexer.KindLabel {
		return 0, false
	}
	idx, ok := e.paramIndex[tok.Ident]
	return idx, ok
}

func (a Args) at(i int) []TokenAndSpan {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}
