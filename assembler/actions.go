package assembler

import (
	"fmt"
	"strings"

	"github.com/ytausky/gbas/encoder"
	"github.com/ytausky/gbas/gbparse"
	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/macro"
	"github.com/ytausky/gbas/nametable"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// pendingLabel is a label token seen at the start of the current line,
// waiting to be bound either to the current location (the common case) or
// consumed by a label-binding directive (equ, macro, section).
type pendingLabel struct {
	id  intern.ID
	vis nametable.Visibility
	sp  span.Span
}

// fileActions is the gbparse.SemanticActions driving one file's (or one
// include's) parse. It is shared, unmodified in identity, across every
// macro expansion pushed onto its own stack, so macro bodies dispatch
// through exactly the same directive and instruction logic as plain lines.
type fileActions struct {
	a         *assembler
	stack     *gbparse.Stack
	fileName  string
	inclusion span.InclusionId
	section   object.SectionID
	depth     int

	pending *pendingLabel
}

func (f *fileActions) Label(tok lexer.Token, sp span.Span) gbparse.SemanticActions {
	vis := nametable.VisibilityOf(f.a.in.Lookup(tok.Ident))
	f.pending = &pendingLabel{id: tok.Ident, vis: vis, sp: sp}
	return f
}

func (f *fileActions) Mnemonic(tok lexer.Token, sp span.Span) any {
	vis := nametable.VisibilityOf(f.a.in.Lookup(tok.Ident))
	name, ok := f.a.names.Lookup(tok.Ident, vis)
	if !ok {
		f.a.sink.Emit(f.a.diagAt(f.fileName, sp, fmt.Sprintf("undefined macro `%s`", f.a.in.Lookup(tok.Ident))))
		return nil
	}
	switch name.Kind {
	case nametable.KindKeyword:
		if !bindingDirectives[name.Keyword] {
			f.flushLabel()
		}
		return &instrBuilder{f: f, mnemonic: name.Keyword, span: sp}
	case nametable.KindMacro:
		f.flushLabel()
		return &macroCallBuilder{f: f, id: macro.ID(name.Macro), span: sp}
	case nametable.KindSymbol:
		f.a.sink.Emit(f.a.diagAt(f.fileName, sp, fmt.Sprintf("`%s` is a symbol, not a macro", f.a.in.Lookup(tok.Ident))))
		return nil
	default:
		return nil
	}
}

func (f *fileActions) EndLine() gbparse.SemanticActions {
	f.flushLabel()
	return f
}

// flushLabel binds a still-pending plain label to the current location: a
// closure whose expression is the location counter, evaluated against a
// freshly pinned location variable.
func (f *fileActions) flushLabel() {
	if f.pending == nil {
		return
	}
	p := f.pending
	f.pending = nil
	expr := object.Expr{Ops: []object.Op{{Code: object.OpLocationCounter, Span: p.sp}}}
	f.defineSymbolClosure(p, expr, p.sp)
}

func (f *fileActions) defineSymbolClosure(p *pendingLabel, expr object.Expr, defSpan span.Span) {
	f.openGenerationIfGlobal(p)
	symID, ok := f.a.symbolForLabelDef(p.id, p.vis)
	if !ok {
		f.a.sink.Emit(f.a.diagAt(f.fileName, p.sp, fmt.Sprintf("`%s` is already defined as something else", f.a.in.Lookup(p.id))))
		return
	}
	locVar := f.a.obj.Vars.Define()
	f.a.obj.AppendFragment(f.section, object.Fragment{Kind: object.FragReloc, Var: locVar})
	if !f.a.obj.Symbols.DefineClosure(symID, expr, locVar, defSpan) {
		f.a.sink.Emit(f.a.diagAt(f.fileName, defSpan, fmt.Sprintf("redefinition of `%s`", f.a.in.Lookup(p.id))))
	}
}

// openGenerationIfGlobal opens a fresh local-name generation whenever a
// global label, equ, section, or macro name is defined, and diagnoses a
// local name used before any global one has anchored a scope yet.
func (f *fileActions) openGenerationIfGlobal(p *pendingLabel) {
	if p.vis == nametable.Global {
		f.a.names.OpenGlobalGeneration()
		f.a.anyGlobalOpened = true
		return
	}
	if !f.a.anyGlobalOpened {
		f.a.sink.Emit(f.a.diagAt(f.fileName, p.sp, "local label used before any global label"))
	}
}

// macroCallBuilder implements gbparse.MacroCallActions: it collects one
// macro call's raw, unevaluated argument token sequences and, once the
// call line ends, pushes a lazy Expansion onto the driving file's stack.
type macroCallBuilder struct {
	f        *fileActions
	id       macro.ID
	span     span.Span
	args     macro.Args
	argSpans []span.Span
}

func (m *macroCallBuilder) Arg(toks []macro.TokenAndSpan) {
	m.args = append(m.args, toks)
	sp := m.span
	if len(toks) > 0 {
		sp = toks[0].Spn
		for _, t := range toks[1:] {
			sp = m.f.a.reg.Merge(sp, t.Spn)
		}
	}
	m.argSpans = append(m.argSpans, sp)
}

func (m *macroCallBuilder) EndCall() gbparse.SemanticActions {
	def := m.f.a.macros.Get(m.id)
	callID := m.f.a.reg.AddMacroCall(m.span, m.argSpans, def.DefID)
	exp := macro.NewExpansion(m.f.a.reg, m.f.a.macros, m.id, m.args, callID)
	m.f.stack.Push(exp)
	return m.f
}

// dirArg is one already-classified argument, shared between CPU
// instructions (converted to encoder.Operand) and directives, which need
// the extra isString distinction db/include care about.
type dirArg struct {
	shape    encoder.OperandShape
	kw       lexer.Operand
	expr     object.Expr
	isString bool
	strID    intern.ID
	span     span.Span
}

// instrBuilder implements gbparse.InstrActions uniformly for both CPU
// instructions and every argument-taking directive; finishInstr dispatches
// on the mnemonic to decide which.
type instrBuilder struct {
	f        *fileActions
	mnemonic string
	span     span.Span
	args     []dirArg
}

func (ib *instrBuilder) Operand(op lexer.Operand, sp span.Span) {
	ib.args = append(ib.args, dirArg{shape: encoder.ShapeKeyword, kw: op, span: sp})
}

func (ib *instrBuilder) Deref(op lexer.Operand, sp span.Span) {
	ib.args = append(ib.args, dirArg{shape: encoder.ShapeDeref, kw: op, span: sp})
}

func (ib *instrBuilder) BeginExpr() gbparse.ExprActions {
	return &exprBuilder{ib: ib, b: object.NewExprBuilder()}
}

func (ib *instrBuilder) BeginDerefExpr() gbparse.ExprActions {
	return &exprBuilder{ib: ib, b: object.NewExprBuilder(), deref: true}
}

func (ib *instrBuilder) EndInstr() (gbparse.SemanticActions, gbparse.RawBodyActions) {
	return ib.f.finishInstr(ib)
}

// exprBuilder implements gbparse.ExprActions, wrapping an object.ExprBuilder
// while also tracking whether the whole argument turned out to be a bare
// string literal, which db and include treat specially and every other
// consumer rejects.
type exprBuilder struct {
	ib    *instrBuilder
	b     *object.ExprBuilder
	deref bool

	ops       int
	sawString bool
	strID     intern.ID
	strSpan   span.Span

	argSpan  span.Span
	hasSpan  bool
}

func (e *exprBuilder) mark(sp span.Span) {
	if !e.hasSpan {
		e.argSpan = sp
		e.hasSpan = true
		return
	}
	e.argSpan = e.ib.f.a.reg.Merge(e.argSpan, sp)
}

func (e *exprBuilder) PushInt(n int32, sp span.Span) {
	e.mark(sp)
	e.b.PushInt(n, sp)
	e.ops++
}

func (e *exprBuilder) PushIdent(tok lexer.Token, sp span.Span) {
	e.mark(sp)
	vis := nametable.VisibilityOf(e.ib.f.a.in.Lookup(tok.Ident))
	symID, ok := e.ib.f.a.symbolRef(tok.Ident, vis, sp)
	if !ok {
		e.ib.f.a.sink.Emit(e.ib.f.a.diagAt(e.ib.f.fileName, sp, fmt.Sprintf("`%s` cannot be used as a value here", e.ib.f.a.in.Lookup(tok.Ident))))
	}
	e.b.PushName(symID, sp)
	e.ops++
}

func (e *exprBuilder) PushLocationCounter(sp span.Span) {
	e.mark(sp)
	e.b.PushLocationCounter(sp)
	e.ops++
}

func (e *exprBuilder) PushString(tok lexer.Token, sp span.Span) {
	e.mark(sp)
	e.sawString = true
	e.strID = tok.Str
	e.strSpan = sp
}

func (e *exprBuilder) PushBinOp(op object.OpCode, sp span.Span) {
	e.mark(sp)
	e.b.PushBinOp(op, sp)
	e.ops++
}

func (e *exprBuilder) EndCall(nameTok lexer.Token, arity int, sp span.Span) {
	e.mark(sp)
	name := strings.ToLower(e.ib.f.a.in.Lookup(nameTok.Ident))
	if _, ok := object.Builtins[name]; !ok {
		e.ib.f.a.sink.Emit(e.ib.f.a.diagAt(e.ib.f.fileName, sp, fmt.Sprintf("unknown function `%s`", name)))
	}
	e.b.PushCall(name, arity, sp)
	e.ops++
}

func (e *exprBuilder) EndExpr() gbparse.InstrActions {
	if e.sawString && e.ops > 0 {
		e.ib.f.a.sink.Emit(e.ib.f.a.diagAt(e.ib.f.fileName, e.strSpan, "a string literal cannot be used inside a larger expression"))
		e.sawString = false
	}
	shape := encoder.ShapeExpr
	if e.deref {
		shape = encoder.ShapeDerefExpr
	}
	ib := e.ib
	ib.args = append(ib.args, dirArg{
		shape:    shape,
		expr:     e.b.Finish(),
		span:     e.argSpan,
		isString: e.sawString,
		strID:    e.strID,
	})
	return ib
}
