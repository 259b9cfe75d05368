package assembler

import (
	"fmt"

	"github.com/ytausky/gbas/encoder"
	"github.com/ytausky/gbas/gbparse"
	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/macro"
	"github.com/ytausky/gbas/nametable"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// finishInstr dispatches a completed argument list to either a directive's
// handler or the CPU instruction encoder, based on the mnemonic the name
// table resolved at the start of the line.
func (f *fileActions) finishInstr(ib *instrBuilder) (gbparse.SemanticActions, gbparse.RawBodyActions) {
	switch ib.mnemonic {
	case "db":
		f.emitDbDw(ib, object.Byte)
		return f, nil
	case "dw":
		f.emitDbDw(ib, object.Word)
		return f, nil
	case "ds":
		f.emitDs(ib)
		return f, nil
	case "org":
		f.emitOrg(ib)
		return f, nil
	case "equ":
		f.emitEqu(ib)
		return f, nil
	case "include":
		f.emitInclude(ib)
		return f, nil
	case "section":
		f.emitSection(ib)
		return f, nil
	case "macro":
		return f.beginMacroDef(ib)
	default:
		f.emitInstruction(ib)
		return f, nil
	}
}

func (f *fileActions) emitInstruction(ib *instrBuilder) {
	operands := make([]encoder.Operand, len(ib.args))
	for i, arg := range ib.args {
		if arg.isString {
			f.a.sink.Emit(f.a.diagAt(f.fileName, arg.span, "a string literal cannot be used as an instruction operand"))
		}
		operands[i] = encoder.Operand{Shape: arg.shape, Keyword: arg.kw, Expr: arg.expr, Span: arg.span}
	}
	frags, err := encoder.Encode(ib.mnemonic, operands, ib.span)
	if err != nil {
		f.a.sink.Emit(f.a.diagAt(f.fileName, err.Span, err.Error()))
		return
	}
	for _, frag := range frags {
		f.a.obj.AppendFragment(f.section, frag)
	}
}

// emitDbDw appends one Immediate fragment per numeric argument, or (db
// only) one Immediate(Byte) fragment per character of a bare string
// argument.
func (f *fileActions) emitDbDw(ib *instrBuilder, width object.Width) {
	for _, arg := range ib.args {
		if arg.isString {
			if width != object.Byte {
				f.a.sink.Emit(f.a.diagAt(f.fileName, arg.span, "dw cannot take a string argument"))
				continue
			}
			text := f.a.in.Lookup(arg.strID)
			for i := 0; i < len(text); i++ {
				f.a.obj.AppendFragment(f.section, object.Fragment{
					Kind:  object.FragImmediate,
					Expr:  object.Expr{Ops: []object.Op{{Code: object.OpInt, Int: int32(text[i]), Span: arg.span}}},
					Width: object.Byte,
				})
			}
			continue
		}
		if arg.shape != encoder.ShapeExpr {
			f.a.sink.Emit(f.a.diagAt(f.fileName, arg.span, fmt.Sprintf("%s requires a numeric argument", ib.mnemonic)))
			continue
		}
		f.a.obj.AppendFragment(f.section, object.Fragment{Kind: object.FragImmediate, Expr: arg.expr, Width: width})
	}
}

func (f *fileActions) emitDs(ib *instrBuilder) {
	if len(ib.args) != 1 || ib.args[0].shape != encoder.ShapeExpr {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "ds requires exactly one numeric argument"))
		return
	}
	f.a.obj.AppendFragment(f.section, object.Fragment{Kind: object.FragReserved, Expr: ib.args[0].expr})
}

// emitOrg sets the current section's origin while it still has no
// fragments (the prelude); once something has already been emitted into
// it, org instead starts a fresh anonymous section constrained to the new
// address.
func (f *fileActions) emitOrg(ib *instrBuilder) {
	if len(ib.args) != 1 || ib.args[0].shape != encoder.ShapeExpr {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "org requires exactly one numeric argument"))
		return
	}
	expr := ib.args[0].expr
	if len(f.a.obj.Section(f.section).Fragments) == 0 {
		f.a.obj.SetOrigin(f.section, expr)
		return
	}
	newSec := f.a.obj.AddSection("")
	f.a.obj.SetOrigin(newSec, expr)
	f.section = newSec
}

func (f *fileActions) emitEqu(ib *instrBuilder) {
	if f.pending == nil {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "equ requires a preceding label"))
		return
	}
	p := f.pending
	f.pending = nil
	if len(ib.args) != 1 || ib.args[0].shape != encoder.ShapeExpr {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "equ requires exactly one numeric argument"))
		return
	}
	f.defineSymbolClosure(p, ib.args[0].expr, p.sp)
}

func (f *fileActions) emitInclude(ib *instrBuilder) {
	if len(ib.args) != 1 || !ib.args[0].isString {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "include requires a string path argument"))
		return
	}
	path := f.a.in.Lookup(ib.args[0].strID)
	f.a.include(path, ib.args[0].span, f.fileName, f.section, f.depth+1)
}

// emitSection requires a pending label naming the new section, allocates
// it, and switches the current file's active section to it.
func (f *fileActions) emitSection(ib *instrBuilder) {
	if f.pending == nil {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "section requires a preceding label naming it"))
		return
	}
	if len(ib.args) != 0 {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "section takes no arguments"))
	}
	p := f.pending
	f.pending = nil
	name := f.a.in.Lookup(p.id)
	newSec := f.a.obj.AddSection(name)

	f.openGenerationIfGlobal(p)
	symID, ok := f.a.symbolForLabelDef(p.id, p.vis)
	if !ok {
		f.a.sink.Emit(f.a.diagAt(f.fileName, p.sp, fmt.Sprintf("`%s` is already defined as something else", name)))
	} else if !f.a.obj.Symbols.DefineSection(symID, newSec, f.a.obj.Section(newSec).AddrVar, p.sp) {
		f.a.sink.Emit(f.a.diagAt(f.fileName, p.sp, fmt.Sprintf("redefinition of `%s`", name)))
	}
	f.section = newSec
}

// beginMacroDef requires a pending label naming the macro and switches the
// parser into raw-body collection mode; takes no arguments of its own,
// since parameters are inferred from the body (see rawBodyBuilder).
func (f *fileActions) beginMacroDef(ib *instrBuilder) (gbparse.SemanticActions, gbparse.RawBodyActions) {
	if f.pending == nil {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "macro requires a preceding label naming it"))
		return f, &rawBodyBuilder{f: f}
	}
	if len(ib.args) != 0 {
		f.a.sink.Emit(f.a.diagAt(f.fileName, ib.span, "macro takes no arguments; its parameters are the labels declared in its body"))
	}
	p := f.pending
	f.pending = nil
	return f, &rawBodyBuilder{f: f, name: p}
}

// rawBodyBuilder implements gbparse.RawBodyActions. Recording the
// definition here is also where the macro's formal parameters are decided:
// every distinct label appearing in the body, in order of first
// appearance, becomes a parameter name. A call then supplies one argument
// sequence per such label, and each occurrence of that name anywhere in
// the body — as the label itself or as a plain identifier — substitutes
// the corresponding argument (see macro.Expansion).
type rawBodyBuilder struct {
	f    *fileActions
	name *pendingLabel
}

func (r *rawBodyBuilder) EndBody(body []macro.TokenAndSpan, endmSpan span.Span) gbparse.SemanticActions {
	if r.name == nil {
		return r.f
	}
	name := r.name

	toks := make([]lexer.Token, len(body))
	spans := make([]span.Span, len(body))
	for i, t := range body {
		toks[i] = t.Tok
		spans[i] = t.Spn
	}

	var params []intern.ID
	var paramSpans []span.Span
	seen := make(map[intern.ID]bool)
	for i, t := range toks {
		if t.Kind == lexer.KindLabel && !seen[t.Ident] {
			seen[t.Ident] = true
			params = append(params, t.Ident)
			paramSpans = append(paramSpans, spans[i])
		}
	}

	defID := r.f.a.reg.AddMacroDef(name.sp, paramSpans, spans)
	macroID := r.f.a.macros.Define(macro.Def{Params: params, Body: toks, BodySpans: spans, DefID: defID})

	r.f.openGenerationIfGlobal(name)
	if !r.f.a.names.Define(name.id, name.vis, nametable.Macro(nametable.MacroID(macroID))) {
		r.f.a.sink.Emit(r.f.a.diagAt(r.f.fileName, name.sp, fmt.Sprintf("`%s` is already defined as something else", r.f.a.in.Lookup(name.id))))
	}
	return r.f
}
