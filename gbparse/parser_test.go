package gbparse_test

import (
	"fmt"
	"testing"

	"github.com/ytausky/gbas/codebase"
	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/gbparse"
	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/macro"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// plainSource adapts a bare lexer.Lexer into gbparse's TokenSource contract
// the way assembler.lexSource does, minus diagnostic-forwarding, since these
// tests only feed well-formed UTF-8 input.
type plainSource struct {
	lx  *lexer.Lexer
	reg *span.Registry
	inc span.InclusionId
}

func (s *plainSource) Next() (lexer.Token, span.Span, bool) {
	item := s.lx.Next()
	sp := s.reg.MkFileSpan(s.inc, item.Range)
	return item.Tok, sp, true
}

func newParseHarness(t *testing.T, src string) (*span.Registry, *gbparse.Stack, *intern.Interner) {
	t.Helper()
	in := intern.New()
	reg := span.NewRegistry()
	inc := reg.AddFile(codebase.BufId(0), span.Span{}, false)
	lx := lexer.New([]byte(src), in)
	stack := gbparse.NewStack(&plainSource{lx: lx, reg: reg, inc: inc})
	return reg, stack, in
}

// --- a minimal recording SemanticActions/InstrActions/ExprActions fake ---

type recorder struct {
	log *[]string
	in  *intern.Interner
}

func (r *recorder) push(s string) { *r.log = append(*r.log, s) }

type fakeActions struct{ *recorder }

func (a *fakeActions) Label(tok lexer.Token, sp span.Span) gbparse.SemanticActions {
	a.push("label:" + a.in.Lookup(tok.Ident))
	return a
}

func (a *fakeActions) Mnemonic(tok lexer.Token, sp span.Span) any {
	name := a.in.Lookup(tok.Ident)
	a.push("mnemonic:" + name)
	if name == "repeat" {
		return &fakeMacroCall{recorder: a.recorder}
	}
	return &fakeInstr{recorder: a.recorder}
}

func (a *fakeActions) EndLine() gbparse.SemanticActions {
	a.push("endline")
	return a
}

type fakeInstr struct{ *recorder }

func (a *fakeInstr) Operand(op lexer.Operand, sp span.Span) {
	a.push("operand:" + op.String())
}

func (a *fakeInstr) Deref(op lexer.Operand, sp span.Span) {
	a.push("deref:" + op.String())
}

func (a *fakeInstr) BeginExpr() gbparse.ExprActions {
	a.push("beginexpr")
	return &fakeExpr{recorder: a.recorder, instr: a}
}

func (a *fakeInstr) BeginDerefExpr() gbparse.ExprActions {
	a.push("beginderefexpr")
	return &fakeExpr{recorder: a.recorder, instr: a}
}

func (a *fakeInstr) EndInstr() (gbparse.SemanticActions, gbparse.RawBodyActions) {
	a.push("endinstr")
	return &fakeActions{recorder: a.recorder}, nil
}

type fakeExpr struct {
	*recorder
	instr *fakeInstr
}

func (e *fakeExpr) PushInt(n int32, sp span.Span)         { e.push("pushint") }
func (e *fakeExpr) PushIdent(tok lexer.Token, sp span.Span) {
	e.push("pushident:" + e.in.Lookup(tok.Ident))
}
func (e *fakeExpr) PushLocationCounter(sp span.Span) { e.push("pushloc") }
func (e *fakeExpr) PushString(tok lexer.Token, sp span.Span) { e.push("pushstring") }
func (e *fakeExpr) PushBinOp(op object.OpCode, sp span.Span) { e.push("binop") }
func (e *fakeExpr) EndCall(nameTok lexer.Token, arity int, sp span.Span) {
	e.push("endcall")
}
func (e *fakeExpr) EndExpr() gbparse.InstrActions {
	e.push("endexpr")
	return e.instr
}

type fakeMacroCall struct{ *recorder }

func (a *fakeMacroCall) Arg(toks []macro.TokenAndSpan) {
	a.push(fmt.Sprintf("macroarg:%d", len(toks)))
}

func (a *fakeMacroCall) EndCall() gbparse.SemanticActions {
	a.push("endcall")
	return &fakeActions{recorder: a.recorder}
}

func TestParseRegisterToRegisterInstruction(t *testing.T) {
	var log []string
	_, stack, in := newParseHarness(t, "ld a, b\n")
	actions := &fakeActions{recorder: &recorder{log: &log, in: in}}
	gbparse.Parse(stack, actions, diagnostics.NoopSink{}, "t.asm", in.Intern("endm"))

	want := []string{"mnemonic:ld", "operand:a", "operand:b", "endinstr", "endline"}
	assertLog(t, log, want)
}

func TestParseLabelThenExpressionDirective(t *testing.T) {
	var log []string
	_, stack, in := newParseHarness(t, "foo: db 1+2\n")
	actions := &fakeActions{recorder: &recorder{log: &log, in: in}}
	gbparse.Parse(stack, actions, diagnostics.NoopSink{}, "t.asm", in.Intern("endm"))

	want := []string{"label:foo", "mnemonic:db", "beginexpr", "pushint", "pushint", "binop", "endexpr", "endinstr", "endline"}
	assertLog(t, log, want)
}

func TestParseDerefComputedAddress(t *testing.T) {
	var log []string
	_, stack, in := newParseHarness(t, "ld (500), a\n")
	actions := &fakeActions{recorder: &recorder{log: &log, in: in}}
	gbparse.Parse(stack, actions, diagnostics.NoopSink{}, "t.asm", in.Intern("endm"))

	want := []string{"mnemonic:ld", "beginderefexpr", "pushint", "endexpr", "operand:a", "endinstr", "endline"}
	assertLog(t, log, want)
}

func TestParseDerefRegisterOperand(t *testing.T) {
	var log []string
	_, stack, in := newParseHarness(t, "ld a,(hl)\n")
	actions := &fakeActions{recorder: &recorder{log: &log, in: in}}
	gbparse.Parse(stack, actions, diagnostics.NoopSink{}, "t.asm", in.Intern("endm"))

	want := []string{"mnemonic:ld", "operand:a", "deref:hl", "endinstr", "endline"}
	assertLog(t, log, want)
}

func TestParseMacroCallArguments(t *testing.T) {
	var log []string
	_, stack, in := newParseHarness(t, "repeat x, y+1\n")
	actions := &fakeActions{recorder: &recorder{log: &log, in: in}}
	gbparse.Parse(stack, actions, diagnostics.NoopSink{}, "t.asm", in.Intern("endm"))

	want := []string{"mnemonic:repeat", "macroarg:1", "macroarg:3", "endcall", "endline"}
	assertLog(t, log, want)
}

func TestUnmatchedParenReportsDiagnostic(t *testing.T) {
	_, stack, in := newParseHarness(t, "db (1+2\n")
	var log []string
	actions := &fakeActions{recorder: &recorder{log: &log, in: in}}
	c := &diagnostics.Collector{}
	gbparse.Parse(stack, actions, c, "t.asm", in.Intern("endm"))

	if !c.HasErrors() {
		t.Fatal("expected an unmatched-parenthesis diagnostic")
	}
}

func assertLog(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}
