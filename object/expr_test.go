package object_test

import (
	"testing"

	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

func evalConst(t *testing.T, e object.Expr) int64 {
	t.Helper()
	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	v := e.Evaluate(object.EvalContext{Location: object.UnknownValue, Vars: vars, Symbols: st})
	n, ok := v.Exact()
	if !ok {
		t.Fatalf("expected an exact result, got %+v", v)
	}
	return n
}

func TestEvaluateArithmeticPostfix(t *testing.T) {
	// (2 + 3) * 4 == 20
	b := object.NewExprBuilder()
	b.PushInt(2, span.Span{})
	b.PushInt(3, span.Span{})
	b.PushBinOp(object.OpAdd, span.Span{})
	b.PushInt(4, span.Span{})
	b.PushBinOp(object.OpMul, span.Span{})

	if got := evalConst(t, b.Finish()); got != 20 {
		t.Fatalf("got %d, want 20", got)
	}
}

func TestEvaluateLocationCounter(t *testing.T) {
	b := object.NewExprBuilder()
	b.PushLocationCounter(span.Span{})
	b.PushInt(4, span.Span{})
	b.PushBinOp(object.OpAdd, span.Span{})

	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	v := b.Finish().Evaluate(object.EvalContext{Location: object.Const(0x100), Vars: vars, Symbols: st})
	if n, ok := v.Exact(); !ok || n != 0x104 {
		t.Fatalf("got %+v, want 0x104", v)
	}
}

func TestEvaluateUndefinedNameIsUnknown(t *testing.T) {
	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	undef := st.DeclareUndefined(span.Span{})

	b := object.NewExprBuilder()
	b.PushName(undef, span.Span{})
	v := b.Finish().Evaluate(object.EvalContext{Vars: vars, Symbols: st})
	if !v.Unknown {
		t.Fatalf("got %+v, want Unknown", v)
	}
}

func TestEvaluateLowHighBuiltins(t *testing.T) {
	b := object.NewExprBuilder()
	b.PushInt(0x1234, span.Span{})
	b.PushCall("low", 1, span.Span{})
	if got := evalConst(t, b.Finish()); got != 0x34 {
		t.Fatalf("low(0x1234) = %d, want 0x34", got)
	}

	b2 := object.NewExprBuilder()
	b2.PushInt(0x1234, span.Span{})
	b2.PushCall("high", 1, span.Span{})
	if got := evalConst(t, b2.Finish()); got != 0x12 {
		t.Fatalf("high(0x1234) = %d, want 0x12", got)
	}
}

func TestEvaluateUnknownFunctionIsUnknown(t *testing.T) {
	b := object.NewExprBuilder()
	b.PushInt(1, span.Span{})
	b.PushCall("bogus", 1, span.Span{})

	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	v := b.Finish().Evaluate(object.EvalContext{Vars: vars, Symbols: st})
	if !v.Unknown {
		t.Fatalf("got %+v, want Unknown for an unrecognized function", v)
	}
}
