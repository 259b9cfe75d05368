package object_test

import (
	"testing"

	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

func TestFragmentSizeFixedKinds(t *testing.T) {
	ctx := object.EvalContext{Vars: object.NewVarTable(), Symbols: object.NewSymbolTable()}

	if got, ok := (object.Fragment{Kind: object.FragByte}).Size(ctx).Exact(); !ok || got != 1 {
		t.Fatalf("FragByte size = %v, want 1", got)
	}
	if got, ok := (object.Fragment{Kind: object.FragImmediate, Width: object.Word}).Size(ctx).Exact(); !ok || got != 2 {
		t.Fatalf("FragImmediate(Word) size = %v, want 2", got)
	}
	if got, ok := (object.Fragment{Kind: object.FragReloc}).Size(ctx).Exact(); !ok || got != 0 {
		t.Fatalf("FragReloc size = %v, want 0", got)
	}
	if got, ok := (object.Fragment{Kind: object.FragEmbedded, Opcode: []byte{0xCB, 0x40}}).Size(ctx).Exact(); !ok || got != 2 {
		t.Fatalf("FragEmbedded size = %v, want 2", got)
	}
}

func constExpr(n int64) object.Expr {
	b := object.NewExprBuilder()
	b.PushInt(int32(n), span.Span{})
	return b.Finish()
}

func TestLdInlineAddrSizeResolvedHighPage(t *testing.T) {
	ctx := object.EvalContext{Vars: object.NewVarTable(), Symbols: object.NewSymbolTable()}
	f := object.Fragment{Kind: object.FragLdInlineAddr, Expr: constExpr(0xFF80)}
	if got, ok := f.Size(ctx).Exact(); !ok || got != 2 {
		t.Fatalf("size = %v, want 2 for a resolved high-page address", got)
	}
}

func TestLdInlineAddrSizeResolvedLowPage(t *testing.T) {
	ctx := object.EvalContext{Vars: object.NewVarTable(), Symbols: object.NewSymbolTable()}
	f := object.Fragment{Kind: object.FragLdInlineAddr, Expr: constExpr(0x1000)}
	if got, ok := f.Size(ctx).Exact(); !ok || got != 3 {
		t.Fatalf("size = %v, want 3 for a resolved non-high-page address", got)
	}
}

func TestLdInlineAddrSizeUnresolvedStraddlesBothSizes(t *testing.T) {
	vars := object.NewVarTable()
	st := object.NewSymbolTable()
	undef := st.DeclareUndefined(span.Span{})
	b := object.NewExprBuilder()
	b.PushName(undef, span.Span{})

	ctx := object.EvalContext{Vars: vars, Symbols: st}
	f := object.Fragment{Kind: object.FragLdInlineAddr, Expr: b.Finish()}
	size := f.Size(ctx)
	if size.Unknown || size.Min != 2 || size.Max != 3 {
		t.Fatalf("size = %+v, want the [2,3] straddling interval", size)
	}
}

func TestLdInlineAddrSizeNarrowedIntervalAlreadyDecided(t *testing.T) {
	vars := object.NewVarTable()
	v := vars.Define()
	vars.Refine(v, object.Value{Min: 0x2000, Max: 0x3000})

	b := object.NewExprBuilder()
	b.PushLocationCounter(span.Span{})

	ctx := object.EvalContext{Location: vars.Get(v), Vars: vars, Symbols: object.NewSymbolTable()}
	f := object.Fragment{Kind: object.FragLdInlineAddr, Expr: b.Finish()}
	if got, ok := f.Size(ctx).Exact(); !ok || got != 3 {
		t.Fatalf("size = %v, want 3 once the interval is entirely below the high page", got)
	}
}
