package macro_test

import (
	"testing"

	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/macro"
	"github.com/ytausky/gbas/span"
)

func drain(t *testing.T, e *macro.Expansion) []lexer.Token {
	t.Helper()
	var out []lexer.Token
	for i := 0; i < 1000; i++ {
		tok, _, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
	t.Fatal("runaway expansion")
	return nil
}

func TestExpansionSubstitutesArgumentForParam(t *testing.T) {
	in := intern.New()
	reg := span.NewRegistry()
	tab := macro.NewTable()

	n := in.Intern("n")
	id := tab.Define(macro.Def{
		Params: []intern.ID{n},
		Body:   []lexer.Token{{Kind: lexer.KindIdent, Ident: n}},
	})

	args := macro.Args{{{Tok: lexer.Token{Kind: lexer.KindLiteral, LitKind: lexer.LitNumber, Number: 42}}}}
	call := reg.AddMacroCall(span.Span{}, nil, 0)
	exp := macro.NewExpansion(reg, tab, id, args, call)

	toks := drain(t, exp)
	if len(toks) != 1 || toks[0].Kind != lexer.KindLiteral || toks[0].Number != 42 {
		t.Fatalf("got %v, want a single Number(42) token", toks)
	}
}

func TestExpansionPassesThroughNonParamTokens(t *testing.T) {
	in := intern.New()
	reg := span.NewRegistry()
	tab := macro.NewTable()

	nop := in.Intern("nop")
	id := tab.Define(macro.Def{
		Body: []lexer.Token{{Kind: lexer.KindIdent, Ident: nop}},
	})

	call := reg.AddMacroCall(span.Span{}, nil, 0)
	exp := macro.NewExpansion(reg, tab, id, nil, call)

	toks := drain(t, exp)
	if len(toks) != 1 || toks[0].Ident != nop {
		t.Fatalf("got %v, want the literal body token unchanged", toks)
	}
}

func TestExpansionSynthesizesLabelFromIdentArgument(t *testing.T) {
	in := intern.New()
	reg := span.NewRegistry()
	tab := macro.NewTable()

	p := in.Intern("p")
	x := in.Intern("loop_x")
	id := tab.Define(macro.Def{
		Params: []intern.ID{p},
		Body:   []lexer.Token{{Kind: lexer.KindLabel, Ident: p}},
	})

	args := macro.Args{{{Tok: lexer.Token{Kind: lexer.KindIdent, Ident: x}}}}
	call := reg.AddMacroCall(span.Span{}, nil, 0)
	exp := macro.NewExpansion(reg, tab, id, args, call)

	toks := drain(t, exp)
	if len(toks) != 1 || toks[0].Kind != lexer.KindLabel || toks[0].Ident != x {
		t.Fatalf("got %v, want a synthesized Label(loop_x)", toks)
	}
}

func TestExpansionSkipsMissingArgument(t *testing.T) {
	in := intern.New()
	reg := span.NewRegistry()
	tab := macro.NewTable()

	n := in.Intern("n")
	halt := in.Intern("halt")
	id := tab.Define(macro.Def{
		Params: []intern.ID{n},
		Body: []lexer.Token{
			{Kind: lexer.KindIdent, Ident: n},
			{Kind: lexer.KindIdent, Ident: halt},
		},
	})

	call := reg.AddMacroCall(span.Span{}, nil, 0)
	exp := macro.NewExpansion(reg, tab, id, nil, call)

	toks := drain(t, exp)
	if len(toks) != 1 || toks[0].Ident != halt {
		t.Fatalf("got %v, want only the halt token (missing arg produces nothing)", toks)
	}
}

func TestExpansionSpansArgumentTokensAgainstTheCallSite(t *testing.T) {
	in := intern.New()
	reg := span.NewRegistry()
	tab := macro.NewTable()

	n := in.Intern("n")
	id := tab.Define(macro.Def{
		Params: []intern.ID{n},
		Body:   []lexer.Token{{Kind: lexer.KindIdent, Ident: n}},
	})

	args := macro.Args{{{Tok: lexer.Token{Kind: lexer.KindLiteral, LitKind: lexer.LitNumber, Number: 7}}}}
	call := reg.AddMacroCall(span.Span{}, nil, 0)
	exp := macro.NewExpansion(reg, tab, id, args, call)

	_, sp, ok := exp.Next()
	if !ok {
		t.Fatal("expected one token")
	}
	if sp.Kind != span.KindExpansion || sp.Call != call {
		t.Fatalf("span = %+v, want a KindExpansion span against call %v", sp, call)
	}
}
