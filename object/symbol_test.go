package object_test

import (
	"testing"

	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

func TestDeclareUndefinedStartsWithoutADefinition(t *testing.T) {
	st := object.NewSymbolTable()
	id := st.DeclareUndefined(span.Span{})
	if st.Get(id).HasDef {
		t.Fatal("a forward-reference placeholder should have no definition yet")
	}
}

func TestDefineClosureRejectsRedefinition(t *testing.T) {
	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	locVar := vars.Define()
	id := st.New()

	b := object.NewExprBuilder()
	b.PushInt(1, span.Span{})
	if !st.DefineClosure(id, b.Finish(), locVar, span.Span{}) {
		t.Fatal("first DefineClosure should succeed")
	}
	if st.DefineClosure(id, b.Finish(), locVar, span.Span{}) {
		t.Fatal("a second DefineClosure on the same symbol should fail")
	}
}

func TestDefineSectionRejectsRedefinition(t *testing.T) {
	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	addrVar := vars.Define()
	id := st.New()

	if !st.DefineSection(id, object.SectionID(0), addrVar, span.Span{}) {
		t.Fatal("first DefineSection should succeed")
	}
	if st.DefineSection(id, object.SectionID(0), addrVar, span.Span{}) {
		t.Fatal("a second DefineSection on the same symbol should fail")
	}
}

func TestValueResolvesClosureAgainstItsDefinitionLocation(t *testing.T) {
	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	locVar := vars.Define()
	vars.Refine(locVar, object.Const(0x200))

	id := st.New()
	b := object.NewExprBuilder()
	b.PushLocationCounter(span.Span{})
	st.DefineClosure(id, b.Finish(), locVar, span.Span{})

	v := st.Value(id, vars)
	if n, ok := v.Exact(); !ok || n != 0x200 {
		t.Fatalf("got %+v, want Const(0x200)", v)
	}
}

func TestValueResolvesSectionToItsAddrVar(t *testing.T) {
	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	addrVar := vars.Define()
	vars.Refine(addrVar, object.Const(0x150))

	id := st.New()
	st.DefineSection(id, object.SectionID(0), addrVar, span.Span{})

	v := st.Value(id, vars)
	if n, ok := v.Exact(); !ok || n != 0x150 {
		t.Fatalf("got %+v, want Const(0x150)", v)
	}
}

func TestValueOfUndeclaredSymbolIsUnknown(t *testing.T) {
	st := object.NewSymbolTable()
	vars := object.NewVarTable()
	id := st.DeclareUndefined(span.Span{})
	if v := st.Value(id, vars); !v.Unknown {
		t.Fatalf("got %+v, want Unknown", v)
	}
}

func TestUndefinedListsOnlySymbolsWithoutADefinition(t *testing.T) {
	st := object.NewSymbolTable()
	undef := st.DeclareUndefined(span.Span{})
	defined := st.New()
	vars := object.NewVarTable()
	locVar := vars.Define()
	b := object.NewExprBuilder()
	b.PushInt(1, span.Span{})
	st.DefineClosure(defined, b.Finish(), locVar, span.Span{})

	undefIDs := st.Undefined()
	if len(undefIDs) != 1 || undefIDs[0] != undef {
		t.Fatalf("Undefined() = %v, want [%v]", undefIDs, undef)
	}
}

func TestAddReferenceAccumulatesRefSpans(t *testing.T) {
	st := object.NewSymbolTable()
	id := st.DeclareUndefined(span.Span{})
	st.AddReference(id, span.Span{})
	st.AddReference(id, span.Span{})
	if got := len(st.Get(id).RefSpans); got != 3 {
		t.Fatalf("RefSpans len = %d, want 3 (1 from DeclareUndefined + 2 added)", got)
	}
}
