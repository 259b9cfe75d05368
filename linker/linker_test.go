package linker

import (
	"bytes"
	"testing"

	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

func TestResolveSimpleOriginAndBytes(t *testing.T) {
	content := object.NewContent()
	sec := content.AddSection("main")

	b := object.NewExprBuilder()
	b.PushInt(0x150, span.Span{})
	content.SetOrigin(sec, b.Finish())

	content.AppendFragment(sec, object.Fragment{Kind: object.FragByte, Byte: 0x00})
	content.AppendFragment(sec, object.Fragment{Kind: object.FragByte, Byte: 0xC9})

	Resolve(content, DefaultConfig())

	addr, ok := content.Vars.Get(content.Section(sec).AddrVar).Exact()
	if !ok || addr != 0x150 {
		t.Fatalf("addr = %v, ok=%v, want 0x150", addr, ok)
	}
	size, ok := content.Vars.Get(content.Section(sec).SizeVar).Exact()
	if !ok || size != 2 {
		t.Fatalf("size = %v, ok=%v, want 2", size, ok)
	}

	sink := &diagnostics.Collector{}
	bins := Emit(content, sink, "test.asm", DefaultConfig())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}
	if len(bins) != 1 || !bytes.Equal(bins[0].Data, []byte{0x00, 0xC9}) {
		t.Fatalf("unexpected binary sections: %+v", bins)
	}
}

func TestResolveLabelForwardReference(t *testing.T) {
	content := object.NewContent()
	sec := content.AddSection("main")

	originB := object.NewExprBuilder()
	originB.PushInt(0x100, span.Span{})
	content.SetOrigin(sec, originB.Finish())

	target := content.Symbols.New()

	// jp target: opcode byte + word immediate referencing the forward label.
	content.AppendFragment(sec, object.Fragment{Kind: object.FragByte, Byte: 0xC3})
	wordB := object.NewExprBuilder()
	wordB.PushName(target, span.Span{})
	content.AppendFragment(sec, object.Fragment{Kind: object.FragImmediate, Expr: wordB.Finish(), Width: object.Word})

	// label "target" is pinned to the location counter right here via a
	// FragReloc fragment, and its closure just reads that pinned variable.
	locVar := content.Vars.Define()
	content.AppendFragment(sec, object.Fragment{Kind: object.FragReloc, Var: locVar})
	locCounterB := object.NewExprBuilder()
	locCounterB.PushLocationCounter(span.Span{})
	if !content.Symbols.DefineClosure(target, locCounterB.Finish(), locVar, span.Span{}) {
		t.Fatal("DefineClosure failed")
	}
	content.AppendFragment(sec, object.Fragment{Kind: object.FragByte, Byte: 0x00})

	Resolve(content, DefaultConfig())
	if VerifyFixedPoint(content, DefaultConfig()) {
		t.Fatal("expected a fixed point after two refinement passes")
	}

	sink := &diagnostics.Collector{}
	bins := Emit(content, sink, "test.asm", DefaultConfig())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}
	want := []byte{0xC3, 0x03, 0x01, 0x00} // jp $0103 ; target label at $0103
	if !bytes.Equal(bins[0].Data, want) {
		t.Fatalf("got % X, want % X", bins[0].Data, want)
	}
}

func TestEmitReportsUnresolvedName(t *testing.T) {
	content := object.NewContent()
	sec := content.AddSection("main")
	undef := content.Symbols.DeclareUndefined(span.Span{})

	eb := object.NewExprBuilder()
	eb.PushName(undef, span.Span{})
	content.AppendFragment(sec, object.Fragment{Kind: object.FragImmediate, Expr: eb.Finish(), Width: object.Byte})

	Resolve(content, DefaultConfig())
	sink := &diagnostics.Collector{}
	Emit(content, sink, "test.asm", DefaultConfig())
	if !sink.HasErrors() {
		t.Fatal("expected an unresolved-symbol diagnostic")
	}
}

func TestBuildROMPadsAndReportsOverlap(t *testing.T) {
	sections := []BinarySection{
		{Addr: 0x100, Data: []byte{0x01, 0x02, 0x03}},
		{Addr: 0x101, Data: []byte{0xFF}},
	}
	sink := &diagnostics.Collector{}
	rom := BuildROM(sections, sink, "test.asm", DefaultConfig())

	if len(rom) < MinROMLen {
		t.Fatalf("rom length %d below MinROMLen", len(rom))
	}
	if rom[0x100] != 0x01 || rom[0x101] != 0xFF || rom[0x102] != 0x03 {
		t.Fatalf("unexpected overlapping bytes: % X", rom[0x100:0x103])
	}
	if rom[0] != PadByte {
		t.Fatalf("expected pad byte at start of rom, got %#x", rom[0])
	}

	sawNote := false
	for _, d := range sink.Diagnostics {
		for _, c := range d.Clauses {
			if c.Tag == diagnostics.Note {
				sawNote = true
			}
		}
	}
	if !sawNote {
		t.Fatal("expected an informational overlap note, got none")
	}
}

func TestBuildROMGrowsPastMinLen(t *testing.T) {
	sink := &diagnostics.Collector{}
	rom := BuildROM([]BinarySection{{Addr: MinROMLen, Data: []byte{0x01}}}, sink, "test.asm", DefaultConfig())
	if len(rom) != MinROMLen+1 {
		t.Fatalf("rom length = %d, want %d", len(rom), MinROMLen+1)
	}
}

func TestLdInlineAddrSizing(t *testing.T) {
	content := object.NewContent()
	sec := content.AddSection("main")

	originB := object.NewExprBuilder()
	originB.PushInt(0, span.Span{})
	content.SetOrigin(sec, originB.Finish())

	// $FF80 (high page) should size to 2 bytes; $1000 should size to 3.
	lowFrag := object.Fragment{Kind: object.FragLdInlineAddr, Opcode: []byte{0xE0}, Expr: constExpr(0xFF80)}
	content.AppendFragment(sec, lowFrag)
	content.AppendFragment(sec, object.Fragment{Kind: object.FragLdInlineAddr, Opcode: []byte{0xE0}, Expr: constExpr(0x1000)})

	Resolve(content, DefaultConfig())
	sink := &diagnostics.Collector{}
	bins := Emit(content, sink, "test.asm", DefaultConfig())
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics)
	}
	want := []byte{0xE0, 0x80, 0xEA, 0x00, 0x10}
	if !bytes.Equal(bins[0].Data, want) {
		t.Fatalf("got % X, want % X", bins[0].Data, want)
	}
}

func constExpr(n int32) object.Expr {
	b := object.NewExprBuilder()
	b.PushInt(n, span.Span{})
	return b.Finish()
}
