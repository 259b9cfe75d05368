package lexer_test

import (
	"testing"

	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
)

func tokenize(t *testing.T, src string) ([]lexer.Item, *intern.Interner) {
	t.Helper()
	in := intern.New()
	l := lexer.New([]byte(src), in)
	var items []lexer.Item
	for {
		it := l.Next()
		items = append(items, it)
		if it.Err == nil && it.Tok.Kind == lexer.KindSigil && it.Tok.Sigil == lexer.Eos {
			break
		}
		if len(items) > 1000 {
			t.Fatalf("runaway lexer on %q", src)
		}
	}
	return items, in
}

func TestLexerLossless(t *testing.T) {
	cases := []string{
		"nop\n",
		"  jp $0150\n",
		"label: db 1, 2, 3\n",
		"; a comment\nhalt\n",
		`ld a, "hi there"` + "\n",
		"ds %1010 + 4\n",
	}
	for _, src := range cases {
		items, _ := tokenize(t, src)
		for _, it := range items {
			if it.Err != nil {
				continue
			}
			got := string([]byte(src)[it.Range.Start:it.Range.End])
			switch {
			case it.Tok.Kind == lexer.KindSigil && it.Tok.Sigil == lexer.Eos:
				if got != "" {
					t.Errorf("eos token should be zero width, got %q", got)
				}
			default:
				if got == "" {
					t.Errorf("token %v has empty source slice in %q", it.Tok, src)
				}
			}
		}
	}
}

func TestIdentifierVsLabel(t *testing.T) {
	items, in := tokenize(t, "foo: bar\n")
	if items[0].Tok.Kind != lexer.KindLabel || in.Lookup(items[0].Tok.Ident) != "foo" {
		t.Fatalf("expected label foo, got %v", items[0].Tok)
	}
	// skip whitespace token (none emitted) -> next should be Ident bar
	var identSeen bool
	for _, it := range items {
		if it.Tok.Kind == lexer.KindIdent && in.Lookup(it.Tok.Ident) == "bar" {
			identSeen = true
		}
	}
	if !identSeen {
		t.Fatalf("expected ident bar among %v", items)
	}
}

func TestOperandKeywordNotLabel(t *testing.T) {
	items, _ := tokenize(t, "hl:\n")
	if items[0].Tok.Kind != lexer.KindLabel {
		t.Fatalf("hl: should lex as a label, got %v", items[0].Tok)
	}
	items2, _ := tokenize(t, "ld a, hl\n")
	var sawOperandHL bool
	for _, it := range items2 {
		if it.Tok.Kind == lexer.KindLiteral && it.Tok.LitKind == lexer.LitOperand && it.Tok.Operand == lexer.OpHL {
			sawOperandHL = true
		}
	}
	if !sawOperandHL {
		t.Fatalf("expected HL operand keyword among %v", items2)
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want int32
	}{
		{"123", 123},
		{"$1aF", 0x1af},
		{"%1010", 0b1010},
	}
	for _, tt := range tests {
		items, _ := tokenize(t, tt.src+"\n")
		tok := items[0].Tok
		if tok.Kind != lexer.KindLiteral || tok.LitKind != lexer.LitNumber || tok.Number != tt.want {
			t.Errorf("%q: got %v, want number %d", tt.src, tok, tt.want)
		}
	}
}

func TestNumberOutOfRange(t *testing.T) {
	items, _ := tokenize(t, "$FFFFFFFFF\n")
	if items[0].Err == nil || items[0].Err.Kind != lexer.ErrNumberOutOfRange {
		t.Fatalf("expected out-of-range error, got %v", items[0])
	}
}

func TestUnterminatedString(t *testing.T) {
	items, _ := tokenize(t, `"abc`)
	if items[0].Err == nil || items[0].Err.Kind != lexer.ErrUnterminatedString {
		t.Fatalf("expected unterminated string error, got %v", items[0])
	}
}

func TestStringDoubledQuoteEscape(t *testing.T) {
	in := intern.New()
	l := lexer.New([]byte(`"a""b"`+"\n"), in)
	it := l.Next()
	if it.Err != nil || it.Tok.LitKind != lexer.LitString {
		t.Fatalf("unexpected item: %v", it)
	}
	if got := in.Lookup(it.Tok.Str); got != `a"b` {
		t.Fatalf("got %q, want a\"b", got)
	}
}

func TestInvalidUTF8(t *testing.T) {
	in := intern.New()
	l := lexer.New([]byte{0x5A, 0x0A, 0xF6, 0xA6}, in)
	it := l.Next()
	if it.Err == nil || it.Err.Kind != lexer.ErrInvalidUTF8 {
		t.Fatalf("expected invalid utf8 error, got %v", it)
	}
	it2 := l.Next()
	if it2.Tok.Kind != lexer.KindSigil || it2.Tok.Sigil != lexer.Eos {
		t.Fatalf("expected eos after invalid utf8, got %v", it2)
	}
}

func TestCommaAndSigils(t *testing.T) {
	items, _ := tokenize(t, "(1+2)*3/4|5\n")
	var kinds []lexer.SigilKind
	for _, it := range items {
		if it.Tok.Kind == lexer.KindSigil {
			kinds = append(kinds, it.Tok.Sigil)
		}
	}
	want := []lexer.SigilKind{lexer.LParen, lexer.Plus, lexer.RParen, lexer.Star, lexer.Slash, lexer.Pipe, lexer.Eol, lexer.Eos}
	if len(kinds) != len(want) {
		t.Fatalf("got sigils %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("sigil %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}
