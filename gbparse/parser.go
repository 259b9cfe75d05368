// Package gbparse implements the reentrant, push-style recursive-descent
// parser: it owns no semantic state of its own and drives a handed-in
// SemanticActions value, which returns the next SemanticActions to use as
// parsing proceeds.
package gbparse

import (
	"fmt"

	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/macro"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// TokenSource is anything the parser can pull (token, span) pairs from: a
// Lexer wrapped with span bookkeeping, or a macro Expansion. Both shapes
// satisfy this directly.
type TokenSource interface {
	Next() (lexer.Token, span.Span, bool)
}

// Stack is a TokenSource built from a LIFO pile of other TokenSources. It is
// how macro expansion becomes transparent to the parser: pushing an
// Expansion makes its tokens appear next, and once it is exhausted the
// stack falls back to whatever was underneath, with no parser-visible
// seam. File inclusion, by contrast, is handled by recursive entry into
// Parse (see assembler.include), not by pushing onto this stack.
type Stack struct {
	sources []TokenSource
}

// NewStack creates a Stack whose initial (bottommost) source is base.
func NewStack(base TokenSource) *Stack {
	return &Stack{sources: []TokenSource{base}}
}

// Push makes src the new top of the stack; its tokens are seen first.
func (s *Stack) Push(src TokenSource) {
	s.sources = append(s.sources, src)
}

// Next implements TokenSource, popping exhausted sources as it goes.
func (s *Stack) Next() (lexer.Token, span.Span, bool) {
	for len(s.sources) > 0 {
		top := s.sources[len(s.sources)-1]
		tok, sp, ok := top.Next()
		if ok {
			return tok, sp, true
		}
		s.sources = s.sources[:len(s.sources)-1]
	}
	return lexer.Token{}, span.Span{}, false
}

// SemanticActions is the push-style interface the parser drives. Every
// method returns the SemanticActions value to use for what follows; a
// caller is free to return itself unchanged where nothing in its own state
// needs to change.
type SemanticActions interface {
	// Label is called when the current line begins with an "ident:" token.
	Label(tok lexer.Token, sp span.Span) SemanticActions

	// Mnemonic is called for the line's leading identifier (after any
	// label has already been reported). The concrete type of the result
	// selects how the rest of the line is parsed:
	//   - InstrActions: parse a normal comma-separated expression argument
	//     list (instructions and every expr-taking directive).
	//   - MacroCallActions: parse a comma-separated list of raw,
	//     unevaluated token sequences (a macro invocation).
	//   - nil: the identifier did not resolve to anything parseable on
	//     this line (already diagnosed); discard the rest of the line.
	Mnemonic(tok lexer.Token, sp span.Span) any

	// EndLine is called once per line, at the Eol/Eos that terminates it,
	// and returns the actions value to use for the next line.
	EndLine() SemanticActions
}

// InstrActions collects one instruction's or directive's argument list.
type InstrActions interface {
	// Operand is called when an argument is exactly a bare register,
	// condition, or flag keyword with nothing else around it.
	Operand(op lexer.Operand, sp span.Span)
	// Deref is called when an argument is exactly "(keyword)".
	Deref(op lexer.Operand, sp span.Span)
	// BeginExpr starts a general expression argument (anything that isn't
	// one of the two special operand shapes above) and returns the
	// ExprActions used to push its atoms and operators.
	BeginExpr() ExprActions
	// BeginDerefExpr is like BeginExpr, but for an argument of the shape
	// "(expr)" where expr is not itself a bare register/condition/flag
	// keyword — a memory dereference of a computed address, e.g. "(nn)" in
	// "ld (nn), a". Distinct from a parenthesized sub-expression nested
	// inside a larger expression, which BeginExpr's own grouping handles.
	BeginDerefExpr() ExprActions

	// EndInstr finishes the argument list. The second return value is
	// non-nil exactly when this mnemonic opens a macro definition body
	// (the "macro" directive): the parser then switches to collecting the
	// body verbatim, up to and including the matching "endm" line.
	EndInstr() (SemanticActions, RawBodyActions)
}

// ExprActions streams one expression's postfix shape: atoms and operators
// in the order a stack-machine would consume them.
type ExprActions interface {
	PushInt(n int32, sp span.Span)
	PushIdent(tok lexer.Token, sp span.Span)
	PushLocationCounter(sp span.Span)
	PushString(tok lexer.Token, sp span.Span)
	PushBinOp(op object.OpCode, sp span.Span)
	EndCall(nameTok lexer.Token, arity int, sp span.Span)
	EndExpr() InstrActions
}

// MacroCallActions collects a macro invocation's raw argument token
// sequences, one per comma-separated slot.
type MacroCallActions interface {
	Arg(toks []macro.TokenAndSpan)
	EndCall() SemanticActions
}

// RawBodyActions receives a macro definition's body, collected verbatim
// from just after the macro directive up to (but not including) the line
// that closes it with "endm".
type RawBodyActions interface {
	EndBody(body []macro.TokenAndSpan, endmSpan span.Span) SemanticActions
}

// Parser drives SemanticActions over a TokenSource. It buffers only as much
// lookahead as a single line's grammar needs (at most up to the end of the
// current line, which derefWrapsWholeArg may scan to find a matching ")"
// when telling "(keyword)" apart from a general parenthesized expression); nothing is
// fetched across a line boundary before that line's actions have run, so a
// macro expansion pushed mid-line becomes visible starting with the very
// next token.
type Parser struct {
	src      TokenSource
	sink     diagnostics.Sink
	fileName string
	endm     intern.ID

	pending []pendingTok
	cur     pendingTok
}

type pendingTok struct {
	tok lexer.Token
	sp  span.Span
	ok  bool
}

// New creates a Parser over src. endm is the interned form of "endm",
// computed once by the caller (normally the assembler, via its shared
// interner) so the raw-body scanner can recognize the terminating line.
func New(src TokenSource, sink diagnostics.Sink, fileName string, endm intern.ID) *Parser {
	p := &Parser{src: src, sink: sink, fileName: fileName, endm: endm}
	p.advance()
	return p
}

func (p *Parser) fetch() pendingTok {
	if len(p.pending) > 0 {
		t := p.pending[0]
		p.pending = p.pending[1:]
		return t
	}
	tok, sp, ok := p.src.Next()
	return pendingTok{tok: tok, sp: sp, ok: ok}
}

func (p *Parser) advance() {
	p.cur = p.fetch()
}

// lookahead returns the token n positions past cur (n==0 is cur itself)
// without consuming anything irreversibly.
func (p *Parser) lookahead(n int) pendingTok {
	if n == 0 {
		return p.cur
	}
	for len(p.pending) < n {
		tok, sp, ok := p.src.Next()
		p.pending = append(p.pending, pendingTok{tok: tok, sp: sp, ok: ok})
	}
	return p.pending[n-1]
}

func (p *Parser) atLineEnd() bool {
	return !p.cur.ok || (p.cur.tok.Kind == lexer.KindSigil && (p.cur.tok.Sigil == lexer.Eol || p.cur.tok.Sigil == lexer.Eos))
}

func (p *Parser) atEos() bool {
	return !p.cur.ok || (p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Eos)
}

func (p *Parser) errorf(sp span.Span, format string, args ...any) {
	p.sink.Emit(diagnostics.New(p.fileName, fmt.Sprintf(format, args...)))
}

// discardLine advances past tokens up to (not including) the next Eol/Eos,
// the standard recovery action after a syntax error.
func (p *Parser) discardLine() {
	for !p.atLineEnd() {
		p.advance()
	}
}

// Parse drives actions over every line up to Eos.
func Parse(src TokenSource, actions SemanticActions, sink diagnostics.Sink, fileName string, endm intern.ID) {
	p := New(src, sink, fileName, endm)
	for {
		actions = p.parseLine(actions)
		if p.atEos() {
			return
		}
	}
}

func (p *Parser) parseLine(actions SemanticActions) SemanticActions {
	if p.cur.ok && p.cur.tok.Kind == lexer.KindLabel {
		actions = actions.Label(p.cur.tok, p.cur.sp)
		p.advance()
	}

	if p.atLineEnd() {
		return p.endLine(actions)
	}

	if p.cur.tok.Kind != lexer.KindIdent {
		p.errorf(p.cur.sp, "expected a mnemonic, found %s", p.cur.tok)
		p.discardLine()
		return p.endLine(actions)
	}

	mnemTok, mnemSp := p.cur.tok, p.cur.sp
	p.advance()
	result := actions.Mnemonic(mnemTok, mnemSp)

	switch r := result.(type) {
	case InstrActions:
		next := p.parseArgs(r)
		return p.endLine(next)
	case MacroCallActions:
		next := p.parseMacroArgs(r)
		return p.endLine(next)
	case nil:
		if !p.atLineEnd() {
			p.discardLine()
		}
		return p.endLine(actions)
	default:
		p.discardLine()
		return p.endLine(actions)
	}
}

func (p *Parser) endLine(actions SemanticActions) SemanticActions {
	next := actions.EndLine()
	if !p.atEos() {
		p.advance() // consume the Eol
	}
	return next
}

// parseArgs parses a comma-separated argument list for an instruction or
// directive, dispatching each argument to Operand/Deref/BeginExpr.
func (p *Parser) parseArgs(actions InstrActions) SemanticActions {
	if !p.atLineEnd() {
		for {
			actions = p.parseOneArg(actions)
			if p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	next, raw := actions.EndInstr()
	if raw == nil {
		return next
	}
	body, endmSp := p.scanRawBody()
	return raw.EndBody(body, endmSp)
}

func (p *Parser) parseOneArg(actions InstrActions) InstrActions {
	// An argument whose outermost shape is "( ... )" spanning the whole
	// argument is a deref operand: either a bare keyword (a typed register
	// deref, e.g. "(hl)"/"(c)") or a general address expression (e.g.
	// "(nn)"). A "(...)" that is only part of a bigger expression, like
	// "(1+2)*3", is ordinary grouping instead and falls through below.
	if p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.LParen && p.derefWrapsWholeArg() {
		p.advance() // (
		if p.cur.ok && p.cur.tok.Kind == lexer.KindLiteral && p.cur.tok.LitKind == lexer.LitOperand {
			la1 := p.lookahead(1)
			if la1.ok && la1.tok.Kind == lexer.KindSigil && la1.tok.Sigil == lexer.RParen {
				opTok, opSp := p.cur.tok, p.cur.sp
				p.advance() // keyword
				p.advance() // )
				actions.Deref(opTok.Operand, opSp)
				return actions
			}
		}
		ea := actions.BeginDerefExpr()
		p.parseExprOr(ea)
		p.expectRParen()
		return ea.EndExpr()
	}

	// A bare register/condition/flag keyword with nothing else following
	// it within this argument is a typed operand, not a numeric atom.
	if p.cur.ok && p.cur.tok.Kind == lexer.KindLiteral && p.cur.tok.LitKind == lexer.LitOperand {
		la1 := p.lookahead(1)
		if !la1.ok || (la1.tok.Kind == lexer.KindSigil && (la1.tok.Sigil == lexer.Comma || la1.tok.Sigil == lexer.Eol || la1.tok.Sigil == lexer.Eos || la1.tok.Sigil == lexer.RParen)) {
			op, sp := p.cur.tok.Operand, p.cur.sp
			p.advance()
			actions.Operand(op, sp)
			return actions
		}
	}

	ea := actions.BeginExpr()
	p.parseExprOr(ea)
	return ea.EndExpr()
}

// derefWrapsWholeArg reports whether, starting at the LParen under cur, the
// matching RParen is immediately followed by the end of this argument
// (a comma, Eol, or Eos) — i.e. whether the parenthesized group is the
// entire argument rather than a sub-expression nested in a larger one.
func (p *Parser) derefWrapsWholeArg() bool {
	depth := 0
	for i := 0; ; i++ {
		t := p.lookahead(i)
		if !t.ok {
			return false
		}
		if t.tok.Kind != lexer.KindSigil {
			continue
		}
		switch t.tok.Sigil {
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
			if depth == 0 {
				nxt := p.lookahead(i + 1)
				return !nxt.ok || (nxt.tok.Kind == lexer.KindSigil &&
					(nxt.tok.Sigil == lexer.Comma || nxt.tok.Sigil == lexer.Eol || nxt.tok.Sigil == lexer.Eos))
			}
		case lexer.Eol, lexer.Eos:
			return false
		}
	}
}

// parseMacroArgs parses a macro invocation's comma-separated raw argument
// token sequences: no expression evaluation, no operand classification,
// just verbatim tokens up to the next top-level comma, Eol, or Eos.
func (p *Parser) parseMacroArgs(actions MacroCallActions) SemanticActions {
	if !p.atLineEnd() {
		for {
			var toks []macro.TokenAndSpan
			for !p.atLineEnd() && !(p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Comma) {
				toks = append(toks, macro.TokenAndSpan{Tok: p.cur.tok, Spn: p.cur.sp})
				p.advance()
			}
			actions.Arg(toks)
			if p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	return actions.EndCall()
}

// scanRawBody collects every token from just after the macro directive up
// to (not including) the line whose first identifier is "endm". The match
// is by interned id against the endm the caller passed to New, so only
// that exact spelling ends the body; other casings such as "ENDM" do not.
// Eol tokens between body lines are kept, reproducing line breaks
// when the macro is later expanded and reparsed.
func (p *Parser) scanRawBody() ([]macro.TokenAndSpan, span.Span) {
	var body []macro.TokenAndSpan
	lineHasIdent := false
	for {
		if !p.cur.ok {
			return body, p.cur.sp
		}
		if p.cur.tok.Kind == lexer.KindIdent && !lineHasIdent && p.cur.tok.Ident == p.endm {
			endmSp := p.cur.sp
			p.advance()
			p.discardLine()
			return body, endmSp
		}
		if p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Eos {
			return body, p.cur.sp
		}
		if p.cur.tok.Kind == lexer.KindIdent {
			lineHasIdent = true
		} else if p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Eol {
			lineHasIdent = false
		}
		body = append(body, macro.TokenAndSpan{Tok: p.cur.tok, Spn: p.cur.sp})
		p.advance()
	}
}

// --- expression precedence climbing ---
//
//	or       := addsub (Pipe addsub)*
//	addsub   := muldiv ((Plus|Minus) muldiv)*
//	muldiv   := unary ((Star|Slash) unary)*
//	unary    := Minus unary | primary
//	primary  := Number | Ident (LParen or-list RParen)? | String | Dot | LParen or RParen
func (p *Parser) parseExprOr(ea ExprActions) {
	p.parseExprAddSub(ea)
	for p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Pipe {
		sp := p.cur.sp
		p.advance()
		p.parseExprAddSub(ea)
		ea.PushBinOp(object.OpOr, sp)
	}
}

func (p *Parser) parseExprAddSub(ea ExprActions) {
	p.parseExprMulDiv(ea)
	for p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && (p.cur.tok.Sigil == lexer.Plus || p.cur.tok.Sigil == lexer.Minus) {
		op, sp := p.cur.tok.Sigil, p.cur.sp
		p.advance()
		p.parseExprMulDiv(ea)
		if op == lexer.Plus {
			ea.PushBinOp(object.OpAdd, sp)
		} else {
			ea.PushBinOp(object.OpSub, sp)
		}
	}
}

func (p *Parser) parseExprMulDiv(ea ExprActions) {
	p.parseExprUnary(ea)
	for p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && (p.cur.tok.Sigil == lexer.Star || p.cur.tok.Sigil == lexer.Slash) {
		op, sp := p.cur.tok.Sigil, p.cur.sp
		p.advance()
		p.parseExprUnary(ea)
		if op == lexer.Star {
			ea.PushBinOp(object.OpMul, sp)
		} else {
			ea.PushBinOp(object.OpDiv, sp)
		}
	}
}

func (p *Parser) parseExprUnary(ea ExprActions) {
	if p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Minus {
		sp := p.cur.sp
		p.advance()
		ea.PushInt(0, sp)
		p.parseExprUnary(ea)
		ea.PushBinOp(object.OpSub, sp)
		return
	}
	p.parseExprPrimary(ea)
}

func (p *Parser) parseExprPrimary(ea ExprActions) {
	if !p.cur.ok {
		p.errorf(p.cur.sp, "unexpected end of file in expression")
		return
	}
	tok, sp := p.cur.tok, p.cur.sp

	switch {
	case tok.Kind == lexer.KindLiteral && tok.LitKind == lexer.LitNumber:
		p.advance()
		ea.PushInt(tok.Number, sp)

	case tok.Kind == lexer.KindLiteral && tok.LitKind == lexer.LitString:
		p.advance()
		ea.PushString(tok, sp)

	case tok.Kind == lexer.KindSigil && tok.Sigil == lexer.Dot:
		p.advance()
		ea.PushLocationCounter(sp)

	case tok.Kind == lexer.KindSigil && tok.Sigil == lexer.LParen:
		p.advance()
		p.parseExprOr(ea)
		p.expectRParen()

	case tok.Kind == lexer.KindIdent:
		p.advance()
		if p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.LParen {
			p.advance()
			arity := 0
			if !(p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.RParen) {
				for {
					p.parseExprOr(ea)
					arity++
					if p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.Comma {
						p.advance()
						continue
					}
					break
				}
			}
			p.expectRParen()
			ea.EndCall(tok, arity, sp)
			return
		}
		ea.PushIdent(tok, sp)

	default:
		p.errorf(sp, "unexpected token in expression: %s", tok)
		p.advance()
	}
}

func (p *Parser) expectRParen() {
	if p.cur.ok && p.cur.tok.Kind == lexer.KindSigil && p.cur.tok.Sigil == lexer.RParen {
		p.advance()
		return
	}
	p.errorf(p.cur.sp, "unmatched parenthesis")
}
