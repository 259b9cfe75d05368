// Package assembler is the semantic analyzer: it drives the parser's push
// actions, resolves names through the two-tier name table, expands macros,
// performs file inclusion, lowers instructions through the encoder, and
// produces a relocatable object ready for the linker.
package assembler

import (
	"fmt"

	"github.com/ytausky/gbas/codebase"
	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/gbparse"
	"github.com/ytausky/gbas/intern"
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/linker"
	"github.com/ytausky/gbas/macro"
	"github.com/ytausky/gbas/nametable"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// FileSystem is the filesystem adapter the core is given for loading source
// files. A nil FileSystem in Config falls back to the real disk.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// Config configures one assembly run. The zero Config assembles against the
// real filesystem, discards diagnostics, and uses every built-in default
// (see DefaultMaxIncludeDepth and linker.DefaultConfig).
type Config struct {
	FS   FileSystem
	Sink diagnostics.Sink

	// MaxIncludeDepth overrides DefaultMaxIncludeDepth; zero keeps the
	// default.
	MaxIncludeDepth int

	// ROM overrides the linker's ROM-shape defaults (size floor, pad byte,
	// high-RAM page start); the zero value keeps linker.DefaultConfig.
	ROM linker.Config
}

// Program is the result of a successful assembly: the fully linked object,
// its per-section placement, and the final ROM bytes.
type Program struct {
	Content  *object.Content
	Sections []linker.BinarySection
	ROM      []byte

	// SymbolNames maps every symbol defined or referenced during the run
	// back to the identifier text it was declared under, for diagnostics
	// and for gbas-inspect's symbol browser.
	SymbolNames map[object.SymbolID]string
}

// DefaultMaxIncludeDepth bounds recursive file inclusion. Cyclic includes
// are not detected by the codebase or span registry, so without a limit a
// self-including file would grow the Go call stack without bound.
const DefaultMaxIncludeDepth = 64

var builtinMnemonics = []string{
	"nop", "halt", "stop", "di", "ei", "daa", "cpl", "scf", "ccf",
	"rlca", "rrca", "rla", "rra", "reti",
	"push", "pop", "rst",
	"ld", "ldi", "ldd", "ldhl",
	"inc", "dec",
	"add", "adc", "sub", "sbc", "and", "or", "xor", "cp",
	"jp", "jr", "call", "ret",
	"rlc", "rrc", "rl", "rr", "sla", "sra", "swap", "srl", "bit", "res", "set",
}

var directiveNames = []string{"db", "dw", "ds", "org", "equ", "include", "section", "macro"}

// bindingDirectives do not flush a pending label themselves; the directive
// handler consumes it.
var bindingDirectives = map[string]bool{"equ": true, "macro": true, "section": true}

// assembler holds every piece of state shared across the whole run: the
// interner, name table, macro table, object under construction, span
// registry, loaded buffers, and diagnostic sink. Exactly one is created per
// Assemble call and threaded by reference through every file and macro
// expansion, matching the single mutable state bundle the component design
// calls for.
type assembler struct {
	in     *intern.Interner
	names  *nametable.Table
	macros *macro.Table
	obj    *object.Content
	reg    *span.Registry
	cb     *codebase.Codebase
	sink   diagnostics.Sink
	endm   intern.ID

	maxIncludeDepth int

	anyGlobalOpened bool

	// symbolNames records each symbol's source text, keyed by the id
	// object.SymbolTable assigned it. Nothing in the object model itself
	// remembers symbol names (they live only in the name table, which maps
	// the other direction); this is purely for presentation (gbas-inspect).
	symbolNames map[object.SymbolID]string
}

func newAssembler(fs FileSystem, sink diagnostics.Sink, maxIncludeDepth int) *assembler {
	a := &assembler{
		in:     intern.New(),
		names:  nametable.New(),
		macros: macro.NewTable(),
		obj:    object.NewContent(),
		reg:    span.NewRegistry(),
		cb:     codebase.New(fs),
		sink:   sink,

		maxIncludeDepth: maxIncludeDepth,

		symbolNames: make(map[object.SymbolID]string),
	}
	for _, m := range builtinMnemonics {
		a.names.Define(a.in.Intern(m), nametable.Global, nametable.Keyword(m))
	}
	for _, d := range directiveNames {
		a.names.Define(a.in.Intern(d), nametable.Global, nametable.Keyword(d))
	}
	a.endm = a.in.Intern("endm")
	return a
}

// trackingSink forwards every diagnostic to inner while remembering whether
// any clause was an error, mirroring diagnostics.Collector's own check but
// without requiring the caller to supply a Collector.
type trackingSink struct {
	inner  diagnostics.Sink
	hasErr bool
}

func (s *trackingSink) Emit(d diagnostics.Diagnostic) {
	for _, cl := range d.Clauses {
		if cl.Tag == diagnostics.Error {
			s.hasErr = true
			break
		}
	}
	s.inner.Emit(d)
}

// Assemble assembles rootFileName and everything it includes, links the
// result, and emits a ROM image. The returned bool is false if any error
// diagnostic was emitted along the way.
func Assemble(rootFileName string, cfg Config) (*Program, bool) {
	inner := cfg.Sink
	if inner == nil {
		inner = diagnostics.NoopSink{}
	}
	maxIncludeDepth := cfg.MaxIncludeDepth
	if maxIncludeDepth == 0 {
		maxIncludeDepth = DefaultMaxIncludeDepth
	}
	romCfg := cfg.ROM
	if romCfg == (linker.Config{}) {
		romCfg = linker.DefaultConfig()
	}

	track := &trackingSink{inner: inner}
	a := newAssembler(cfg.FS, track, maxIncludeDepth)

	defaultSection := a.obj.AddSection("")

	bufID, err := a.cb.Open(rootFileName)
	if err != nil {
		track.Emit(diagnostics.New(rootFileName, "file does not exist"))
		return nil, false
	}

	inclusion := a.reg.AddFile(bufID, span.Span{}, false)
	a.runFile(inclusion, rootFileName, defaultSection, 1)

	linker.Resolve(a.obj, romCfg)
	sections := linker.Emit(a.obj, track, rootFileName, romCfg)
	rom := linker.BuildROM(sections, track, rootFileName, romCfg)

	return &Program{Content: a.obj, Sections: sections, ROM: rom, SymbolNames: a.symbolNames}, !track.hasErr
}

// runFile lexes and parses one buffer (the root file or an included one)
// under a fresh Stack and fileActions, re-entrantly: the caller's own
// parse is simply suspended on the Go call stack for the duration.
func (a *assembler) runFile(inclusion span.InclusionId, fileName string, section object.SectionID, depth int) {
	buf := a.cb.Buffer(a.reg.Inclusion(inclusion).Buf)
	lx := lexer.New(buf.Data, a.in)
	src := &lexSource{lx: lx, reg: a.reg, inclusion: inclusion, sink: a.sink, fileName: fileName}
	stack := gbparse.NewStack(src)
	act := &fileActions{a: a, stack: stack, fileName: fileName, inclusion: inclusion, section: section, depth: depth}
	gbparse.Parse(stack, act, a.sink, fileName, a.endm)
}

// include opens path and recursively parses it into section, re-entrantly,
// on behalf of the including file at includingSpan.
func (a *assembler) include(path string, includingSpan span.Span, fileName string, section object.SectionID, depth int) {
	if depth > a.maxIncludeDepth {
		a.sink.Emit(diagnostics.New(fileName, fmt.Sprintf("include depth exceeds %d; stopping", a.maxIncludeDepth)))
		return
	}
	bufID, err := a.cb.Open(path)
	if err != nil {
		a.sink.Emit(diagnostics.New(fileName, "file does not exist"))
		return
	}
	inclusion := a.reg.AddFile(bufID, includingSpan, true)
	a.runFile(inclusion, path, section, depth)
}

// lexSource adapts a Lexer into gbparse's TokenSource contract, turning lex
// errors into diagnostics and skipping the offending lexeme so the rest of
// the line can still be parsed (local error recovery). An invalid-UTF-8
// buffer is the one case the lexer itself cannot recover from locally: it
// reports once and behaves as an empty buffer from then on.
type lexSource struct {
	lx        *lexer.Lexer
	reg       *span.Registry
	inclusion span.InclusionId
	sink      diagnostics.Sink
	fileName  string
}

func (s *lexSource) Next() (lexer.Token, span.Span, bool) {
	for {
		item := s.lx.Next()
		sp := s.reg.MkFileSpan(s.inclusion, item.Range)
		if item.Err != nil {
			s.sink.Emit(diagnostics.New(s.fileName, item.Err.Msg))
			if item.Err.Kind == lexer.ErrInvalidUTF8 {
				return lexer.Token{Kind: lexer.KindSigil, Sigil: lexer.Eos}, sp, true
			}
			continue
		}
		return item.Tok, sp, true
	}
}

// symbolRef resolves id (used as a value inside an expression) to a symbol,
// declaring a fresh forward-reference placeholder the first time it is
// seen. ok is false if id is already bound to a keyword or macro, which
// cannot be used as a value.
func (a *assembler) symbolRef(id intern.ID, vis nametable.Visibility, sp span.Span) (object.SymbolID, bool) {
	name, ok := a.names.Lookup(id, vis)
	if ok {
		if name.Kind != nametable.KindSymbol {
			return 0, false
		}
		symID := object.SymbolID(name.Symbol)
		a.obj.Symbols.AddReference(symID, sp)
		return symID, true
	}
	symID := a.obj.Symbols.DeclareUndefined(sp)
	a.names.Define(id, vis, nametable.Symbol(nametable.SymbolID(symID)))
	a.symbolNames[symID] = a.in.Lookup(id)
	return symID, true
}

// symbolForLabelDef resolves id as the target of a definition (a label,
// equ, or section directive), reusing a prior forward-reference's symbol
// slot if one exists. ok is false if id is already bound to a keyword or
// macro name (a redefinition-via-different-category error).
func (a *assembler) symbolForLabelDef(id intern.ID, vis nametable.Visibility) (object.SymbolID, bool) {
	name, ok := a.names.Lookup(id, vis)
	if ok {
		if name.Kind != nametable.KindSymbol {
			return 0, false
		}
		return object.SymbolID(name.Symbol), true
	}
	symID := a.obj.Symbols.New()
	a.names.Define(id, vis, nametable.Symbol(nametable.SymbolID(symID)))
	a.symbolNames[symID] = a.in.Lookup(id)
	return symID, true
}

// diagAt builds an error diagnostic carrying a source excerpt for sp.
func (a *assembler) diagAt(fileName string, sp span.Span, msg string) diagnostics.Diagnostic {
	bufID, rng := a.reg.Strip(sp)
	buf := a.cb.Buffer(bufID)
	return diagnostics.NewWithExcerpt(fileName, msg, buildExcerpt(buf.Data, rng))
}

func buildExcerpt(data []byte, rng codebase.BufRange) diagnostics.Excerpt {
	lineStart := rng.Start
	for lineStart > 0 && data[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := rng.Start
	for lineEnd < len(data) && data[lineEnd] != '\n' {
		lineEnd++
	}
	lineNo := 1
	for i := 0; i < lineStart && i < len(data); i++ {
		if data[i] == '\n' {
			lineNo++
		}
	}
	hiFrom := rng.Start - lineStart
	hiTo := rng.End - lineStart
	if hiTo > lineEnd-lineStart {
		hiTo = lineEnd - lineStart
	}
	return diagnostics.Excerpt{
		LineNumber:    lineNo,
		SourceLine:    string(data[lineStart:lineEnd]),
		HasHighlight:  true,
		HighlightFrom: hiFrom,
		HighlightTo:   hiTo,
	}
}
