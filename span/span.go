// Package span manufactures and composes source locations so every token,
// error, and object fragment can be traced back to characters in a file or
// to a position inside a macro expansion.
package span

import (
	"fmt"

	"github.com/ytausky/gbas/codebase"
)

// InclusionId identifies one file having been opened, optionally because
// of an including span (nil for the root file).
type InclusionId int

// MacroDefId identifies a recorded macro definition's spans.
type MacroDefId int

// MacroCallId identifies a recorded macro call site.
type MacroCallId int

// FileInclusionRecord pairs a loaded buffer with the span of the directive
// that pulled it in (the zero Span for the root file).
type FileInclusionRecord struct {
	Buf       codebase.BufId
	Including Span // zero value => root file
	HasIncl   bool
}

// MacroDefRecord records the spans of a macro's name, parameters and body
// tokens, as written at the point of definition.
type MacroDefRecord struct {
	NameSpan   Span
	ParamSpans []Span
	BodySpans  []Span
}

// MacroCallRecord references a macro definition plus the call site span and
// the span of each argument token sequence.
type MacroCallRecord struct {
	Def     MacroDefId
	Name    Span
	ArgSpan []Span
}

// MacroExpansionPos is a coordinate into a macro body: a token index within
// the body, and optionally a further descent into one argument token.
type MacroExpansionPos struct {
	BodyIndex int
	HasArg    bool
	ParamIdx  int
	ArgIndex  int
}

// Less gives MacroExpansionPos a total (lexicographic) order, used to
// compose expansion-span ranges.
func (p MacroExpansionPos) Less(o MacroExpansionPos) bool {
	if p.BodyIndex != o.BodyIndex {
		return p.BodyIndex < o.BodyIndex
	}
	if p.HasArg != o.HasArg {
		return !p.HasArg // a bare body position sorts before any argument descent
	}
	if p.ParamIdx != o.ParamIdx {
		return p.ParamIdx < o.ParamIdx
	}
	return p.ArgIndex < o.ArgIndex
}

func maxPos(a, b MacroExpansionPos) MacroExpansionPos {
	if a.Less(b) {
		return b
	}
	return a
}

func minPos(a, b MacroExpansionPos) MacroExpansionPos {
	if a.Less(b) {
		return a
	}
	return b
}

// Kind discriminates the two Span variants.
type Kind int

const (
	// KindFile spans are a byte range inside a source buffer.
	KindFile Kind = iota
	// KindExpansion spans are an inclusive range of positions inside a
	// macro expansion.
	KindExpansion
)

// Span is the sum of the two location kinds the rest of the system deals
// in: a byte range in a file, or a position range inside a macro expansion.
type Span struct {
	Kind Kind

	// KindFile fields.
	Inclusion InclusionId
	Range     codebase.BufRange

	// KindExpansion fields.
	Call     MacroCallId
	FromPos  MacroExpansionPos
	ToPos    MacroExpansionPos
}

// Registry manufactures and composes Spans. It owns every inclusion and
// macro-definition/call record for the duration of a run.
type Registry struct {
	inclusions []FileInclusionRecord
	defs       []MacroDefRecord
	calls      []MacroCallRecord
}

// NewRegistry creates an empty span registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddFile records a newly opened buffer, optionally because of an
// including span, and returns its InclusionId.
func (r *Registry) AddFile(buf codebase.BufId, including Span, hasIncluding bool) InclusionId {
	r.inclusions = append(r.inclusions, FileInclusionRecord{Buf: buf, Including: including, HasIncl: hasIncluding})
	return InclusionId(len(r.inclusions) - 1)
}

// AddMacroDef records a macro definition's spans and returns its MacroDefId.
func (r *Registry) AddMacroDef(nameSpan Span, paramSpans, bodySpans []Span) MacroDefId {
	r.defs = append(r.defs, MacroDefRecord{NameSpan: nameSpan, ParamSpans: paramSpans, BodySpans: bodySpans})
	return MacroDefId(len(r.defs) - 1)
}

// AddMacroCall records a macro call site referencing def and returns its
// MacroCallId.
func (r *Registry) AddMacroCall(nameSpan Span, argSpans []Span, def MacroDefId) MacroCallId {
	r.calls = append(r.calls, MacroCallRecord{Def: def, Name: nameSpan, ArgSpan: argSpans})
	return MacroCallId(len(r.calls) - 1)
}

// Inclusion returns the inclusion record for id.
func (r *Registry) Inclusion(id InclusionId) FileInclusionRecord { return r.inclusions[id] }

// MacroDef returns the macro definition record for id.
func (r *Registry) MacroDef(id MacroDefId) MacroDefRecord { return r.defs[id] }

// MacroCall returns the macro call record for id.
func (r *Registry) MacroCall(id MacroCallId) MacroCallRecord { return r.calls[id] }

// MkFileSpan builds a Span referring to a byte range inside inclusion.
func (r *Registry) MkFileSpan(inclusion InclusionId, rng codebase.BufRange) Span {
	return Span{Kind: KindFile, Inclusion: inclusion, Range: rng}
}

// MkExpansionSpan builds a Span covering the inclusive position range
// [from, to] inside call's macro body.
func (r *Registry) MkExpansionSpan(call MacroCallId, from, to MacroExpansionPos) Span {
	return Span{Kind: KindExpansion, Call: call, FromPos: from, ToPos: to}
}

// Merge composes two spans from the same origin: for two file spans from
// the same inclusion, the extremal byte range; for two expansion spans from
// the same call, the extremal position pair. Merging spans from different
// origins is a logic error (panics), per spec.
func (r *Registry) Merge(a, b Span) Span {
	if a.Kind != b.Kind {
		panic("span: cannot merge spans of different kinds")
	}
	switch a.Kind {
	case KindFile:
		if a.Inclusion != b.Inclusion {
			panic("span: cannot merge file spans from different inclusions")
		}
		rng := a.Range
		if b.Range.Start < rng.Start {
			rng.Start = b.Range.Start
		}
		if b.Range.End > rng.End {
			rng.End = b.Range.End
		}
		return Span{Kind: KindFile, Inclusion: a.Inclusion, Range: rng}
	case KindExpansion:
		if a.Call != b.Call {
			panic("span: cannot merge expansion spans from different calls")
		}
		from := minPos(a.FromPos, b.FromPos)
		to := maxPos(a.ToPos, b.ToPos)
		return Span{Kind: KindExpansion, Call: a.Call, FromPos: from, ToPos: to}
	default:
		panic("span: unknown span kind")
	}
}

// Strip reduces span to its canonical (buf, range) form, used by diagnostic
// rendering. Expansion spans are resolved by walking to the file span of
// the call site.
func (r *Registry) Strip(s Span) (codebase.BufId, codebase.BufRange) {
	switch s.Kind {
	case KindFile:
		return r.inclusions[s.Inclusion].Buf, s.Range
	case KindExpansion:
		call := r.calls[s.Call]
		return r.Strip(call.Name)
	default:
		panic(fmt.Sprintf("span: unknown kind %d", s.Kind))
	}
}

// FilePath resolves the path associated with s, for diagnostic messages.
func (r *Registry) FilePath(s Span, cb *codebase.Codebase) string {
	bufID, _ := r.Strip(s)
	return cb.Buffer(bufID).Path
}
