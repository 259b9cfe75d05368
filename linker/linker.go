// Package linker resolves symbolic addresses by iterative refinement and
// emits the final byte image.
package linker

import (
	"fmt"

	"github.com/ytausky/gbas/diagnostics"
	"github.com/ytausky/gbas/object"
)

// MinROMLen is the minimum ROM image size: the floor the emitted buffer is
// padded up to.
const MinROMLen = 0x8000

// PadByte fills unwritten ROM space.
const PadByte = 0xFF

// Config holds the ROM-shape parameters config.Config lets a user override
// without touching assembler.Config itself: the ROM size floor, the pad
// byte, and where the high-RAM page begins for LdInlineAddr sizing.
type Config struct {
	MinROMLen     int
	PadByte       byte
	HighPageStart int64
}

// DefaultConfig is the spec's built-in ROM shape: a 0x8000-byte floor,
// 0xFF padding, and a high-RAM page starting at 0xFF00.
func DefaultConfig() Config {
	return Config{MinROMLen: MinROMLen, PadByte: PadByte, HighPageStart: object.DefaultHighPageStart}
}

// Resolve runs the two fixed fixed-point refinement passes the spec
// specifies (fragment-size dependencies are local and monotone, so two
// passes suffice) and leaves content's VarTable refined in place.
func Resolve(content *object.Content, cfg Config) {
	refineAll(content, cfg)
	refineAll(content, cfg)
}

// VerifyFixedPoint runs one further refinement pass and reports whether
// anything changed — used by tests to confirm the second pass already
// reached a fixed point.
func VerifyFixedPoint(content *object.Content, cfg Config) bool {
	return refineAll(content, cfg)
}

// refineAll performs one pass over every section in declaration order,
// walking its fragments and refining every variable it touches. It reports
// whether any variable's interval actually narrowed.
func refineAll(content *object.Content, cfg Config) bool {
	vars := content.Vars
	changed := false

	for i := range content.Sections {
		sec := &content.Sections[i]

		origin := object.Const(0)
		if sec.HasOrigin {
			originCtx := object.EvalContext{Location: object.UnknownValue, Vars: vars, Symbols: content.Symbols, HighPageStart: cfg.HighPageStart}
			origin = sec.Origin.Evaluate(originCtx)
		}
		if vars.Refine(sec.AddrVar, origin) {
			changed = true
		}

		location := vars.Get(sec.AddrVar)
		offset := object.Const(0)
		for _, frag := range sec.Fragments {
			ctx := object.EvalContext{Location: location, Vars: vars, Symbols: content.Symbols, HighPageStart: cfg.HighPageStart}
			if frag.Kind == object.FragReloc {
				if vars.Refine(frag.Var, location) {
					changed = true
				}
			}
			size := frag.Size(ctx)
			location = location.Add(size)
			offset = offset.Add(size)
		}
		if vars.Refine(sec.SizeVar, offset) {
			changed = true
		}
	}
	return changed
}

// BinarySection is one section's resolved placement: an address and the
// bytes emitted there.
type BinarySection struct {
	Addr uint32
	Data []byte
}

// Emit translates every resolved section into bytes. Unresolved names,
// out-of-range immediates, and unresolvable LdInlineAddr sizes are reported
// to sink but do not abort emission — a placeholder byte sequence keeps the
// output structurally inspectable.
func Emit(content *object.Content, sink diagnostics.Sink, fileName string, cfg Config) []BinarySection {
	vars := content.Vars
	var out []BinarySection

	for i := range content.Sections {
		sec := &content.Sections[i]
		addrVal, ok := vars.Get(sec.AddrVar).Exact()
		if !ok {
			sink.Emit(diagnostics.New(fileName, fmt.Sprintf("section %q has an unresolved origin", sec.Name)))
			addrVal = 0
		}

		location := object.Const(addrVal)
		var data []byte
		for _, frag := range sec.Fragments {
			ctx := object.EvalContext{Location: location, Vars: vars, Symbols: content.Symbols, HighPageStart: cfg.HighPageStart}
			bytes := emitFragment(frag, ctx, cfg, sink, fileName)
			data = append(data, bytes...)
			location = location.Add(object.Const(int64(len(bytes))))
		}
		out = append(out, BinarySection{Addr: uint32(addrVal), Data: data})
	}
	return out
}

func emitFragment(frag object.Fragment, ctx object.EvalContext, cfg Config, sink diagnostics.Sink, fileName string) []byte {
	switch frag.Kind {
	case object.FragByte:
		return []byte{frag.Byte}

	case object.FragReloc:
		return nil

	case object.FragReserved:
		v := frag.Expr.Evaluate(ctx)
		n, ok := v.Exact()
		if !ok || n < 0 {
			sink.Emit(diagnostics.New(fileName, "reserved-space count could not be resolved to a constant"))
			return nil
		}
		return make([]byte, n)

	case object.FragImmediate:
		v := frag.Expr.Evaluate(ctx)
		n, ok := v.Exact()
		if !ok {
			sink.Emit(diagnostics.New(fileName, "unresolved symbol in immediate"))
			n = 0
		}
		return encodeImmediate(n, frag.Width, sink, fileName)

	case object.FragLdInlineAddr:
		// frag.Opcode carries the 2-byte (high-RAM-page) form; the 3-byte
		// fallback opcode is always that base plus 0x0A (0xE0->0xEA store,
		// 0xF0->0xFA load), mirroring the real opcode table's relationship
		// between the two encodings.
		v := frag.Expr.Evaluate(ctx)
		n, ok := v.Exact()
		if !ok {
			sink.Emit(diagnostics.New(fileName, "unresolved address in ld-inline-addr instruction"))
			out := append([]byte{}, frag.Opcode...)
			out[len(out)-1] += 0x0A
			return append(out, 0, 0)
		}
		if n >= cfg.HighPageStart && n <= 0xFFFF {
			out := append([]byte{}, frag.Opcode...)
			return append(out, byte(n&0xFF))
		}
		out := append([]byte{}, frag.Opcode...)
		out[len(out)-1] += 0x0A
		return append(out, byte(n&0xFF), byte((n>>8)&0xFF))

	case object.FragEmbedded:
		v := frag.Expr.Evaluate(ctx)
		out := append([]byte{}, frag.Opcode...)
		n, ok := v.Exact()
		if !ok || n < 0 || (frag.EmbedMask != 0 && n > frag.EmbedMask) {
			sink.Emit(diagnostics.New(fileName, "embedded immediate could not be resolved to a constant in range"))
			return out
		}
		if len(out) > 0 {
			out[len(out)-1] |= byte(n << frag.EmbedShift)
		}
		return out

	default:
		return nil
	}
}

func encodeImmediate(n int64, width object.Width, sink diagnostics.Sink, fileName string) []byte {
	switch width {
	case object.Byte:
		if n < -128 || n > 255 {
			sink.Emit(diagnostics.New(fileName, fmt.Sprintf("value %d out of range for a byte", n)))
		}
		return []byte{byte(uint8(n))}
	case object.Word:
		if n < -32768 || n > 65535 {
			sink.Emit(diagnostics.New(fileName, fmt.Sprintf("value %d out of range for a word", n)))
		}
		u := uint16(n)
		return []byte{byte(u & 0xFF), byte(u >> 8)}
	default:
		return nil
	}
}

// BuildROM lays every resolved section into a ROM image starting from an
// all-PadByte buffer at least MinROMLen bytes long. Sections may overlap;
// later sections (in declaration order) overwrite earlier ones. Overlap is
// reported to sink as an informational note, not an error, matching the
// original tool's (likely-oversight) last-wins behavior.
func BuildROM(sections []BinarySection, sink diagnostics.Sink, fileName string, cfg Config) []byte {
	romLen := cfg.MinROMLen
	for _, s := range sections {
		if end := int(s.Addr) + len(s.Data); end > romLen {
			romLen = end
		}
	}

	rom := make([]byte, romLen)
	for i := range rom {
		rom[i] = cfg.PadByte
	}

	written := make([]bool, romLen)
	for _, s := range sections {
		overlap := false
		for i := range s.Data {
			idx := int(s.Addr) + i
			if written[idx] {
				overlap = true
			}
			written[idx] = true
			rom[idx] = s.Data[i]
		}
		if overlap {
			sink.Emit(diagnostics.Diagnostic{Clauses: []diagnostics.Clause{{
				FileName: fileName,
				Tag:      diagnostics.Note,
				Message:  fmt.Sprintf("section at $%04X overlaps a previously written section; later bytes win", s.Addr),
			}}})
		}
	}
	return rom
}
