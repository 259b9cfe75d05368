package object

// Width is the byte width of an Immediate fragment.
type Width int

const (
	Byte Width = 1
	Word Width = 2
)

// DefaultHighPageStart is the address FragLdInlineAddr sizes against when
// an EvalContext doesn't specify one (0xFF00, the Game Boy's high-RAM page).
const DefaultHighPageStart int64 = 0xFF00

// FragKind discriminates the closed set of Fragment variants.
type FragKind int

const (
	// FragByte is one literal byte.
	FragByte FragKind = iota
	// FragImmediate is an expression evaluated to Byte or Word width.
	FragImmediate
	// FragLdInlineAddr is an LD-into-high-page opcode plus the target
	// address expression; its size depends on whether the address fits in
	// the high-RAM page (0xFF00-0xFFFF).
	FragLdInlineAddr
	// FragEmbedded is a fixed-width opcode with a small immediate folded
	// into its bits (e.g. RST nn, or a CB-prefixed bit index).
	FragEmbedded
	// FragReloc emits zero bytes but pins a variable to the current
	// location counter.
	FragReloc
	// FragReserved advances the location counter by an evaluated count
	// without emitting explicit bytes (e.g. `ds`).
	FragReserved
)

// Fragment is the smallest addressable unit emitted into a section.
type Fragment struct {
	Kind FragKind

	Byte   byte // FragByte
	Opcode []byte
	Expr   Expr  // FragImmediate, FragLdInlineAddr, FragEmbedded, FragReserved
	Width  Width // FragImmediate
	Var    VarID // FragReloc

	// EmbedShift and EmbedMask describe how FragEmbedded folds Expr's value
	// into the last byte of Opcode: the value must satisfy 0 <= v <= EmbedMask
	// (EmbedMask == 0 means no upper bound check beyond non-negativity) and is
	// OR'd in after shifting left by EmbedShift bits.
	EmbedShift int
	EmbedMask  int64
}

// Size returns the fragment's current size under ctx. LdInlineAddr may
// return the interval [2,3] before its address is known.
func (f Fragment) Size(ctx EvalContext) Value {
	switch f.Kind {
	case FragByte:
		return Const(1)
	case FragEmbedded:
		return Const(int64(len(f.Opcode)))
	case FragImmediate:
		return Const(int64(f.Width))
	case FragReloc:
		return Const(0)
	case FragReserved:
		return f.Expr.Evaluate(ctx)
	case FragLdInlineAddr:
		highPageStart := ctx.HighPageStart
		if highPageStart == 0 {
			highPageStart = DefaultHighPageStart
		}
		v := f.Expr.Evaluate(ctx)
		if n, ok := v.Exact(); ok {
			if n >= highPageStart {
				return Const(2)
			}
			return Const(3)
		}
		if !v.Unknown && v.Min >= highPageStart {
			return Const(2)
		}
		if !v.Unknown && v.Max < highPageStart {
			return Const(3)
		}
		return Value{Min: 2, Max: 3}
	default:
		return UnknownValue
	}
}
