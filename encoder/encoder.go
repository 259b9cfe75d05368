package encoder

import (
	"strings"

	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// OperandShape discriminates how an operand reached the encoder, mirroring
// the three shapes spec.md §4.8 says the analyzer distinguishes by
// inspecting the parsed expression: a bare keyword, a dereferenced keyword,
// or a numeric expression (bare or dereferenced).
type OperandShape int

const (
	ShapeKeyword OperandShape = iota
	ShapeDeref
	ShapeExpr
	ShapeDerefExpr
)

// Operand is one argument already classified into its shape by the
// assembler, still carrying the raw keyword or expression so the encoder
// can apply instruction-specific context (e.g. C means a condition in
// branch position but the register C everywhere else).
type Operand struct {
	Shape   OperandShape
	Keyword lexer.Operand
	Expr    object.Expr
	Span    span.Span
}

// Encode lowers mnemonic (already lower-cased by the caller is not
// required; Encode itself normalizes) plus its operand list into object
// fragments. instrSpan anchors operand-count diagnostics that have no more
// specific operand to point at.
func Encode(mnemonic string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	m := strings.ToLower(mnemonic)
	switch m {
	case "nop", "halt", "stop", "di", "ei", "daa", "cpl", "scf", "ccf",
		"rlca", "rrca", "rla", "rra", "reti":
		return encodeNullary(m, operands, instrSpan)
	case "push", "pop":
		return encodeStackOp(m, operands, instrSpan)
	case "rst":
		return encodeRst(operands, instrSpan)
	case "ld", "ldi", "ldd", "ldhl":
		return encodeLd(m, operands, instrSpan)
	case "inc", "dec":
		return encodeIncDec(m, operands, instrSpan)
	case "add", "adc", "sub", "sbc", "and", "or", "xor", "cp":
		return encodeAlu(m, operands, instrSpan)
	case "jp", "jr", "call", "ret":
		return encodeBranch(m, operands, instrSpan)
	case "rlc", "rrc", "rl", "rr", "sla", "sra", "swap", "srl", "bit", "res", "set":
		return encodeBitOp(m, operands, instrSpan)
	default:
		return nil, newErr(ErrIncompatibleOperand, instrSpan, "unknown mnemonic %q", mnemonic)
	}
}

// reg8Order is the standard Sharp LR35902 3-bit register encoding: B C D E
// H L (HL) A.
var reg8Order = map[lexer.Operand]int{
	lexer.OpB: 0, lexer.OpC: 1, lexer.OpD: 2, lexer.OpE: 3,
	lexer.OpH: 4, lexer.OpL: 5, lexer.OpHL: 6, lexer.OpA: 7,
}

// reg16Order is the 2-bit register-pair encoding used by ld rr,nn / inc rr /
// dec rr / add hl,rr: BC DE HL SP.
var reg16Order = map[lexer.Operand]int{
	lexer.OpBC: 0, lexer.OpDE: 1, lexer.OpHL: 2, lexer.OpSP: 3,
}

// stackPairOrder is the push/pop encoding, which substitutes AF for SP.
var stackPairOrder = map[lexer.Operand]int{
	lexer.OpBC: 0, lexer.OpDE: 1, lexer.OpHL: 2, lexer.OpAF: 3,
}

// condOrder is the branch-condition encoding: NZ Z NC C.
var condOrder = map[lexer.Operand]int{
	lexer.OpNZ: 0, lexer.OpZ: 1, lexer.OpNC: 2, lexer.OpC: 3,
}

func isReg8(op lexer.Operand) (int, bool) {
	idx, ok := reg8Order[op]
	return idx, ok
}

func isReg16(op lexer.Operand) (int, bool) {
	idx, ok := reg16Order[op]
	return idx, ok
}

func isStackPair(op lexer.Operand) (int, bool) {
	idx, ok := stackPairOrder[op]
	return idx, ok
}

func isCond(op lexer.Operand) (int, bool) {
	idx, ok := condOrder[op]
	return idx, ok
}

// bareKeyword reports whether operand o is a bare (non-dereferenced)
// keyword, returning it.
func bareKeyword(o Operand) (lexer.Operand, bool) {
	if o.Shape == ShapeKeyword {
		return o.Keyword, true
	}
	return 0, false
}

// derefKeyword reports whether operand o is "(keyword)".
func derefKeyword(o Operand) (lexer.Operand, bool) {
	if o.Shape == ShapeDeref {
		return o.Keyword, true
	}
	return 0, false
}

// exprOf extracts the numeric expression from an operand that is either a
// bare or dereferenced expression (ShapeExpr/ShapeDerefExpr).
func exprOf(o Operand) (object.Expr, bool) {
	if o.Shape == ShapeExpr || o.Shape == ShapeDerefExpr {
		return o.Expr, true
	}
	return object.Expr{}, false
}

func byteImm(e object.Expr) object.Fragment {
	return object.Fragment{Kind: object.FragImmediate, Expr: e, Width: object.Byte}
}

func wordImm(e object.Expr) object.Fragment {
	return object.Fragment{Kind: object.FragImmediate, Expr: e, Width: object.Word}
}
