package encoder

import (
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

var nullaryOpcodes = map[string]byte{
	"nop": 0x00, "halt": 0x76, "di": 0xF3, "ei": 0xFB,
	"daa": 0x27, "cpl": 0x2F, "scf": 0x37, "ccf": 0x3F,
	"rlca": 0x07, "rrca": 0x0F, "rla": 0x17, "rra": 0x1F,
	"reti": 0xD9,
}

// encodeNullary handles every mnemonic that takes no operand at all. stop
// is a special case: the real opcode is two bytes (0x10 0x00).
func encodeNullary(m string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if len(operands) != 0 {
		return nil, errWrongCount(m, 0, len(operands), instrSpan)
	}
	if m == "stop" {
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x10}, {Kind: object.FragByte, Byte: 0x00}}, nil
	}
	op, ok := nullaryOpcodes[m]
	if !ok {
		return nil, errIncompatible(m, instrSpan)
	}
	return []object.Fragment{{Kind: object.FragByte, Byte: op}}, nil
}

// encodeStackOp handles push/pop, which operate on a register pair with AF
// substituting for SP (push af / pop af save/restore the accumulator and
// flags; SP itself can never be pushed or popped).
func encodeStackOp(m string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if len(operands) != 1 {
		return nil, errWrongCount(m, 1, len(operands), instrSpan)
	}
	kw, ok := bareKeyword(operands[0])
	if !ok {
		return nil, newErr(ErrRequiresRegPair, operands[0].Span, "%s requires a register-pair operand", m)
	}
	if kw == lexer.OpSP {
		return nil, newErr(ErrRequiresRegPair, operands[0].Span, "%s cannot operate on sp; use af/bc/de/hl", m)
	}
	idx, ok := isStackPair(kw)
	if !ok {
		return nil, newErr(ErrRequiresRegPair, operands[0].Span, "%s requires a register-pair operand", m)
	}
	base := byte(0xC1)
	if m == "push" {
		base = 0xC5
	}
	return []object.Fragment{{Kind: object.FragByte, Byte: base | byte(idx<<4)}}, nil
}

// encodeRst embeds the fixed restart vector (0x00, 0x08, ..., 0x38) into
// the opcode's low bits; the vector need not be resolvable until link time.
func encodeRst(operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if len(operands) != 1 {
		return nil, errWrongCount("rst", 1, len(operands), instrSpan)
	}
	e, ok := exprOf(operands[0])
	if !ok {
		return nil, newErr(ErrMustBeConst, operands[0].Span, "rst requires a constant restart vector")
	}
	return []object.Fragment{{
		Kind: object.FragEmbedded, Opcode: []byte{0xC7}, Expr: e,
		EmbedShift: 0, EmbedMask: 0x38,
	}}, nil
}
