package encoder

import (
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// cbRotateBase maps each CB-prefixed rotate/shift mnemonic to its base
// opcode byte (before the target register is OR'd into the low 3 bits).
var cbRotateBase = map[string]byte{
	"rlc": 0x00, "rrc": 0x08, "rl": 0x10, "rr": 0x18,
	"sla": 0x20, "sra": 0x28, "swap": 0x30, "srl": 0x38,
}

// encodeBitOp handles the CB-prefixed group: unary rotate/shift/swap
// instructions, and the bit/res/set family which additionally embeds a
// constant bit index.
func encodeBitOp(m string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if base, ok := cbRotateBase[m]; ok {
		if len(operands) != 1 {
			return nil, errWrongCount(m, 1, len(operands), instrSpan)
		}
		idx, err := regOrDerefHL(operands[0], m)
		if err != nil {
			return nil, err
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0xCB}, {Kind: object.FragByte, Byte: base | byte(idx)}}, nil
	}

	// bit/res/set: two operands, a constant bit index and a register.
	if len(operands) != 2 {
		return nil, errWrongCount(m, 2, len(operands), instrSpan)
	}
	bitExpr, ok := exprOf(operands[0])
	if !ok {
		return nil, newErr(ErrMustBeBit, operands[0].Span, "%s requires a constant bit index", m)
	}
	idx, err := regOrDerefHL(operands[1], m)
	if err != nil {
		return nil, err
	}
	var base byte
	switch m {
	case "bit":
		base = 0x40
	case "res":
		base = 0x80
	case "set":
		base = 0xC0
	}
	return []object.Fragment{
		{Kind: object.FragByte, Byte: 0xCB},
		{
			Kind: object.FragEmbedded, Opcode: []byte{base | byte(idx)}, Expr: bitExpr,
			EmbedShift: 3, EmbedMask: 7,
		},
	}, nil
}

// regOrDerefHL resolves an operand that must be an 8-bit register or
// "(hl)" to its 3-bit encoding index.
func regOrDerefHL(o Operand, mnemonic string) (int, *Error) {
	if kw, ok := bareKeyword(o); ok {
		if idx, ok := isReg8(kw); ok {
			return idx, nil
		}
	}
	if kw, ok := derefKeyword(o); ok && kw == lexer.OpHL {
		return 6, nil
	}
	return 0, newErr(ErrRequiresSimpleOperand, o.Span, "%s requires an 8-bit register or (hl) operand", mnemonic)
}
