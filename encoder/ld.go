package encoder

import (
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// encodeLd covers the ld mnemonic's full 8-bit register matrix plus its
// 16-bit-immediate, stack-pointer-transfer, and inline-address variants,
// along with the ldi/ldd post-increment/decrement forms and the ldhl
// sp,e stack-frame-address form (spec.md §4.8).
func encodeLd(m string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	switch m {
	case "ldi":
		return encodeLdiLdd(m, 0x2A, 0x22, operands, instrSpan)
	case "ldd":
		return encodeLdiLdd(m, 0x3A, 0x32, operands, instrSpan)
	case "ldhl":
		return encodeLdhl(operands, instrSpan)
	}

	if len(operands) != 2 {
		return nil, errWrongCount("ld", 2, len(operands), instrSpan)
	}
	dst, src := operands[0], operands[1]

	if dstKw, ok := bareKeyword(dst); ok {
		if srcKw, ok := bareKeyword(src); ok {
			return encodeLdKeywordToKeyword(dstKw, dst.Span, srcKw, src.Span, instrSpan)
		}
		if srcDeref, ok := derefKeyword(src); ok {
			return encodeLdFromDeref(dstKw, dst.Span, srcDeref, src.Span)
		}
		if src.Shape == ShapeDerefExpr {
			return encodeLdFromAddr(src.Expr, dstKw, dst.Span)
		}
		if e, ok := exprOf(src); ok {
			return encodeLdFromExpr(dstKw, dst.Span, e)
		}
	}

	if dstDeref, ok := derefKeyword(dst); ok {
		if srcKw, ok := bareKeyword(src); ok {
			return encodeLdToDeref(dstDeref, dst.Span, srcKw, src.Span)
		}
		if dstDeref == lexer.OpHL && src.Shape == ShapeExpr {
			return []object.Fragment{{Kind: object.FragByte, Byte: 0x36}, byteImm(src.Expr)}, nil
		}
		return nil, newErr(ErrIncompatibleOperand, src.Span, "ld (%s),... requires a register source", dstDeref)
	}

	if dst.Shape == ShapeDerefExpr {
		if srcKw, ok := bareKeyword(src); ok {
			return encodeLdToAddr(dst.Expr, srcKw, src.Span)
		}
		return nil, newErr(ErrIncompatibleOperand, src.Span, "ld (nn),... requires a or sp as the source")
	}

	return nil, errIncompatible("ld", instrSpan)
}

func encodeLdKeywordToKeyword(dst lexer.Operand, dstSp span.Span, src lexer.Operand, srcSp span.Span, instrSpan span.Span) ([]object.Fragment, *Error) {
	if dst == lexer.OpSP && src == lexer.OpHL {
		return []object.Fragment{{Kind: object.FragByte, Byte: 0xF9}}, nil
	}
	if dst == lexer.OpSP || src == lexer.OpSP {
		return nil, newErr(ErrLdSpHlOperands, instrSpan, "ld sp,... only accepts sp,hl")
	}
	dstIdx, dstOk := isReg8(dst)
	srcIdx, srcOk := isReg8(src)
	if !dstOk || !srcOk {
		return nil, newErr(ErrRequiresSimpleOperand, dstSp, "ld requires 8-bit register operands here")
	}
	if dstIdx == 6 && srcIdx == 6 {
		return nil, newErr(ErrLdDerefHlDerefHl, instrSpan, "ld (hl),(hl) is not encodable (that byte is halt)")
	}
	return []object.Fragment{{Kind: object.FragByte, Byte: 0x40 | byte(dstIdx<<3) | byte(srcIdx)}}, nil
}

// encodeLdFromDeref handles "ld <reg>,(keyword)": (bc)/(de)/(hl)/(c).
func encodeLdFromDeref(dst lexer.Operand, dstSp span.Span, src lexer.Operand, srcSp span.Span) ([]object.Fragment, *Error) {
	switch src {
	case lexer.OpBC:
		if dst != lexer.OpA {
			return nil, newErr(ErrOnlySupportedByA, dstSp, "ld ...,(bc) only loads into a")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x0A}}, nil
	case lexer.OpDE:
		if dst != lexer.OpA {
			return nil, newErr(ErrOnlySupportedByA, dstSp, "ld ...,(de) only loads into a")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x1A}}, nil
	case lexer.OpC:
		if dst != lexer.OpA {
			return nil, newErr(ErrOnlySupportedByA, dstSp, "ld ...,(c) only loads into a")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0xF2}}, nil
	case lexer.OpHL:
		dstIdx, ok := isReg8(dst)
		if !ok {
			return nil, newErr(ErrRequiresSimpleOperand, dstSp, "ld requires an 8-bit register operand here")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x40 | byte(dstIdx<<3) | 6}}, nil
	default:
		return nil, newErr(ErrCannotDereference, srcSp, "cannot dereference %s", src)
	}
}

// encodeLdToDeref handles "ld (keyword),<reg>".
func encodeLdToDeref(dst lexer.Operand, dstSp span.Span, src lexer.Operand, srcSp span.Span) ([]object.Fragment, *Error) {
	switch dst {
	case lexer.OpBC:
		if src != lexer.OpA {
			return nil, newErr(ErrOnlySupportedByA, srcSp, "ld (bc),... only stores a")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x02}}, nil
	case lexer.OpDE:
		if src != lexer.OpA {
			return nil, newErr(ErrOnlySupportedByA, srcSp, "ld (de),... only stores a")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x12}}, nil
	case lexer.OpC:
		if src != lexer.OpA {
			return nil, newErr(ErrOnlySupportedByA, srcSp, "ld (c),... only stores a")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0xE2}}, nil
	case lexer.OpHL:
		srcIdx, ok := isReg8(src)
		if !ok {
			return nil, newErr(ErrRequiresSimpleOperand, srcSp, "ld requires an 8-bit register operand here")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x70 | byte(srcIdx)}}, nil
	default:
		return nil, newErr(ErrCannotDereference, dstSp, "cannot dereference %s", dst)
	}
}

// encodeLdFromExpr handles "ld <reg-or-pair>,<expr>": an 8-bit immediate
// into a register, or a 16-bit immediate into a register pair (bc, de,
// hl or sp). "ld (hl),<expr>" is handled in encodeLd's deref branch.
func encodeLdFromExpr(dst lexer.Operand, dstSp span.Span, e object.Expr) ([]object.Fragment, *Error) {
	if idx, ok := isReg8(dst); ok && dst != lexer.OpHL {
		return []object.Fragment{
			{Kind: object.FragByte, Byte: 0x06 | byte(idx<<3)},
			byteImm(e),
		}, nil
	}
	if idx, ok := isReg16(dst); ok {
		return []object.Fragment{
			{Kind: object.FragByte, Byte: 0x01 | byte(idx<<4)},
			wordImm(e),
		}, nil
	}
	if dst == lexer.OpAF {
		return nil, newErr(ErrAfOutsideStackOp, dstSp, "af cannot be loaded directly; use push/pop af")
	}
	return nil, newErr(ErrRequiresSimpleOperand, dstSp, "ld requires a register or register-pair destination here")
}

// encodeLdToAddr handles the stores "ld (nn),a" and "ld (nn),sp" (the
// load "ld a,(nn)" is encodeLdFromAddr). "ld (nn),a" goes through a
// LdInlineAddr fragment whose size the linker decides once nn is known
// (2 bytes if it resolves into the high-RAM page, 3 otherwise); "ld
// (nn),sp" is always opcode 0x08 followed by the 16-bit address. The base
// opcode passed here is always the 2-byte (high-page) form, and the linker
// derives the 3-byte opcode from it (see linker.emitFragment).
func encodeLdToAddr(addr object.Expr, src lexer.Operand, srcSp span.Span) ([]object.Fragment, *Error) {
	switch src {
	case lexer.OpA:
		return []object.Fragment{{Kind: object.FragLdInlineAddr, Opcode: []byte{0xE0}, Expr: addr}}, nil
	case lexer.OpSP:
		return []object.Fragment{
			{Kind: object.FragByte, Byte: 0x08},
			wordImm(addr),
		}, nil
	default:
		return nil, newErr(ErrIncompatibleOperand, srcSp, "ld (nn),... only stores a or sp")
	}
}

// encodeLdFromAddr handles "ld a,(nn)" — the load counterpart of
// encodeLdToAddr. Only a is a valid destination for a computed-address
// load; the opcode passed is always the 2-byte (high-page) form, with the
// linker deriving the 3-byte fallback the same way it does for the store
// direction (see linker.emitFragment).
func encodeLdFromAddr(addr object.Expr, dst lexer.Operand, dstSp span.Span) ([]object.Fragment, *Error) {
	if dst != lexer.OpA {
		return nil, newErr(ErrOnlySupportedByA, dstSp, "ld ...,(nn) only loads into a")
	}
	return []object.Fragment{{Kind: object.FragLdInlineAddr, Opcode: []byte{0xF0}, Expr: addr}}, nil
}

// encodeLdiLdd handles "ldi a,(hl)"/"ldi (hl),a" and their ldd
// counterparts, one fixed opcode each direction.
func encodeLdiLdd(m string, loadOp, storeOp byte, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if len(operands) != 2 {
		return nil, errWrongCount(m, 2, len(operands), instrSpan)
	}
	dst, src := operands[0], operands[1]
	if dstKw, ok := bareKeyword(dst); ok && dstKw == lexer.OpA {
		if srcKw, ok := derefKeyword(src); ok && srcKw == lexer.OpHL {
			return []object.Fragment{{Kind: object.FragByte, Byte: loadOp}}, nil
		}
	}
	if dstKw, ok := derefKeyword(dst); ok && dstKw == lexer.OpHL {
		if srcKw, ok := bareKeyword(src); ok && srcKw == lexer.OpA {
			return []object.Fragment{{Kind: object.FragByte, Byte: storeOp}}, nil
		}
	}
	return nil, newErr(ErrIncompatibleOperand, instrSpan, "%s only accepts a,(hl) or (hl),a", m)
}

// encodeLdhl handles "ldhl sp,e": hl := sp + signed 8-bit e.
func encodeLdhl(operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if len(operands) != 2 {
		return nil, errWrongCount("ldhl", 2, len(operands), instrSpan)
	}
	spKw, ok := bareKeyword(operands[0])
	if !ok || spKw != lexer.OpSP {
		return nil, newErr(ErrSrcMustBeSP, operands[0].Span, "ldhl requires sp as its first operand")
	}
	e, ok := exprOf(operands[1])
	if !ok {
		return nil, newErr(ErrMustBeConst, operands[1].Span, "ldhl requires a constant offset")
	}
	return []object.Fragment{
		{Kind: object.FragByte, Byte: 0xF8},
		byteImm(e),
	}, nil
}
