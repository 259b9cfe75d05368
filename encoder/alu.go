package encoder

import (
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// encodeIncDec handles the 8-bit and 16-bit forms of inc/dec, distinguished
// purely by which register table the single operand belongs to.
func encodeIncDec(m string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if len(operands) != 1 {
		return nil, errWrongCount(m, 1, len(operands), instrSpan)
	}
	o := operands[0]
	var kw lexer.Operand
	var ok bool
	switch {
	case o.Shape == ShapeKeyword:
		kw, ok = o.Keyword, true
	case o.Shape == ShapeDeref:
		kw, ok = o.Keyword, true
	}
	if !ok {
		return nil, newErr(ErrOperandCannotBeIncDec, o.Span, "%s requires a register operand", m)
	}
	if idx, ok8 := isReg8(kw); ok8 && ((o.Shape == ShapeKeyword && kw != lexer.OpHL) || (o.Shape == ShapeDeref && kw == lexer.OpHL)) {
		base := byte(0x04)
		if m == "dec" {
			base = 0x05
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: base | byte(idx<<3)}}, nil
	}
	if idx, ok16 := isReg16(kw); ok16 && o.Shape == ShapeKeyword {
		base := byte(0x03)
		if m == "dec" {
			base = 0x0B
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: base | byte(idx<<4)}}, nil
	}
	return nil, newErr(ErrOperandCannotBeIncDec, o.Span, "%s cannot operate on %s", m, kw)
}

// aluTable maps each two-operand-or-one-operand ALU mnemonic to its
// (reg-form base, imm-form opcode) pair. All eight take an implicit "a,"
// destination; "sub r" and "sub a,r" are both accepted.
var aluTable = map[string]struct {
	regBase byte
	immOp   byte
}{
	"add": {0x80, 0xC6},
	"adc": {0x88, 0xCE},
	"sub": {0x90, 0xD6},
	"sbc": {0x98, 0xDE},
	"and": {0xA0, 0xE6},
	"xor": {0xA8, 0xEE},
	"or":  {0xB0, 0xF6},
	"cp":  {0xB8, 0xFE},
}

// encodeAlu handles add/adc/sub/sbc/and/or/xor/cp, including add's two
// 16-bit forms (add hl,rr and add sp,e) which have no other ALU mnemonic
// analog.
func encodeAlu(m string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	if m == "add" {
		if frags, err, handled := tryEncodeAdd16(operands, instrSpan); handled {
			return frags, err
		}
	}

	src := operands[len(operands)-1]
	if len(operands) == 2 {
		dstKw, ok := bareKeyword(operands[0])
		if !ok || dstKw != lexer.OpA {
			return nil, newErr(ErrDestMustBeA, operands[0].Span, "%s's explicit destination must be a", m)
		}
	} else if len(operands) != 1 {
		return nil, errWrongCount(m, 1, len(operands), instrSpan)
	}

	t := aluTable[m]
	if srcKw, ok := bareKeyword(src); ok {
		idx, ok8 := isReg8(srcKw)
		if !ok8 {
			return nil, newErr(ErrRequiresSimpleOperand, src.Span, "%s requires an 8-bit register operand", m)
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: t.regBase | byte(idx)}}, nil
	}
	if srcKw, ok := derefKeyword(src); ok {
		if srcKw != lexer.OpHL {
			return nil, newErr(ErrCannotDereference, src.Span, "cannot dereference %s here", srcKw)
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: t.regBase | 6}}, nil
	}
	if e, ok := exprOf(src); ok {
		return []object.Fragment{
			{Kind: object.FragByte, Byte: t.immOp},
			byteImm(e),
		}, nil
	}
	return nil, errIncompatible(m, src.Span)
}

// tryEncodeAdd16 recognizes "add hl,rr" and "add sp,e"; handled is false
// for every other add form, letting the 8-bit path in encodeAlu run.
func tryEncodeAdd16(operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error, bool) {
	if len(operands) != 2 {
		return nil, nil, false
	}
	dstKw, ok := bareKeyword(operands[0])
	if !ok {
		return nil, nil, false
	}
	switch dstKw {
	case lexer.OpHL:
		srcKw, ok := bareKeyword(operands[1])
		if !ok {
			return nil, newErr(ErrRequiresRegPair, operands[1].Span, "add hl,... requires a register-pair operand"), true
		}
		idx, ok := isReg16(srcKw)
		if !ok {
			return nil, newErr(ErrRequiresRegPair, operands[1].Span, "add hl,... requires a register-pair operand"), true
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0x09 | byte(idx<<4)}}, nil, true
	case lexer.OpSP:
		e, ok := exprOf(operands[1])
		if !ok {
			return nil, newErr(ErrMustBeConst, operands[1].Span, "add sp,... requires a constant offset"), true
		}
		return []object.Fragment{
			{Kind: object.FragByte, Byte: 0xE8},
			byteImm(e),
		}, nil, true
	default:
		return nil, nil, false
	}
}
