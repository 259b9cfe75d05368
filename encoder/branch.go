package encoder

import (
	"github.com/ytausky/gbas/lexer"
	"github.com/ytausky/gbas/object"
	"github.com/ytausky/gbas/span"
)

// encodeBranch handles jp, jr, call, and ret, all of which accept an
// optional leading condition-code operand (ret and jp also have
// unconditional/always forms with no operand or a bare (hl) target).
func encodeBranch(m string, operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	switch m {
	case "jp":
		return encodeJp(operands, instrSpan)
	case "jr":
		return encodeJr(operands, instrSpan)
	case "call":
		return encodeCall(operands, instrSpan)
	case "ret":
		return encodeRet(operands, instrSpan)
	default:
		return nil, errIncompatible(m, instrSpan)
	}
}

// splitCond peels an optional leading condition-code keyword off operands,
// returning its encoded index (or -1 if there was none) and the remaining
// operand list.
func splitCond(operands []Operand) (int, []Operand, *Error) {
	if len(operands) == 0 {
		return -1, operands, nil
	}
	kw, ok := bareKeyword(operands[0])
	if !ok {
		return -1, operands, nil
	}
	if idx, ok := isCond(kw); ok {
		return idx, operands[1:], nil
	}
	return -1, operands, nil
}

func encodeJp(operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	cond, rest, err := splitCond(operands)
	if err != nil {
		return nil, err
	}
	if len(rest) != 1 {
		return nil, errWrongCount("jp", 1, len(operands), instrSpan)
	}
	target := rest[0]

	if kw, ok := derefKeyword(target); ok {
		if kw != lexer.OpHL {
			return nil, newErr(ErrCannotDereference, target.Span, "jp (%s) is not encodable; only (hl) is", kw)
		}
		if cond >= 0 {
			return nil, newErr(ErrAlwaysUnconditional, target.Span, "jp (hl) is always unconditional")
		}
		return []object.Fragment{{Kind: object.FragByte, Byte: 0xE9}}, nil
	}

	e, ok := exprOf(target)
	if !ok {
		return nil, newErr(ErrMissingTarget, target.Span, "jp requires a target address")
	}
	if cond < 0 {
		return []object.Fragment{
			{Kind: object.FragByte, Byte: 0xC3},
			wordImm(e),
		}, nil
	}
	return []object.Fragment{
		{Kind: object.FragByte, Byte: 0xC2 | byte(cond<<3)},
		wordImm(e),
	}, nil
}

func encodeJr(operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	cond, rest, err := splitCond(operands)
	if err != nil {
		return nil, err
	}
	if len(rest) != 1 {
		return nil, errWrongCount("jr", 1, len(operands), instrSpan)
	}
	e, ok := exprOf(rest[0])
	if !ok {
		return nil, newErr(ErrMissingTarget, rest[0].Span, "jr requires a target address")
	}
	base := byte(0x18)
	if cond >= 0 {
		base = 0x20 | byte(cond<<3)
	}
	return []object.Fragment{
		{Kind: object.FragByte, Byte: base},
		byteImm(relOffset(e, rest[0].Span)),
	}, nil
}

func encodeCall(operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	cond, rest, err := splitCond(operands)
	if err != nil {
		return nil, err
	}
	if len(rest) != 1 {
		return nil, errWrongCount("call", 1, len(operands), instrSpan)
	}
	e, ok := exprOf(rest[0])
	if !ok {
		return nil, newErr(ErrMissingTarget, rest[0].Span, "call requires a target address")
	}
	if cond >= 0 {
		return []object.Fragment{
			{Kind: object.FragByte, Byte: 0xC4 | byte(cond<<3)},
			wordImm(e),
		}, nil
	}
	return []object.Fragment{
		{Kind: object.FragByte, Byte: 0xCD},
		wordImm(e),
	}, nil
}

func encodeRet(operands []Operand, instrSpan span.Span) ([]object.Fragment, *Error) {
	cond, rest, err := splitCond(operands)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, newErr(ErrCannotSpecifyTarget, rest[0].Span, "ret does not take a target operand")
	}
	if cond < 0 {
		return []object.Fragment{{Kind: object.FragByte, Byte: 0xC9}}, nil
	}
	return []object.Fragment{{Kind: object.FragByte, Byte: 0xC0 | byte(cond<<3)}}, nil
}

// relOffset rewrites target into "target - . - 1": evaluated at the
// location of the displacement byte itself (one past the opcode), this is
// exactly the signed offset jr/jr cc encode, since the CPU computes the
// branch target from the address of the byte following the instruction.
func relOffset(target object.Expr, sp span.Span) object.Expr {
	ops := make([]object.Op, 0, len(target.Ops)+3)
	ops = append(ops, target.Ops...)
	ops = append(ops,
		object.Op{Code: object.OpLocationCounter, Span: sp},
		object.Op{Code: object.OpSub, Span: sp},
		object.Op{Code: object.OpInt, Int: 1, Span: sp},
		object.Op{Code: object.OpSub, Span: sp},
	)
	return object.Expr{Ops: ops}
}
