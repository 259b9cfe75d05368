// Package encoder lowers one mnemonic plus its typed operands into a
// sequence of object fragments.
package encoder

import (
	"fmt"

	"github.com/ytausky/gbas/span"
)

// ErrorKind enumerates the operand-diagnostic taxonomy of spec.md §7's
// "Operand" category.
type ErrorKind int

const (
	ErrWrongOperandCount ErrorKind = iota
	ErrIncompatibleOperand
	ErrDestMustBeA
	ErrDestMustBeHL
	ErrCannotDereference
	ErrAlwaysUnconditional
	ErrMissingTarget
	ErrCannotBeUsedAsTarget
	ErrRequiresConstantTarget
	ErrRequiresRegPair
	ErrRequiresSimpleOperand
	ErrAfOutsideStackOp
	ErrLdDerefHlDerefHl
	ErrLdSpHlOperands
	ErrLdWidthMismatch
	ErrOnlySupportedByA
	ErrSrcMustBeSP
	ErrDestCannotBeConst
	ErrOperandCannotBeIncDec
	ErrMustBeBit
	ErrMustBeConst
	ErrMustBeDeref
	ErrConditionOutsideBranch
	ErrCannotSpecifyTarget
	ErrStringInInstruction
	ErrExpectedString
	ErrExpectedFound
)

// Error is one operand-analysis failure, anchored to the span of the
// operand (or, for a count mismatch, the whole instruction) that caused it.
type Error struct {
	Kind ErrorKind
	Span span.Span
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newErr(kind ErrorKind, sp span.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Span: sp, Msg: fmt.Sprintf(format, args...)}
}

func errWrongCount(mnemonic string, expected, actual int, sp span.Span) *Error {
	return newErr(ErrWrongOperandCount, sp, "%s requires %d operand(s), got %d", mnemonic, expected, actual)
}

func errIncompatible(mnemonic string, sp span.Span) *Error {
	return newErr(ErrIncompatibleOperand, sp, "incompatible operand for %s", mnemonic)
}
