package object

import "github.com/ytausky/gbas/span"

// OpCode enumerates the postfix stack-machine operations that make up an
// Expr: atoms (push a value) and operators (combine values already on the
// stack).
type OpCode int

const (
	OpInt OpCode = iota
	OpLocationCounter
	OpName
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpOr
	OpCall
)

// BuiltinFunc is a builtin function usable in a function-call expression
// atom, e.g. low(expr) / high(expr) for splitting a 16-bit address.
type BuiltinFunc func(args []Value) Value

// Builtins is the table of recognized function names. An unrecognized name
// evaluates to Unknown (callers diagnose it at build time instead).
var Builtins = map[string]BuiltinFunc{
	"low": func(args []Value) Value {
		if len(args) != 1 {
			return UnknownValue
		}
		n, ok := args[0].Exact()
		if !ok {
			return UnknownValue
		}
		return Const(n & 0xFF)
	},
	"high": func(args []Value) Value {
		if len(args) != 1 {
			return UnknownValue
		}
		n, ok := args[0].Exact()
		if !ok {
			return UnknownValue
		}
		return Const((n >> 8) & 0xFF)
	},
}

// Op is one step of an Expr's postfix operation stream.
type Op struct {
	Code     OpCode
	Int      int32    // OpInt
	Name     SymbolID // OpName
	FuncName string   // OpCall
	Arity    int      // OpCall
	Span     span.Span
}

// Expr is a postfix sequence of operators over atoms: integer literals,
// the location counter, and name references. Parenthesization is a pure
// span marker at parse time and leaves no trace in the postfix form.
type Expr struct {
	Ops []Op
}

// ExprBuilder accepts push_op calls one at a time; Finish yields the
// completed Expr. This matches how a parser discovers operators
// incrementally while it is still reading tokens.
type ExprBuilder struct {
	ops []Op
}

func NewExprBuilder() *ExprBuilder { return &ExprBuilder{} }

func (b *ExprBuilder) PushInt(n int32, sp span.Span) {
	b.ops = append(b.ops, Op{Code: OpInt, Int: n, Span: sp})
}

func (b *ExprBuilder) PushLocationCounter(sp span.Span) {
	b.ops = append(b.ops, Op{Code: OpLocationCounter, Span: sp})
}

func (b *ExprBuilder) PushName(id SymbolID, sp span.Span) {
	b.ops = append(b.ops, Op{Code: OpName, Name: id, Span: sp})
}

// BinOp is a shorthand for the four arithmetic OpCodes plus OpOr.
type BinOp = OpCode

func (b *ExprBuilder) PushBinOp(op BinOp, sp span.Span) {
	b.ops = append(b.ops, Op{Code: op, Span: sp})
}

func (b *ExprBuilder) PushCall(name string, arity int, sp span.Span) {
	b.ops = append(b.ops, Op{Code: OpCall, FuncName: name, Arity: arity, Span: sp})
}

func (b *ExprBuilder) Finish() Expr {
	return Expr{Ops: b.ops}
}

// EvalContext is everything Expr.Evaluate needs: the location counter in
// force, the variable table, and the symbol table for resolving names.
//
// HighPageStart additionally tells Fragment.Size where the high-RAM page
// begins for sizing a FragLdInlineAddr fragment; it plays no part in
// Evaluate itself. Zero means "use DefaultHighPageStart".
type EvalContext struct {
	Location      Value
	Vars          *VarTable
	Symbols       *SymbolTable
	HighPageStart int64
}

// Evaluate computes e's Value under ctx. Undefined names yield Unknown;
// arithmetic degrades to Unknown per the rules in Value's methods.
func (e Expr) Evaluate(ctx EvalContext) Value {
	var stack []Value
	pop := func() Value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	for _, op := range e.Ops {
		switch op.Code {
		case OpInt:
			stack = append(stack, Const(int64(op.Int)))
		case OpLocationCounter:
			stack = append(stack, ctx.Location)
		case OpName:
			stack = append(stack, ctx.Symbols.Value(op.Name, ctx.Vars))
		case OpAdd:
			rhs, lhs := pop(), pop()
			stack = append(stack, lhs.Add(rhs))
		case OpSub:
			rhs, lhs := pop(), pop()
			stack = append(stack, lhs.Sub(rhs))
		case OpMul:
			rhs, lhs := pop(), pop()
			stack = append(stack, lhs.Mul(rhs))
		case OpDiv:
			rhs, lhs := pop(), pop()
			stack = append(stack, lhs.Div(rhs))
		case OpOr:
			rhs, lhs := pop(), pop()
			stack = append(stack, lhs.Or(rhs))
		case OpCall:
			args := make([]Value, op.Arity)
			for i := op.Arity - 1; i >= 0; i-- {
				args[i] = pop()
			}
			fn, ok := Builtins[op.FuncName]
			if !ok {
				stack = append(stack, UnknownValue)
				continue
			}
			stack = append(stack, fn(args))
		}
	}
	if len(stack) != 1 {
		return UnknownValue
	}
	return stack[0]
}
