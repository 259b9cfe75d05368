// Package object implements the relocatable object model: sections,
// fragments, expressions, symbols, and link-time variables.
package object

// Value is a link-time value: an interval of candidate integers, or
// Unknown. The linker refines Values monotonically — an intersection can
// only shrink an interval, never widen it.
type Value struct {
	Min, Max int64
	Unknown  bool
}

// Exact returns the singleton value of v and true, or (0, false) if v is
// not a single-point interval.
func (v Value) Exact() (int64, bool) {
	if v.Unknown || v.Min != v.Max {
		return 0, false
	}
	return v.Min, true
}

// UnknownValue is the value of an as-yet-unresolved quantity.
var UnknownValue = Value{Unknown: true}

// Const creates an exact singleton Value.
func Const(n int64) Value { return Value{Min: n, Max: n} }

// Add implements interval addition: [a,b] + [c,d] = [a+c, b+d].
func (v Value) Add(o Value) Value {
	if v.Unknown || o.Unknown {
		return UnknownValue
	}
	return Value{Min: v.Min + o.Min, Max: v.Max + o.Max}
}

// Sub implements interval subtraction: [a,b] - [c,d] = [a-d, b-c].
func (v Value) Sub(o Value) Value {
	if v.Unknown || o.Unknown {
		return UnknownValue
	}
	return Value{Min: v.Min - o.Max, Max: v.Max - o.Min}
}

// Mul implements interval multiplication by taking the min/max of the four
// pointwise products (needed because either interval may span zero).
func (v Value) Mul(o Value) Value {
	if v.Unknown || o.Unknown {
		return UnknownValue
	}
	products := [4]int64{v.Min * o.Min, v.Min * o.Max, v.Max * o.Min, v.Max * o.Max}
	min, max := products[0], products[0]
	for _, p := range products[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return Value{Min: min, Max: max}
}

// Div implements division, defined only between two singleton intervals
// (anything else, including division by a singleton zero, degrades to
// Unknown per the spec's interval-arithmetic rules).
func (v Value) Div(o Value) Value {
	a, aok := v.Exact()
	b, bok := o.Exact()
	if !aok || !bok || b == 0 {
		return UnknownValue
	}
	return Const(a / b)
}

// Or implements bitwise-or, defined only between two singleton intervals.
func (v Value) Or(o Value) Value {
	a, aok := v.Exact()
	b, bok := o.Exact()
	if !aok || !bok {
		return UnknownValue
	}
	return Const(a | b)
}

// Intersect narrows v to the overlap with incoming. It panics if the
// result would be empty (a contradiction) or would widen v, which the
// linker's refinement step must never do.
func (v Value) Intersect(incoming Value) Value {
	if v.Unknown {
		return incoming
	}
	if incoming.Unknown {
		return v
	}
	min, max := v.Min, v.Max
	if incoming.Min > min {
		min = incoming.Min
	}
	if incoming.Max < max {
		max = incoming.Max
	}
	if min > max {
		// A contradictory refinement indicates a linker algorithm bug, not
		// a user error; surface it loudly rather than silently misassembling.
		panic("object: variable refinement would produce an empty interval")
	}
	return Value{Min: min, Max: max}
}

// Widened reports whether narrowing v to incoming would in fact be a
// widening (used by tests asserting linker monotonicity).
func (v Value) Widened(next Value) bool {
	if v.Unknown {
		return false
	}
	if next.Unknown {
		return true
	}
	return next.Min < v.Min || next.Max > v.Max
}
