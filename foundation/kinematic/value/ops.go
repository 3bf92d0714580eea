// File: ops.go
// Title: Value Arithmetic
// Description: Elementwise arithmetic, bitwise operations and comparisons with
//              scalar broadcasting.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package value

import (
	"fmt"
	"math"
)

// BinaryFunc combines two elements
type BinaryFunc func(x, y float64) (float64, error)

// UnaryFunc transforms one element
type UnaryFunc func(x float64) (float64, error)

// Apply maps fn over the elements of a
func Apply(a Value, fn UnaryFunc) (Value, error) {
	if !a.isVector {
		r, err := fn(a.scalar)
		if err != nil {
			return Value{}, err
		}
		return Scalar(r), nil
	}
	out := make([]float64, len(a.elems))
	for i, x := range a.elems {
		r, err := fn(x)
		if err != nil {
			return Value{}, err
		}
		out[i] = r
	}
	return Value{elems: out, isVector: true}, nil
}

// Apply2 combines a and b elementwise. A scalar operand is broadcast.
func Apply2(a, b Value, fn BinaryFunc) (Value, error) {
	if !a.isVector && !b.isVector {
		r, err := fn(a.scalar, b.scalar)
		if err != nil {
			return Value{}, err
		}
		return Scalar(r), nil
	}
	n, err := broadcastLen(a, b)
	if err != nil {
		return Value{}, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		r, err := fn(a.At(i), b.At(i))
		if err != nil {
			return Value{}, err
		}
		out[i] = r
	}
	return Value{elems: out, isVector: true}, nil
}

func broadcastLen(a, b Value) (int, error) {
	switch {
	case a.isVector && b.isVector:
		if len(a.elems) != len(b.elems) {
			return 0, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(a.elems), len(b.elems))
		}
		return len(a.elems), nil
	case a.isVector:
		return len(a.elems), nil
	default:
		return len(b.elems), nil
	}
}

// Add returns a + b
func Add(a, b Value) (Value, error) {
	return Apply2(a, b, func(x, y float64) (float64, error) { return x + y, nil })
}

// Sub returns a - b
func Sub(a, b Value) (Value, error) {
	return Apply2(a, b, func(x, y float64) (float64, error) { return x - y, nil })
}

// Mul returns a * b
func Mul(a, b Value) (Value, error) {
	return Apply2(a, b, func(x, y float64) (float64, error) { return x * y, nil })
}

// Div returns a / b
func Div(a, b Value) (Value, error) {
	return Apply2(a, b, func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		return x / y, nil
	})
}

// Mod returns the floored remainder of a / b; the result takes the sign of b
func Mod(a, b Value) (Value, error) {
	return Apply2(a, b, func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return r, nil
	})
}

// BitOr returns int(a) | int(b)
func BitOr(a, b Value) (Value, error) {
	return Apply2(a, b, bitwise(func(x, y int64) int64 { return x | y }))
}

// BitXor returns int(a) ^ int(b)
func BitXor(a, b Value) (Value, error) {
	return Apply2(a, b, bitwise(func(x, y int64) int64 { return x ^ y }))
}

// BitAnd returns int(a) & int(b)
func BitAnd(a, b Value) (Value, error) {
	return Apply2(a, b, bitwise(func(x, y int64) int64 { return x & y }))
}

func bitwise(op func(x, y int64) int64) BinaryFunc {
	return func(x, y float64) (float64, error) {
		ix, err := truncate(x)
		if err != nil {
			return 0, err
		}
		iy, err := truncate(y)
		if err != nil {
			return 0, err
		}
		return float64(op(ix, iy)), nil
	}
}

func truncate(x float64) (int64, error) {
	if math.IsNaN(x) || x >= math.MaxInt64 || x <= math.MinInt64 {
		return 0, ErrIntegerRange
	}
	return int64(x), nil
}

// Neg returns -a
func Neg(a Value) Value {
	r, _ := Apply(a, func(x float64) (float64, error) { return -x, nil })
	return r
}

// Comparator names accepted by Compare
const (
	Equal      = "="
	NotEqual   = "!="
	Greater    = ">"
	NotGreater = "!>"
	Less       = "<"
	NotLess    = "!<"
)

// IsComparator reports whether op is a known comparator
func IsComparator(op string) bool {
	switch op {
	case Equal, NotEqual, Greater, NotGreater, Less, NotLess:
		return true
	}
	return false
}

// Truth holds the elementwise result of a comparison
type Truth []bool

// Bool collapses t to a single branch decision. All elements must agree.
func (t Truth) Bool() (bool, error) {
	if len(t) == 0 {
		return false, nil
	}
	first := t[0]
	for _, b := range t[1:] {
		if b != first {
			return false, ErrAmbiguousBranch
		}
	}
	return first, nil
}

// Compare applies comparator op elementwise
func Compare(op string, a, b Value) (Truth, error) {
	var cmp func(x, y float64) bool
	switch op {
	case Equal:
		cmp = func(x, y float64) bool { return x == y }
	case NotEqual:
		cmp = func(x, y float64) bool { return x != y }
	case Greater:
		cmp = func(x, y float64) bool { return x > y }
	case NotGreater:
		cmp = func(x, y float64) bool { return x <= y }
	case Less:
		cmp = func(x, y float64) bool { return x < y }
	case NotLess:
		cmp = func(x, y float64) bool { return x >= y }
	default:
		return nil, fmt.Errorf("unknown comparator %q", op)
	}

	n := 1
	if a.isVector || b.isVector {
		var err error
		if n, err = broadcastLen(a, b); err != nil {
			return nil, err
		}
	}
	out := make(Truth, n)
	for i := range out {
		out[i] = cmp(a.At(i), b.At(i))
	}
	return out, nil
}
