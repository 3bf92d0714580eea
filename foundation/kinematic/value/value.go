// Package value implements the numeric values of kinematic programs.
//
// Package: value
// Title: Scalar and Vector Values
// Description: A Value is either a float64 scalar or a fixed-length vector of
//              float64. Arithmetic broadcasts scalars over vectors and requires
//              equal lengths between vectors. Values are immutable.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrLengthMismatch is returned when two vectors of different length meet
	ErrLengthMismatch = errors.New("vector length mismatch")
	// ErrAmbiguousBranch is returned when vector elements disagree on a condition
	ErrAmbiguousBranch = errors.New("ambiguous branch: vector elements disagree on condition")
	// ErrDivisionByZero is returned by Div and Mod
	ErrDivisionByZero = errors.New("division by zero")
	// ErrDomain is returned by math functions outside their domain
	ErrDomain = errors.New("math domain error")
	// ErrIntegerRange is returned when a bitwise operand does not fit an int64
	ErrIntegerRange = errors.New("value out of integer range")
)

// Value is a scalar or a vector
type Value struct {
	scalar   float64
	elems    []float64
	isVector bool
}

// Scalar creates a scalar value
func Scalar(f float64) Value {
	return Value{scalar: f}
}

// Vector creates a vector value from a copy of xs
func Vector(xs ...float64) Value {
	elems := make([]float64, len(xs))
	copy(elems, xs)
	return Value{elems: elems, isVector: true}
}

// Zero is the value of an unset address
var Zero = Scalar(0)

// IsVector reports whether v is a vector
func (v Value) IsVector() bool { return v.isVector }

// Len returns the number of elements; 1 for scalars
func (v Value) Len() int {
	if v.isVector {
		return len(v.elems)
	}
	return 1
}

// Float returns the scalar and true, or 0 and false for vectors
func (v Value) Float() (float64, bool) {
	if v.isVector {
		return 0, false
	}
	return v.scalar, true
}

// Floats returns the elements as a new slice; a scalar yields one element
func (v Value) Floats() []float64 {
	if !v.isVector {
		return []float64{v.scalar}
	}
	out := make([]float64, len(v.elems))
	copy(out, v.elems)
	return out
}

// At returns element i; scalars return their value for every i
func (v Value) At(i int) float64 {
	if !v.isVector {
		return v.scalar
	}
	return v.elems[i]
}

// Equal reports exact equality of kind, length and elements
func (v Value) Equal(o Value) bool {
	if v.isVector != o.isVector {
		return false
	}
	if !v.isVector {
		return v.scalar == o.scalar
	}
	if len(v.elems) != len(o.elems) {
		return false
	}
	for i := range v.elems {
		if v.elems[i] != o.elems[i] {
			return false
		}
	}
	return true
}

// ApproxEqual is Equal with an absolute tolerance per element
func (v Value) ApproxEqual(o Value, tol float64) bool {
	if v.isVector != o.isVector || v.Len() != o.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if math.Abs(v.At(i)-o.At(i)) > tol {
			return false
		}
	}
	return true
}

// String formats scalars like strconv 'g' and vectors as [a b c]
func (v Value) String() string {
	if !v.isVector {
		return formatFloat(v.scalar)
	}
	parts := make([]string, len(v.elems))
	for i, e := range v.elems {
		parts[i] = formatFloat(e)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Interface returns float64 for scalars and []float64 for vectors
func (v Value) Interface() interface{} {
	if v.isVector {
		return v.Floats()
	}
	return v.scalar
}

// MarshalJSON encodes scalars as numbers and vectors as arrays. Non-finite
// elements are written as the strings "NaN", "+Inf" and "-Inf".
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.isVector {
		return marshalFloat(v.scalar), nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range v.elems {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(marshalFloat(e))
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

func marshalFloat(f float64) []byte {
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`)
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`)
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`)
	}
	return []byte(formatFloat(f))
}

// UnmarshalJSON accepts a number, a numeric string or an array of those
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromInterface converts decoded JSON, YAML or TOML data into a Value
func FromInterface(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case Value:
		return x, nil
	case []float64:
		if len(x) == 0 {
			return Value{}, errors.New("empty vector")
		}
		return Vector(x...), nil
	case []interface{}:
		if len(x) == 0 {
			return Value{}, errors.New("empty vector")
		}
		elems := make([]float64, len(x))
		for i, e := range x {
			f, err := toFloat(e)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = f
		}
		return Value{elems: elems, isVector: true}, nil
	default:
		f, err := toFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return Scalar(f), nil
	}
}

func toFloat(raw interface{}) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", raw)
	}
}
