// File: value_test.go
// Title: Value Unit Tests
// Description: Tests for broadcasting arithmetic, bitwise operations, comparison
//              collapse and JSON conversion.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial test suite

package value

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want Value
	}{
		{"scalar add", Add, Scalar(42), Scalar(9), Scalar(51)},
		{"scalar sub", Sub, Scalar(5.5), Scalar(3), Scalar(2.5)},
		{"scalar div", Div, Scalar(22), Scalar(7), Scalar(22.0 / 7.0)},
		{"mod", Mod, Scalar(8), Scalar(3), Scalar(2)},
		{"floored mod negative dividend", Mod, Scalar(-7), Scalar(3), Scalar(2)},
		{"floored mod negative divisor", Mod, Scalar(7), Scalar(-3), Scalar(-2)},
		{"bitand", BitAnd, Scalar(54254323), Scalar(213411), Scalar(213155)},
		{"bitor", BitOr, Scalar(54254323), Scalar(213411), Scalar(54254579)},
		{"bitxor", BitXor, Scalar(54254323), Scalar(213411), Scalar(54041424)},
		{"bitand truncates", BitAnd, Scalar(7.9), Scalar(3.2), Scalar(3)},
		{"vector plus scalar", Add, Vector(1, 2, 3), Scalar(10), Vector(11, 12, 13)},
		{"scalar times vector", Mul, Scalar(2), Vector(1, 2), Vector(2, 4)},
		{"vector minus vector", Sub, Vector(5, 5), Vector(1, 2), Vector(4, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want error
	}{
		{"length mismatch", Add, Vector(1, 2), Vector(1, 2, 3), ErrLengthMismatch},
		{"divide by zero", Div, Scalar(1), Scalar(0), ErrDivisionByZero},
		{"mod by zero element", Mod, Vector(4, 4), Vector(2, 0), ErrDivisionByZero},
		{"bitwise NaN", BitOr, Scalar(math.NaN()), Scalar(1), ErrIntegerRange},
		{"bitwise huge", BitAnd, Scalar(1e300), Scalar(1), ErrIntegerRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.op(tt.a, tt.b)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNegAndApply(t *testing.T) {
	if got := Neg(Vector(1, -2)); !got.Equal(Vector(-1, 2)) {
		t.Errorf("Neg = %v", got)
	}
	got, err := Apply(Vector(-3.5, 2.5), func(x float64) (float64, error) { return math.Trunc(x), nil })
	if err != nil || !got.Equal(Vector(-3, 2)) {
		t.Errorf("Apply = %v, %v", got, err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		a, b    Value
		want    bool
		wantErr error
	}{
		{"equal", Equal, Scalar(42), Scalar(42), true, nil},
		{"not equal", NotEqual, Scalar(1), Scalar(2), true, nil},
		{"not greater means <=", NotGreater, Scalar(2), Scalar(2), true, nil},
		{"not less means >=", NotLess, Scalar(1), Scalar(2), false, nil},
		{"vector all true", Less, Vector(1, 2, 3), Scalar(10), true, nil},
		{"vector all false", Greater, Vector(1, 2, 3), Scalar(10), false, nil},
		{"vector disagree", Less, Vector(1, 20), Scalar(10), false, ErrAmbiguousBranch},
		{"vector length mismatch", Equal, Vector(1, 2), Vector(1), false, ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			truth, err := Compare(tt.op, tt.a, tt.b)
			if err == nil {
				var got bool
				got, err = truth.Bool()
				if err == nil && got != tt.want {
					t.Errorf("Bool() = %v, want %v", got, tt.want)
				}
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := Compare("<>", Scalar(1), Scalar(1)); err == nil {
		t.Error("unknown comparator should fail")
	}
	if IsComparator("+") || !IsComparator("!<") {
		t.Error("IsComparator mismatch")
	}
}

func TestJSON(t *testing.T) {
	vars := map[string]Value{
		"P1": Scalar(1.5),
		"Q2": Vector(1, 2, 3),
		"Q3": Scalar(math.Inf(1)),
	}

	data, err := json.Marshal(vars)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	want := `{"P1":1.5,"Q2":[1,2,3],"Q3":"+Inf"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back map[string]Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	for k, v := range vars {
		if !back[k].Equal(v) {
			t.Errorf("%s = %v, want %v", k, back[k], v)
		}
	}

	var bad Value
	if err := json.Unmarshal([]byte(`{"x":1}`), &bad); err == nil {
		t.Error("object should not decode into a Value")
	}
}

func TestFromInterface(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		want    Value
		wantErr bool
	}{
		{"int", 42, Scalar(42), false},
		{"int64", int64(-3), Scalar(-3), false},
		{"float", 0.5, Scalar(0.5), false},
		{"string", " 2.5 ", Scalar(2.5), false},
		{"list", []interface{}{1, 2.5, int64(3)}, Vector(1, 2.5, 3), false},
		{"empty list", []interface{}{}, Value{}, true},
		{"bool", true, Value{}, true},
		{"nested list", []interface{}{[]interface{}{1}}, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromInterface(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessors(t *testing.T) {
	v := Vector(1, 2)
	if !v.IsVector() || v.Len() != 2 || v.At(1) != 2 {
		t.Errorf("vector accessors: %v", v)
	}
	if _, ok := v.Float(); ok {
		t.Error("Float() on vector should report false")
	}
	fl := v.Floats()
	fl[0] = 99
	if v.At(0) != 1 {
		t.Error("Floats() must return a copy")
	}
	if Scalar(3).String() != "3" || v.String() != "[1 2]" {
		t.Errorf("String() = %q / %q", Scalar(3).String(), v.String())
	}
	if !Scalar(0.1+0.2).ApproxEqual(Scalar(0.3), 1e-12) {
		t.Error("ApproxEqual failed")
	}
}
