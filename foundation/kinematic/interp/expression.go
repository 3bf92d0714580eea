// File: expression.go
// Title: Expression Evaluator
// Description: Recursive descent evaluation of arithmetic expressions directly
//              from the token cursor.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial evaluator
//
// Grammar:
//
//	expression ::= term { ('+' | '-' | '|' | '^') term }
//	term       ::= unary { ('*' | '/' | '%' | '&') unary }
//	unary      ::= [ '+' | '-' ] factor
//	factor     ::= '(' expression ')'
//	             | class ( '(' expression ')' | index )
//	             | function ( '(' expression ')' | operand )
//	             | number

package interp

import (
	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/msto63/kinematics/foundation/kinematic/symbols"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

type binaryOp func(a, b value.Value) (value.Value, error)

var additiveOps = map[string]binaryOp{
	"+": value.Add,
	"-": value.Sub,
	"|": value.BitOr,
	"^": value.BitXor,
}

var multiplicativeOps = map[string]binaryOp{
	"*": value.Mul,
	"/": value.Div,
	"%": value.Mod,
	"&": value.BitAnd,
}

func (in *Interpreter) expression() (value.Value, error) {
	return in.binary(in.term, additiveOps)
}

func (in *Interpreter) term() (value.Value, error) {
	return in.binary(in.unary, multiplicativeOps)
}

// binary evaluates a left-associative chain of operands joined by ops
func (in *Interpreter) binary(operand func() (value.Value, error), ops map[string]binaryOp) (value.Value, error) {
	left, err := operand()
	if err != nil {
		return value.Value{}, err
	}
	for {
		t := in.cursor.Next()
		op, ok := ops[t.Value]
		if !ok || t.Type != parser.TokenOperator {
			in.cursor.PushBack(t)
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return value.Value{}, err
		}
		if left, err = op(left, right); err != nil {
			return value.Value{}, parser.WrapError(t, err)
		}
	}
}

func (in *Interpreter) unary() (value.Value, error) {
	t := in.cursor.Next()
	negate := t.Is("-")
	if !negate && !t.Is("+") {
		in.cursor.PushBack(t)
	}
	v, err := in.factor()
	if err != nil {
		return value.Value{}, err
	}
	if negate {
		v = value.Neg(v)
	}
	return v, nil
}

func (in *Interpreter) factor() (value.Value, error) {
	t := in.cursor.Next()
	switch {
	case t.Is("("):
		v, err := in.expression()
		if err != nil {
			return value.Value{}, err
		}
		if _, err := in.cursor.Expect(")"); err != nil {
			return value.Value{}, err
		}
		return v, nil
	case t.Type == parser.TokenVariable:
		class, _ := symbols.ParseClass(t.Value)
		index, err := in.readIndex(t)
		if err != nil {
			return value.Value{}, err
		}
		return in.vars.Get(class, index), nil
	case t.Type == parser.TokenMath:
		return in.function(t)
	case t.IsEOF():
		return value.Value{}, parser.Errorf(t, "unexpected end of program in expression")
	default:
		f, err := t.Float()
		if err != nil {
			return value.Value{}, err
		}
		return value.Scalar(f), nil
	}
}
