// File: condition.go
// Title: Condition Evaluation
// Description: Comparisons joined by AND/OR as used by IF and WHILE.
//              Grouping is evaluated right to left exactly as the controller
//              firmware does; there is no AND-over-OR precedence. Both sides
//              of every AND/OR are always evaluated.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial condition evaluation

package interp

import (
	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

func (in *Interpreter) condition() (bool, error) {
	first, err := in.comparison()
	if err != nil {
		return false, err
	}
	return in.conditionalOr(first)
}

// comparison evaluates "[(] expr comparator expr" and the AND/OR chain or
// closing parenthesis that follows it.
func (in *Interpreter) comparison() (bool, error) {
	t := in.cursor.Next()
	paren := t.Is("(")
	if !paren {
		in.cursor.PushBack(t)
	}

	left, err := in.expression()
	if err != nil {
		return false, err
	}
	op := in.cursor.Next()
	if op.Type != parser.TokenOperator || !value.IsComparator(op.Value) {
		return false, parser.Errorf(op, "expected comparator, got: %s", op)
	}
	right, err := in.expression()
	if err != nil {
		return false, err
	}
	truth, err := value.Compare(op.Value, left, right)
	if err != nil {
		return false, parser.WrapError(op, err)
	}
	result, err := truth.Bool()
	if err != nil {
		return false, parser.WrapError(op, err)
	}

	t = in.cursor.Next()
	switch {
	case t.Is("AND") || t.Is("OR"):
		in.cursor.PushBack(t)
		if result, err = in.conditionalOr(result); err != nil {
			return false, err
		}
		if paren {
			if _, err := in.cursor.Expect(")"); err != nil {
				return false, err
			}
		}
	case t.Is(")"):
		if !paren {
			in.cursor.PushBack(t)
		}
	default:
		return false, parser.Errorf(t, "expected ) or AND/OR, got: %s", t)
	}
	return result, nil
}

func (in *Interpreter) conditionalOr(current bool) (bool, error) {
	result, err := in.conditionalAnd(current)
	if err != nil {
		return false, err
	}
	t := in.cursor.Next()
	switch {
	case t.Is("OR"):
		next, err := in.comparison()
		if err != nil {
			return false, err
		}
		rest, err := in.conditionalOr(next)
		if err != nil {
			return false, err
		}
		result = rest || current
	case t.Is("AND"):
		in.cursor.PushBack(t)
		return in.conditionalOr(result)
	default:
		in.cursor.PushBack(t)
	}
	return result, nil
}

func (in *Interpreter) conditionalAnd(current bool) (bool, error) {
	t := in.cursor.Next()
	if !t.Is("AND") {
		in.cursor.PushBack(t)
		return current, nil
	}
	next, err := in.comparison()
	if err != nil {
		return false, err
	}
	return next && current, nil
}
