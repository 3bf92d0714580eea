// File: functions.go
// Title: Built-in Math Functions
// Description: SIN, COS, TAN, ASIN, ACOS, ATAN, ATAN2, SQRT, ABS, EXP, INT
//              and LN. Angles are in degrees while I15 is 0 and in radians
//              otherwise; ATAN2 takes its cosine argument from Q0.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial function set

package interp

import (
	"fmt"
	"math"

	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/msto63/kinematics/foundation/kinematic/symbols"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

const (
	angleModeVariable = 15
	atan2CosVariable  = 0
)

type angleUse int

const (
	angleNone angleUse = iota
	angleInput
	angleOutput
)

type mathFunc struct {
	fn    func(x float64) (float64, error)
	angle angleUse
}

func plain(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return fn(x), nil }
}

var mathFuncs = map[string]mathFunc{
	"SIN":  {plain(math.Sin), angleInput},
	"COS":  {plain(math.Cos), angleInput},
	"TAN":  {plain(math.Tan), angleInput},
	"ASIN": {inUnitRange("ASIN", math.Asin), angleOutput},
	"ACOS": {inUnitRange("ACOS", math.Acos), angleOutput},
	"ATAN": {plain(math.Atan), angleOutput},
	"ABS":  {plain(math.Abs), angleNone},
	"EXP":  {plain(math.Exp), angleNone},
	"INT":  {plain(math.Trunc), angleNone},
	"SQRT": {func(x float64) (float64, error) {
		if x < 0 {
			return 0, fmt.Errorf("%w: SQRT(%g)", value.ErrDomain, x)
		}
		return math.Sqrt(x), nil
	}, angleNone},
	"LN": {func(x float64) (float64, error) {
		if x <= 0 {
			return 0, fmt.Errorf("%w: LN(%g)", value.ErrDomain, x)
		}
		return math.Log(x), nil
	}, angleNone},
}

func inUnitRange(name string, fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		if x < -1 || x > 1 {
			return 0, fmt.Errorf("%w: %s(%g)", value.ErrDomain, name, x)
		}
		return fn(x), nil
	}
}

// function evaluates a math function call; the operand is a parenthesised
// expression or a single numeric token.
func (in *Interpreter) function(fnTok parser.Token) (value.Value, error) {
	arg, err := in.operand(fnTok)
	if err != nil {
		return value.Value{}, err
	}
	mode := in.vars.Get(symbols.ClassI, angleModeVariable)

	var result value.Value
	if fnTok.Value == "ATAN2" {
		cos := in.vars.Get(symbols.ClassQ, atan2CosVariable)
		result, err = value.Apply2(arg, cos, func(y, x float64) (float64, error) {
			return math.Atan2(y, x), nil
		})
		if err == nil {
			result, err = value.Apply2(result, mode, toDegrees)
		}
		return result, parser.WrapError(fnTok, err)
	}

	mf, ok := mathFuncs[fnTok.Value]
	if !ok {
		return value.Value{}, parser.Errorf(fnTok, "unknown function: %s", fnTok)
	}
	if mf.angle == angleInput {
		if arg, err = value.Apply2(arg, mode, fromDegrees); err != nil {
			return value.Value{}, parser.WrapError(fnTok, err)
		}
	}
	if result, err = value.Apply(arg, mf.fn); err != nil {
		return value.Value{}, parser.WrapError(fnTok, err)
	}
	if mf.angle == angleOutput {
		if result, err = value.Apply2(result, mode, toDegrees); err != nil {
			return value.Value{}, parser.WrapError(fnTok, err)
		}
	}
	return result, nil
}

func (in *Interpreter) operand(fnTok parser.Token) (value.Value, error) {
	t := in.cursor.Next()
	if t.Is("(") {
		v, err := in.expression()
		if err != nil {
			return value.Value{}, err
		}
		if _, err := in.cursor.Expect(")"); err != nil {
			return value.Value{}, err
		}
		return v, nil
	}
	if t.IsEOF() {
		return value.Value{}, parser.Errorf(t, "argument expected after %s", fnTok)
	}
	f, err := t.Float()
	if err != nil {
		return value.Value{}, err
	}
	return value.Scalar(f), nil
}

func fromDegrees(x, mode float64) (float64, error) {
	if mode == 0 {
		return x * math.Pi / 180, nil
	}
	return x, nil
}

func toDegrees(x, mode float64) (float64, error) {
	if mode == 0 {
		return x * 180 / math.Pi, nil
	}
	return x, nil
}
