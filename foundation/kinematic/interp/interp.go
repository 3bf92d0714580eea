// File: interp.go
// Title: Kinematic Program Interpreter
// Description: Statement loop of the interpreter. Works directly on the token
//              stream through a parser.Cursor: IF skips by scanning, WHILE replays
//              its captured body by rewinding the cursor. All state (cursor,
//              nesting levels, loop bodies) belongs to a single run.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial interpreter

package interp

import (
	"context"
	"errors"

	mdwlog "github.com/msto63/kinematics/foundation/core/log"
	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/msto63/kinematics/foundation/kinematic/symbols"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// ErrStepLimit is returned when a run executes more statements than allowed
var ErrStepLimit = errors.New("step limit exceeded")

// Options configures a run
type Options struct {
	// MaxSteps bounds the number of executed statements; 0 means unlimited
	MaxSteps int
	Logger   *mdwlog.Logger
}

// Interpreter executes one run of a token list against a symbol table
type Interpreter struct {
	cursor      *parser.Cursor
	vars        *symbols.Table
	opts        Options
	logger      *mdwlog.Logger
	ifLevel     int
	whileLevel  int
	whileBodies map[int][]parser.Token
	steps       int
}

// New creates an interpreter over tokens. The token slice is only read.
func New(tokens []parser.Token, vars *symbols.Table, opts Options) *Interpreter {
	logger := opts.Logger
	if logger == nil {
		logger = mdwlog.Discard()
	}
	return &Interpreter{
		cursor:      parser.NewCursor(tokens),
		vars:        vars,
		opts:        opts,
		logger:      logger,
		whileBodies: make(map[int][]parser.Token),
	}
}

// Steps returns the number of statements executed by the last Run
func (in *Interpreter) Steps() int { return in.steps }

// Run executes the program until the token stream is exhausted or an error
// occurs. The context is checked before every statement.
func (in *Interpreter) Run(ctx context.Context) error {
	in.cursor.Reset()
	in.ifLevel = 0
	in.whileLevel = 0
	in.whileBodies = make(map[int][]parser.Token)
	in.steps = 0

	trace := in.logger.IsLevelEnabled(mdwlog.LevelTrace)
	for {
		tok := in.cursor.Next()
		if tok.IsEOF() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return parser.WrapError(tok, err)
		}
		in.steps++
		if in.opts.MaxSteps > 0 && in.steps > in.opts.MaxSteps {
			return parser.WrapError(tok, ErrStepLimit)
		}
		if trace {
			in.logger.Trace("statement", mdwlog.Fields{
				"line":        tok.Line,
				"token":       tok.Value,
				"if_level":    in.ifLevel,
				"while_level": in.whileLevel,
			})
		}
		if err := in.statement(tok); err != nil {
			return err
		}
	}
}

func (in *Interpreter) statement(tok parser.Token) error {
	if tok.Type == parser.TokenVariable {
		return in.assignment(tok)
	}
	switch tok.Value {
	case "IF":
		return in.ifStatement(tok)
	case "ELSE":
		return in.elseStatement(tok)
	case "ENDIF":
		return in.endIf(tok)
	case "WHILE":
		return in.whileStatement(tok)
	case "ENDWHILE":
		return in.endWhile(tok)
	default:
		return parser.Errorf(tok, "unexpected token: %s", tok)
	}
}

// assignment handles P/Q/I/M statements: "<class><index>=<expr>" stores a
// value, "<class><index>" without "=" is a query and changes nothing.
func (in *Interpreter) assignment(classTok parser.Token) error {
	class, _ := symbols.ParseClass(classTok.Value)

	n := in.cursor.Next()
	var index int
	switch {
	case n.IsInt():
		i, err := n.Int()
		if err != nil {
			return err
		}
		index = i
	case n.Is("("):
		v, err := in.expression()
		if err != nil {
			return err
		}
		if _, err := in.cursor.Expect(")"); err != nil {
			return err
		}
		if index, err = toIndex(n, v); err != nil {
			return err
		}
	default:
		if class == symbols.ClassP || class == symbols.ClassQ {
			in.cursor.PushBack(n)
			return nil
		}
		return parser.Errorf(n, "unexpected statement: %s followed by %s", classTok, n)
	}

	t := in.cursor.Next()
	if !t.Is("=") {
		in.cursor.PushBack(t)
		return nil
	}
	v, err := in.expression()
	if err != nil {
		return err
	}
	in.vars.Set(class, index, v)
	return nil
}

// readIndex reads the index following a variable class in an expression:
// a literal or a parenthesised expression.
func (in *Interpreter) readIndex(classTok parser.Token) (int, error) {
	t := in.cursor.Next()
	if t.Is("(") {
		v, err := in.expression()
		if err != nil {
			return 0, err
		}
		if _, err := in.cursor.Expect(")"); err != nil {
			return 0, err
		}
		return toIndex(t, v)
	}
	if t.IsEOF() {
		return 0, parser.Errorf(t, "index expected after %s, got %s", classTok, t)
	}
	if t.Type == parser.TokenNumber && !t.IsInt() {
		return 0, parser.Errorf(t, "integer index expected after %s, got %s", classTok, t)
	}
	f, err := t.Float()
	if err != nil {
		return 0, err
	}
	return toIndex(t, value.Scalar(f))
}

func toIndex(tok parser.Token, v value.Value) (int, error) {
	f, ok := v.Float()
	if !ok {
		return 0, parser.Errorf(tok, "vector value used as variable index")
	}
	if f != f || f < 0 || f > 1<<31 {
		return 0, parser.Errorf(tok, "invalid variable index: %s", v)
	}
	return int(f), nil
}

// Run executes tokens once against table
func Run(ctx context.Context, tokens []parser.Token, table *symbols.Table, opts Options) error {
	return New(tokens, table, opts).Run(ctx)
}
