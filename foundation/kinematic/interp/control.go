// File: control.go
// Title: IF and WHILE Blocks
// Description: Block structure is not pre-parsed. A false IF scans forward to
//              its ELSE or ENDIF, counting nested IFs. A WHILE captures the
//              tokens up to its matching ENDWHILE; ENDWHILE rewinds the cursor
//              over that capture so the WHILE is evaluated again.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial control flow

package interp

import "github.com/msto63/kinematics/foundation/kinematic/parser"

func (in *Interpreter) ifStatement(tok parser.Token) error {
	ok, err := in.condition()
	if err != nil {
		return err
	}
	in.ifLevel++
	if ok {
		return nil
	}

	level := in.ifLevel
	for {
		t := in.cursor.Next()
		switch {
		case t.IsEOF():
			return parser.Errorf(tok, "IF without matching ENDIF")
		case t.Is("IF"):
			in.ifLevel++
		case t.Is("ELSE") && in.ifLevel == level:
			return nil
		case t.Is("ENDIF"):
			in.ifLevel--
			if in.ifLevel < level {
				return nil
			}
		}
	}
}

// elseStatement is reached after a taken IF branch; the ELSE branch is skipped
func (in *Interpreter) elseStatement(tok parser.Token) error {
	if in.ifLevel == 0 {
		return parser.Errorf(tok, "unexpected ELSE")
	}
	level := in.ifLevel
	for {
		t := in.cursor.Next()
		switch {
		case t.IsEOF():
			return parser.Errorf(tok, "ELSE without matching ENDIF")
		case t.Is("IF"):
			in.ifLevel++
		case t.Is("ENDIF"):
			in.ifLevel--
			if in.ifLevel < level {
				return nil
			}
		}
	}
}

func (in *Interpreter) endIf(tok parser.Token) error {
	if in.ifLevel == 0 {
		return parser.Errorf(tok, "unexpected ENDIF")
	}
	in.ifLevel--
	return nil
}

func (in *Interpreter) whileStatement(tok parser.Token) error {
	in.whileLevel++
	level := in.whileLevel

	body := []parser.Token{tok}
	if err := in.captureLoop(tok, func(t parser.Token) { body = append(body, t) }); err != nil {
		return err
	}

	in.cursor.PushBackMany(body)
	in.cursor.Next()

	ok, err := in.condition()
	if err != nil {
		return err
	}
	if ok {
		in.whileBodies[level] = body
		return nil
	}

	if err := in.captureLoop(tok, func(parser.Token) {}); err != nil {
		return err
	}
	delete(in.whileBodies, level)
	in.whileLevel--
	return nil
}

// captureLoop consumes tokens up to and including the ENDWHILE matching the
// WHILE at tok, passing each one to visit.
func (in *Interpreter) captureLoop(tok parser.Token, visit func(parser.Token)) error {
	depth := 0
	for {
		t := in.cursor.Next()
		if t.IsEOF() {
			return parser.Errorf(tok, "WHILE without matching ENDWHILE")
		}
		visit(t)
		switch {
		case t.Is("WHILE"):
			depth++
		case t.Is("ENDWHILE"):
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func (in *Interpreter) endWhile(tok parser.Token) error {
	body, ok := in.whileBodies[in.whileLevel]
	if in.whileLevel == 0 || !ok {
		return parser.Errorf(tok, "unexpected ENDWHILE")
	}
	in.cursor.PushBackMany(body)
	in.whileLevel--
	return nil
}
