// File: errors.go
// Title: Lexer and Interpreter Errors
// Description: LexError is returned while building the token list, ParseError
//              for every failure while interpreting it.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial error types

package parser

import "fmt"

// LexError reports an unrecognised or disallowed lexeme
type LexError struct {
	Lexeme string
	Line   int
	Column int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d, column %d: unrecognised token %q", e.Line, e.Column, e.Lexeme)
}

// ParseError represents an interpretation error tied to the triggering token
type ParseError struct {
	Message string
	Line    int
	Token   Token
	Err     error
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", pe.Line, pe.Message)
}

// Unwrap returns the underlying cause, e.g. a value error or context error
func (pe *ParseError) Unwrap() error {
	return pe.Err
}

// Errorf creates a ParseError located at tok
func Errorf(tok Token, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Token:   tok,
	}
}

// WrapError attaches err to the line of tok. An existing *ParseError is returned unchanged.
func WrapError(tok Token, err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*ParseError); ok {
		return pe
	}
	return &ParseError{
		Message: err.Error(),
		Line:    tok.Line,
		Token:   tok,
		Err:     err,
	}
}
