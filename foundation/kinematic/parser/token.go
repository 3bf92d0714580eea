// File: token.go
// Title: Kinematic Token Definitions
// Description: Token and TokenType definitions plus the numeric conversions the
//              interpreter performs on literal tokens.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial token model

package parser

import (
	"fmt"
	"strconv"
)

// TokenType represents the lexical class of a token
type TokenType int

const (
	// TokenEOF is returned by the cursor once the token list is exhausted
	TokenEOF TokenType = iota
	TokenWhitespace
	TokenConditional        // IF ELSE ENDIF WHILE ENDWHILE AND OR
	TokenMath               // SIN COS ... LN
	TokenVariable           // P Q I M
	TokenConstantExpression // (4800+5)
	TokenNumber             // 12, 0.5
	TokenOperator           // + - * / % & | ^ = != !< !> < > \
	TokenPunctuation        // ( )
	TokenInvalid
)

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "EOF"
	case TokenWhitespace:
		return "WHITESPACE"
	case TokenConditional:
		return "CONDITIONAL"
	case TokenMath:
		return "MATH"
	case TokenVariable:
		return "VARIABLE"
	case TokenConstantExpression:
		return "CONSTANT_EXPRESSION"
	case TokenNumber:
		return "NUMBER"
	case TokenOperator:
		return "OPERATOR"
	case TokenPunctuation:
		return "PUNCTUATION"
	case TokenInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
}

// Token represents a lexical token with position information
type Token struct {
	Type   TokenType // Token type
	Value  string    // Upper-cased token text
	Line   int       // Source line number (1-based)
	Column int       // Column in the comment-stripped, trimmed line (1-based)
}

// String returns the token text, or "end of program" for the EOF sentinel
func (t Token) String() string {
	if t.Type == TokenEOF {
		return "end of program"
	}
	return t.Value
}

// Is reports whether the token text equals text exactly
func (t Token) Is(text string) bool {
	return t.Type != TokenEOF && t.Value == text
}

// IsEOF reports whether t is the end-of-program sentinel
func (t Token) IsEOF() bool {
	return t.Type == TokenEOF
}

// IsInt reports whether the token text consists of decimal digits only
func (t Token) IsInt() bool {
	if t.Value == "" {
		return false
	}
	for i := 0; i < len(t.Value); i++ {
		if t.Value[i] < '0' || t.Value[i] > '9' {
			return false
		}
	}
	return true
}

// IsFloat reports whether the token text consists of digits and dots only
func (t Token) IsFloat() bool {
	if t.Value == "" {
		return false
	}
	for i := 0; i < len(t.Value); i++ {
		c := t.Value[i]
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}

// Int converts an integer token
func (t Token) Int() (int, error) {
	if !t.IsInt() {
		return 0, Errorf(t, "integer expected, got: %s", t)
	}
	n, err := strconv.Atoi(t.Value)
	if err != nil {
		return 0, Errorf(t, "integer out of range: %s", t)
	}
	return n, nil
}

// Float converts a numeric token. Non-numeric tokens fail with a *ParseError.
func (t Token) Float() (float64, error) {
	if !t.IsFloat() {
		return 0, Errorf(t, "float expected, got: %s", t)
	}
	f, err := strconv.ParseFloat(t.Value, 64)
	if err != nil {
		return 0, Errorf(t, "float expected, got: %s", t)
	}
	return f, nil
}
