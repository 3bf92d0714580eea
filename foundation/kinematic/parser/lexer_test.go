// File: lexer_test.go
// Title: Kinematic Lexer Unit Tests
// Description: Tests for tokenization, rule ordering, comment handling, constant
//              folding and lexical errors.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial test suite

package parser

import (
	"errors"
	"testing"
)

func TestLexer_Tokenize(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected []Token
	}{
		{
			name:  "Assignment",
			lines: []string{"Q1=P1+2.5"},
			expected: []Token{
				{Type: TokenVariable, Value: "Q", Line: 1, Column: 1},
				{Type: TokenNumber, Value: "1", Line: 1, Column: 2},
				{Type: TokenOperator, Value: "=", Line: 1, Column: 3},
				{Type: TokenVariable, Value: "P", Line: 1, Column: 4},
				{Type: TokenNumber, Value: "1", Line: 1, Column: 5},
				{Type: TokenOperator, Value: "+", Line: 1, Column: 6},
				{Type: TokenNumber, Value: "2.5", Line: 1, Column: 7},
			},
		},
		{
			name:  "Lower case, comment and whitespace",
			lines: []string{"  q2 = sin(30) ; trailing comment"},
			expected: []Token{
				{Type: TokenVariable, Value: "Q", Line: 1, Column: 1},
				{Type: TokenNumber, Value: "2", Line: 1, Column: 2},
				{Type: TokenOperator, Value: "=", Line: 1, Column: 4},
				{Type: TokenMath, Value: "SIN", Line: 1, Column: 6},
				{Type: TokenPunctuation, Value: "(", Line: 1, Column: 9},
				{Type: TokenNumber, Value: "30", Line: 1, Column: 10},
				{Type: TokenPunctuation, Value: ")", Line: 1, Column: 12},
			},
		},
		{
			name:  "Keywords glued to operands",
			lines: []string{"IF(P1=1ANDI1=1)"},
			expected: []Token{
				{Type: TokenConditional, Value: "IF", Line: 1, Column: 1},
				{Type: TokenPunctuation, Value: "(", Line: 1, Column: 3},
				{Type: TokenVariable, Value: "P", Line: 1, Column: 4},
				{Type: TokenNumber, Value: "1", Line: 1, Column: 5},
				{Type: TokenOperator, Value: "=", Line: 1, Column: 6},
				{Type: TokenNumber, Value: "1", Line: 1, Column: 7},
				{Type: TokenConditional, Value: "AND", Line: 1, Column: 8},
				{Type: TokenVariable, Value: "I", Line: 1, Column: 11},
				{Type: TokenNumber, Value: "1", Line: 1, Column: 12},
				{Type: TokenOperator, Value: "=", Line: 1, Column: 13},
				{Type: TokenNumber, Value: "1", Line: 1, Column: 14},
				{Type: TokenPunctuation, Value: ")", Line: 1, Column: 15},
			},
		},
		{
			name:  "Two character operators and ATAN2",
			lines: []string{"", "ATAN2 !< !> != ENDWHILE"},
			expected: []Token{
				{Type: TokenMath, Value: "ATAN2", Line: 2, Column: 1},
				{Type: TokenOperator, Value: "!<", Line: 2, Column: 7},
				{Type: TokenOperator, Value: "!>", Line: 2, Column: 10},
				{Type: TokenOperator, Value: "!=", Line: 2, Column: 13},
				{Type: TokenConditional, Value: "ENDWHILE", Line: 2, Column: 16},
			},
		},
		{
			name:     "Comment only",
			lines:    []string{"; nothing here", "   "},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.lines).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if len(tokens) != len(tt.expected) {
				t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(tt.expected))
			}
			for i, want := range tt.expected {
				if tokens[i] != want {
					t.Errorf("token %d = %+v, want %+v", i, tokens[i], want)
				}
			}
		})
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		lexeme string
		line   int
	}{
		{"Unknown character", []string{"Q1=1", "Q2=$3"}, "$", 2},
		{"Unknown word", []string{"FOO"}, "F", 1},
		{"Disallowed command", []string{"DISPLAY"}, "DISPLAY", 1},
		{"Disallowed PLC command", []string{"Q1=1", "", "ENABLE PLC 3"}, "ENABLE PLC", 3},
		{"Non ASCII", []string{"Q1=€"}, "€", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.lines)
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("Lex() error = %v, want *LexError", err)
			}
			if lexErr.Lexeme != tt.lexeme || lexErr.Line != tt.line {
				t.Errorf("LexError = %+v, want lexeme %q on line %d", lexErr, tt.lexeme, tt.line)
			}
		})
	}
}

func TestFoldConstants(t *testing.T) {
	tokens, err := Lex([]string{"Q7=P(4800+5)*2"})
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}

	want := []string{"Q", "7", "=", "P", "4805", "*", "2"}
	if len(tokens) != len(want) {
		t.Fatalf("got %v, want %v", tokens, want)
	}
	for i, w := range want {
		if tokens[i].Value != w {
			t.Errorf("token %d = %q, want %q", i, tokens[i].Value, w)
		}
	}
	if tokens[4].Type != TokenNumber {
		t.Errorf("folded token type = %v, want NUMBER", tokens[4].Type)
	}
}

func TestFoldConstants_DoesNotMutateInput(t *testing.T) {
	in := []Token{{Type: TokenConstantExpression, Value: "(1+2)", Line: 1, Column: 1}}
	out, err := FoldConstants(in)
	if err != nil {
		t.Fatal(err)
	}
	if in[0].Type != TokenConstantExpression || out[0].Value != "3" {
		t.Errorf("in = %+v, out = %+v", in[0], out[0])
	}
}

func TestToken_Conversions(t *testing.T) {
	tests := []struct {
		value     string
		isInt     bool
		isFloat   bool
		wantFloat float64
		wantErr   bool
	}{
		{"12", true, true, 12, false},
		{"0.25", false, true, 0.25, false},
		{"ENDIF", false, false, 0, true},
		{"(", false, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			tok := Token{Type: TokenNumber, Value: tt.value, Line: 4}
			if tok.IsInt() != tt.isInt {
				t.Errorf("IsInt() = %v", tok.IsInt())
			}
			if tok.IsFloat() != tt.isFloat {
				t.Errorf("IsFloat() = %v", tok.IsFloat())
			}
			f, err := tok.Float()
			if tt.wantErr {
				var pe *ParseError
				if !errors.As(err, &pe) || pe.Line != 4 {
					t.Fatalf("Float() error = %v, want ParseError on line 4", err)
				}
				return
			}
			if err != nil || f != tt.wantFloat {
				t.Errorf("Float() = %v, %v", f, err)
			}
		})
	}
}
