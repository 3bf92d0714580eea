// File: lexer.go
// Title: Kinematic Lexical Analyzer
// Description: Converts program source lines into a token list. Comments are cut
//              at the first ';', each line is trimmed and upper-cased, then the
//              ordered rule table classifies the remaining text.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial lexer implementation

package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

type lexRule struct {
	pattern *regexp.Regexp
	typ     TokenType
}

// Order matters: e.g. ENDIF must be tried before the I variable class and
// ATAN2 before ATAN.
var lexRules = []lexRule{
	{regexp.MustCompile(`^[ \t]`), TokenWhitespace},
	{regexp.MustCompile(`^(IF|ELSE|ENDIF|WHILE|ENDWHILE|AND|OR)`), TokenConditional},
	{regexp.MustCompile(`^(ABS|EXP|INT|LN|SIN|COS|TAN|ASIN|ACOS|ATAN2|ATAN|SQRT)`), TokenMath},
	{regexp.MustCompile(`^[PQIM]`), TokenVariable},
	{regexp.MustCompile(`^\(\d+\+\d+\)`), TokenConstantExpression},
	{regexp.MustCompile(`^\d+(\.\d+)?`), TokenNumber},
	{regexp.MustCompile(`^(!=|!<|!>)`), TokenOperator},
	{regexp.MustCompile(`^[-+/\\*=<>^|&%]`), TokenOperator},
	{regexp.MustCompile(`^[()]`), TokenPunctuation},
	{regexp.MustCompile(`^(DISABLE PLC|DISABLE PLCC|DISPLAY|ENABLE PLC|ENABLE PLCC|LOCK|` +
		`MACROAUXREAD|MACROAUXWRITE|MACROMSTREAD|MACROMSTWRITE|MACROSLVREAD|MACROSLVWRITE|` +
		`PAUSE PLC|RESUME PLC|SETPHASE|UNLOCK)`), TokenInvalid},
}

// Lexer tokenizes kinematic program source
type Lexer struct {
	lines []string
}

// NewLexer creates a lexer over the given source lines
func NewLexer(lines []string) *Lexer {
	return &Lexer{lines: lines}
}

// Tokenize returns the tokens of all lines in order. Whitespace is dropped; the
// first invalid lexeme aborts with a *LexError.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for i, raw := range l.lines {
		lineTokens, err := tokenizeLine(NormalizeLine(raw), i+1)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, lineTokens...)
	}
	return tokens, nil
}

// NormalizeLine strips the comment, surrounding whitespace and case of a source line
func NormalizeLine(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	return strings.ToUpper(strings.TrimSpace(line))
}

func tokenizeLine(code string, line int) ([]Token, error) {
	var tokens []Token
	pos := 0
	for pos < len(code) {
		rest := code[pos:]
		matched := false
		for _, rule := range lexRules {
			m := rule.pattern.FindString(rest)
			if m == "" {
				continue
			}
			matched = true
			if rule.typ == TokenInvalid {
				return nil, &LexError{Lexeme: m, Line: line, Column: pos + 1}
			}
			if rule.typ != TokenWhitespace {
				tokens = append(tokens, Token{Type: rule.typ, Value: m, Line: line, Column: pos + 1})
			}
			pos += len(m)
			break
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(rest)
			return nil, &LexError{Lexeme: rest[:size], Line: line, Column: pos + 1}
		}
	}
	return tokens, nil
}

// FoldConstants returns a copy of tokens in which every constant expression
// "(a+b)" is replaced by a number token holding the integer sum.
func FoldConstants(tokens []Token) ([]Token, error) {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	for i, tok := range out {
		if tok.Type != TokenConstantExpression {
			continue
		}
		inner := strings.Trim(tok.Value, "()")
		parts := strings.SplitN(inner, "+", 2)
		a, errA := strconv.Atoi(parts[0])
		b, errB := strconv.Atoi(parts[1])
		if errA != nil || errB != nil {
			return nil, &LexError{Lexeme: tok.Value, Line: tok.Line, Column: tok.Column}
		}
		out[i] = Token{Type: TokenNumber, Value: strconv.Itoa(a + b), Line: tok.Line, Column: tok.Column}
	}
	return out, nil
}

// Lex tokenizes lines and folds constant expressions
func Lex(lines []string) ([]Token, error) {
	tokens, err := NewLexer(lines).Tokenize()
	if err != nil {
		return nil, err
	}
	return FoldConstants(tokens)
}
