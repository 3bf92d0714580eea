// File: cursor_test.go
// Title: Token Cursor Unit Tests
// Description: Tests for consumption, expectation, push-back and replay.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial test suite

package parser

import (
	"strings"
	"testing"
)

func mustLex(t *testing.T, lines ...string) []Token {
	t.Helper()
	tokens, err := Lex(lines)
	if err != nil {
		t.Fatalf("Lex(%v) error = %v", lines, err)
	}
	return tokens
}

func TestCursor_NextAndEOF(t *testing.T) {
	c := NewCursor(mustLex(t, "P1", "=2"))

	for _, want := range []string{"P", "1", "=", "2"} {
		if got := c.Next(); got.Value != want {
			t.Fatalf("Next() = %q, want %q", got.Value, want)
		}
	}

	eof := c.Next()
	if !eof.IsEOF() {
		t.Fatalf("Next() at end = %+v, want EOF", eof)
	}
	if eof.Line != 2 {
		t.Errorf("EOF line = %d, want 2", eof.Line)
	}
	if c.Pos() != 4 {
		t.Errorf("Pos() = %d, want 4", c.Pos())
	}

	c.PushBack(eof)
	if c.Pos() != 4 {
		t.Errorf("PushBack(EOF) moved the cursor to %d", c.Pos())
	}
}

func TestCursor_Expect(t *testing.T) {
	c := NewCursor(mustLex(t, "(P1)"))

	if _, err := c.Expect("("); err != nil {
		t.Fatalf("Expect(() error = %v", err)
	}
	_, err := c.Expect(")")
	if err == nil {
		t.Fatal("Expect()) should fail on P")
	}
	if !strings.Contains(err.Error(), "expected ), got P") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestCursor_PushBackAndReplay(t *testing.T) {
	tokens := mustLex(t, "WHILE(P1<10)", "P1=P1+1", "ENDWHILE", "Q1=1")
	c := NewCursor(tokens)

	var body []Token
	for {
		tok := c.Next()
		body = append(body, tok)
		if tok.Is("ENDWHILE") {
			break
		}
	}
	after := c.Pos()

	c.PushBackMany(body)
	if c.Pos() != 0 {
		t.Fatalf("PushBackMany() pos = %d, want 0", c.Pos())
	}
	if first := c.Next(); !first.Is("WHILE") {
		t.Errorf("replay starts with %q", first.Value)
	}

	c.Reset()
	for i := 0; i < after; i++ {
		c.Next()
	}
	tok := c.Next()
	c.PushBack(tok)
	if c.Peek() != tok {
		t.Errorf("Peek() after PushBack = %+v, want %+v", c.Peek(), tok)
	}
}

func TestCursor_SharedTokens(t *testing.T) {
	tokens := mustLex(t, "Q1=1")
	a, b := NewCursor(tokens), NewCursor(tokens)

	a.Next()
	a.Next()
	if got := b.Next(); got.Value != "Q" {
		t.Errorf("independent cursor returned %q", got.Value)
	}
	if a.Len() != 4 || b.Len() != 4 {
		t.Errorf("Len() = %d/%d, want 4", a.Len(), b.Len())
	}
}
