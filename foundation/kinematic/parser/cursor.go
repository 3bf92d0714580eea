// File: cursor.go
// Title: Token Cursor
// Description: Position-addressable view over an immutable token list with
//              push-back and replay. Each interpreter run owns its own cursor;
//              the underlying slice may be shared between cursors.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial cursor

package parser

// Cursor walks a token list
type Cursor struct {
	tokens []Token
	pos    int
	eof    Token
}

// NewCursor creates a cursor positioned at the first token
func NewCursor(tokens []Token) *Cursor {
	eof := Token{Type: TokenEOF}
	if n := len(tokens); n > 0 {
		eof.Line = tokens[n-1].Line
	}
	return &Cursor{tokens: tokens, eof: eof}
}

// Next returns the next token and advances. At the end the EOF sentinel is
// returned and the position does not change.
func (c *Cursor) Next() Token {
	if c.pos >= len(c.tokens) {
		return c.eof
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok
}

// Peek returns the next token without consuming it
func (c *Cursor) Peek() Token {
	if c.pos >= len(c.tokens) {
		return c.eof
	}
	return c.tokens[c.pos]
}

// Expect consumes the next token and fails unless its text equals text
func (c *Cursor) Expect(text string) (Token, error) {
	tok := c.Next()
	if !tok.Is(text) {
		return tok, Errorf(tok, "expected %s, got %s", text, tok)
	}
	return tok, nil
}

// PushBack rewinds over the token just consumed. Pushing back EOF is a no-op.
func (c *Cursor) PushBack(tok Token) {
	if tok.IsEOF() || c.pos == 0 {
		return
	}
	c.pos--
}

// PushBackMany rewinds by len(tokens), re-queuing a run that was just consumed
func (c *Cursor) PushBackMany(tokens []Token) {
	c.pos -= len(tokens)
	if c.pos < 0 {
		c.pos = 0
	}
}

// Reset moves the cursor back to the first token
func (c *Cursor) Reset() {
	c.pos = 0
}

// Pos returns the index of the next token
func (c *Cursor) Pos() int { return c.pos }

// Len returns the number of tokens
func (c *Cursor) Len() int { return len(c.tokens) }
