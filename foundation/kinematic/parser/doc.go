// Package parser implements the lexical layer of the kinematic program language.
//
// Package: parser
// Title: Kinematic Program Tokenizer and Token Cursor
// Description: Converts program source lines into a flat list of typed tokens and
//              provides the Cursor used by the interpreter to consume, push back and
//              replay token runs. Tokens are never materialised into a syntax tree;
//              control flow is implemented by rewinding the cursor.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial tokenizer, constant folding and cursor
//
// Lexing rules are applied in a fixed order at every position of a line and the
// first matching rule wins:
//
//	[ \t]                                          whitespace (dropped)
//	IF ELSE ENDIF WHILE ENDWHILE AND OR            conditional keyword
//	ABS EXP INT LN SIN COS TAN ASIN ACOS ATAN2 ...  math function
//	P Q I M                                        variable class
//	(<int>+<int>)                                  constant expression
//	<digits>[.<digits>]                            number
//	!= !< !>  - + / \ * = < > ^ | & %              operator
//	( )                                            punctuation
//	DISPLAY, ENABLE PLC, ...                       disallowed controller command
//
// Anything else, and every disallowed command, aborts lexing with a *LexError.
package parser
