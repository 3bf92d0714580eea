// File: level.go
// Title: Log Levels
// Description: Ordered log levels with their long and short names and the
//              parser used for configuration values.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with standard log levels
// - 2026-10-19 v0.2.0: Trace level for the interpreter, audit level removed

package log

import "strings"

// Level orders log entries by importance. Trace carries per-token
// interpreter output, Debug per-statement and per-run details.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]struct{ long, short string }{
	LevelTrace: {"trace", "TRC"},
	LevelDebug: {"debug", "DBG"},
	LevelInfo:  {"info", "INF"},
	LevelWarn:  {"warn", "WRN"},
	LevelError: {"error", "ERR"},
	LevelFatal: {"fatal", "FTL"},
}

func (l Level) valid() bool { return l >= LevelTrace && l <= LevelFatal }

func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levelNames[l].long
}

// ShortString is the three letter form used by the text format
func (l Level) ShortString() string {
	if !l.valid() {
		return "???"
	}
	return levelNames[l].short
}

// ShouldLog reports whether an entry at l passes a logger set to threshold
func (l Level) ShouldLog(threshold Level) bool {
	return l >= threshold
}

// ParseLevel accepts the long and short names in any case, plus "warning".
// The empty string means info.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for lvl, names := range levelNames {
		if s == names.long || s == strings.ToLower(names.short) {
			return Level(lvl), nil
		}
	}
	return LevelInfo, &ParseError{Input: s, Type: "level"}
}

// ParseError reports an unknown level or format name
type ParseError struct {
	Input string
	Type  string
}

func (e *ParseError) Error() string {
	return "invalid log " + e.Type + " " + `"` + e.Input + `"`
}
