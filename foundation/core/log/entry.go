// File: entry.go
// Title: Log Entry
// Description: One log record as handed to a Formatter.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-19 v0.2.0: Sorted field keys for stable output

package log

import (
	"slices"
	"time"
)

// Fields are key/value pairs attached to an entry
type Fields map[string]interface{}

// Keys returns the field names sorted, so text output is stable
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Entry is a single record. Duration is set by timers only.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Logger    string
	RequestID string
	Fields    Fields
	Error     error
	Duration  time.Duration
}

func NewEntry(level Level, message string) *Entry {
	return &Entry{Timestamp: time.Now(), Level: level, Message: message, Fields: Fields{}}
}
