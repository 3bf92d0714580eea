// File: format.go
// Title: Output Formats
// Description: JSON lines for services, compact text for terminals and
//              logfmt for log shippers that expect key=value pairs.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with multiple output formats
// - 2026-10-19 v0.2.0: Console format folded into text, stable key order

package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format selects a Formatter
type Format int

const (
	FormatJSON Format = iota
	FormatText
	FormatLogfmt
)

var formatNames = [...]string{FormatJSON: "json", FormatText: "text", FormatLogfmt: "logfmt"}

func (f Format) String() string {
	if f < FormatJSON || f > FormatLogfmt {
		return "unknown"
	}
	return formatNames[f]
}

// ParseFormat accepts the format names in any case. "console" is an alias
// for text and the empty string means JSON.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return FormatJSON, nil
	case "console":
		return FormatText, nil
	}
	for f, name := range formatNames {
		if s == name {
			return Format(f), nil
		}
	}
	return FormatJSON, &ParseError{Input: s, Type: "format"}
}

// Formatter renders one entry including the trailing newline
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// GetFormatter returns the formatter for f; unknown values get JSON
func GetFormatter(f Format) Formatter {
	switch f {
	case FormatText:
		return TextFormatter{TimeLayout: "15:04:05.000"}
	case FormatLogfmt:
		return LogfmtFormatter{TimeLayout: time.RFC3339}
	default:
		return JSONFormatter{TimeLayout: time.RFC3339}
	}
}

// JSONFormatter writes one object per line. Entry fields share the top
// level with the fixed keys; the fixed keys win on conflicts.
type JSONFormatter struct{ TimeLayout string }

func (f JSONFormatter) Format(e *Entry) ([]byte, error) {
	obj := make(map[string]interface{}, len(e.Fields)+7)
	for k, v := range e.Fields {
		obj[k] = v
	}
	obj["timestamp"] = e.Timestamp.Format(f.TimeLayout)
	obj["level"] = e.Level.String()
	obj["message"] = e.Message
	setIf(obj, "logger", e.Logger)
	setIf(obj, "request_id", e.RequestID)
	if e.Error != nil {
		obj["error"] = e.Error.Error()
		// coded errors carry code, operation and details
		if m, ok := e.Error.(json.Marshaler); ok {
			if raw, err := m.MarshalJSON(); err == nil {
				obj["error_details"] = json.RawMessage(raw)
			}
		}
	}
	if e.Duration > 0 {
		obj["duration_ms"] = millis(e.Duration)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func setIf(obj map[string]interface{}, key, value string) {
	if value != "" {
		obj[key] = value
	}
}

// TextFormatter writes "15:04:05.000 [INF] {logger} message k=v ..."
type TextFormatter struct{ TimeLayout string }

func (f TextFormatter) Format(e *Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s [%s]", e.Timestamp.Format(f.TimeLayout), e.Level.ShortString())
	if e.Logger != "" {
		fmt.Fprintf(&b, " {%s}", e.Logger)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (req=%s)", e.RequestID)
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, k := range e.Fields.Keys() {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	if e.Error != nil {
		fmt.Fprintf(&b, " error=%q", e.Error.Error())
	}
	if e.Duration > 0 {
		fmt.Fprintf(&b, " duration=%s", e.Duration)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// LogfmtFormatter writes key=value pairs; string values are quoted
type LogfmtFormatter struct{ TimeLayout string }

func (f LogfmtFormatter) Format(e *Entry) ([]byte, error) {
	var b bytes.Buffer
	pair := func(k string, v interface{}) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		if s, ok := v.(string); ok {
			fmt.Fprintf(&b, "%s=%q", k, s)
			return
		}
		fmt.Fprintf(&b, "%s=%v", k, v)
	}

	fmt.Fprintf(&b, "timestamp=%s level=%s", e.Timestamp.Format(f.TimeLayout), e.Level)
	pair("message", e.Message)
	if e.Logger != "" {
		fmt.Fprintf(&b, " logger=%s", e.Logger)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", e.RequestID)
	}
	for _, k := range e.Fields.Keys() {
		pair(k, e.Fields[k])
	}
	if e.Error != nil {
		pair("error", e.Error.Error())
	}
	if e.Duration > 0 {
		fmt.Fprintf(&b, " duration_ms=%.3f", millis(e.Duration))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
