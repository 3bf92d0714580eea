// File: logger.go
// Title: Logger
// Description: Leveled logger with context fields. Derived loggers share the
//              output and its lock, so one logger can be specialised per
//              program run or request and used from many goroutines.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-19 v0.2.0: Shared write lock, errors.As for coded errors

package log

import (
	"errors"
	"io"
	"maps"
	"os"
	"sync"
	"time"

	mdwerror "github.com/msto63/kinematics/foundation/core/error"
)

// Config configures NewWithConfig. A nil Output means stdout.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
	Name   string
}

// sink is the part of a logger shared by all loggers derived from it
type sink struct {
	mu        sync.Mutex
	out       io.Writer
	formatter Formatter
}

func (s *sink) write(e *Entry) {
	b, err := s.formatter.Format(e)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(b)
}

// Logger writes entries at or above its level. The zero value is not
// usable; use New, NewWithConfig or Discard.
type Logger struct {
	sink      *sink
	level     Level
	name      string
	requestID string
	fields    Fields
}

// New returns a JSON logger at info level on stdout
func New() *Logger {
	return NewWithConfig(Config{Level: LevelInfo, Format: FormatJSON})
}

func NewWithConfig(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		sink:  &sink{out: out, formatter: GetFormatter(cfg.Format)},
		level: cfg.Level,
		name:  cfg.Name,
	}
}

// Discard returns a logger that writes nothing
func Discard() *Logger {
	return NewWithConfig(Config{Level: LevelFatal + 1, Output: io.Discard})
}

func (l *Logger) derive(fn func(*Logger)) *Logger {
	c := *l
	c.fields = maps.Clone(l.fields)
	fn(&c)
	return &c
}

func (l *Logger) WithName(name string) *Logger {
	return l.derive(func(c *Logger) { c.name = name })
}

func (l *Logger) WithRequestID(id string) *Logger {
	return l.derive(func(c *Logger) { c.requestID = id })
}

// WithField returns a logger adding key to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(Fields{key: value})
}

// WithFields returns a logger adding fields to every entry
func (l *Logger) WithFields(fields Fields) *Logger {
	return l.derive(func(c *Logger) {
		if c.fields == nil {
			c.fields = make(Fields, len(fields))
		}
		maps.Copy(c.fields, fields)
	})
}

// IsLevelEnabled lets hot paths skip building fields that would be dropped
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level.ShouldLog(l.level)
}

func (l *Logger) Trace(msg string, fields ...Fields) { l.log(LevelTrace, msg, nil, 0, fields...) }
func (l *Logger) Debug(msg string, fields ...Fields) { l.log(LevelDebug, msg, nil, 0, fields...) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.log(LevelInfo, msg, nil, 0, fields...) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.log(LevelWarn, msg, nil, 0, fields...) }
func (l *Logger) Error(msg string, fields ...Fields) { l.log(LevelError, msg, nil, 0, fields...) }

// Fatal logs and exits with status 1
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.log(LevelFatal, msg, nil, 0, fields...)
	os.Exit(1)
}

// LogError logs err. Coded errors are logged at a level matching their
// severity with code, operation and details as fields: low severity at
// info, medium at warn, everything else at error.
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	var coded *mdwerror.Error
	if !errors.As(err, &coded) {
		l.log(LevelError, err.Error(), err, 0)
		return
	}

	fields := Fields{
		"error_code":     coded.Code(),
		"error_severity": coded.Severity().String(),
	}
	if op := coded.Operation(); op != "" {
		fields["error_operation"] = op
	}
	for k, v := range coded.Details() {
		fields["error_"+k] = v
	}

	level := LevelError
	switch coded.Severity() {
	case mdwerror.SeverityLow:
		level = LevelInfo
	case mdwerror.SeverityMedium:
		level = LevelWarn
	}
	l.log(level, coded.Message(), err, 0, fields)
}

// StartTimer starts a Timer reporting to l
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

func (l *Logger) log(level Level, msg string, err error, d time.Duration, fields ...Fields) {
	if !level.ShouldLog(l.level) {
		return
	}
	e := NewEntry(level, msg)
	e.Logger = l.name
	e.RequestID = l.requestID
	e.Error = err
	e.Duration = d
	maps.Copy(e.Fields, l.fields)
	for _, f := range fields {
		maps.Copy(e.Fields, f)
	}
	l.sink.write(e)
}
