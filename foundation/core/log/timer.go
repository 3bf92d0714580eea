// File: timer.go
// Title: Operation Timer
// Description: Measures an operation and writes one entry with its duration
//              when it finishes.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with performance timing
// - 2026-10-19 v0.2.0: Duration carried on the entry, single completion

package log

import (
	"sync"
	"time"
)

// Timer is started by Logger.StartTimer. Only the first Stop or
// StopWithError writes an entry.
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	fields    Fields
	once      sync.Once
}

// NewTimer starts timing operation. logger may be nil.
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{logger: logger, operation: operation, start: time.Now(), fields: Fields{}}
}

// WithField attaches a field to the completion entry
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Stop writes "<operation> completed" at debug level and returns the
// duration. Later calls return 0.
func (t *Timer) Stop() time.Duration {
	return t.finish(nil)
}

// StopWithError is Stop for a failed operation, logged at error level
func (t *Timer) StopWithError(err error) time.Duration {
	return t.finish(err)
}

func (t *Timer) finish(err error) time.Duration {
	var elapsed time.Duration
	t.once.Do(func() {
		elapsed = time.Since(t.start)
		if t.logger == nil {
			return
		}
		level, verb := LevelDebug, " completed"
		if err != nil {
			level, verb = LevelError, " failed"
		}
		t.logger.log(level, t.operation+verb, err, elapsed, t.fields, Fields{"operation": t.operation})
	})
	return elapsed
}
