// Package log provides structured logging for the kinematics platform.
//
// Package: log
// Title: Structured Logging
// Description: Leveled logger with persistent context fields, JSON, text and logfmt
//              output, performance timers and severity-aware logging of coded errors.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-19 v0.2.0: Deterministic field order, async mode removed
//
// Usage:
//
//	logger := log.New().WithName("kinematic").WithField("program", hash)
//	timer := logger.StartTimer("run")
//	defer timer.Stop()
//	logger.Debug("statement", log.Fields{"line": 3, "token": "P"})
package log
