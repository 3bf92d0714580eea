// ============================================================================
// kinematics - Kinematic Program Interpreter
// ============================================================================
//
// Package:     logging
// Description: Process wide logger settings and the Foundation logger factory
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	mdwlog "github.com/msto63/kinematics/foundation/core/log"
)

// LoggerConfig describes one logger. Level and Format take the names
// accepted by the Foundation parsers; unknown names mean info and JSON.
type LoggerConfig struct {
	ServiceName string
	Level       string
	Format      string

	// Output defaults to stderr so that command output on stdout stays clean
	Output            io.Writer
	AdditionalOutputs []io.Writer
}

var settings = struct {
	sync.RWMutex
	level, format string
}{level: "info", format: "json"}

// Configure sets the level and format for loggers created afterwards.
// Empty values keep the current setting.
func Configure(level, format string) {
	settings.Lock()
	defer settings.Unlock()
	if level != "" {
		settings.level = level
	}
	if format != "" {
		settings.format = format
	}
}

// DefaultLoggerConfig returns the configured settings for serviceName
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	settings.RLock()
	defer settings.RUnlock()
	return LoggerConfig{ServiceName: serviceName, Level: settings.level, Format: settings.format}
}

// NewLogger builds a Foundation logger from cfg
func NewLogger(cfg LoggerConfig) *mdwlog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if len(cfg.AdditionalOutputs) > 0 {
		out = io.MultiWriter(append([]io.Writer{out}, cfg.AdditionalOutputs...)...)
	}

	format, err := mdwlog.ParseFormat(cfg.Format)
	if err != nil {
		format = mdwlog.FormatJSON
	}
	return mdwlog.NewWithConfig(mdwlog.Config{
		Level:  parseLevel(cfg.Level),
		Format: format,
		Output: out,
		Name:   cfg.ServiceName,
	})
}

// NewSimpleLogger is NewLogger with the configured settings
func NewSimpleLogger(serviceName string) *mdwlog.Logger {
	return NewLogger(DefaultLoggerConfig(serviceName))
}

func parseLevel(level string) mdwlog.Level {
	lvl, err := mdwlog.ParseLevel(level)
	if err != nil {
		return mdwlog.LevelInfo
	}
	return lvl
}
