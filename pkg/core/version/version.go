// ============================================================================
// kinematics - Kinematic Program Interpreter
// ============================================================================
//
// Package:     version
// Description: Central version management for the CLI and services
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants
const (
	// Platform version
	Platform = "0.1.0"

	// Component versions
	Engine    = "0.1.0"
	Evaluator = "0.1.0"
	CLI       = "0.1.0"
)

// Set at build time via -ldflags "-X github.com/msto63/kinematics/pkg/core/version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ServiceVersion returns the version for a given component name
func ServiceVersion(name string) string {
	switch name {
	case "engine":
		return Engine
	case "evaluator":
		return Evaluator
	case "kin", "cli":
		return CLI
	default:
		return Platform
	}
}

// String returns a one-line build description
func String() string {
	return fmt.Sprintf("kinematics %s (engine %s, commit %s, built %s, %s)",
		Platform, Engine, Commit, BuildDate, runtime.Version())
}
