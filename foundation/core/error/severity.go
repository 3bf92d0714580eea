// File: severity.go
// Title: Error Severity
// Description: Severity of a coded error. The logger picks the level of an
//              error entry from it.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-19 v0.2.0: Mapping for interpreter codes

package error

// Severity ranks how much attention an error needs
type Severity int

const (
	// SeverityLow is a caller mistake such as a malformed program
	SeverityLow Severity = iota
	// SeverityMedium is a transient failure such as a timeout
	SeverityMedium
	// SeverityHigh is an infrastructure failure
	SeverityHigh
	// SeverityCritical makes the service unusable
	SeverityCritical
)

var severityNames = [...]string{"low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return "unknown"
	}
	return severityNames[s]
}

var codeSeverity = map[Code]Severity{
	CodeLex:                SeverityLow,
	CodeParse:              SeverityLow,
	CodeRuntime:            SeverityLow,
	CodeInvalidInput:       SeverityLow,
	CodeNotFound:           SeverityLow,
	CodeCanceled:           SeverityLow,
	CodeStorageError:       SeverityHigh,
	CodeConfigError:        SeverityHigh,
	CodeInternal:           SeverityHigh,
	CodeServiceUnavailable: SeverityCritical,
}

// GetSeverityFromCode returns the default severity for code. Codes without
// an entry, step limit and timeout among them, are medium.
func GetSeverityFromCode(code Code) Severity {
	if s, ok := codeSeverity[code]; ok {
		return s
	}
	return SeverityMedium
}
