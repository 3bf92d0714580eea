// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes used to classify failures of program
//              compilation, evaluation, storage and configuration.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-19 v0.2.0: Interpreter codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"
	CodeCanceled     Code = "CANCELED"

	// Interpreter
	CodeLex       Code = "LEX_ERROR"
	CodeParse     Code = "PARSE_ERROR"
	CodeRuntime   Code = "RUNTIME_ERROR"
	CodeStepLimit Code = "STEP_LIMIT"

	// Infrastructure
	CodeConfigError        Code = "CONFIG_ERROR"
	CodeStorageError       Code = "STORAGE_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout, CodeCanceled,
		CodeLex, CodeParse, CodeRuntime, CodeStepLimit,
		CodeConfigError, CodeStorageError, CodeServiceUnavailable:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeLex, CodeParse, CodeRuntime, CodeStepLimit:
		return "program"
	case CodeConfigError:
		return "configuration"
	case CodeStorageError, CodeServiceUnavailable:
		return "infrastructure"
	default:
		return "generic"
	}
}

// HTTPStatus returns the appropriate HTTP status code for this error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return 404
	case CodeInvalidInput, CodeLex, CodeParse:
		return 400
	case CodeRuntime, CodeStepLimit:
		return 422
	case CodeTimeout:
		return 408
	case CodeCanceled:
		return 499
	case CodeServiceUnavailable, CodeStorageError:
		return 503
	default:
		return 500
	}
}
