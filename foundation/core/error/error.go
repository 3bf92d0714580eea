// File: error.go
// Title: Coded Errors
// Description: The Error type carries a code, a severity derived from it,
//              details such as the failing source line and the operation
//              that failed. errors.Is and errors.As see through it.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors
// - 2026-10-19 v0.2.0: errors.As based lookups, stack capture removed

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// Error is a coded error. Build it with New, Newf or Wrap and the With*
// methods; it must not be modified after it has been returned.
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	operation string
	details   map[string]interface{}
}

// New creates an error with CodeUnknown
func New(message string) *Error {
	return &Error{message: message, code: CodeUnknown, severity: SeverityMedium}
}

// Newf is New with a format string
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap puts message in front of err. When err contains an *Error its code,
// severity and details carry over, so wrapping never loses a
// classification. Wrap(nil, ...) is nil.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	e := New(message)
	e.cause = err

	var inner *Error
	if errors.As(err, &inner) {
		e.code = inner.code
		e.severity = inner.severity
		e.details = maps.Clone(inner.details)
	}
	return e
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// WithCode sets the code and resets the severity to the code's default
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	e.severity = GetSeverityFromCode(code)
	return e
}

// WithDetail attaches a key/value pair reported to clients
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.details == nil {
		e.details = make(map[string]interface{})
	}
	e.details[key] = value
	return e
}

// WithOperation names the failing operation, e.g. "service.Evaluate"
func (e *Error) WithOperation(op string) *Error {
	e.operation = op
	return e
}

// Message is the error text without the cause chain
func (e *Error) Message() string    { return e.message }
func (e *Error) Code() Code         { return e.code }
func (e *Error) Severity() Severity { return e.severity }
func (e *Error) Operation() string  { return e.operation }

// Details returns a copy of the attached details
func (e *Error) Details() map[string]interface{} {
	if e.details == nil {
		return map[string]interface{}{}
	}
	return maps.Clone(e.details)
}

// MarshalJSON writes the full message together with code, severity,
// operation and details
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message   string                 `json:"message"`
		Code      Code                   `json:"code"`
		Severity  string                 `json:"severity"`
		Operation string                 `json:"operation,omitempty"`
		Details   map[string]interface{} `json:"details,omitempty"`
	}{e.Error(), e.code, e.severity.String(), e.operation, e.details})
}

// GetCode returns the code of the outermost *Error in err's chain, or
// CodeUnknown
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// HasCode reports whether GetCode(err) is code
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetSeverity is GetCode for the severity; plain errors are medium
func GetSeverity(err error) Severity {
	var e *Error
	if errors.As(err, &e) {
		return e.severity
	}
	return SeverityMedium
}
