// Package error provides coded, contextual errors for the kinematics platform.
//
// Package: error
// Title: Kinematics Error Handling
// Description: Structured errors with codes, severity levels, details and wrapping.
//              The interpreter core reports plain LexError/ParseError values; the
//              service layer classifies them into coded errors which the transports
//              map to gRPC and HTTP status codes.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-19 v0.2.0: Reduced code set to interpreter and service domain
//
// Usage:
//
//	import mdwerror "github.com/msto63/kinematics/foundation/core/error"
//
//	err := mdwerror.Wrap(parseErr, "program evaluation failed").
//		WithCode(mdwerror.CodeParse).
//		WithDetail("line", 12).
//		WithOperation("service.Evaluate")
//
//	if mdwerror.HasCode(err, mdwerror.CodeParse) {
//		// report as client error
//	}
package error
