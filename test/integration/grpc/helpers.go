// ============================================================================
// kinematics - Kinematic Program Interpreter
// ============================================================================
//
// Package:     grpc
// Description: Helpers for integration tests against a running "kin serve"
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/msto63/kinematics/internal/evaluator/server"
)

// CallTimeout bounds every call made by the integration tests
const CallTimeout = 10 * time.Second

// Target returns the Evaluator address. KIN_TEST_GRPC_ADDR overrides the
// default localhost:9300.
func Target() string {
	if addr := os.Getenv("KIN_TEST_GRPC_ADDR"); addr != "" {
		return addr
	}
	return "localhost:9300"
}

// CallContext returns a context bounded by CallTimeout
func CallContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), CallTimeout)
}

// Connect dials Target and fails unless the Evaluator reports SERVING
func Connect() (*server.Client, error) {
	client, err := server.Dial(Target())
	if err != nil {
		return nil, err
	}

	ctx, cancel := CallContext()
	defer cancel()
	serving, err := client.Serving(ctx)
	switch {
	case err != nil:
		err = fmt.Errorf("%s at %s not reachable: %w", server.EvaluatorServiceName, Target(), err)
	case !serving:
		err = fmt.Errorf("%s at %s is not serving", server.EvaluatorServiceName, Target())
	}
	if err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
