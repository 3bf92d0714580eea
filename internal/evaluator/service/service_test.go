// ============================================================================
// kinematics - Kinematic Program Interpreter
// ============================================================================
//
// Package:     service
// Description: Tests for the evaluation service
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	"github.com/msto63/kinematics/foundation/kinematic/value"
	"github.com/msto63/kinematics/internal/evaluator/store"
)

func newTestService(t *testing.T, cfg Config) (*Service, *store.MemoryRunStore) {
	t.Helper()
	runs := store.NewMemoryRunStore()
	svc := NewService(cfg, runs)
	t.Cleanup(func() { svc.Close() })
	return svc, runs
}

// TestDefaultConfig tests the default configuration
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxSteps != 1_000_000 {
		t.Errorf("Expected MaxSteps=1000000, got %d", cfg.MaxSteps)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Expected Timeout=10s, got %v", cfg.Timeout)
	}
	if cfg.CacheMaxItems != 256 {
		t.Errorf("Expected CacheMaxItems=256, got %d", cfg.CacheMaxItems)
	}
}

func TestEvaluate(t *testing.T) {
	svc, _ := newTestService(t, DefaultConfig())

	resp, err := svc.Evaluate(context.Background(), &Request{
		Program:   []string{"Q1=P1*2", "Q2=SQRT(Q1+8)"},
		Variables: map[string]value.Value{"P1": value.Scalar(4)},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if resp.RunID == "" {
		t.Error("RunID should be set")
	}
	if resp.Cached {
		t.Error("first evaluation should not be cached")
	}
	if !resp.Variables["Q1"].Equal(value.Scalar(8)) {
		t.Errorf("Q1 = %v, want 8", resp.Variables["Q1"])
	}
	if !resp.Variables["Q2"].Equal(value.Scalar(4)) {
		t.Errorf("Q2 = %v, want 4", resp.Variables["Q2"])
	}
	if !resp.Variables["P1"].Equal(value.Scalar(4)) {
		t.Errorf("P1 = %v, want 4", resp.Variables["P1"])
	}
}

func TestEvaluate_Cache(t *testing.T) {
	svc, _ := newTestService(t, DefaultConfig())
	ctx := context.Background()

	first, err := svc.Evaluate(ctx, &Request{Program: []string{"P1=P1+1"}})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// Comments and surrounding whitespace do not change the program
	second, err := svc.Evaluate(ctx, &Request{
		Program:   []string{"  p1=p1+1 ; increment"},
		Variables: map[string]value.Value{"P1": value.Scalar(41)},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if !second.Variables["P1"].Equal(value.Scalar(42)) {
		t.Errorf("P1 = %v, want 42", second.Variables["P1"])
	}
	if first.RunID == second.RunID {
		t.Error("every evaluation should get its own run id")
	}

	stats := svc.Stats(ctx)
	if stats["programs_hits"].(int64) != 1 {
		t.Errorf("programs_hits = %v, want 1", stats["programs_hits"])
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(*Config)
		program []string
		code    mdwerror.Code
		line    int
	}{
		{"empty program", nil, nil, mdwerror.CodeInvalidInput, 0},
		{"lex error", nil, []string{"P1=1", "DISPLAY"}, mdwerror.CodeLex, 2},
		{"parse error", nil, []string{"P1=(1+2))"}, mdwerror.CodeParse, 1},
		{"structural error", nil, []string{"P1=1", "ENDIF"}, mdwerror.CodeParse, 2},
		{"division by zero", nil, []string{"P1=1", "P2=P1/0"}, mdwerror.CodeRuntime, 2},
		{"domain error", nil, []string{"P1=SQRT(-1)"}, mdwerror.CodeRuntime, 1},
		{"step limit", func(c *Config) { c.MaxSteps = 50 }, []string{"WHILE(1=1)", "P1=P1+1", "ENDWHILE"}, mdwerror.CodeStepLimit, 0},
		{"timeout", func(c *Config) { c.MaxSteps = 0; c.Timeout = 20 * time.Millisecond }, []string{"WHILE(1=1)", "P1=P1+1", "ENDWHILE"}, mdwerror.CodeTimeout, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			svc, _ := newTestService(t, cfg)

			_, err := svc.Evaluate(context.Background(), &Request{Program: tt.program})
			if err == nil {
				t.Fatal("Evaluate() should fail")
			}
			if got := mdwerror.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (err = %v)", got, tt.code, err)
			}
			if tt.line > 0 {
				var coded *mdwerror.Error
				if !errors.As(err, &coded) {
					t.Fatalf("error is not coded: %v", err)
				}
				if got := coded.Details()["line"]; got != tt.line {
					t.Errorf("line = %v, want %d", got, tt.line)
				}
			}
		})
	}
}

func TestEvaluate_Record(t *testing.T) {
	svc, runs := newTestService(t, DefaultConfig())
	ctx := context.Background()

	ok, err := svc.Evaluate(ctx, &Request{
		Program:   []string{"Q1=P1+1"},
		Variables: map[string]value.Value{"P1": value.Vector(1, 2)},
		Record:    true,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	svc.Evaluate(ctx, &Request{Program: []string{"Q1=1/0"}, Record: true})
	svc.Evaluate(ctx, &Request{Program: []string{"Q1=2"}})

	all, _ := runs.List(ctx, store.RunFilter{})
	if len(all) != 2 {
		t.Fatalf("recorded %d runs, want 2", len(all))
	}

	run, err := svc.GetRun(ctx, ok.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if !run.Outputs["Q1"].Equal(value.Vector(2, 3)) {
		t.Errorf("recorded Q1 = %v, want [2 3]", run.Outputs["Q1"])
	}
	if run.ProgramHash == "" {
		t.Error("ProgramHash should be recorded")
	}

	failed, err := svc.ListRuns(ctx, store.RunFilter{ErrorsOnly: true})
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(failed) != 1 || failed[0].ErrorCode != string(mdwerror.CodeRuntime) {
		t.Errorf("failed runs = %+v, want one RUNTIME_ERROR", failed)
	}
}

func TestHistoryDisabled(t *testing.T) {
	svc := NewService(DefaultConfig(), nil)
	defer svc.Close()
	ctx := context.Background()

	if svc.HistoryEnabled() {
		t.Error("HistoryEnabled() = true, want false")
	}
	if _, err := svc.Evaluate(ctx, &Request{Program: []string{"P1=1"}, Record: true}); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if _, err := svc.ListRuns(ctx, store.RunFilter{}); !mdwerror.HasCode(err, mdwerror.CodeServiceUnavailable) {
		t.Errorf("ListRuns() error = %v, want SERVICE_UNAVAILABLE", err)
	}
	if n, err := svc.Prune(ctx, time.Hour); n != 0 || err != nil {
		t.Errorf("Prune() = %d, %v; want 0, nil", n, err)
	}
}

func TestClassify_KeepsCodedErrors(t *testing.T) {
	orig := mdwerror.New("missing").WithCode(mdwerror.CodeNotFound)
	if got := Classify(orig, "op"); got != error(orig) {
		t.Errorf("Classify() = %v, want the input error", got)
	}
	if Classify(nil, "op") != nil {
		t.Error("Classify(nil) should be nil")
	}
}
