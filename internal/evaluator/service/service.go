package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	mdwlog "github.com/msto63/kinematics/foundation/core/log"
	"github.com/msto63/kinematics/foundation/kinematic"
	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/msto63/kinematics/foundation/kinematic/value"
	"github.com/msto63/kinematics/internal/evaluator/store"
	"github.com/msto63/kinematics/pkg/core/cache"
	"github.com/msto63/kinematics/pkg/core/logging"
)

// Request is one evaluation request
type Request struct {
	Program   []string               `json:"program"`
	Variables map[string]value.Value `json:"variables,omitempty"`
	Record    bool                   `json:"record,omitempty"`
}

// Response is the result of a successful evaluation
type Response struct {
	RunID     string                 `json:"run_id"`
	Variables map[string]value.Value `json:"variables"`
	Duration  time.Duration          `json:"-"`
	Cached    bool                   `json:"cached"`
}

// Config holds configuration for the evaluation service
type Config struct {
	MaxSteps      int
	Timeout       time.Duration
	CacheMaxItems int
	CacheTTL      time.Duration

	// EngineLogger receives the interpreter's debug and trace output
	EngineLogger *mdwlog.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxSteps:      1_000_000,
		Timeout:       10 * time.Second,
		CacheMaxItems: 256,
		CacheTTL:      30 * time.Minute,
	}
}

// Service evaluates kinematic programs with caching and run history
type Service struct {
	programs *cache.ProgramCache
	runs     store.RunStore
	logger   *logging.Logger
	timeout  time.Duration
}

// NewService creates a new evaluation service. runs may be nil, in which
// case nothing is recorded.
func NewService(cfg Config, runs store.RunStore) *Service {
	return &Service{
		programs: cache.NewProgramCache(cfg.CacheMaxItems, cfg.CacheTTL, kinematic.Options{
			MaxSteps: cfg.MaxSteps,
			Logger:   cfg.EngineLogger,
		}),
		runs:    runs,
		logger:  logging.New("evaluator"),
		timeout: cfg.Timeout,
	}
}

// Compile compiles lines through the program cache
func (s *Service) Compile(lines []string) (*kinematic.Program, bool, error) {
	program, cached, err := s.programs.Compile(lines)
	if err != nil {
		return nil, false, Classify(err, "service.Compile")
	}
	return program, cached, nil
}

// Evaluate runs req.Program once against req.Variables
func (s *Service) Evaluate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || len(req.Program) == 0 {
		return nil, mdwerror.New("program is required").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("service.Evaluate")
	}

	runID := uuid.New().String()
	start := time.Now()

	program, cached, err := s.Compile(req.Program)
	if err != nil {
		s.record(ctx, req, runID, kinematic.SourceHash(req.Program), nil, err, time.Since(start))
		return nil, err
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	outputs, err := program.Run(runCtx, req.Variables)
	duration := time.Since(start)
	if err != nil {
		err = Classify(err, "service.Evaluate")
		s.logger.Debug("Evaluation failed", "run_id", runID, "error", err)
		s.record(ctx, req, runID, program.Hash(), nil, err, duration)
		return nil, err
	}

	s.logger.Debug("Evaluation finished",
		"run_id", runID,
		"hash", program.Hash()[:12],
		"cached", cached,
		"duration", duration,
	)
	s.record(ctx, req, runID, program.Hash(), outputs, nil, duration)

	return &Response{
		RunID:     runID,
		Variables: outputs,
		Duration:  duration,
		Cached:    cached,
	}, nil
}

// record stores the run when the request asks for it. Storage failures are
// logged and never fail the evaluation.
func (s *Service) record(ctx context.Context, req *Request, runID, hash string, outputs map[string]value.Value, runErr error, d time.Duration) {
	if s.runs == nil || !req.Record {
		return
	}

	run := &store.Run{
		ID:          runID,
		Timestamp:   time.Now(),
		ProgramHash: hash,
		Source:      req.Program,
		Inputs:      req.Variables,
		Outputs:     outputs,
		DurationMS:  float64(d.Microseconds()) / 1000,
	}
	if runErr != nil {
		run.Error = runErr.Error()
		run.ErrorCode = mdwerror.GetCode(runErr).String()
	}

	// The caller's deadline must not lose the history entry
	if err := s.runs.Record(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("Failed to record run", "run_id", runID, "error", err)
	}
}

// GetRun returns a recorded run
func (s *Service) GetRun(ctx context.Context, id string) (*store.Run, error) {
	if s.runs == nil {
		return nil, errHistoryDisabled("service.GetRun")
	}
	return s.runs.Get(ctx, id)
}

// ListRuns returns recorded runs
func (s *Service) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	if s.runs == nil {
		return nil, errHistoryDisabled("service.ListRuns")
	}
	return s.runs.List(ctx, filter)
}

// Prune removes recorded runs older than retention
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if s.runs == nil || retention <= 0 {
		return 0, nil
	}
	deleted, err := s.runs.Prune(ctx, retention)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Pruned run history", "deleted", deleted, "retention", retention)
	}
	return deleted, nil
}

// Stats returns cache and run history statistics
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	stats := s.programs.Stats()
	stats["history_enabled"] = s.runs != nil
	if s.runs != nil {
		if runStats, err := s.runs.Stats(ctx); err == nil {
			stats["runs"] = runStats
		}
	}
	return stats
}

// Ping checks the run store, if any
func (s *Service) Ping(ctx context.Context) error {
	if s.runs == nil {
		return nil
	}
	return s.runs.Ping(ctx)
}

// HistoryEnabled reports whether runs can be recorded
func (s *Service) HistoryEnabled() bool {
	return s.runs != nil
}

// Close releases the cache and the run store
func (s *Service) Close() error {
	s.programs.Close()
	if s.runs != nil {
		return s.runs.Close()
	}
	return nil
}

func errHistoryDisabled(op string) error {
	return mdwerror.New("run history is disabled").
		WithCode(mdwerror.CodeServiceUnavailable).
		WithOperation(op)
}

// Classify wraps a core error into a coded error. Errors that already carry
// a code are returned unchanged.
func Classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var coded *mdwerror.Error
	if errors.As(err, &coded) {
		return err
	}

	code := mdwerror.CodeInternal
	var lexErr *parser.LexError
	var parseErr *parser.ParseError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = mdwerror.CodeTimeout
	case errors.Is(err, context.Canceled):
		code = mdwerror.CodeCanceled
	case errors.Is(err, kinematic.ErrStepLimit):
		code = mdwerror.CodeStepLimit
	case errors.As(err, &lexErr):
		code = mdwerror.CodeLex
	case errors.As(err, &parseErr):
		code = mdwerror.CodeParse
		if isRuntime(err) {
			code = mdwerror.CodeRuntime
		}
	}

	message := "evaluation failed"
	if code == mdwerror.CodeLex {
		message = "compilation failed"
	}
	wrapped := mdwerror.Wrap(err, message).
		WithCode(code).
		WithOperation(op)
	switch {
	case lexErr != nil:
		wrapped = wrapped.WithDetail("line", lexErr.Line).WithDetail("lexeme", lexErr.Lexeme)
	case parseErr != nil:
		wrapped = wrapped.WithDetail("line", parseErr.Line)
	}
	return wrapped
}

func isRuntime(err error) bool {
	for _, target := range []error{
		value.ErrLengthMismatch,
		value.ErrAmbiguousBranch,
		value.ErrDivisionByZero,
		value.ErrDomain,
		value.ErrIntegerRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
