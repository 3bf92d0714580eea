package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// Run is one recorded program evaluation
type Run struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	ProgramHash string                 `json:"program_hash"`
	Source      []string               `json:"source"`
	Inputs      map[string]value.Value `json:"inputs,omitempty"`
	Outputs     map[string]value.Value `json:"outputs,omitempty"`
	Error       string                 `json:"error,omitempty"`
	ErrorCode   string                 `json:"error_code,omitempty"`
	DurationMS  float64                `json:"duration_ms"`
}

// Failed reports whether the run ended with an error
func (r *Run) Failed() bool {
	return r.Error != ""
}

// RunFilter defines criteria for listing runs
type RunFilter struct {
	ProgramHash string
	ErrorsOnly  bool
	Since       time.Time
	Limit       int
	Offset      int
}

// RunStats contains aggregated run statistics
type RunStats struct {
	TotalRuns        int64     `json:"total_runs"`
	FailedRuns       int64     `json:"failed_runs"`
	DistinctPrograms int64     `json:"distinct_programs"`
	AvgDurationMS    float64   `json:"avg_duration_ms"`
	LastRun          time.Time `json:"last_run,omitempty"`
}

// RunStore defines the interface for run history persistence
type RunStore interface {
	Record(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter RunFilter) ([]*Run, error)
	Stats(ctx context.Context) (*RunStats, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteRunStore implements RunStore using SQLite
type SQLiteRunStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() SQLiteConfig {
	return SQLiteConfig{
		Path: "./data/runs.db",
	}
}

// NewSQLiteRunStore opens (and if needed creates) the run database
func NewSQLiteRunStore(cfg SQLiteConfig) (*SQLiteRunStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageError(err, "failed to create directory", "store.New")
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, storageError(err, "failed to open database", "store.New")
	}

	store := &SQLiteRunStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, storageError(err, "failed to initialize schema", "store.New")
	}

	return store, nil
}

func (s *SQLiteRunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		program_hash TEXT NOT NULL,
		source TEXT NOT NULL,
		inputs TEXT,
		outputs TEXT,
		error TEXT,
		error_code TEXT,
		duration_ms REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_program_hash ON runs(program_hash);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores a run. Missing IDs and timestamps are filled in.
func (s *SQLiteRunStore) Record(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(run)

	source, err := json.Marshal(run.Source)
	if err != nil {
		return storageError(err, "failed to encode source", "store.Record")
	}
	inputs, err := encodeVars(run.Inputs)
	if err != nil {
		return storageError(err, "failed to encode inputs", "store.Record")
	}
	outputs, err := encodeVars(run.Outputs)
	if err != nil {
		return storageError(err, "failed to encode outputs", "store.Record")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, timestamp, program_hash, source, inputs, outputs, error, error_code, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Timestamp.UTC(), run.ProgramHash, string(source), inputs, outputs,
		nullString(run.Error), nullString(run.ErrorCode), run.DurationMS)
	if err != nil {
		return storageError(err, "failed to insert run", "store.Record")
	}

	return nil
}

// Get returns the run with the given ID
func (s *SQLiteRunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, program_hash, source, inputs, outputs, error, error_code, duration_ms
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mdwerror.Newf("run %s not found", id).
			WithCode(mdwerror.CodeNotFound).
			WithOperation("store.Get")
	}
	if err != nil {
		return nil, storageError(err, "failed to read run", "store.Get")
	}
	return run, nil
}

// List returns runs matching filter, newest first
func (s *SQLiteRunStore) List(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, program_hash, source, inputs, outputs, error, error_code, duration_ms FROM runs WHERE 1=1`
	var args []interface{}

	if filter.ProgramHash != "" {
		query += " AND program_hash = ?"
		args = append(args, filter.ProgramHash)
	}
	if filter.ErrorsOnly {
		query += " AND error IS NOT NULL"
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(err, "failed to query runs", "store.List")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, storageError(err, "failed to scan run", "store.List")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to iterate runs", "store.List")
	}

	return runs, nil
}

// Stats returns aggregated statistics over all stored runs
func (s *SQLiteRunStore) Stats(ctx context.Context) (*RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &RunStats{}
	var avg sql.NullFloat64
	var last sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT program_hash),
		       AVG(duration_ms),
		       MAX(timestamp)
		FROM runs
	`).Scan(&stats.TotalRuns, &stats.FailedRuns, &stats.DistinctPrograms, &avg, &last)
	if err != nil {
		return nil, storageError(err, "failed to compute stats", "store.Stats")
	}

	if avg.Valid {
		stats.AvgDurationMS = avg.Float64
	}
	if last.Valid {
		// MAX() loses the column type, so the driver hands back the stored text
		if t, err := time.Parse(sqliteTimeLayout, last.String); err == nil {
			stats.LastRun = t
		}
	}

	return stats, nil
}

// go-sqlite3 writes time.Time values in this layout
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// Prune removes runs older than the given duration
func (s *SQLiteRunStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan).UTC()

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, storageError(err, "failed to prune runs", "store.Prune")
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// Ping verifies the database is reachable
func (s *SQLiteRunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var source string
	var inputs, outputs, errMsg, errCode sql.NullString

	if err := row.Scan(&run.ID, &run.Timestamp, &run.ProgramHash, &source,
		&inputs, &outputs, &errMsg, &errCode, &run.DurationMS); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(source), &run.Source); err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	if inputs.Valid {
		if err := json.Unmarshal([]byte(inputs.String), &run.Inputs); err != nil {
			return nil, fmt.Errorf("decode inputs: %w", err)
		}
	}
	if outputs.Valid {
		if err := json.Unmarshal([]byte(outputs.String), &run.Outputs); err != nil {
			return nil, fmt.Errorf("decode outputs: %w", err)
		}
	}
	run.Error = errMsg.String
	run.ErrorCode = errCode.String

	return &run, nil
}

func prepare(run *Run) {
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}
}

func encodeVars(vars map[string]value.Value) (interface{}, error) {
	if vars == nil {
		return nil, nil
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func storageError(err error, message, operation string) error {
	return mdwerror.Wrap(err, message).
		WithCode(mdwerror.CodeStorageError).
		WithOperation(operation)
}

// MemoryRunStore is an in-memory implementation for tests and for running
// without persistence
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs []*Run
}

// NewMemoryRunStore creates a new in-memory run store
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make([]*Run, 0)}
}

// Record stores a run
func (s *MemoryRunStore) Record(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(run)
	for _, existing := range s.runs {
		if existing.ID == run.ID {
			return mdwerror.Newf("run %s already recorded", run.ID).
				WithCode(mdwerror.CodeStorageError).
				WithOperation("store.Record")
		}
	}
	s.runs = append(s.runs, run)
	return nil
}

// Get returns the run with the given ID
func (s *MemoryRunStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, mdwerror.Newf("run %s not found", id).
		WithCode(mdwerror.CodeNotFound).
		WithOperation("store.Get")
}

// List returns runs matching filter, newest first
func (s *MemoryRunStore) List(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Run
	for _, run := range s.runs {
		if filter.ProgramHash != "" && run.ProgramHash != filter.ProgramHash {
			continue
		}
		if filter.ErrorsOnly && !run.Failed() {
			continue
		}
		if !filter.Since.IsZero() && run.Timestamp.Before(filter.Since) {
			continue
		}
		results = append(results, run)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return nil, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[:filter.Limit]
	}

	return results, nil
}

// Stats returns aggregated statistics
func (s *MemoryRunStore) Stats(ctx context.Context) (*RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &RunStats{TotalRuns: int64(len(s.runs))}
	programs := make(map[string]struct{})
	var total float64
	for _, run := range s.runs {
		if run.Failed() {
			stats.FailedRuns++
		}
		programs[run.ProgramHash] = struct{}{}
		total += run.DurationMS
		if run.Timestamp.After(stats.LastRun) {
			stats.LastRun = run.Timestamp
		}
	}
	stats.DistinctPrograms = int64(len(programs))
	if len(s.runs) > 0 {
		stats.AvgDurationMS = total / float64(len(s.runs))
	}
	return stats, nil
}

// Prune removes old runs
func (s *MemoryRunStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var deleted int64

	kept := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		if run.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, run)
	}
	s.runs = kept

	return deleted, nil
}

// Ping always succeeds for the memory store
func (s *MemoryRunStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store
func (s *MemoryRunStore) Close() error {
	return nil
}
