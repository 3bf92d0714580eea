package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

func createTestSQLiteStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	store, err := NewSQLiteRunStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "runs.db")})
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	return store
}

// eachStore runs fn against every RunStore implementation
func eachStore(t *testing.T, fn func(t *testing.T, s RunStore)) {
	t.Run("sqlite", func(t *testing.T) {
		s := createTestSQLiteStore(t)
		defer s.Close()
		fn(t, s)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryRunStore())
	})
}

func TestDefaultConfig(t *testing.T) {
	if got := DefaultConfig().Path; got != "./data/runs.db" {
		t.Errorf("Path = %v, want ./data/runs.db", got)
	}
}

func TestRunStore_RecordAndGet(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		ctx := context.Background()
		run := &Run{
			ID:          "run-1",
			ProgramHash: "abc",
			Source:      []string{"Q1=P1*2", "Q2=Q1+1"},
			Inputs:      map[string]value.Value{"P1": value.Scalar(21)},
			Outputs: map[string]value.Value{
				"P1": value.Scalar(21),
				"Q1": value.Scalar(42),
				"Q2": value.Vector(43, 44),
			},
			DurationMS: 0.25,
		}
		if err := s.Record(ctx, run); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if run.Timestamp.IsZero() {
			t.Error("Record() should fill in the timestamp")
		}

		got, err := s.Get(ctx, "run-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ProgramHash != "abc" {
			t.Errorf("ProgramHash = %v, want abc", got.ProgramHash)
		}
		if len(got.Source) != 2 || got.Source[1] != "Q2=Q1+1" {
			t.Errorf("Source = %v", got.Source)
		}
		if !got.Outputs["Q1"].Equal(value.Scalar(42)) {
			t.Errorf("Outputs[Q1] = %v, want 42", got.Outputs["Q1"])
		}
		if !got.Outputs["Q2"].Equal(value.Vector(43, 44)) {
			t.Errorf("Outputs[Q2] = %v, want [43 44]", got.Outputs["Q2"])
		}
		if got.Failed() {
			t.Error("Failed() = true, want false")
		}
		if got.DurationMS != 0.25 {
			t.Errorf("DurationMS = %v, want 0.25", got.DurationMS)
		}
	})
}

func TestRunStore_GetMissing(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		_, err := s.Get(context.Background(), "nope")
		if err == nil {
			t.Fatal("Get() should fail for unknown id")
		}
		if !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
			t.Errorf("code = %v, want %v", mdwerror.GetCode(err), mdwerror.CodeNotFound)
		}
	})
}

func TestRunStore_RecordDuplicate(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		ctx := context.Background()
		if err := s.Record(ctx, &Run{ID: "dup", ProgramHash: "h", Source: []string{"P1=1"}}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		err := s.Record(ctx, &Run{ID: "dup", ProgramHash: "h", Source: []string{"P1=1"}})
		if !mdwerror.HasCode(err, mdwerror.CodeStorageError) {
			t.Errorf("duplicate Record() error = %v, want STORAGE_ERROR", err)
		}
	})
}

func TestRunStore_List(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		ctx := context.Background()
		base := time.Now().Add(-time.Hour)
		runs := []*Run{
			{ID: "a", Timestamp: base, ProgramHash: "h1", Source: []string{"P1=1"}},
			{ID: "b", Timestamp: base.Add(time.Minute), ProgramHash: "h2", Source: []string{"P1=1/0"},
				Error: "division by zero", ErrorCode: "RUNTIME_ERROR"},
			{ID: "c", Timestamp: base.Add(2 * time.Minute), ProgramHash: "h1", Source: []string{"P1=1"}},
		}
		for _, r := range runs {
			if err := s.Record(ctx, r); err != nil {
				t.Fatalf("Record(%s) error = %v", r.ID, err)
			}
		}

		tests := []struct {
			name   string
			filter RunFilter
			want   []string
		}{
			{"all newest first", RunFilter{}, []string{"c", "b", "a"}},
			{"by program", RunFilter{ProgramHash: "h1"}, []string{"c", "a"}},
			{"errors only", RunFilter{ErrorsOnly: true}, []string{"b"}},
			{"since", RunFilter{Since: base.Add(30 * time.Second)}, []string{"c", "b"}},
			{"limit", RunFilter{Limit: 2}, []string{"c", "b"}},
			{"limit offset", RunFilter{Limit: 1, Offset: 1}, []string{"b"}},
			{"offset only", RunFilter{Offset: 2}, []string{"a"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.List(ctx, tt.filter)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("List() returned %d runs, want %d", len(got), len(tt.want))
				}
				for i, id := range tt.want {
					if got[i].ID != id {
						t.Errorf("List()[%d] = %s, want %s", i, got[i].ID, id)
					}
				}
			})
		}
	})
}

func TestRunStore_Stats(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		ctx := context.Background()

		empty, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if empty.TotalRuns != 0 || !empty.LastRun.IsZero() {
			t.Errorf("empty Stats() = %+v", empty)
		}

		s.Record(ctx, &Run{ID: "1", ProgramHash: "h1", Source: []string{"P1=1"}, DurationMS: 1})
		s.Record(ctx, &Run{ID: "2", ProgramHash: "h1", Source: []string{"P1=1"}, DurationMS: 3})
		s.Record(ctx, &Run{ID: "3", ProgramHash: "h2", Source: []string{"X"}, Error: "lex", DurationMS: 2})

		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalRuns != 3 {
			t.Errorf("TotalRuns = %d, want 3", stats.TotalRuns)
		}
		if stats.FailedRuns != 1 {
			t.Errorf("FailedRuns = %d, want 1", stats.FailedRuns)
		}
		if stats.DistinctPrograms != 2 {
			t.Errorf("DistinctPrograms = %d, want 2", stats.DistinctPrograms)
		}
		if stats.AvgDurationMS != 2 {
			t.Errorf("AvgDurationMS = %v, want 2", stats.AvgDurationMS)
		}
		if stats.LastRun.IsZero() {
			t.Error("LastRun should be set")
		}
	})
}

func TestRunStore_Prune(t *testing.T) {
	eachStore(t, func(t *testing.T, s RunStore) {
		ctx := context.Background()
		s.Record(ctx, &Run{ID: "old", Timestamp: time.Now().Add(-48 * time.Hour), ProgramHash: "h", Source: []string{"P1=1"}})
		s.Record(ctx, &Run{ID: "new", ProgramHash: "h", Source: []string{"P1=1"}})

		deleted, err := s.Prune(ctx, 24*time.Hour)
		if err != nil {
			t.Fatalf("Prune() error = %v", err)
		}
		if deleted != 1 {
			t.Errorf("Prune() deleted %d, want 1", deleted)
		}
		if _, err := s.Get(ctx, "old"); err == nil {
			t.Error("old run should be gone")
		}
		if _, err := s.Get(ctx, "new"); err != nil {
			t.Errorf("new run should remain: %v", err)
		}
	})
}

func TestSQLiteRunStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	s, err := NewSQLiteRunStore(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	if err := s.Record(context.Background(), &Run{ID: "keep", ProgramHash: "h", Source: []string{"P1=1"}}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	s.Close()

	s, err = NewSQLiteRunStore(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, err := s.Get(context.Background(), "keep"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}
