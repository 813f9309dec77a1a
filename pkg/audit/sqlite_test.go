package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := NewSQLiteSink(SQLiteSinkConfig{
		Path: filepath.Join(t.TempDir(), "audit.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteSink() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestSQLiteSink_WriteAndList(t *testing.T) {
	s := newTestSink(t)
	ctx := context.Background()

	recs := []*Record{
		NewRecord("add", "Safe1", "policy created"),
		NewRecord("update", "safe1", "policy updated"),
		NewRecord("delete", "strict1", "policy deleted"),
	}
	// Spread the timestamps so ordering is deterministic.
	for i, rec := range recs {
		rec.Timestamp = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := s.Write(ctx, rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(got))
	}
	// Newest first.
	if got[0].Op != "delete" || got[2].Op != "add" {
		t.Errorf("List() order = [%s %s %s], want newest first", got[0].Op, got[1].Op, got[2].Op)
	}
}

func TestSQLiteSink_ListFilters(t *testing.T) {
	s := newTestSink(t)
	ctx := context.Background()

	for _, rec := range []*Record{
		NewRecord("add", "safe1", ""),
		NewRecord("update", "safe1", ""),
		NewRecord("add", "strict1", ""),
	} {
		if err := s.Write(ctx, rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by op", Filter{Op: "add"}, 2},
		{"by policy", Filter{PolicyName: "safe1"}, 2},
		{"by policy case-insensitive", Filter{PolicyName: "SAFE1"}, 2},
		{"by op and policy", Filter{Op: "add", PolicyName: "safe1"}, 1},
		{"with limit", Filter{Limit: 2}, 2},
		{"no match", Filter{Op: "delete"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got == nil {
				t.Fatal("List() = nil, want non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("List() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSQLiteSink_Prune(t *testing.T) {
	s := newTestSink(t)
	ctx := context.Background()

	old := NewRecord("add", "old1", "")
	old.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	fresh := NewRecord("add", "fresh1", "")

	for _, rec := range []*Record{old, fresh} {
		if err := s.Write(ctx, rec); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	deleted, err := s.Prune(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted = %d, want 1", deleted)
	}

	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].PolicyName != "fresh1" {
		t.Errorf("records after prune = %v, want only fresh1", got)
	}
}

func TestSQLiteSink_NilRecordRejected(t *testing.T) {
	s := newTestSink(t)

	if err := s.Write(context.Background(), nil); err == nil {
		t.Fatal("Write(nil) error = nil, want error")
	}
}

func TestSQLiteSink_EmptyPathRejected(t *testing.T) {
	if _, err := NewSQLiteSink(SQLiteSinkConfig{}); err == nil {
		t.Fatal("NewSQLiteSink() with empty path error = nil, want error")
	}
}

func TestPruner_RetentionValidation(t *testing.T) {
	if _, err := NewPruner(PrunerConfig{RetentionDays: 0}, &stubSink{}, nil); err == nil {
		t.Fatal("NewPruner(retention=0) error = nil, want error")
	}
	if _, err := NewPruner(PrunerConfig{RetentionDays: 30}, &stubSink{}, nil); err != nil {
		t.Fatalf("NewPruner(retention=30) error = %v, want nil", err)
	}
}

func TestPruner_PruneAgainstSQLite(t *testing.T) {
	s := newTestSink(t)
	ctx := context.Background()

	old := NewRecord("delete", "ancient", "")
	old.Timestamp = time.Now().UTC().AddDate(0, 0, -90)
	if err := s.Write(ctx, old); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	p, err := NewPruner(PrunerConfig{RetentionDays: 30}, s, nil)
	if err != nil {
		t.Fatalf("NewPruner() error = %v", err)
	}
	deleted, err := p.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted = %d, want 1", deleted)
	}
}

func TestScheduler_InvalidCronRejected(t *testing.T) {
	p, err := NewPruner(PrunerConfig{RetentionDays: 30, PruneSchedule: "not a cron"}, &stubSink{}, nil)
	if err != nil {
		t.Fatalf("NewPruner() error = %v", err)
	}

	sched := NewScheduler(p)
	if err := sched.Start(context.Background()); err == nil {
		t.Fatal("Start() with invalid schedule error = nil, want error")
	}
}

func TestScheduler_EmptyScheduleIsNoop(t *testing.T) {
	p, err := NewPruner(PrunerConfig{RetentionDays: 30}, &stubSink{}, nil)
	if err != nil {
		t.Fatalf("NewPruner() error = %v", err)
	}

	sched := NewScheduler(p)
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start() with empty schedule error = %v", err)
	}
	sched.Stop()
}
