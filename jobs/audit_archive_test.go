package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/minutier-app/minutier/internal/audit"
)

type stubSink struct {
	archived   []audit.Entry
	archiveErr error
	purged     time.Time
	purgeErr   error
	deleted    int64
}

func (s *stubSink) Archive(ctx context.Context, entries []audit.Entry) error {
	if s.archiveErr != nil {
		return s.archiveErr
	}
	s.archived = append(s.archived, entries...)
	return nil
}

func (s *stubSink) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.purgeErr != nil {
		return 0, s.purgeErr
	}
	s.purged = cutoff
	return s.deleted, nil
}

func seedTrail(t *testing.T, trail *audit.Log, now time.Time, ages ...time.Duration) {
	t.Helper()
	for _, age := range ages {
		err := trail.Append(context.Background(), audit.Entry{
			Action:    audit.ActionCreate,
			Module:    "admin",
			Timestamp: now.Add(-age),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func archiveTask(t *testing.T, payload AuditArchivePayload) *asynq.Task {
	t.Helper()
	task, err := NewAuditArchiveTask(payload)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func TestAuditArchiveMovesAgedEntries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	trail := audit.NewLog()
	seedTrail(t, trail, now, 3*time.Hour, 2*time.Hour, 10*time.Minute)

	sink := &stubSink{}
	job := NewAuditArchiveJob(trail, sink, nil, nil, time.Hour)
	job.clock = func() time.Time { return now }

	if err := job.Handle(context.Background(), archiveTask(t, AuditArchivePayload{})); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sink.archived) != 2 {
		t.Fatalf("expected 2 archived entries, got %d", len(sink.archived))
	}
	if trail.Len() != 1 {
		t.Fatalf("expected 1 retained entry, got %d", trail.Len())
	}
}

func TestAuditArchiveKeepsTrailOnSinkFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	trail := audit.NewLog()
	seedTrail(t, trail, now, 3*time.Hour)

	sink := &stubSink{archiveErr: errors.New("pg down")}
	job := NewAuditArchiveJob(trail, sink, nil, nil, time.Hour)
	job.clock = func() time.Time { return now }

	if err := job.Handle(context.Background(), archiveTask(t, AuditArchivePayload{})); err == nil {
		t.Fatalf("expected error from failing sink")
	}
	if trail.Len() != 1 {
		t.Fatalf("trail must not be trimmed when the sink fails, got %d entries", trail.Len())
	}
}

func TestAuditArchivePayloadOverridesAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	trail := audit.NewLog()
	seedTrail(t, trail, now, 45*time.Minute, 10*time.Minute)

	sink := &stubSink{}
	job := NewAuditArchiveJob(trail, sink, nil, nil, time.Hour)
	job.clock = func() time.Time { return now }

	task := archiveTask(t, AuditArchivePayload{OlderThan: 30 * time.Minute})
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sink.archived) != 1 {
		t.Fatalf("expected 1 archived entry, got %d", len(sink.archived))
	}
}

func TestAuditArchiveSkipsMalformedPayload(t *testing.T) {
	trail := audit.NewLog()
	job := NewAuditArchiveJob(trail, &stubSink{}, nil, nil, time.Hour)

	task := asynq.NewTask(TaskAuditArchive, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestAuditPurgeUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink := &stubSink{deleted: 7}
	job := NewAuditPurgeJob(sink, nil, nil, 48*time.Hour)
	job.clock = func() time.Time { return now }

	task, err := NewAuditPurgeTask(AuditPurgePayload{})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := now.Add(-48 * time.Hour)
	if !sink.purged.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, sink.purged)
	}
}

func TestAuditPurgeWithoutRetentionIsNoOp(t *testing.T) {
	sink := &stubSink{}
	job := NewAuditPurgeJob(sink, nil, nil, 0)

	task, err := NewAuditPurgeTask(AuditPurgePayload{})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !sink.purged.IsZero() {
		t.Fatalf("purge must not run without a retention window")
	}
}
