package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/minutier-app/minutier/internal/audit"
	jobmetrics "github.com/minutier-app/minutier/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ArchiveSink persists audit entries and trims archived history.
type ArchiveSink interface {
	Archive(ctx context.Context, entries []audit.Entry) error
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditArchiveJob moves aged in-memory audit entries into Postgres and
// drops them from the trail once persisted.
type AuditArchiveJob struct {
	Trail        *audit.Log
	Sink         ArchiveSink
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
	ArchiveAfter time.Duration
	clock        func() time.Time
}

// NewAuditArchiveJob wires dependencies for the archive handler.
func NewAuditArchiveJob(trail *audit.Log, sink ArchiveSink, logger *slog.Logger, metrics *jobmetrics.Metrics, archiveAfter time.Duration) *AuditArchiveJob {
	return &AuditArchiveJob{
		Trail:        trail,
		Sink:         sink,
		Logger:       logger,
		Metrics:      metrics,
		ArchiveAfter: archiveAfter,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskAuditArchive tasks.
func (j *AuditArchiveJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Trail == nil || j.Sink == nil {
		return errors.New("audit archive: handler not configured")
	}
	var payload AuditArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	age := payload.OlderThan
	if age <= 0 {
		age = j.ArchiveAfter
	}
	if age <= 0 {
		age = time.Hour
	}

	tracker := j.metrics().Track(TaskAuditArchive)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Duration("older_than", age))
	cutoff := j.now().Add(-age)

	entries := j.Trail.EntriesBefore(cutoff)
	if len(entries) == 0 {
		logger.Info("no audit entries to archive")
		return resultErr
	}

	if err := j.Sink.Archive(ctx, entries); err != nil {
		resultErr = err
		logger.Error("archive audit entries", slog.Any("error", err))
		return resultErr
	}

	// Only drop entries from memory once the batch is safely persisted.
	trimmed := j.Trail.Expire(cutoff)
	j.metrics().AddArchived(len(entries))
	logger.Info("archived audit entries", slog.Int("archived", len(entries)), slog.Int("trimmed", trimmed))
	return resultErr
}

func (j *AuditArchiveJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditArchive))
	}
	return slog.Default().With(slog.String("job", TaskAuditArchive))
}

func (j *AuditArchiveJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AuditArchiveJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// AuditPurgeJob deletes archived rows older than the retention window.
type AuditPurgeJob struct {
	Sink      ArchiveSink
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Retention time.Duration
	clock     func() time.Time
}

// NewAuditPurgeJob wires dependencies for the purge handler.
func NewAuditPurgeJob(sink ArchiveSink, logger *slog.Logger, metrics *jobmetrics.Metrics, retention time.Duration) *AuditPurgeJob {
	return &AuditPurgeJob{
		Sink:      sink,
		Logger:    logger,
		Metrics:   metrics,
		Retention: retention,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskAuditPurge tasks.
func (j *AuditPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sink == nil {
		return errors.New("audit purge: handler not configured")
	}
	var payload AuditPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		// Without a retention window the purge would erase the archive.
		j.logger().Warn("skipping purge, no retention configured")
		return nil
	}

	tracker := j.metrics().Track(TaskAuditPurge)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().Add(-retention)
	deleted, err := j.Sink.Purge(ctx, cutoff)
	if err != nil {
		resultErr = err
		j.logger().Error("purge archived audit entries", slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("purged archived audit entries", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return resultErr
}

func (j *AuditPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditPurge))
	}
	return slog.Default().With(slog.String("job", TaskAuditPurge))
}

func (j *AuditPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AuditPurgeJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
