package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLocal is consumed only by the worker embedded in the web
	// process. Archive tasks must land there because they drain the
	// in-process audit trail.
	QueueLocal = "local"
	// TaskAuditArchive copies aged audit entries into Postgres.
	TaskAuditArchive = "audit:archive"
	// TaskAuditPurge trims archived rows past the retention window.
	TaskAuditPurge = "audit:purge"
)

// AuditArchivePayload controls which entries an archive run considers.
type AuditArchivePayload struct {
	// OlderThan bounds the run to entries at least this old. Zero falls
	// back to the configured archive age.
	OlderThan time.Duration `json:"olderThan"`
}

// AuditPurgePayload controls the retention cutoff for a purge run.
type AuditPurgePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditArchiveTask constructs an archive task.
func NewAuditArchiveTask(payload AuditArchivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditArchive, data), nil
}

// NewAuditPurgeTask constructs a purge task.
func NewAuditPurgeTask(payload AuditPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPurge, data), nil
}
