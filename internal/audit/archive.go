package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const archiveBatchSize = 200

// Archiver copies trail entries into the audit_entries table so the
// in-memory log can be trimmed without losing history. Inserts are keyed on
// the entry id, so re-archiving a window is harmless.
type Archiver struct {
	pool *pgxpool.Pool
}

// NewArchiver returns an Archiver backed by the pool.
func NewArchiver(pool *pgxpool.Pool) *Archiver {
	return &Archiver{pool: pool}
}

// Archive persists the entries in parallel batches.
func (a *Archiver) Archive(ctx context.Context, entries []Entry) error {
	if a == nil || a.pool == nil {
		return fmt.Errorf("audit: archiver not configured")
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(entries); start += archiveBatchSize {
		end := start + archiveBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]
		g.Go(func() error {
			return a.insertBatch(ctx, batch)
		})
	}
	return g.Wait()
}

// Purge removes archived rows older than the cutoff and returns the count.
func (a *Archiver) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	if a == nil || a.pool == nil {
		return 0, fmt.Errorf("audit: archiver not configured")
	}
	tag, err := a.pool.Exec(ctx, `DELETE FROM audit_entries WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (a *Archiver) insertBatch(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("audit: marshal details: %w", err)
		}
		_, err = a.pool.Exec(ctx, `
			INSERT INTO audit_entries
				(id, actor_id, actor_name, action, module, resource_type, resource_id, details, ip_address, user_agent, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO NOTHING`,
			e.ID, e.ActorID, e.ActorName, e.Action, e.Module, e.ResourceType, e.ResourceID,
			details, e.IPAddress, e.UserAgent, e.Timestamp)
		if err != nil {
			return fmt.Errorf("audit: insert entry %s: %w", e.ID, err)
		}
	}
	return nil
}
