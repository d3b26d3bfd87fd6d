package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Log is the append-only in-memory trail. Entries are never mutated or
// removed through the public API; the retention job may expire entries that
// have been archived to durable storage.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewLog builds an empty Log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append stores the entry. The log assigns the id and timestamp when the
// caller leaves them zero; everything else is stored as supplied. Append
// only fails on a nil receiver so callers can treat it as best-effort.
func (l *Log) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	entry.Details = copyDetails(entry.Details)
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	return nil
}

// Query returns one page of matching entries, most recent first.
func (l *Log) Query(ctx context.Context, filters Filters) (Result, error) {
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	matched := l.match(filters)

	if offset > len(matched) {
		offset = len(matched)
	}
	window := matched[offset:]
	hasNext := len(window) > pageSize
	if hasNext {
		window = window[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Entries: window, Paging: paging}, nil
}

// All returns every matching entry, most recent first, without paging.
func (l *Log) All(ctx context.Context, filters Filters) ([]Entry, error) {
	return l.match(filters), nil
}

// EntriesBefore returns entries older than the cutoff, oldest first, for
// the archiver.
func (l *Log) EntriesBefore(cutoff time.Time) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, e := range l.entries {
		if !e.Timestamp.After(cutoff) {
			e.Details = copyDetails(e.Details)
			out = append(out, e)
		}
	}
	return out
}

// Expire drops entries older than the cutoff and reports how many were
// removed. This is the retention policy: it must only run after the
// entries have been archived.
func (l *Log) Expire(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	removed := 0
	for _, e := range l.entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}
	l.entries = kept
	return removed
}

// Len reports the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// match collects matching entries newest-first. Appends happen in time
// order, so walking the slice backwards yields descending timestamps.
func (l *Log) match(filters Filters) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if filters.ActorID != "" && e.ActorID != filters.ActorID {
			continue
		}
		if filters.Module != "" && e.Module != filters.Module {
			continue
		}
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		if !filters.From.IsZero() && e.Timestamp.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && e.Timestamp.After(filters.To) {
			continue
		}
		e.Details = copyDetails(e.Details)
		out = append(out, e)
	}
	return out
}

// copyDetails clones the details map so no caller holds a reference into
// the stored entries.
func copyDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
