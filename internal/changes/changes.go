// Package changes implements the pull-based, timestamp-ordered change feed
// (spec.md §4.5): a latest-state pointer feed, not a complete event log.
package changes

import (
	"context"
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/store"
)

// DefaultLimit is the feed's default page size.
const DefaultLimit = 500

// TimestampLayout is the ISO-8601 layout used to serialise change-feed
// timestamps, with a trailing Z and microsecond resolution (spec.md §3.1).
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t per spec.md §3.1.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a `since` cursor.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		// tolerate a bare RFC3339 value too, since clients may round-trip
		// a timestamp they only ever saw formatted that way.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("changes: invalid timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// Log is the thin query/append facade over store.ChangesDataStore used by
// the kernel facade and the HTTP change-feed endpoint.
type Log struct {
	store store.ChangesDataStore
}

// New wraps a store.ChangesDataStore.
func New(s store.ChangesDataStore) *Log {
	return &Log{store: s}
}

// Append records a mutation against (entityKind, id) at ts.
func (l *Log) Append(ctx context.Context, entityKind, id string, ts time.Time, deleted bool) error {
	return l.store.Add(ctx, store.Change{Timestamp: ts, Entity: entityKind, ID: id, Deleted: deleted})
}

// Fetch returns entries with Timestamp > since (nil = from the beginning),
// ordered ascending, capped at limit (<=0 uses DefaultLimit).
func (l *Log) Fetch(ctx context.Context, since *time.Time, limit int) ([]store.Change, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return l.store.Filter(ctx, since, limit)
}
