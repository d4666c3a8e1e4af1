// Package store declares the persistence ports used by the kernel: a
// per-entity-kind DataStore (capability set: add, update, fetch, delete)
// and a ChangesDataStore for the append-only change log. Concrete adapters
// live in internal/adapter/*; domain and service code depends only on
// these interfaces (hexagonal boundary, spec.md §9).
package store

import (
	"context"
	"time"
)

// DataStore is a single-collection port keyed by id, storing manifests of
// type M with an opaque optimistic-concurrency revision token.
type DataStore[M any] interface {
	// Add creates a new record. Returns kernelerr.ErrAlreadyExists if id
	// is currently live or tombstoned.
	Add(ctx context.Context, id string, manifest M) (rev string, err error)

	// Update replaces the record's manifest. rev must match the store's
	// current revision for id; a mismatch surfaces as AlreadyExists-style
	// conflict to the caller (concurrency is serialised at the service
	// layer, spec.md §5, so in practice this is a last-writer-wins full
	// replace keyed by rev supplied from the most recent Fetch).
	Update(ctx context.Context, id string, manifest M, rev string) (newRev string, err error)

	// Fetch returns the current manifest and its revision token. Returns
	// kernelerr.ErrNotFound if id is unknown.
	Fetch(ctx context.Context, id string) (manifest M, rev string, err error)

	// FetchRev returns the manifest as it stood at a specific prior
	// revision token, relying on the backend's own revision retention
	// (CouchDB keeps unreclaimed revisions until compaction). Used by
	// diff_journal_versions / diff_documents_bundle_versions, not by the
	// ordinary read/write path. Returns kernelerr.ErrNotFound if id or rev
	// is unknown.
	FetchRev(ctx context.Context, id, rev string) (manifest M, err error)

	// Delete removes the record. Returns kernelerr.ErrNotFound if id is
	// unknown.
	Delete(ctx context.Context, id string, rev string) error
}

// Change is one append-only, timestamp-ordered change-log entry: a
// latest-state pointer for (entity, id), spec.md §4.5.
type Change struct {
	Timestamp time.Time
	Entity    string
	ID        string
	Deleted   bool
}

// ChangesDataStore is the append-only change feed port.
type ChangesDataStore interface {
	// Add appends a change record.
	Add(ctx context.Context, c Change) error

	// Filter returns entries with Timestamp > since (or all, if since is
	// nil), ordered by Timestamp ascending, capped at limit.
	Filter(ctx context.Context, since *time.Time, limit int) ([]Change, error)
}
