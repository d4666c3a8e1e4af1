// Package memstore is an in-memory implementation of the store ports,
// used as the test double the hexagonal boundary is designed for
// (spec.md §9: "tests substitute in-memory adapters").
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"eve.evalgo.org/kernel/internal/kernelerr"
	"eve.evalgo.org/kernel/internal/store"
)

type record[M any] struct {
	manifest M
	rev      int
	deleted  bool
	history  []M // history[i] is the manifest as of rev i+1
}

// DataStore is a mutex-guarded, in-process implementation of
// store.DataStore[M].
type DataStore[M any] struct {
	mu      sync.Mutex
	records map[string]*record[M]
}

// New creates an empty in-memory DataStore.
func New[M any]() *DataStore[M] {
	return &DataStore[M]{records: make(map[string]*record[M])}
}

func (s *DataStore[M]) Add(_ context.Context, id string, manifest M) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; ok {
		return "", fmt.Errorf("memstore: %s: %w", id, kernelerr.ErrAlreadyExists)
	}
	s.records[id] = &record[M]{manifest: manifest, rev: 1, history: []M{manifest}}
	return revString(1), nil
}

func (s *DataStore[M]) Update(_ context.Context, id string, manifest M, rev string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return "", fmt.Errorf("memstore: %s: %w", id, kernelerr.ErrNotFound)
	}
	_ = rev // last-writer-wins: the service layer serialises concurrency, not this test double
	r.manifest = manifest
	r.rev++
	r.history = append(r.history, manifest)
	return revString(r.rev), nil
}

func (s *DataStore[M]) Fetch(_ context.Context, id string) (M, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero M
	r, ok := s.records[id]
	if !ok || r.deleted {
		return zero, "", fmt.Errorf("memstore: %s: %w", id, kernelerr.ErrNotFound)
	}
	return r.manifest, revString(r.rev), nil
}

func (s *DataStore[M]) FetchRev(_ context.Context, id, rev string) (M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero M
	r, ok := s.records[id]
	if !ok {
		return zero, fmt.Errorf("memstore: %s: %w", id, kernelerr.ErrNotFound)
	}
	n, err := strconv.Atoi(rev)
	if err != nil || n < 1 || n > len(r.history) {
		return zero, fmt.Errorf("memstore: %s: revision %q: %w", id, rev, kernelerr.ErrNotFound)
	}
	return r.history[n-1], nil
}

func (s *DataStore[M]) Delete(_ context.Context, id string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("memstore: %s: %w", id, kernelerr.ErrNotFound)
	}
	r.deleted = true
	return nil
}

func revString(n int) string {
	return strconv.Itoa(n)
}

// ChangesDataStore is a mutex-guarded, in-process implementation of
// store.ChangesDataStore.
type ChangesDataStore struct {
	mu      sync.Mutex
	changes []store.Change
}

// NewChanges creates an empty in-memory change log.
func NewChanges() *ChangesDataStore {
	return &ChangesDataStore{}
}

func (c *ChangesDataStore) Add(_ context.Context, change store.Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, change)
	return nil
}

func (c *ChangesDataStore) Filter(_ context.Context, since *time.Time, limit int) ([]store.Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit <= 0 {
		limit = 500
	}

	out := make([]store.Change, 0, len(c.changes))
	for _, ch := range c.changes {
		if since != nil && !ch.Timestamp.After(*since) {
			continue
		}
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
