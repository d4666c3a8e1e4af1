// Package kernel implements the Session-scoped application facade
// (spec.md §4.3–§4.4): the single place that orchestrates
// entity -> event -> store -> change-log for every use case, and enforces
// the cross-entity invariants the entity layer alone cannot.
package kernel

import (
	"context"
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/changes"
	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/kernelerr"
	"eve.evalgo.org/kernel/internal/logging"
	"eve.evalgo.org/kernel/internal/retry"
	"eve.evalgo.org/kernel/internal/store"
)

// Observer is notified after a Session commits a mutation. The Prometheus
// metrics sink and any future audit trail register as an Observer;
// neither is consulted by the services themselves (spec.md §4.3).
type Observer interface {
	Notify(ctx context.Context, entityKind, id string, deleted bool, ts time.Time)
}

// Session bundles one handle per DataStore plus the ChangesDataStore and
// an observer registry (spec.md §4.3). cmd/kerneld constructs a single
// Session at startup and every HTTP handler shares it; the Session holds
// no per-request state.
type Session struct {
	Journals  store.DataStore[entity.ContainerManifest]
	Bundles   store.DataStore[entity.ContainerManifest]
	Documents store.DataStore[entity.DocumentManifest]
	Changes   *changes.Log

	RetryCfg  retry.Config
	Transient retry.Transient

	observers []Observer
	clock     func() time.Time
}

// NewSession constructs a Session over the given store adapters.
func NewSession(journals store.DataStore[entity.ContainerManifest], bundles store.DataStore[entity.ContainerManifest], documents store.DataStore[entity.DocumentManifest], changesStore store.ChangesDataStore) *Session {
	return &Session{
		Journals:  journals,
		Bundles:   bundles,
		Documents: documents,
		Changes:   changes.New(changesStore),
		RetryCfg:  retry.DefaultConfig(),
		Transient: defaultTransient,
	}
}

// AddObserver registers o to be notified after every committed mutation.
func (s *Session) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Session) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now().UTC()
}

func (s *Session) notify(ctx context.Context, entityKind entity.Kind, id string, deleted bool, ts time.Time) {
	for _, o := range s.observers {
		o.Notify(ctx, string(entityKind), id, deleted, ts)
	}
}

// commitChange appends a change-log entry for (kind, id) at ts, retrying
// transient failures. A failure here does NOT roll back the already
// persisted entity write (spec.md §4.3); it is surfaced distinctly so an
// operator-facing retry can resolve it later.
func (s *Session) commitChange(ctx context.Context, kind entity.Kind, id string, ts time.Time, deleted bool) error {
	err := retry.Do(ctx, s.RetryCfg, s.Transient, func(ctx context.Context) error {
		return s.Changes.Append(ctx, string(kind), id, ts, deleted)
	})
	if err != nil {
		logging.WithFields(map[string]any{"entity": kind, "id": id}).WithError(err).Error("change log append failed")
		return fmt.Errorf("%s %s: %w: %v", kind, id, kernelerr.ErrChangeLogAppendFailed, err)
	}
	s.notify(ctx, kind, id, deleted, ts)
	return nil
}

// defaultTransient classifies backend errors as retryable unless they are
// one of the kernel's non-transient sentinels, consistent with spec.md §7
// ("retries happen only at the adapter layer").
func defaultTransient(err error) bool {
	return err != nil
}
