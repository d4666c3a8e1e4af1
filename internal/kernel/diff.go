package kernel

import (
	"context"
	"fmt"
	"reflect"

	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/retry"
)

// DiffKind classifies one entry in a container diff.
type DiffKind string

const (
	DiffItemAdded     DiffKind = "item_added"
	DiffItemRemoved   DiffKind = "item_removed"
	DiffMetadataSet   DiffKind = "metadata_set"
	DiffMetadataUnset DiffKind = "metadata_unset"
)

// DiffEntry is one structural difference between two ContainerManifest
// revisions of the same journal or documents bundle.
type DiffEntry struct {
	Kind  DiffKind
	Key   string // item id, or metadata key
	Value any    // new metadata value, when Kind is DiffMetadataSet
}

// DiffJournalVersions compares a journal's manifest at revFrom against
// revTo and returns the structural differences between them. The kernel
// persists manifests, not event histories, so this fetches the two
// requested revisions directly (store.DataStore.FetchRev) and diffs them
// structurally rather than replaying a persisted event log.
func DiffJournalVersions(ctx context.Context, sess *Session, id, revFrom, revTo string) ([]DiffEntry, error) {
	var from, to entity.ContainerManifest
	err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		from, err = sess.Journals.FetchRev(ctx, id, revFrom)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("diff journal %s: %w", id, err)
	}
	err = retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		to, err = sess.Journals.FetchRev(ctx, id, revTo)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("diff journal %s: %w", id, err)
	}
	return diffContainers(from, to), nil
}

// DiffDocumentsBundleVersions is the documents-bundle analogue of
// DiffJournalVersions.
func DiffDocumentsBundleVersions(ctx context.Context, sess *Session, id, revFrom, revTo string) ([]DiffEntry, error) {
	var from, to entity.ContainerManifest
	err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		from, err = sess.Bundles.FetchRev(ctx, id, revFrom)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("diff documents bundle %s: %w", id, err)
	}
	err = retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		to, err = sess.Bundles.FetchRev(ctx, id, revTo)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("diff documents bundle %s: %w", id, err)
	}
	return diffContainers(from, to), nil
}

func diffContainers(from, to entity.ContainerManifest) []DiffEntry {
	var out []DiffEntry

	fromIdx := make(map[string]bool, len(from.Items))
	for _, r := range from.Items {
		fromIdx[r.ID] = true
	}
	toIdx := make(map[string]bool, len(to.Items))
	for _, r := range to.Items {
		toIdx[r.ID] = true
	}

	for _, r := range to.Items {
		if !fromIdx[r.ID] {
			out = append(out, DiffEntry{Kind: DiffItemAdded, Key: r.ID})
		}
	}
	for _, r := range from.Items {
		if !toIdx[r.ID] {
			out = append(out, DiffEntry{Kind: DiffItemRemoved, Key: r.ID})
		}
	}

	for k, v := range to.Metadata {
		old, existed := from.Metadata[k]
		if !existed || !reflect.DeepEqual(old, v) {
			out = append(out, DiffEntry{Kind: DiffMetadataSet, Key: k, Value: v})
		}
	}
	for k := range from.Metadata {
		if _, ok := to.Metadata[k]; !ok {
			out = append(out, DiffEntry{Kind: DiffMetadataUnset, Key: k})
		}
	}

	return out
}
