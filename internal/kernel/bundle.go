package kernel

import (
	"context"
	"fmt"

	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/kernelerr"
	"eve.evalgo.org/kernel/internal/retry"
)

// CreateDocumentsBundle registers a new documents bundle with optional
// initial metadata.
func CreateDocumentsBundle(ctx context.Context, sess *Session, id string, metadata map[string]any) error {
	if _, _, err := fetchBundle(ctx, sess, id); err == nil {
		return fmt.Errorf("documents bundle %s: %w", id, kernelerr.ErrAlreadyExists)
	}

	now := sess.now()
	b, createEv, err := entity.NewDocumentsBundle(id, now)
	if err != nil {
		return err
	}
	if len(metadata) > 0 {
		if _, err := b.SetMetadata(metadata, now); err != nil {
			return err
		}
	}

	manifest := b.Manifest()
	if err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		_, err := sess.Bundles.Add(ctx, id, manifest)
		return err
	}); err != nil {
		return fmt.Errorf("documents bundle %s: %w", id, err)
	}

	return sess.commitChange(ctx, entity.KindBundle, id, createEv.Timestamp, false)
}

// UpdateDocumentsBundleMetadata merges set into and removes clear from a
// documents bundle's metadata section.
func UpdateDocumentsBundleMetadata(ctx context.Context, sess *Session, id string, set map[string]any, clear []string) error {
	b, rev, err := fetchBundle(ctx, sess, id)
	if err != nil {
		return err
	}

	now := sess.now()
	var lastEvent *entity.Event
	if len(set) > 0 {
		ev, err := b.SetMetadata(set, now)
		if err != nil {
			return err
		}
		if ev != nil {
			lastEvent = ev
		}
	}
	if len(clear) > 0 {
		ev, err := b.ClearMetadata(clear, now)
		if err != nil {
			return err
		}
		if ev != nil {
			lastEvent = ev
		}
	}
	if lastEvent == nil {
		return nil
	}

	return persistBundle(ctx, sess, b, rev, lastEvent)
}

// AddDocumentToDocumentsBundle appends a document reference to a bundle's
// items list. The target document must currently exist.
func AddDocumentToDocumentsBundle(ctx context.Context, sess *Session, bundleID, documentID string, ns []string) error {
	if _, _, err := fetchDocument(ctx, sess, documentID); err != nil {
		return fmt.Errorf("documents bundle %s: document %s: %w", bundleID, documentID, kernelerr.ErrUnknownReference)
	}

	b, rev, err := fetchBundle(ctx, sess, bundleID)
	if err != nil {
		return err
	}

	now := sess.now()
	ev, err := b.AddItem(entity.Ref{ID: documentID, NS: ns}, now)
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}

	return persistBundle(ctx, sess, b, rev, ev)
}

// InsertDocumentToDocumentsBundle inserts a document reference at pos.
func InsertDocumentToDocumentsBundle(ctx context.Context, sess *Session, bundleID string, pos int, documentID string, ns []string) error {
	if _, _, err := fetchDocument(ctx, sess, documentID); err != nil {
		return fmt.Errorf("documents bundle %s: document %s: %w", bundleID, documentID, kernelerr.ErrUnknownReference)
	}

	b, rev, err := fetchBundle(ctx, sess, bundleID)
	if err != nil {
		return err
	}

	now := sess.now()
	ev, err := b.InsertItem(pos, entity.Ref{ID: documentID, NS: ns}, now)
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}

	return persistBundle(ctx, sess, b, rev, ev)
}

// DeleteDocumentsBundle tombstones a documents bundle.
func DeleteDocumentsBundle(ctx context.Context, sess *Session, id string) error {
	b, rev, err := fetchBundle(ctx, sess, id)
	if err != nil {
		return err
	}

	ev, err := b.MarkDeleted(sess.now())
	if err != nil {
		return err
	}

	return persistBundle(ctx, sess, b, rev, ev)
}

// FetchDocumentsBundleManifest returns the current manifest for id.
func FetchDocumentsBundleManifest(ctx context.Context, sess *Session, id string) (entity.ContainerManifest, error) {
	b, _, err := fetchBundle(ctx, sess, id)
	if err != nil {
		return entity.ContainerManifest{}, err
	}
	return b.Manifest(), nil
}

func fetchBundle(ctx context.Context, sess *Session, id string) (*entity.DocumentsBundle, string, error) {
	var manifest entity.ContainerManifest
	var rev string
	err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		manifest, rev, err = sess.Bundles.Fetch(ctx, id)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("documents bundle %s: %w", id, err)
	}
	b := entity.LoadDocumentsBundle(manifest)
	if b.IsDeleted() {
		return nil, "", fmt.Errorf("documents bundle %s: %w", id, kernelerr.ErrAlreadyDeleted)
	}
	return b, rev, nil
}

func persistBundle(ctx context.Context, sess *Session, b *entity.DocumentsBundle, rev string, ev *entity.Event) error {
	manifest := b.Manifest()
	if err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		_, err := sess.Bundles.Update(ctx, manifest.ID, manifest, rev)
		return err
	}); err != nil {
		return fmt.Errorf("documents bundle %s: %w", manifest.ID, err)
	}
	return sess.commitChange(ctx, entity.KindBundle, manifest.ID, ev.Timestamp, manifest.Deleted)
}
