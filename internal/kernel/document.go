package kernel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/kernelerr"
	"eve.evalgo.org/kernel/internal/retry"
	"eve.evalgo.org/kernel/pkg/pid"
)

// RegisterDocument creates a document shell (no versions yet) and assigns
// it a v3 PID.
func RegisterDocument(ctx context.Context, sess *Session, id string) (v3pid string, err error) {
	if _, _, err := fetchDocument(ctx, sess, id); err == nil {
		return "", fmt.Errorf("document %s: %w", id, kernelerr.ErrAlreadyExists)
	}

	now := sess.now()
	v3pid = pid.New()
	d, createEv, err := entity.NewDocument(id, v3pid, now)
	if err != nil {
		return "", err
	}

	manifest := d.Manifest()
	if err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		_, err := sess.Documents.Add(ctx, id, manifest)
		return err
	}); err != nil {
		return "", fmt.Errorf("document %s: %w", id, err)
	}

	if err := sess.commitChange(ctx, entity.KindDocument, id, createEv.Timestamp, false); err != nil {
		return "", err
	}
	return v3pid, nil
}

// RegisterDocumentVersion appends a new version to a document, declaring
// assetSlots/renditionSlots as empty slots to be bound later. Repeating an
// already-current version is an idempotent no-op.
func RegisterDocumentVersion(ctx context.Context, sess *Session, id, dataURI string, assetSlots, renditionSlots []string) error {
	d, rev, err := fetchDocument(ctx, sess, id)
	if err != nil {
		return err
	}

	ev, err := d.NewVersion(dataURI, assetSlots, renditionSlots, sess.now())
	if err != nil {
		if errors.Is(err, kernelerr.ErrVersionAlreadyExists) {
			return nil
		}
		return err
	}

	return persistDocument(ctx, sess, d, rev, ev)
}

// RegisterAssetVersion binds uri into slot on the document's latest
// version. Re-binding the slot's current value is an idempotent no-op.
func RegisterAssetVersion(ctx context.Context, sess *Session, id, slot, uri string) error {
	d, rev, err := fetchDocument(ctx, sess, id)
	if err != nil {
		return err
	}

	ev, err := d.NewAssetVersion(slot, uri, sess.now())
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}

	return persistDocument(ctx, sess, d, rev, ev)
}

// RegisterRenditionVersion is the rendition-slot analogue of
// RegisterAssetVersion.
func RegisterRenditionVersion(ctx context.Context, sess *Session, id, slot, uri string) error {
	d, rev, err := fetchDocument(ctx, sess, id)
	if err != nil {
		return err
	}

	ev, err := d.NewRenditionVersion(slot, uri, sess.now())
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}

	return persistDocument(ctx, sess, d, rev, ev)
}

// FetchDocumentManifest returns the current manifest for id.
func FetchDocumentManifest(ctx context.Context, sess *Session, id string) (entity.DocumentManifest, error) {
	d, _, err := fetchDocument(ctx, sess, id)
	if err != nil {
		return entity.DocumentManifest{}, err
	}
	return d.Manifest(), nil
}

// FetchDocumentVersion returns the version at index (nil for latest) when
// at is nil, or the version reconstructed as of instant at, with every
// slot truncated to entries bound no later than at.
func FetchDocumentVersion(ctx context.Context, sess *Session, id string, index *int, at *time.Time) (entity.Version, error) {
	d, _, err := fetchDocument(ctx, sess, id)
	if err != nil {
		return entity.Version{}, err
	}
	if at != nil {
		return d.VersionAt(*at)
	}
	return d.Version(index)
}

// DeleteDocument tombstones a document.
func DeleteDocument(ctx context.Context, sess *Session, id string) error {
	d, rev, err := fetchDocument(ctx, sess, id)
	if err != nil {
		return err
	}

	ev, err := d.MarkDeleted(sess.now())
	if err != nil {
		return err
	}

	return persistDocument(ctx, sess, d, rev, ev)
}

func fetchDocument(ctx context.Context, sess *Session, id string) (*entity.Document, string, error) {
	var manifest entity.DocumentManifest
	var rev string
	err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		manifest, rev, err = sess.Documents.Fetch(ctx, id)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("document %s: %w", id, err)
	}
	d := entity.LoadDocument(manifest)
	if d.IsDeleted() {
		return nil, "", fmt.Errorf("document %s: %w", id, kernelerr.ErrAlreadyDeleted)
	}
	return d, rev, nil
}

func persistDocument(ctx context.Context, sess *Session, d *entity.Document, rev string, ev *entity.Event) error {
	manifest := d.Manifest()
	if err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		_, err := sess.Documents.Update(ctx, manifest.ID, manifest, rev)
		return err
	}); err != nil {
		return fmt.Errorf("document %s: %w", manifest.ID, err)
	}
	return sess.commitChange(ctx, entity.KindDocument, manifest.ID, ev.Timestamp, manifest.Deleted)
}
