package kernel

import (
	"context"
	"fmt"

	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/kernelerr"
	"eve.evalgo.org/kernel/internal/retry"
)

// CreateJournal registers a new journal with optional initial metadata.
func CreateJournal(ctx context.Context, sess *Session, id string, metadata map[string]any) error {
	if _, _, err := fetchJournal(ctx, sess, id); err == nil {
		return fmt.Errorf("journal %s: %w", id, kernelerr.ErrAlreadyExists)
	}

	now := sess.now()
	j, createEv, err := entity.NewJournal(id, now)
	if err != nil {
		return err
	}
	if len(metadata) > 0 {
		if _, err := j.SetMetadata(metadata, now); err != nil {
			return err
		}
	}

	manifest := j.Manifest()
	if err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		_, err := sess.Journals.Add(ctx, id, manifest)
		return err
	}); err != nil {
		return fmt.Errorf("journal %s: %w", id, err)
	}

	return sess.commitChange(ctx, entity.KindJournal, id, createEv.Timestamp, false)
}

// UpdateJournalMetadata merges set into and removes clear from a
// journal's metadata section.
func UpdateJournalMetadata(ctx context.Context, sess *Session, id string, set map[string]any, clear []string) error {
	j, rev, err := fetchJournal(ctx, sess, id)
	if err != nil {
		return err
	}

	now := sess.now()
	var lastEvent *entity.Event
	if len(set) > 0 {
		ev, err := j.SetMetadata(set, now)
		if err != nil {
			return err
		}
		if ev != nil {
			lastEvent = ev
		}
	}
	if len(clear) > 0 {
		ev, err := j.ClearMetadata(clear, now)
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

	return persistJournal(ctx, sess, j, rev, lastEvent)
}

// AddDocumentsBundleToJournal appends a bundle reference to a journal's
// items list. The target bundle must currently exist (spec.md §3.3's
// loose referential integrity: "adding a reference requires the target to
// currently exist").
func AddDocumentsBundleToJournal(ctx context.Context, sess *Session, journalID, bundleID string, ns []string) error {
	if _, _, err := fetchBundle(ctx, sess, bundleID); err != nil {
		return fmt.Errorf("journal %s: bundle %s: %w", journalID, bundleID, kernelerr.ErrUnknownReference)
	}

	j, rev, err := fetchJournal(ctx, sess, journalID)
	if err != nil {
		return err
	}

	now := sess.now()
	ev, err := j.AddItem(entity.Ref{ID: bundleID, NS: ns}, now)
	if err != nil {
		return err
	}
	if ev == nil {
		return nil // idempotent: bundleID already present
	}

	return persistJournal(ctx, sess, j, rev, ev)
}

// DeleteJournal tombstones a journal. History is preserved; the change
// log records a deleted=true entry.
func DeleteJournal(ctx context.Context, sess *Session, id string) error {
	j, rev, err := fetchJournal(ctx, sess, id)
	if err != nil {
		return err
	}

	now := sess.now()
	ev, err := j.MarkDeleted(now)
	if err != nil {
		return err
	}

	return persistJournal(ctx, sess, j, rev, ev)
}

// FetchJournalManifest returns the current manifest for id.
func FetchJournalManifest(ctx context.Context, sess *Session, id string) (entity.ContainerManifest, error) {
	j, _, err := fetchJournal(ctx, sess, id)
	if err != nil {
		return entity.ContainerManifest{}, err
	}
	return j.Manifest(), nil
}

func fetchJournal(ctx context.Context, sess *Session, id string) (*entity.Journal, string, error) {
	var manifest entity.ContainerManifest
	var rev string
	err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		var err error
		manifest, rev, err = sess.Journals.Fetch(ctx, id)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("journal %s: %w", id, err)
	}
	j := entity.LoadJournal(manifest)
	if j.IsDeleted() {
		return nil, "", fmt.Errorf("journal %s: %w", id, kernelerr.ErrAlreadyDeleted)
	}
	return j, rev, nil
}

func persistJournal(ctx context.Context, sess *Session, j *entity.Journal, rev string, ev *entity.Event) error {
	manifest := j.Manifest()
	if err := retry.Do(ctx, sess.RetryCfg, sess.Transient, func(ctx context.Context) error {
		_, err := sess.Journals.Update(ctx, manifest.ID, manifest, rev)
		return err
	}); err != nil {
		return fmt.Errorf("journal %s: %w", manifest.ID, err)
	}
	return sess.commitChange(ctx, entity.KindJournal, manifest.ID, ev.Timestamp, manifest.Deleted)
}
