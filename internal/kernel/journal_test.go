package kernel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve.evalgo.org/kernel/internal/adapter/memstore"
	"eve.evalgo.org/kernel/internal/entity"
	"eve.evalgo.org/kernel/internal/kernelerr"
)

func newTestSession() *Session {
	return NewSession(
		memstore.New[entity.ContainerManifest](),
		memstore.New[entity.ContainerManifest](),
		memstore.New[entity.DocumentManifest](),
		memstore.NewChanges(),
	)
}

type recordingObserver struct {
	notified []string
}

func (r *recordingObserver) Notify(_ context.Context, entityKind, id string, deleted bool, _ time.Time) {
	r.notified = append(r.notified, entityKind+":"+id)
}

func TestCreateJournal(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	obs := &recordingObserver{}
	sess.AddObserver(obs)

	require.NoError(t, CreateJournal(ctx, sess, "j1", map[string]any{"issn": "1234-5678"}))

	m, err := FetchJournalManifest(ctx, sess, "j1")
	require.NoError(t, err)
	assert.Equal(t, "1234-5678", m.Metadata["issn"])
	assert.Equal(t, []string{"journal:j1"}, obs.notified)

	err = CreateJournal(ctx, sess, "j1", nil)
	assert.ErrorIs(t, err, kernelerr.ErrAlreadyExists)
}

func TestUpdateJournalMetadataEmptyUpdateIsNoOp(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateJournal(ctx, sess, "j1", nil))

	require.NoError(t, UpdateJournalMetadata(ctx, sess, "j1", map[string]any{"title": "Acta"}, nil))
	m, err := FetchJournalManifest(ctx, sess, "j1")
	require.NoError(t, err)
	assert.Equal(t, "Acta", m.Metadata["title"])

	changesBefore, err := FetchChanges(ctx, sess, nil, 0)
	require.NoError(t, err)

	// Empty set/clear is a pure no-op: no additional store write or
	// change-log append.
	require.NoError(t, UpdateJournalMetadata(ctx, sess, "j1", nil, nil))
	changesAfter, err := FetchChanges(ctx, sess, nil, 0)
	require.NoError(t, err)
	assert.Len(t, changesAfter, len(changesBefore))
}

func TestAddDocumentsBundleToJournalRequiresExistingBundle(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateJournal(ctx, sess, "j1", nil))

	err := AddDocumentsBundleToJournal(ctx, sess, "j1", "missing-bundle", nil)
	assert.ErrorIs(t, err, kernelerr.ErrUnknownReference)

	require.NoError(t, CreateDocumentsBundle(ctx, sess, "b1", nil))
	require.NoError(t, AddDocumentsBundleToJournal(ctx, sess, "j1", "b1", []string{"2024", "v1"}))

	m, err := FetchJournalManifest(ctx, sess, "j1")
	require.NoError(t, err)
	require.Len(t, m.Items, 1)
	assert.Equal(t, "b1", m.Items[0].ID)

	// Re-adding the same bundle is idempotent: no duplicate item, no error.
	require.NoError(t, AddDocumentsBundleToJournal(ctx, sess, "j1", "b1", nil))
	m, err = FetchJournalManifest(ctx, sess, "j1")
	require.NoError(t, err)
	assert.Len(t, m.Items, 1)
}

func TestDeleteJournalIsTombstoneNotErasure(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateJournal(ctx, sess, "j1", nil))
	require.NoError(t, DeleteJournal(ctx, sess, "j1"))

	_, err := FetchJournalManifest(ctx, sess, "j1")
	assert.ErrorIs(t, err, kernelerr.ErrAlreadyDeleted)

	err = CreateJournal(ctx, sess, "j1", nil)
	assert.True(t, errors.Is(err, kernelerr.ErrAlreadyDeleted) || errors.Is(err, kernelerr.ErrAlreadyExists))
}
