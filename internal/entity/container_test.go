package entity

import (
	"errors"
	"testing"
	"time"

	"eve.evalgo.org/kernel/internal/kernelerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAddItemIdempotent(t *testing.T) {
	now := time.Now().UTC()
	j, _, err := NewJournal("j1", now)
	require.NoError(t, err)

	ev, err := j.AddItem(Ref{ID: "b1", NS: []string{"2019", "v21", "n1"}}, now.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, ev)

	// Adding the same id again is a no-op: length unchanged, order unchanged.
	before := j.Manifest()
	ev2, err := j.AddItem(Ref{ID: "b1"}, now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Nil(t, ev2)

	after := j.Manifest()
	assert.Equal(t, before.Items, after.Items)
	assert.Len(t, after.Items, 1)
}

func TestJournalInsertAndRemoveItem(t *testing.T) {
	now := time.Now().UTC()
	j, _, err := NewJournal("j1", now)
	require.NoError(t, err)

	_, err = j.AddItem(Ref{ID: "b1"}, now)
	require.NoError(t, err)
	_, err = j.InsertItem(0, Ref{ID: "b0"}, now)
	require.NoError(t, err)

	m := j.Manifest()
	require.Len(t, m.Items, 2)
	assert.Equal(t, "b0", m.Items[0].ID)
	assert.Equal(t, "b1", m.Items[1].ID)

	_, err = j.RemoveItem("b0", now)
	require.NoError(t, err)
	m = j.Manifest()
	require.Len(t, m.Items, 1)
	assert.Equal(t, "b1", m.Items[0].ID)

	_, err = j.RemoveItem("does-not-exist", now)
	assert.True(t, errors.Is(err, kernelerr.ErrUnknownReference))
}

func TestJournalDeletionBlocksFurtherMutation(t *testing.T) {
	now := time.Now().UTC()
	j, _, err := NewJournal("j1", now)
	require.NoError(t, err)

	_, err = j.MarkDeleted(now)
	require.NoError(t, err)
	assert.True(t, j.IsDeleted())

	_, err = j.AddItem(Ref{ID: "b1"}, now)
	assert.True(t, errors.Is(err, kernelerr.ErrAlreadyDeleted))

	_, err = j.MarkDeleted(now)
	assert.True(t, errors.Is(err, kernelerr.ErrAlreadyDeleted))
}

func TestBundleDuplicateDocumentRejectedDuringReplay(t *testing.T) {
	now := time.Now().UTC()
	history := []Event{
		{Entity: KindBundle, ID: "bundle1", Type: EventCreated, Timestamp: now, Payload: CreatedPayload{}},
		{Entity: KindBundle, ID: "bundle1", Type: EventItemAdded, Timestamp: now, Payload: ItemAddedPayload{Ref: Ref{ID: "d1"}}},
		{Entity: KindBundle, ID: "bundle1", Type: EventItemAdded, Timestamp: now, Payload: ItemAddedPayload{Ref: Ref{ID: "d1"}}},
	}
	_, err := ReplayDocumentsBundle("bundle1", history)
	assert.True(t, errors.Is(err, kernelerr.ErrDuplicateReference))
}

func TestReplayMatchesDirectMutation(t *testing.T) {
	now := time.Now().UTC()
	j, createEv, err := NewJournal("j1", now)
	require.NoError(t, err)
	ev1, err := j.AddItem(Ref{ID: "b1"}, now.Add(time.Second))
	require.NoError(t, err)
	ev2, err := j.SetMetadata(map[string]any{"title": "Rev Saude Publica"}, now.Add(2*time.Second))
	require.NoError(t, err)

	replayed, err := ReplayJournal("j1", []Event{createEv, *ev1, *ev2})
	require.NoError(t, err)

	assert.Equal(t, j.Manifest().Items, replayed.Manifest().Items)
	assert.Equal(t, j.Manifest().Metadata, replayed.Manifest().Metadata)
}
