package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve.evalgo.org/kernel/internal/kernelerr"
)

func TestAddDocumentToDocumentsBundleRequiresExistingDocument(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateDocumentsBundle(ctx, sess, "b1", nil))

	err := AddDocumentToDocumentsBundle(ctx, sess, "b1", "missing-doc", nil)
	assert.ErrorIs(t, err, kernelerr.ErrUnknownReference)

	_, err = RegisterDocument(ctx, sess, "doc1")
	require.NoError(t, err)
	require.NoError(t, AddDocumentToDocumentsBundle(ctx, sess, "b1", "doc1", []string{"n1"}))

	m, err := FetchDocumentsBundleManifest(ctx, sess, "b1")
	require.NoError(t, err)
	require.Len(t, m.Items, 1)
	assert.Equal(t, "doc1", m.Items[0].ID)
}

func TestInsertDocumentToDocumentsBundleAtPosition(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateDocumentsBundle(ctx, sess, "b1", nil))

	for _, id := range []string{"doc1", "doc2"} {
		_, err := RegisterDocument(ctx, sess, id)
		require.NoError(t, err)
	}
	require.NoError(t, AddDocumentToDocumentsBundle(ctx, sess, "b1", "doc2", nil))

	_, err := RegisterDocument(ctx, sess, "doc0")
	require.NoError(t, err)
	require.NoError(t, InsertDocumentToDocumentsBundle(ctx, sess, "b1", 0, "doc0", nil))

	m, err := FetchDocumentsBundleManifest(ctx, sess, "b1")
	require.NoError(t, err)
	require.Len(t, m.Items, 2)
	assert.Equal(t, "doc0", m.Items[0].ID)
	assert.Equal(t, "doc2", m.Items[1].ID)
}

func TestDeleteDocumentsBundle(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateDocumentsBundle(ctx, sess, "b1", nil))
	require.NoError(t, DeleteDocumentsBundle(ctx, sess, "b1"))

	_, err := FetchDocumentsBundleManifest(ctx, sess, "b1")
	assert.ErrorIs(t, err, kernelerr.ErrAlreadyDeleted)
}
