package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eve.evalgo.org/kernel/internal/kernelerr"
	"eve.evalgo.org/kernel/pkg/pid"
)

func TestRegisterDocumentAssignsV3PID(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()

	v3, err := RegisterDocument(ctx, sess, "doc1")
	require.NoError(t, err)
	assert.Len(t, v3, pid.Length)

	_, err = RegisterDocument(ctx, sess, "doc1")
	assert.ErrorIs(t, err, kernelerr.ErrAlreadyExists)
}

func TestRegisterDocumentVersionIdempotent(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	_, err := RegisterDocument(ctx, sess, "doc1")
	require.NoError(t, err)

	require.NoError(t, RegisterDocumentVersion(ctx, sess, "doc1", "s3://bucket/doc1.pdf", []string{"cover"}, nil))
	changesAfterFirst, err := FetchChanges(ctx, sess, nil, 0)
	require.NoError(t, err)

	// Repeating the identical version is a no-op: no new version, no new
	// change-log entry.
	require.NoError(t, RegisterDocumentVersion(ctx, sess, "doc1", "s3://bucket/doc1.pdf", []string{"cover"}, nil))
	changesAfterSecond, err := FetchChanges(ctx, sess, nil, 0)
	require.NoError(t, err)
	assert.Len(t, changesAfterSecond, len(changesAfterFirst))

	m, err := FetchDocumentManifest(ctx, sess, "doc1")
	require.NoError(t, err)
	require.Len(t, m.Versions, 1)
}

func TestRegisterAssetVersionRequiresDeclaredSlot(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	_, err := RegisterDocument(ctx, sess, "doc1")
	require.NoError(t, err)
	require.NoError(t, RegisterDocumentVersion(ctx, sess, "doc1", "s3://bucket/doc1.pdf", []string{"cover"}, nil))

	err = RegisterAssetVersion(ctx, sess, "doc1", "thumbnail", "s3://bucket/doc1-thumb.png")
	assert.ErrorIs(t, err, kernelerr.ErrAssetSlotUnknown)

	require.NoError(t, RegisterAssetVersion(ctx, sess, "doc1", "cover", "s3://bucket/doc1-cover.png"))
	v, err := FetchDocumentVersion(ctx, sess, "doc1", nil, nil)
	require.NoError(t, err)
	require.Len(t, v.Assets["cover"], 1)
	assert.Equal(t, "s3://bucket/doc1-cover.png", v.Assets["cover"][0].URI)

	// Re-binding the same URI is idempotent.
	require.NoError(t, RegisterAssetVersion(ctx, sess, "doc1", "cover", "s3://bucket/doc1-cover.png"))
	v, err = FetchDocumentVersion(ctx, sess, "doc1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, v.Assets["cover"], 1)
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	_, err := RegisterDocument(ctx, sess, "doc1")
	require.NoError(t, err)

	require.NoError(t, DeleteDocument(ctx, sess, "doc1"))
	_, err = FetchDocumentManifest(ctx, sess, "doc1")
	assert.ErrorIs(t, err, kernelerr.ErrAlreadyDeleted)
}
