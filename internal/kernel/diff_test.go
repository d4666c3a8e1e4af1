package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffJournalVersions(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateJournal(ctx, sess, "j1", map[string]any{"title": "Acta"}))
	_, revAfterCreate, err := sess.Journals.Fetch(ctx, "j1")
	require.NoError(t, err)

	require.NoError(t, CreateDocumentsBundle(ctx, sess, "b1", nil))
	require.NoError(t, AddDocumentsBundleToJournal(ctx, sess, "j1", "b1", nil))
	require.NoError(t, UpdateJournalMetadata(ctx, sess, "j1", map[string]any{"title": "Acta Updated"}, nil))
	_, revAfterUpdate, err := sess.Journals.Fetch(ctx, "j1")
	require.NoError(t, err)

	entries, err := DiffJournalVersions(ctx, sess, "j1", revAfterCreate, revAfterUpdate)
	require.NoError(t, err)

	var sawItemAdded, sawMetadataSet bool
	for _, e := range entries {
		if e.Kind == DiffItemAdded && e.Key == "b1" {
			sawItemAdded = true
		}
		if e.Kind == DiffMetadataSet && e.Key == "title" {
			sawMetadataSet = true
			assert.Equal(t, "Acta Updated", e.Value)
		}
	}
	assert.True(t, sawItemAdded, "expected item_added diff entry for b1")
	assert.True(t, sawMetadataSet, "expected metadata_set diff entry for title")
}
