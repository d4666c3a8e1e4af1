package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchChangesOrderingAndSince(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession()
	require.NoError(t, CreateJournal(ctx, sess, "j1", nil))
	require.NoError(t, CreateDocumentsBundle(ctx, sess, "b1", nil))

	all, err := FetchChanges(ctx, sess, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Timestamp.Before(all[1].Timestamp) || all[0].Timestamp.Equal(all[1].Timestamp))

	since := all[0].Timestamp
	after, err := FetchChanges(ctx, sess, &since, 0)
	require.NoError(t, err)
	assert.Len(t, after, 1)
	assert.Equal(t, "b1", after[0].ID)
}
