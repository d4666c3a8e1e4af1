package entity

import (
	"errors"
	"testing"
	"time"

	"eve.evalgo.org/kernel/internal/kernelerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentNewVersionDeclaresEmptySlots(t *testing.T) {
	now := time.Now().UTC()
	d, _, err := NewDocument("0034-8910-rsp-48-2-0347", "somev3pid0000000000000", now)
	require.NoError(t, err)

	_, err = d.NewVersion("https://objstore/0347.xml", []string{"gf01"}, nil, now)
	require.NoError(t, err)

	v, err := d.Version(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://objstore/0347.xml", v.Data)
	assert.Contains(t, v.Assets, "gf01")
	assert.Empty(t, v.Assets["gf01"])
}

func TestDocumentAssetVersionAppendsAndRejectsUnknownSlot(t *testing.T) {
	now := time.Now().UTC()
	d, _, err := NewDocument("doc1", "pid", now)
	require.NoError(t, err)
	_, err = d.NewVersion("u1", []string{"gf01"}, nil, now)
	require.NoError(t, err)

	t1 := now.Add(time.Minute)
	_, err = d.NewAssetVersion("gf01", "u-gf01-v1", t1)
	require.NoError(t, err)

	t2 := t1.Add(time.Minute)
	_, err = d.NewAssetVersion("gf01", "u-gf01-v2", t2)
	require.NoError(t, err)

	v, err := d.Version(nil)
	require.NoError(t, err)
	require.Len(t, v.Assets["gf01"], 2)
	assert.Equal(t, "u-gf01-v2", v.Assets["gf01"][1].URI)

	// Re-binding the same URI is a no-op.
	ev, err := d.NewAssetVersion("gf01", "u-gf01-v2", t2.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, ev)
	v, _ = d.Version(nil)
	assert.Len(t, v.Assets["gf01"], 2)

	// Binding into an undeclared slot fails.
	_, err = d.NewAssetVersion("does-not-exist", "u", t2)
	assert.True(t, errors.Is(err, kernelerr.ErrAssetSlotUnknown))
}

func TestDocumentVersionAtTruncatesSlots(t *testing.T) {
	now := time.Now().UTC()
	d, _, err := NewDocument("doc1", "pid", now)
	require.NoError(t, err)

	t0 := now
	_, err = d.NewVersion("u1", []string{"gf01"}, nil, t0)
	require.NoError(t, err)

	t1 := t0.Add(time.Minute)
	_, err = d.NewAssetVersion("gf01", "u-gf01-v1", t1)
	require.NoError(t, err)

	t2 := t1.Add(time.Minute)
	_, err = d.NewAssetVersion("gf01", "u-gf01-v2", t2)
	require.NoError(t, err)

	// At t0, the slot is declared but unbound.
	atT0, err := d.VersionAt(t0)
	require.NoError(t, err)
	assert.Empty(t, atT0.Assets["gf01"])

	// At t1, only the first binding is visible.
	atT1, err := d.VersionAt(t1)
	require.NoError(t, err)
	require.Len(t, atT1.Assets["gf01"], 1)
	assert.Equal(t, "u-gf01-v1", atT1.Assets["gf01"][0].URI)

	// At t2, both bindings are visible.
	atT2, err := d.VersionAt(t2)
	require.NoError(t, err)
	require.Len(t, atT2.Assets["gf01"], 2)
}

func TestDocumentNewVersionFreezesOlderVersions(t *testing.T) {
	now := time.Now().UTC()
	d, _, err := NewDocument("doc1", "pid", now)
	require.NoError(t, err)

	t0 := now
	_, err = d.NewVersion("u1", []string{"gf01"}, nil, t0)
	require.NoError(t, err)
	t1 := t0.Add(time.Minute)
	_, err = d.NewAssetVersion("gf01", "u-gf01-v1", t1)
	require.NoError(t, err)

	before := d.Manifest()

	t2 := t1.Add(time.Minute)
	_, err = d.NewVersion("u2", []string{"gf01", "gf02"}, nil, t2)
	require.NoError(t, err)

	t3 := t2.Add(time.Minute)
	_, err = d.NewAssetVersion("gf01", "u2-gf01-v1", t3)
	require.NoError(t, err)

	after := d.Manifest()
	// Testable property 3: historical version index 0 is bit-identical
	// before and after any later mutation.
	assert.Equal(t, before.Versions[0], after.Versions[0])

	idx := 0
	v0, err := d.Version(&idx)
	require.NoError(t, err)
	assert.Equal(t, "u1", v0.Data)
	assert.Len(t, v0.Assets["gf01"], 1)
}

func TestDocumentIdenticalNewVersionIsRejected(t *testing.T) {
	now := time.Now().UTC()
	d, _, err := NewDocument("doc1", "pid", now)
	require.NoError(t, err)
	_, err = d.NewVersion("u1", []string{"gf01"}, nil, now)
	require.NoError(t, err)

	_, err = d.NewVersion("u1", []string{"gf01"}, nil, now.Add(time.Minute))
	assert.True(t, errors.Is(err, kernelerr.ErrVersionAlreadyExists))
}

func TestVersionsTimestampMonotonic(t *testing.T) {
	now := time.Now().UTC()
	d, _, err := NewDocument("doc1", "pid", now)
	require.NoError(t, err)

	ts := now
	for i := 0; i < 5; i++ {
		ts = ts.Add(time.Minute)
		_, err = d.NewVersion(
			"u"+time.Duration(i).String(),
			[]string{"gf01"},
			nil,
			ts,
		)
		require.NoError(t, err)
	}

	m := d.Manifest()
	for i := 1; i < len(m.Versions); i++ {
		assert.False(t, m.Versions[i].Timestamp.Before(m.Versions[i-1].Timestamp))
	}
}
