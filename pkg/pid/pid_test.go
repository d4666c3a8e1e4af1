package pid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for i := 0; i < 1000; i++ {
		u := uuid.New()
		s := UUIDToString(u)
		require.Len(t, s, Length)
		for _, c := range s {
			assert.Contains(t, alphabet, string(c))
		}

		got, ok := StringToUUID(s)
		require.True(t, ok)
		assert.Equal(t, u, got)
	}
}

func TestStringToUUIDRejectsMalformed(t *testing.T) {
	_, ok := StringToUUID("tooshort")
	assert.False(t, ok)

	_, ok = StringToUUID("aaaaaaaaaaaaaaaaaaaaaaa") // 'a' is not in the alphabet
	assert.False(t, ok)
}

func TestNewProducesDistinctIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := New()
		require.Len(t, id, Length)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
