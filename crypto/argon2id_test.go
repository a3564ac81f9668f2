package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Deliberately cheap parameters; these runs only check wiring, not
// hardness.
func testHasher() *Argon2idHasher {
	return NewArgon2idHasher(1, 1024, 16, 16, 1)
}

func TestArgon2idHasher(t *testing.T) {
	t.Parallel()
	h := testHasher()

	hash, err := h.Hash("opensesame")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	match, err := h.Compare(hash, "opensesame")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = h.Compare(hash, "opensesame!")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestArgon2idHasher_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()
	h := testHasher()

	first, err := h.Hash("opensesame")
	require.NoError(t, err)
	second, err := h.Hash("opensesame")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestArgon2idHasher_MalformedHash(t *testing.T) {
	t.Parallel()
	_, err := testHasher().Compare("not-an-encoded-hash", "opensesame")
	assert.Error(t, err)
}
