package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/linkstash/internal/apperrors"
)

func Test_StrengthHasher(t *testing.T) {
	t.Parallel()

	t.Run("invalid min length refused", func(t *testing.T) {
		_, err := NewStrengthHasher(0, nil)

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrConfigIncomplete)
	})

	t.Run("too short password", func(t *testing.T) {
		hasher, err := NewStrengthHasher(12, nil)
		require.NoError(t, err)

		_, err = hasher.Hash("elevenchars")

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrPasswordTooWeak)
	})

	t.Run("exactly min length is ok", func(t *testing.T) {
		hasher, err := NewStrengthHasher(12, nil)
		require.NoError(t, err)

		hash, err := hasher.Hash("twelve-chars")

		require.NoError(t, err)
		require.NotEmpty(t, hash)
	})

	t.Run("hash and compare roundtrip", func(t *testing.T) {
		hasher, err := NewStrengthHasher(12, nil)
		require.NoError(t, err)

		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)

		require.NoError(t, hasher.Compare(hash, "correct horse battery staple"))
		require.Error(t, hasher.Compare(hash, "wrong horse battery staple"))
	})

	t.Run("compare skips the strength policy", func(t *testing.T) {
		// Hashes made under a weaker policy stay verifiable
		weak, err := NewStrengthHasher(3, nil)
		require.NoError(t, err)
		hash, err := weak.Hash("pwd")
		require.NoError(t, err)

		strict, err := NewStrengthHasher(12, nil)
		require.NoError(t, err)

		require.NoError(t, strict.Compare(hash, "pwd"))
	})

	t.Run("long password over bcrypt limit", func(t *testing.T) {
		// sha256 pre-hash keeps bcrypt happy over its 72 byte input limit
		hasher, err := NewStrengthHasher(12, nil)
		require.NoError(t, err)

		long := strings.Repeat("a", 100)
		hash, err := hasher.Hash(long)

		require.NoError(t, err)
		require.NoError(t, hasher.Compare(hash, long))
	})
}
