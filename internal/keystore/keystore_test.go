package keystore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/lmdiskann/internal/keystore"
)

func TestStore_PutLookupDelete(t *testing.T) {
	t.Parallel()

	prefix := filepath.Join(t.TempDir(), "x")
	s, err := keystore.Open(prefix)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("alpha", 1))

	id, ok, err := s.LookupID("alpha")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), id)

	key, ok, err := s.LookupKey(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alpha", key)

	require.NoError(t, s.Delete(1))

	_, ok, err = s.LookupID("alpha")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.LookupKey(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_DeleteUnknownIsNoop(t *testing.T) {
	t.Parallel()

	prefix := filepath.Join(t.TempDir(), "x")
	s, err := keystore.Open(prefix)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Delete(42))
}

func TestStore_PutReplacesPriorMapping(t *testing.T) {
	t.Parallel()

	prefix := filepath.Join(t.TempDir(), "x")
	s, err := keystore.Open(prefix)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("alpha", 1))
	require.NoError(t, s.Put("alpha", 2))

	id, ok, err := s.LookupID("alpha")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(2), id)

	key, ok, err := s.LookupKey(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alpha", key)
}
