package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "locks", "deposit.lock")

	unlock, err := Lock(path, []byte("pid=1\n"))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	owner, err := ReadLockOwner(path)
	require.NoError(t, err)
	assert.Equal(t, "pid=1\n", owner)

	_, err = Lock(path, []byte("pid=2\n"))
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())
	require.NoError(t, unlock())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	again, err := Lock(path, nil)
	require.NoError(t, err)
	require.NoError(t, again())
}

func TestLock_EmptyPath(t *testing.T) {
	t.Parallel()
	_, err := Lock("", nil)
	require.ErrorIs(t, err, ErrEmptyPath)
}
