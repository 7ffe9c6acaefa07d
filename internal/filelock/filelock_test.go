package filelock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first := New(path)
	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)

	second := New(path)
	acquired, err = second.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, first.Unlock())

	acquired, err = second.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, second.Unlock())
}

func TestUnlockWithoutLockIsNoop(t *testing.T) {
	fl := New(filepath.Join(t.TempDir(), "state.json"))
	assert.NoError(t, fl.Unlock())
}
