package runlock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	root := t.TempDir()

	first, err := Acquire(root)
	require.NoError(t, err)

	_, err = Acquire(root)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())

	again, err := Acquire(root)
	require.NoError(t, err, "lock is reusable after release")
	require.NoError(t, again.Release())
}

func TestAcquire_DistinctRootsIndependent(t *testing.T) {
	a, err := Acquire(t.TempDir())
	require.NoError(t, err)
	defer a.Release()

	b, err := Acquire(t.TempDir())
	require.NoError(t, err)
	defer b.Release()

	assert.NotEqual(t, a.Path(), b.Path())
}

func TestPathFor_SameTreeSameLock(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	p1, err := PathFor(root)
	require.NoError(t, err)
	p2, err := PathFor(filepath.Join(sub, ".."))
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, os.TempDir(), filepath.Dir(p1))
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}
