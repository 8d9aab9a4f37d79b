package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLock_InProcess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := New(dir, "default")
	second := New(dir, "default")

	release, ok, err := first.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok, "same account is held")

	_, err = second.Acquire()
	assert.ErrorIs(t, err, ErrBusy)

	other, ok, err := New(dir, "other").TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok, "different account is independent")
	other()

	release()
	release()

	again, ok, err := second.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)
	again()
}

func TestAccountLock_HeldByAnotherProcess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := New(dir, "someone@example.com")
	assert.Equal(t, filepath.Join(dir, "locks"), filepath.Dir(l.Path()))
	assert.NotContains(t, l.Path(), "someone", "account is hashed into the file name")

	require.NoError(t, os.MkdirAll(filepath.Dir(l.Path()), 0o750))
	external := flock.New(l.Path())
	locked, err := external.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	_, ok, err := l.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, external.Unlock())

	release, ok, err := l.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok, "in-process mutex was released on the failed attempt")
	release()
}
