package timefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFileIsNotOK(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := Read(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".redbike.timefile")

	require.NoError(t, Write(path, 1700000000))

	ts, ok, err := Read(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 1700000000, ts)
}

func TestWriteDoesNotLeaveTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".redbike.timefile")

	require.NoError(t, Write(path, 1))
	require.NoError(t, Write(path, 2))

	ts, ok, err := Read(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2, ts)

	_, ok, err = Read(path + ".0")
	require.NoError(t, err)
	assert.False(t, ok, "the <path>.0 temp file must not survive the rename")
}

func TestReadMalformedContentErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(path, []byte("not-a-number"), 0644))

	_, _, err := Read(path)
	assert.Error(t, err)
}
