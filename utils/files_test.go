package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutputFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	path, err := WriteOutputFile(dir, "product.txt", []byte("price=1\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "product.txt"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "price=1\n", string(got))
}

func TestWriteOutputFileOverwrites(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteOutputFile(dir, "out.txt", []byte("first"))
	require.NoError(t, err)
	path, err := WriteOutputFile(dir, "out.txt", []byte("second"))
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestWriteOutputFileDirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := WriteOutputFile(blocker, "out.txt", []byte("x"))
	assert.ErrorContains(t, err, "create data dir")
}
