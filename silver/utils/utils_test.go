package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvInt(t *testing.T) {
	t.Setenv("UTILS_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("UTILS_TEST_INT", 7))

	t.Setenv("UTILS_TEST_INT", "not-a-number")
	assert.Equal(t, 7, GetEnvInt("UTILS_TEST_INT", 7))

	assert.Equal(t, 7, GetEnvInt("UTILS_TEST_INT_MISSING", 7))
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("UTILS_TEST_STR", "hello")
	assert.Equal(t, "hello", GetEnvString("UTILS_TEST_STR", "fallback"))

	assert.Equal(t, "fallback", GetEnvString("UTILS_TEST_STR_MISSING", "fallback"))
}

func TestDeleteDirectoryContents(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(dir, "year=2008"), 0750))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "year=2008", "part-00000.parquet"), []byte("x"), 0600))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("y"), 0600))

	deleted, err := DeleteDirectoryContents(dir)
	assert.NoError(t, err)
	assert.Equal(t, 2, deleted)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteDirectoryContentsMissingDir(t *testing.T) {
	deleted, err := DeleteDirectoryContents(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
	assert.Equal(t, 0, deleted)
}
