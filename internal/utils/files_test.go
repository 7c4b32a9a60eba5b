package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutputReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, WriteOutput(path, []byte("new"), 0o644))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteOutputCreatesParentsWithMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "2024", "report.md")
	require.NoError(t, WriteOutput(path, []byte("# Report\n"), 0o600))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteOutputParentIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "plots")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	err := WriteOutput(filepath.Join(blocker, "hist.svg"), []byte("<svg/>"), 0o644)
	assert.Error(t, err)
}

func TestIndentJSON(t *testing.T) {
	b, err := IndentJSON(map[string]int{"rows": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rows\": 2\n}\n", string(b))

	_, err = IndentJSON(math.NaN())
	assert.Error(t, err)
}
