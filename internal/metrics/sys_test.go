package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		0:          "0 B",
		512:        "512 B",
		1024:       "1.0 KB",
		1536:       "1.5 KB",
		1048576:    "1.0 MB",
		1073741824: "1.0 GB",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatBytes(in), "formatBytes(%d)", in)
	}
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), make([]byte, 100), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.db"), make([]byte, 50), 0644))

	assert.Equal(t, int64(150), dirSize(dir))
}

func TestDirSizeMissingDirectory(t *testing.T) {
	assert.Zero(t, dirSize(filepath.Join(t.TempDir(), "nope")))
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "planner.db"), make([]byte, 64), 0644))

	health := GetSysHealth(dir)
	assert.Positive(t, health.Goroutines)
	assert.Equal(t, "64 B", health.DataDiskSize)
}
