package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(16<<20), c.MaxFileBytes)
	assert.Equal(t, 5, c.KNNNeighbors)
	assert.Equal(t, 1.5, c.IQRThreshold)
	assert.Equal(t, 3.0, c.ZScoreThreshold)
	assert.Equal(t, 0.1, c.IsolationContamination)
	assert.Equal(t, 5.0, c.WinsorizePercentile)
	assert.Equal(t, 1.96, c.ZCritical)
	assert.True(t, c.EnableKNN)
	assert.True(t, c.EnableIsolationForest)
	assert.Equal(t, 5, c.MaxPlotColumns)
	assert.Equal(t, 5000, c.MaxPlotRows)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	require.NoError(t, err)
	c.KNNNeighbors = 7
	c.EnableIsolationForest = false
	c.ReportSubtitle = "Household survey"
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".asdp", "config.yaml"))
	require.NoError(t, err)

	back, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, back.KNNNeighbors)
	assert.False(t, back.EnableIsolationForest)
	assert.Equal(t, "Household survey", back.ReportSubtitle)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asdp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("knn_neighbors: 3\nlog_level: debug\n"), 0o644))
	t.Setenv("ASDP_KNN_NEIGHBORS", "9")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, c.KNNNeighbors)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("winsorize_percentile: 75\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log_format: xml\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
