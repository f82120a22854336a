package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "access.db", cfg.Store.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "data", cfg.Dataset.DataDir)
	assert.Equal(t, "access-cli/1.0", cfg.Dataset.UserAgent)
	assert.Equal(t, 1, cfg.Dataset.PopulationCSV.SkipRows)
	assert.Equal(t, 43, cfg.Pipeline.UTMZone)
	assert.False(t, cfg.Pipeline.Southern)
	assert.InDelta(t, 0.8, cfg.Pipeline.GoodThreshold, 0.001)
	assert.InDelta(t, 1.2, cfg.Pipeline.PoorThreshold, 0.001)
	assert.Equal(t, []string{"primary", "secondary"}, cfg.Pipeline.RoadCategories)
	assert.InDelta(t, 5000, cfg.Pipeline.RoadSearchM, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/access
log:
  level: debug
  format: console
pipeline:
  utm_zone: 44
  road_categories: [primary, secondary, tertiary]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/access", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 44, cfg.Pipeline.UTMZone)
	assert.Equal(t, []string{"primary", "secondary", "tertiary"}, cfg.Pipeline.RoadCategories)
	// Untouched keys keep defaults.
	assert.InDelta(t, 0.8, cfg.Pipeline.GoodThreshold, 0.001)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
