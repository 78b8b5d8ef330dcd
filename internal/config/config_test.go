package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = prev })
	return AppFs
}

func TestLoadConfigDefaults(t *testing.T) {
	withFs(t)
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Dataset.Source)
	assert.Equal(t, 100, cfg.Preview.RowCap)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "metrics", cfg.Telemetry.Type)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.File)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	fs := withFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/qc.yaml", []byte(`
dataset:
  source: files
  dir: fixtures
preview:
  row_cap: 25
cache:
  ttl: 30s
`), 0o644))
	t.Setenv("QUERYCRAFT_DATASET_DIR", "override")
	t.Setenv("QUERYCRAFT_DEBUG", "true")

	cfg, err := LoadConfig("/etc/qc.yaml")
	require.NoError(t, err)
	assert.Equal(t, "files", cfg.Dataset.Source)
	assert.Equal(t, "override", cfg.Dataset.Dir)
	assert.Equal(t, 25, cfg.Preview.RowCap)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/etc/qc.yaml", cfg.File)

	opts := cfg.DatasetOptions()
	assert.Equal(t, "override", opts.Dir)
	assert.Same(t, fs, opts.Fs)
	assert.Equal(t, "metrics", cfg.TelemetryOptions().Type)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	withFs(t)
	_, err := LoadConfig("/nope.yaml")
	assert.Error(t, err)
}
