package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorkers(t *testing.T) {
	want := runtime.NumCPU()
	if want > 8 {
		want = 8
	}
	if got := defaultWorkers(); got != want {
		t.Errorf("defaultWorkers() = %d, want %d", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, defaultWorkers(), cfg.Decode.Workers)
	assert.False(t, cfg.Decode.StrictCRC)
	assert.Equal(t, "./fit_export", cfg.Export.OutDir)
	assert.True(t, cfg.Export.Parquet)
	assert.False(t, cfg.Export.Zstd)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FITCODEC_DECODE_WORKERS", "3")
	t.Setenv("FITCODEC_DECODE_STRICT_CRC", "true")
	t.Setenv("FITCODEC_EXPORT_ZSTD", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Decode.Workers)
	assert.True(t, cfg.Decode.StrictCRC)
	assert.True(t, cfg.Export.Zstd)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
export:
  out_dir: /tmp/bundles
  msgpack: true
  parquet: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/bundles", cfg.Export.OutDir)
	assert.True(t, cfg.Export.Msgpack)
	assert.False(t, cfg.Export.Parquet)
}

func TestLoadSearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fitcodec.yaml"), []byte("decode:\n  workers: 5\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Decode.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Decode.Workers = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Log.Format = "xml"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Export.OutDir = " "
	assert.Error(t, bad.Validate())
}
