package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "ndjson", cfg.Format)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.Disabled)
	assert.EqualValues(t, 10<<20, cfg.Log.MaxSegmentSize)
	assert.Equal(t, 512<<10, cfg.Log.MaxPayloadSize)
	assert.Equal(t, 256, cfg.Log.MaxSessionID)
	assert.Equal(t, "per-record", cfg.Log.Flush)
	assert.False(t, cfg.Log.CompressSealed)
	assert.Equal(t, 5, cfg.Log.MaxSealedSegments)
}

func TestDirsDeriveFromDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/tmp/hooklog-test"
	assert.Equal(t, filepath.Join("/tmp/hooklog-test", "events"), cfg.EventsDir())
	assert.Equal(t, filepath.Join("/tmp/hooklog-test", "sessions"), cfg.SessionsDir())
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(origDir)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "ndjson", cfg.Format)
		assert.Equal(t, "per-record", cfg.Log.Flush)
	})

	t.Run("loads config from file", func(t *testing.T) {
		tmpDir := t.TempDir()

		configContent := `
format: text
quiet: true
data_dir: /var/lib/hooklog
log:
  max_segment_size: 1048576
  max_payload_size: 262144
  flush: buffered
  compress_sealed: true
`
		configPath := filepath.Join(tmpDir, "hooklog.yaml")
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "text", cfg.Format)
		assert.True(t, cfg.Quiet)
		assert.Equal(t, "/var/lib/hooklog", cfg.DataDir)
		assert.EqualValues(t, 1048576, cfg.Log.MaxSegmentSize)
		assert.Equal(t, 262144, cfg.Log.MaxPayloadSize)
		assert.Equal(t, "buffered", cfg.Log.Flush)
		assert.True(t, cfg.Log.CompressSealed)
		// Untouched keys keep their defaults.
		assert.Equal(t, 256, cfg.Log.MaxSessionID)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestKillSwitchFromEnv(t *testing.T) {
	t.Setenv("HOOKLOG_DISABLED", "1")

	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(origDir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Disabled)
}
