package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".tabula", "datasets"), c.DataDir)
	assert.Equal(t, 100, c.InferSampleRows)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 0, c.MaxRows)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Empty(t, c.SeqURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgPath := filepath.Join(home, "tabula.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("workers: 8\nlog_level: debug\ndata_dir: ~/sets\n"), 0o644))
	t.Setenv("TABULA_LOG_LEVEL", "warn")

	c, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, filepath.Join(home, "sets"), c.DataDir)
}

func TestLoadMissingExplicitFileIsOptional(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	c.Workers = 2
	c.SeqURL = "http://localhost:5341"
	require.NoError(t, Save(c, ""))
	assert.FileExists(t, filepath.Join(home, ".tabula", "config.yaml"))

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Workers)
	assert.Equal(t, "http://localhost:5341", again.SeqURL)
}
