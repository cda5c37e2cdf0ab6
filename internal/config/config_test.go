package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codecs = map[string]bool{"aplib": true, "lz4": true}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pakdump.toml")
	require.NoError(t, os.WriteFile(path, []byte("output = \"out\"\nworkers = 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "aplib", cfg.Codec)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Manifest)
	assert.NoError(t, cfg.Validate(codecs))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("output = [\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate(codecs))

	cfg.Codec = "LZ4"
	assert.NoError(t, cfg.Validate(codecs))

	cfg = Default()
	cfg.Codec = "oodle"
	assert.Error(t, cfg.Validate(codecs))

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate(codecs))

	cfg = Default()
	cfg.Workers = 0
	assert.Error(t, cfg.Validate(codecs))

	cfg = Default()
	cfg.Output = ""
	assert.Error(t, cfg.Validate(codecs))
}
