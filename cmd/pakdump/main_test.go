package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "armor"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weapon.dat"), []byte("blade of the fae"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "armor", "helm.dat"), bytes.Repeat([]byte("helm"), 3000), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"pakdump"}, args...))
	return out.String(), err
}

func TestPackListExtract(t *testing.T) {
	src := writeSource(t)
	pak := filepath.Join(t.TempDir(), "test.pak")
	_, err := run(t, "pack", "--log-level", "error", src, pak)
	require.NoError(t, err)

	listing, err := run(t, "list", "--log-level", "error", pak)
	require.NoError(t, err)
	assert.Contains(t, listing, "weapon.dat")
	assert.Contains(t, listing, "armor/helm.dat")
	assert.Contains(t, listing, "2 files, 0 special entries")

	dest := filepath.Join(t.TempDir(), "dump")
	_, err = run(t, "extract", "--log-level", "error", "-o", dest, "--workers", "2", "--manifest", pak)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dest, "armor", "helm.dat"))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("helm"), 3000), got)
	assert.FileExists(t, filepath.Join(dest, "manifest.json"))
}

func TestDefaultActionExtracts(t *testing.T) {
	src := writeSource(t)
	pak := filepath.Join(t.TempDir(), "test.pak")
	_, err := run(t, "pack", "--log-level", "error", "--codec", "zstd", src, pak)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "dump")
	_, err = run(t, "--log-level", "error", "--codec", "zstd", "-o", dest, pak)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dest, "weapon.dat"))
	require.NoError(t, err)
	assert.Equal(t, "blade of the fae", string(got))
}

func TestConfigFile(t *testing.T) {
	src := writeSource(t)
	pak := filepath.Join(t.TempDir(), "test.pak")
	_, err := run(t, "pack", "--log-level", "error", "--codec", "lz4", src, pak)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "from-config")
	cfg := filepath.Join(t.TempDir(), "pakdump.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("output = \""+filepath.ToSlash(dest)+"\"\ncodec = \"lz4\"\nlog_level = \"error\"\n"), 0644))

	_, err = run(t, "extract", "--config", cfg, pak)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "weapon.dat"))
}

func TestInputErrors(t *testing.T) {
	_, err := run(t, "extract", "--log-level", "error")
	assert.ErrorContains(t, err, "no input file given")

	_, err = run(t, "list", "--log-level", "error", filepath.Join(t.TempDir(), "missing.pak"))
	assert.ErrorContains(t, err, "input file")

	_, err = run(t, "pack", "--log-level", "error", t.TempDir())
	assert.ErrorContains(t, err, "source directory and an output file")

	_, err = run(t, "extract", "--codec", "oodle", "some.pak")
	assert.ErrorContains(t, err, "unknown codec")
}

func TestCodecList(t *testing.T) {
	assert.Equal(t, []string{"aplib", "lz4", "none", "zlib", "zstd"}, codecList())
}

func TestSpecialEntriesWarnOnce(t *testing.T) {
	src := writeSource(t)
	pak := filepath.Join(t.TempDir(), "test.pak")
	_, err := run(t, "pack", "--log-level", "error", src, pak)
	require.NoError(t, err)

	// set the special entry count that follows the entry count
	data, err := os.ReadFile(pak)
	require.NoError(t, err)
	tableOff := binary.LittleEndian.Uint64(data[16:])
	binary.LittleEndian.PutUint32(data[tableOff+4:], 3)
	require.NoError(t, os.WriteFile(pak, data, 0644))

	hook := test.NewGlobal()
	defer logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	_, err = run(t, "extract", "--log-level", "warn", "-o", filepath.Join(t.TempDir(), "dump"), pak)
	require.NoError(t, err)

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}
