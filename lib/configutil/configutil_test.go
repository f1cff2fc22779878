package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url   string `json:"url"`
	Port  int    `json:"port"`
	Debug bool   `json:"debug"`
}

func write(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0644)
	require.NoError(t, err)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"),
		`{url: "https://www.music-map.com", port: 8111}`)
	write(t, filepath.Join(dir, "config.local.json5"),
		`{port: 9000, debug: true}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Url:   "https://www.music-map.com",
		Port:  9000,
		Debug: true,
	}, cfg)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.local.json5"), `{url: "http://localhost"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost", cfg.Url)
}

func TestReadConfigBadSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	write(t, path, `{url: `)

	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
	require.Contains(t, err.Error(), path)
}
