package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.json5")
	require.NoError(t, os.WriteFile(base, []byte(`{name: "base", level: 1}`), 0o644))

	cfg, err := ReadConfig[testConfig](base)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Level: 1}, cfg)
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.json5")
	require.NoError(t, os.WriteFile(base, []byte(`{name: "base", level: 1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.local.json5"), []byte(`{level: 2}`), 0o644))

	cfg, err := ReadConfig[testConfig](base)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Level: 2}, cfg)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.local.json5"), []byte(`{name: "local"}`), 0o644))

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "app.json5"))
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Name)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "app.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
