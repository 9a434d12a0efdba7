package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/seedvault/internal/kdf"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seedvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ".seedvault", cfg.VaultPath)
	assert.Equal(t, kdf.DefaultYieldInterval, cfg.YieldInterval)
	assert.Equal(t, "reference", cfg.Backend)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.File)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
vault:
  path: /tmp/wallet.db
kdf:
  yield_interval: 250
  backend: native
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/wallet.db", cfg.VaultPath)
	assert.Equal(t, 250, cfg.YieldInterval)
	assert.Equal(t, "native", cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, path, cfg.File)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "kdf:\n  backend: native\n")
	t.Setenv("SEEDVAULT_KDF_BACKEND", "reference")
	t.Setenv("SEEDVAULT_VAULT_PATH", "from-env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "reference", cfg.Backend)
	assert.Equal(t, "from-env.db", cfg.VaultPath)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "kdf:\n  backend: gpu\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "kdf:\n  yield_interval: -1\n"))
	assert.Error(t, err)
}

func TestDeriver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, backend := range []string{"reference", "native"} {
		cfg := &Config{VaultPath: "x", Backend: backend, YieldInterval: 10}
		d, err := cfg.Deriver()
		require.NoError(t, err)

		out, err := d.Derive(ctx, []byte("p"), []byte("s"), kdf.Params{N: 16, R: 1, P: 1, KeyLen: 16})
		require.NoError(t, err)
		assert.Len(t, out, 16)
	}
}
