package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SESH_SOCKET", "")
	os.Unsetenv("SESH_SOCKET")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "/run/user/1000/sesh.sock", cfg.SocketPath)
	assert.Equal(t, 500, cfg.KillGraceMs)
	assert.False(t, cfg.ExitOnEmpty)
}

func TestLoadFile(t *testing.T) {
	os.Unsetenv("SESH_SOCKET")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
socket_path: /tmp/custom.sock
kill_grace_ms: 250
exit_on_empty: true
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.sock", cfg.SocketPath)
	assert.Equal(t, 250, cfg.KillGraceMs)
	assert.True(t, cfg.ExitOnEmpty)
	assert.True(t, cfg.Debug)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("socket_path: /tmp/from-file.sock\n"), 0o644))

	t.Setenv("SESH_SOCKET", "/tmp/from-env.sock")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.sock", cfg.SocketPath)
}

func TestLoadRejectsBadGrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("kill_grace_ms: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("socket_path: [broken\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestRuntimeDirFallback(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	os.Unsetenv("XDG_RUNTIME_DIR")
	dir := RuntimeDir()
	assert.Contains(t, dir, "/tmp/sesh-")

	t.Setenv("XDG_RUNTIME_DIR", "/run/user/42")
	assert.Equal(t, "/run/user/42", RuntimeDir())
	assert.Equal(t, "/run/user/42/sesh.sock", DefaultSocketPath())
}
