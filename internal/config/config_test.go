package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServer(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lobby.yaml")
	content := "bind_address: 127.0.0.1\nport: 27000\nmax_connections: 42\nlogin_timeout: 5s\nidle_timeout: 2m\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, 27000, cfg.Port)
	assert.Equal(t, 42, cfg.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.LoginTimeout.D())
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout.D())
	assert.Equal(t, "debug", cfg.LogLevel)
}

