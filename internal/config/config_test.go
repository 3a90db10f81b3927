package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SYNCTEAM_CONFIG_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 100, cfg.Server.RateLimit)
	require.Equal(t, 15*time.Minute, cfg.Server.RateWindow)
	require.Equal(t, "syncteam.db", cfg.DB.Path)
	require.Equal(t, "http://localhost:8080", cfg.Client.APIURL)
	require.Equal(t, 10, cfg.Client.PageSize)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncteam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  rate_window: 1m
db:
  path: /tmp/team.db
client:
  api_url: http://team.internal
  page_size: 25
`), 0o600))

	t.Setenv("SYNCTEAM_CONFIG_PATH", path)
	t.Setenv("SYNCTEAM_SERVER_PORT", "9100")
	t.Setenv("SYNCTEAM_SIMULATE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, time.Minute, cfg.Server.RateWindow)
	require.Equal(t, "/tmp/team.db", cfg.DB.Path)
	require.Equal(t, "http://team.internal", cfg.Client.APIURL)
	require.Equal(t, 25, cfg.Client.PageSize)
	require.True(t, cfg.Client.Simulate)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SYNCTEAM_SERVER_PORT", "eighty")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SYNCTEAM_SERVER_PORT", "70000")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("SYNCTEAM_SERVER_PORT", "")
	t.Setenv("SYNCTEAM_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	require.Error(t, err)
}
