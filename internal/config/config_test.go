package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate 把配置目录指向临时目录并清掉可能干扰的环境变量
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("POLYCHAT_CONFIG_HOME", dir)
	for _, key := range []string{
		"POLYCHAT_USER_NAME", "POLYCHAT_USER_TAGLINE", "POLYCHAT_STORE_KIND",
		"POLYCHAT_STORE_PATH", "POLYCHAT_STORE_URL", "POLYCHAT_STORE_TOKEN",
		"POLYCHAT_RENDERER", "POLYCHAT_LOG_LEVEL", "POLYCHAT_LOG_FILE",
		"POLYCHAT_WINDOW_SIZE", "POLYCHAT_SHOW_ALL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("USER", "iranzi")
	return dir
}

func TestGetConfigPath(t *testing.T) {
	dir := isolate(t)

	path, err := getConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)
}

func TestLoadConfigWhenNotExists(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "iranzi", cfg.User.Name)
	assert.Equal(t, StoreFile, cfg.Store.Kind)
	assert.Equal(t, filepath.Join(dir, "messages.json"), cfg.Store.Path)
	assert.Equal(t, 15, cfg.UI.WindowSize)
	assert.Equal(t, 15, cfg.UI.EffectiveWindow())
	assert.Equal(t, 150, cfg.UI.DebounceMS)
	assert.Equal(t, RendererPlain, cfg.UI.Renderer)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestSaveAndLoadConfigIntegration(t *testing.T) {
	isolate(t)

	cfg := Default()
	cfg.User.Name = "Iranzi"
	cfg.Store.Kind = StoreSQLite
	cfg.Store.Path = "/tmp/polychat-test.db"
	cfg.UI.WindowSize = 30

	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Iranzi", loaded.User.Name)
	assert.Equal(t, StoreSQLite, loaded.Store.Kind)
	assert.Equal(t, "/tmp/polychat-test.db", loaded.Store.Path)
	assert.Equal(t, 30, loaded.UI.WindowSize)
}

func TestSQLiteDefaultPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  kind: sqlite\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "messages.db"), cfg.Store.Path)
}

func TestShowAll(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  show_all: true\n  window_size: 20\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.UI.EffectiveWindow())
}

func TestEnvOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("POLYCHAT_USER_NAME", "Env User")
	t.Setenv("POLYCHAT_STORE_KIND", "http")
	t.Setenv("POLYCHAT_STORE_URL", "http://localhost:9000/messages")
	t.Setenv("POLYCHAT_WINDOW_SIZE", "5")

	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Env User", cfg.User.Name)
	assert.Equal(t, StoreHTTP, cfg.Store.Kind)
	assert.Equal(t, "http://localhost:9000/messages", cfg.Store.URL)
	assert.Equal(t, 5, cfg.UI.EffectiveWindow())
}

func TestEnvWindowZeroShowsAll(t *testing.T) {
	dir := isolate(t)
	t.Setenv("POLYCHAT_WINDOW_SIZE", "0")

	cfg, err := LoadFrom(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.UI.EffectiveWindow())
}

func TestEnvInvalidWindow(t *testing.T) {
	dir := isolate(t)
	t.Setenv("POLYCHAT_WINDOW_SIZE", "lots")

	_, err := LoadFrom(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("invalid: yaml: content: [}"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"http without url", func(c *Config) { c.Store.Kind = StoreHTTP }, false},
		{"http with url", func(c *Config) { c.Store.Kind = StoreHTTP; c.Store.URL = "http://x" }, true},
		{"unknown store", func(c *Config) { c.Store.Kind = "redis" }, false},
		{"unknown renderer", func(c *Config) { c.UI.Renderer = "html" }, false},
		{"negative window", func(c *Config) { c.UI.WindowSize = -1 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
